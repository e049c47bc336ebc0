package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"enquiry-admin/internal/config"
	"enquiry-admin/internal/models"
)

// ErrPermissionDenied marks a 401/403 from the record store. Callers treat
// it as a fail-closed authorization error: the session must not retain
// access to any loaded data.
var ErrPermissionDenied = errors.New("record store denied access")

// ErrNotFound marks a missing document.
var ErrNotFound = errors.New("document not found")

// HTTPClient is a thin retrying JSON client shared by the record store and
// the notification webhook. Retries use quadratic backoff and only apply to
// transport errors and 5xx responses.
type HTTPClient struct {
	client        *http.Client
	retryAttempts int
	logger        *logrus.Logger
}

func NewHTTPClient(cfg *config.Config, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retryAttempts: cfg.RetryAttempts,
		logger:        logger,
	}
}

// GetJSON fetches url and decodes the response body into target.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, target any) error {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoff,
				"url":     url,
			}).Warn("Retrying request after backoff")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.WithStack(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return ErrPermissionDenied
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return ErrNotFound
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("client error: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body, target); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return errors.Wrap(lastErr, "all retry attempts failed")
}

// PostJSON sends body to url with the given extra headers. Non-2xx client
// responses fail immediately, 5xx and transport errors are retried.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body []byte, headers map[string]string) error {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return errors.WithStack(err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("client error: %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
	}

	return errors.Wrap(lastErr, "request failed after retries")
}

// DocumentStore reads collections from the external record store's REST
// surface. The full contents of a collection are pulled per call; no
// server-side filtering or pagination is requested.
type DocumentStore struct {
	http    *HTTPClient
	baseURL string
	logger  *logrus.Logger
}

func NewDocumentStore(cfg *config.Config, httpClient *HTTPClient, logger *logrus.Logger) *DocumentStore {
	return &DocumentStore{
		http:    httpClient,
		baseURL: cfg.StoreBaseURL,
		logger:  logger,
	}
}

type collectionResponse struct {
	Documents []models.RawRecord `json:"documents"`
}

// ListCollection returns every document in the named collection.
func (s *DocumentStore) ListCollection(ctx context.Context, name string) ([]models.RawRecord, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, name)

	var body json.RawMessage
	if err := s.http.GetJSON(ctx, url, &body); err != nil {
		return nil, errors.Wrapf(err, "list collection %s", name)
	}

	// Some deployments serve a bare array instead of the wrapper object.
	var wrapped collectionResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		if errBare := json.Unmarshal(body, &wrapped.Documents); errBare != nil {
			return nil, errors.Wrapf(err, "decode collection %s", name)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"collection": name,
		"records":    len(wrapped.Documents),
	}).Info("Fetched collection")
	return wrapped.Documents, nil
}

// GetDocument returns a single document by id, ErrNotFound when absent.
func (s *DocumentStore) GetDocument(ctx context.Context, collection, id string) (models.RawRecord, error) {
	url := fmt.Sprintf("%s/%s/%s", s.baseURL, collection, id)

	var doc models.RawRecord
	if err := s.http.GetJSON(ctx, url, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
