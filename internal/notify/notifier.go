// Package notify delivers the outbound webhook call fired when a new
// enquiry is created. Delivery is best-effort: a failure is reported to the
// caller and logged, but never blocks or rolls back the local save.
package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"enquiry-admin/internal/client"
	"enquiry-admin/internal/models"
)

type Notifier struct {
	http    *client.HTTPClient
	url     string
	secret  string
	pageURL string
	logger  *logrus.Logger
}

func New(url, secret, pageURL string, httpClient *client.HTTPClient, logger *logrus.Logger) *Notifier {
	return &Notifier{
		http:    httpClient,
		url:     url,
		secret:  secret,
		pageURL: pageURL,
		logger:  logger,
	}
}

type payload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	State       string `json:"state"`
	City        string `json:"city"`
	Org         string `json:"org"`
	Designation string `json:"designation"`
	PageURL     string `json:"page_url"`
}

// EnquiryCreated posts the new record's fields to the webhook. Only fired
// on creation, never on edits.
func (n *Notifier) EnquiryCreated(ctx context.Context, e models.Enquiry) error {
	body, err := json.Marshal(payload{
		Name:        e.Name,
		Email:       e.Email,
		Phone:       e.Phone,
		Status:      e.Status,
		State:       e.State,
		City:        e.City,
		Org:         e.Org,
		Designation: e.Designation,
		PageURL:     n.pageURL,
	})
	if err != nil {
		return err
	}

	headers := map[string]string{
		"X-Signature": n.Signature(body),
	}
	if err := n.http.PostJSON(ctx, n.url, body, headers); err != nil {
		n.logger.WithError(err).WithField("enquiry_id", e.ID).Warn("Webhook notification failed")
		return err
	}

	n.logger.WithField("enquiry_id", e.ID).Info("Webhook notification delivered")
	return nil
}

// Signature computes the sha256= HMAC header for a payload.
func (n *Notifier) Signature(body []byte) string {
	h := hmac.New(sha256.New, []byte(n.secret))
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
