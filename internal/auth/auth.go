// Package auth handles admin sign-in against the external identity provider
// and issues the session tokens the API validates on every request.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"enquiry-admin/internal/client"
	"enquiry-admin/internal/config"
)

// SignInError is a user-facing authentication failure. Message is safe to
// render inline on the login form.
type SignInError struct {
	Code    string
	Message string
}

func (e *SignInError) Error() string {
	return e.Message
}

// Known identity-provider error codes mapped to inline messages. Anything
// unrecognized falls back to a generic message.
var signInMessages = map[string]string{
	"INVALID_LOGIN_CREDENTIALS":   "Invalid email or password. Please check your credentials.",
	"INVALID_PASSWORD":            "Incorrect password.",
	"EMAIL_NOT_FOUND":             "User not found.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many failed attempts. Please try again later.",
}

const genericSignInMessage = "Failed to sign in."

// ErrNotAdmin is returned when role enforcement is on and the signed-in
// identity has no admin role document.
var ErrNotAdmin = &SignInError{
	Code:    "NOT_ADMIN",
	Message: "You do not have administrator permissions for this dashboard.",
}

// Claims is the session token payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	http        *http.Client
	identityURL string
	apiKey      string
	secret      []byte
	ttl         time.Duration
	enforceRole bool
	admins      string
	store       *client.DocumentStore
	logger      *logrus.Logger
}

func NewService(cfg *config.Config, store *client.DocumentStore, logger *logrus.Logger) *Service {
	return &Service{
		http:        &http.Client{Timeout: cfg.HTTPTimeout},
		identityURL: cfg.IdentityURL,
		apiKey:      cfg.IdentityAPIKey,
		secret:      []byte(cfg.JWTSecret),
		ttl:         cfg.SessionTTL,
		enforceRole: cfg.AdminRoleEnforce,
		admins:      cfg.AdminsCollection,
		store:       store,
		logger:      logger,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type identityError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn verifies the credentials with the identity provider, runs the
// admin-role check, and returns a session token. The role check is advisory
// unless enforcement is configured: a missing or mismatched admins document
// then only produces a diagnostic warning.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	identity, err := s.verifyCredentials(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return "", err
	}

	if err := s.checkAdminRole(ctx, identity.LocalID); err != nil {
		if s.enforceRole {
			s.logger.WithFields(logrus.Fields{
				"uid":   identity.LocalID,
				"error": err.Error(),
			}).Warn("Admin role check failed; access denied")
			return "", ErrNotAdmin
		}
		s.logger.WithFields(logrus.Fields{
			"uid":   identity.LocalID,
			"error": err.Error(),
		}).Warn("Admin role check failed; access is advisory-only")
	}

	return s.issueToken(identity.LocalID, identity.Email)
}

func (s *Service) verifyCredentials(ctx context.Context, email, password string) (*signInResponse, error) {
	payload, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	url := s.identityURL
	if s.apiKey != "" {
		url = fmt.Sprintf("%s?key=%s", s.identityURL, s.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "identity provider unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if resp.StatusCode != http.StatusOK {
		var idErr identityError
		code := ""
		if json.Unmarshal(body, &idErr) == nil {
			code = idErr.Error.Message
		}
		return nil, mapSignInError(code)
	}

	var identity signInResponse
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, errors.WithStack(err)
	}
	return &identity, nil
}

func mapSignInError(code string) *SignInError {
	// Codes may carry a suffix like "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
	base := strings.TrimSpace(strings.SplitN(code, ":", 2)[0])
	if msg, ok := signInMessages[base]; ok {
		return &SignInError{Code: base, Message: msg}
	}
	return &SignInError{Code: base, Message: genericSignInMessage}
}

// checkAdminRole reads admins/<uid> from the record store and expects
// role == "admin" on it.
func (s *Service) checkAdminRole(ctx context.Context, uid string) error {
	doc, err := s.store.GetDocument(ctx, s.admins, uid)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return errors.Errorf("no admin document for uid %s", uid)
		}
		return errors.Wrap(err, "verify admin status")
	}

	role, _ := doc["role"].(string)
	if role != "admin" {
		return errors.Errorf("role is %q, expected \"admin\"", role)
	}
	return nil
}

func (s *Service) issueToken(uid, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

// VerifyToken parses and validates a session token.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// Context keys set by the middleware.
const (
	ContextUID   = "uid"
	ContextEmail = "email"
)

// Middleware validates the Bearer token and stores the admin identity on
// the request context.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := s.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(ContextUID, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}
