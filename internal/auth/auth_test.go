package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"enquiry-admin/internal/client"
	"enquiry-admin/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newService(t *testing.T, identityURL, storeURL string, enforce bool) *Service {
	t.Helper()
	cfg := &config.Config{
		StoreBaseURL:     storeURL,
		AdminsCollection: "admins",
		IdentityURL:      identityURL,
		JWTSecret:        "test-secret",
		SessionTTL:       time.Hour,
		AdminRoleEnforce: enforce,
		HTTPTimeout:      5 * time.Second,
		RetryAttempts:    1,
	}
	logger := testLogger()
	store := client.NewDocumentStore(cfg, client.NewHTTPClient(cfg, logger), logger)
	return NewService(cfg, store, logger)
}

func identityServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
}

func adminStoreServer(role string, found bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"role": role})
	}))
}

func TestSignInIssuesVerifiableToken(t *testing.T) {
	identity := identityServer(t, http.StatusOK, map[string]any{
		"localId": "uid-123",
		"email":   "admin@example.com",
	})
	defer identity.Close()
	store := adminStoreServer("admin", true)
	defer store.Close()

	svc := newService(t, identity.URL, store.URL, true)
	token, err := svc.SignIn(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "uid-123", claims.Subject)
	require.Equal(t, "admin@example.com", claims.Email)
}

func TestSignInMapsKnownErrorCodes(t *testing.T) {
	cases := []struct {
		code    string
		message string
	}{
		{"EMAIL_NOT_FOUND", "User not found."},
		{"INVALID_PASSWORD", "Incorrect password."},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", "Too many failed attempts. Please try again later."},
		{"SOMETHING_NEW", "Failed to sign in."},
	}

	for _, tc := range cases {
		identity := identityServer(t, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": tc.code},
		})

		svc := newService(t, identity.URL, "http://unused", false)
		_, err := svc.SignIn(context.Background(), "a@b.c", "bad")

		var signInErr *SignInError
		require.ErrorAs(t, err, &signInErr)
		require.Equal(t, tc.message, signInErr.Message, "code %s", tc.code)
		identity.Close()
	}
}

func TestSignInErrorCodeSuffixStripped(t *testing.T) {
	err := mapSignInError("TOO_MANY_ATTEMPTS_TRY_LATER : Access temporarily disabled.")
	require.Equal(t, "TOO_MANY_ATTEMPTS_TRY_LATER", err.Code)
	require.Equal(t, "Too many failed attempts. Please try again later.", err.Message)
}

func TestRoleEnforcementDeniesMissingAdminDoc(t *testing.T) {
	identity := identityServer(t, http.StatusOK, map[string]any{
		"localId": "uid-x", "email": "x@example.com",
	})
	defer identity.Close()
	store := adminStoreServer("", false)
	defer store.Close()

	svc := newService(t, identity.URL, store.URL, true)
	_, err := svc.SignIn(context.Background(), "x@example.com", "pw")
	require.ErrorIs(t, err, ErrNotAdmin)
}

func TestAdvisoryModeAllowsMissingAdminDoc(t *testing.T) {
	identity := identityServer(t, http.StatusOK, map[string]any{
		"localId": "uid-x", "email": "x@example.com",
	})
	defer identity.Close()
	store := adminStoreServer("viewer", true)
	defer store.Close()

	svc := newService(t, identity.URL, store.URL, false)
	token, err := svc.SignIn(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := newService(t, "http://unused", "http://unused", false)
	svc.ttl = -time.Minute

	token, err := svc.issueToken("uid", "a@b.c")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.Error(t, err)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	svc := newService(t, "http://unused", "http://unused", false)
	token, err := svc.issueToken("uid", "a@b.c")
	require.NoError(t, err)

	other := newService(t, "http://unused", "http://unused", false)
	other.secret = []byte("different")
	_, err = other.VerifyToken(token)
	require.Error(t, err)
}
