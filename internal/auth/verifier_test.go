package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/menuboard/internal/auth"
	"github.com/gosuda/menuboard/internal/domain"
)

func TestJWTVerifier(t *testing.T) {
	t.Parallel()

	secret := "verifier-secret-that-is-long-enough"
	v := auth.NewJWTVerifier(secret)

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		token, err := auth.IssueAccessToken(secret, uid, "chef@bistro.test", "admin", time.Minute)
		require.NoError(t, err)

		id, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, uid.String(), id.Subject)
		assert.Equal(t, "chef@bistro.test", id.Email)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		_, err := v.Verify(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken(secret, uuid.New(), "chef@bistro.test", "admin", -time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})

	t.Run("token without email", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken(secret, uuid.New(), "", "admin", time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})
}

func TestSessionVerifier(t *testing.T) {
	t.Parallel()

	newBackend := func(t *testing.T, status int, body string) *httptest.Server {
		t.Helper()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/user", r.URL.Path)
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("active session", func(t *testing.T) {
		t.Parallel()

		srv := newBackend(t, http.StatusOK, `{"id":"u-1","email":"chef@bistro.test","role":"authenticated"}`)
		v := auth.NewSessionVerifier(srv.URL, "anon-key", srv.Client())

		id, err := v.Verify(context.Background(), "session-token")
		require.NoError(t, err)
		assert.Equal(t, "u-1", id.Subject)
		assert.Equal(t, "chef@bistro.test", id.Email)
		assert.Equal(t, "authenticated", id.Role)
	})

	t.Run("rejected session", func(t *testing.T) {
		t.Parallel()

		srv := newBackend(t, http.StatusUnauthorized, `{"msg":"invalid JWT"}`)
		v := auth.NewSessionVerifier(srv.URL, "anon-key", srv.Client())

		_, err := v.Verify(context.Background(), "session-token")
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})

	t.Run("backend outage is not a credential error", func(t *testing.T) {
		t.Parallel()

		srv := newBackend(t, http.StatusBadGateway, ``)
		v := auth.NewSessionVerifier(srv.URL, "anon-key", srv.Client())

		_, err := v.Verify(context.Background(), "session-token")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidCredential)
		assert.NotErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("session without email", func(t *testing.T) {
		t.Parallel()

		srv := newBackend(t, http.StatusOK, `{"id":"u-2"}`)
		v := auth.NewSessionVerifier(srv.URL, "anon-key", srv.Client())

		_, err := v.Verify(context.Background(), "session-token")
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})

	t.Run("empty token skips the network", func(t *testing.T) {
		t.Parallel()

		v := auth.NewSessionVerifier("http://127.0.0.1:1", "anon-key", nil)

		_, err := v.Verify(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})
}
