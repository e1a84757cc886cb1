package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/gosuda/menuboard/internal/domain"
)

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

const (
	msgMissingCredential = "missing bearer credential"
	msgInvalidCredential = "invalid or expired credential"
)

// Auth requires a bearer credential accepted by v and stores the resulting
// identity in the request context. Browsers cannot set headers on WebSocket
// handshakes, so upgrade requests may pass the token as ?access_token=.
func Auth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && isWebSocketUpgrade(r) {
				tok = r.URL.Query().Get("access_token")
			}
			if tok == "" {
				writeError(w, http.StatusUnauthorized, msgMissingCredential)
				return
			}

			id, err := v.Verify(r.Context(), tok)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
			case errors.Is(err, domain.ErrMissingCredential):
				writeError(w, http.StatusUnauthorized, msgMissingCredential)
			case errors.Is(err, domain.ErrInvalidCredential):
				writeError(w, http.StatusUnauthorized, msgInvalidCredential)
			default:
				hlog.FromRequest(r).Error().Err(err).Msg("auth: verify credential")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// writeError emits the API's {"error": "..."} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
