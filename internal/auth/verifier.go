package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gosuda/menuboard/internal/domain"
)

// Verifier turns a bearer token into an authenticated identity. Exactly one
// implementation is wired per deployment.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// JWTVerifier checks self-issued HS256 tokens locally.
type JWTVerifier struct {
	secret string
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrMissingCredential
	}

	claims, err := ValidateToken(v.secret, token)
	if err != nil {
		return nil, fmt.Errorf("auth.JWTVerifier.Verify: %w", domain.ErrInvalidCredential)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("auth.JWTVerifier.Verify: no email claim: %w", domain.ErrInvalidCredential)
	}

	return &domain.Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// SessionVerifier resolves tokens against a hosted identity backend
// (GoTrue-compatible /auth/v1/user endpoint).
type SessionVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

const sessionLookupTimeout = 10 * time.Second

// NewSessionVerifier creates a verifier for the identity backend at baseURL.
// A nil client uses one with a 10s timeout.
func NewSessionVerifier(baseURL, apiKey string, client *http.Client) *SessionVerifier {
	if client == nil {
		client = &http.Client{Timeout: sessionLookupTimeout}
	}
	return &SessionVerifier{baseURL: baseURL, apiKey: apiKey, client: client}
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (v *SessionVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth.SessionVerifier.Verify: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth.SessionVerifier.Verify: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("auth.SessionVerifier.Verify: %w", domain.ErrInvalidCredential)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth.SessionVerifier.Verify: identity backend returned %d", resp.StatusCode)
	}

	var u sessionUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&u); err != nil {
		return nil, fmt.Errorf("auth.SessionVerifier.Verify: decode: %w", err)
	}
	if u.Email == "" {
		return nil, fmt.Errorf("auth.SessionVerifier.Verify: no email on session: %w", domain.ErrInvalidCredential)
	}

	return &domain.Identity{Subject: u.ID, Email: u.Email, Role: u.Role}, nil
}
