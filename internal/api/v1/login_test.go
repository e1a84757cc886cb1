package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/menuboard/internal/api/v1"
	"github.com/gosuda/menuboard/internal/auth"
)

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterLoginRoutes(api, &mockAuthService{
			loginFunc: func(_ context.Context, email, password string) (string, error) {
				assert.Equal(t, "admin@example.com", email)
				assert.Equal(t, "hunter22", password)
				return "signed.jwt.token", nil
			},
		})

		resp := api.Post("/login", map[string]any{
			"email":    "admin@example.com",
			"password": "hunter22",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		var body struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "signed.jwt.token", body.Token)
	})

	t.Run("wrong_credentials", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterLoginRoutes(api, &mockAuthService{
			loginFunc: func(context.Context, string, string) (string, error) {
				return "", auth.ErrInvalidCredentials
			},
		})

		resp := api.Post("/login", map[string]any{
			"email":    "admin@example.com",
			"password": "nope",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "invalid email or password", decodeError(t, resp).Error)
	})

	t.Run("missing_password", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterLoginRoutes(api, &mockAuthService{})

		resp := api.Post("/login", map[string]any{"email": "admin@example.com"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("backend_error", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterLoginRoutes(api, &mockAuthService{
			loginFunc: func(context.Context, string, string) (string, error) {
				return "", errors.New("db: timeout")
			},
		})

		resp := api.Post("/login", map[string]any{
			"email":    "admin@example.com",
			"password": "pw",
		})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
