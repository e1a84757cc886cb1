package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/menuboard/internal/domain"
	"github.com/gosuda/menuboard/internal/server/middleware"
)

// ErrorBody is the wire shape of every API error.
type ErrorBody struct {
	status  int
	Message string   `json:"error" doc:"Human-readable error message"`
	Details []string `json:"details,omitempty" doc:"Per-field validation failures"`
}

func (e *ErrorBody) Error() string {
	return e.Message
}

func (e *ErrorBody) GetStatus() int {
	return e.status
}

func init() {
	huma.NewError = newError
}

// newError replaces huma's RFC 9457 problem body with {"error": ...}. Request
// validation failures are reported as 400. Causes of 5xx errors are logged
// and never sent to the client.
func newError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	body := &ErrorBody{status: status, Message: msg}

	if status >= http.StatusInternalServerError {
		if len(errs) > 0 {
			evt := log.Error().Int("status", status)
			for _, err := range errs {
				if err != nil {
					evt = evt.AnErr("cause", err)
				}
			}
			evt.Msg(msg)
		}
		return body
	}

	for _, err := range errs {
		if err == nil {
			continue
		}
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			d := detailer.ErrorDetail()
			if d.Location != "" {
				body.Details = append(body.Details, d.Location+": "+d.Message)
				continue
			}
			body.Details = append(body.Details, d.Message)
			continue
		}
		body.Details = append(body.Details, err.Error())
	}

	return body
}

// menuError maps a menu service error to an API error.
func menuError(err error, action string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest("validation failed", verr)
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("menu item not found")
	default:
		return huma.Error500InternalServerError("failed to "+action, err)
	}
}

// actor returns the identity the auth middleware stored for this request.
func actor(ctx context.Context) (*domain.Identity, error) {
	id, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing bearer credential")
	}
	return id, nil
}
