package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/menuboard/internal/domain"
)

type ListLogsInput struct {
	Limit int `query:"limit" doc:"Maximum records to return (default 100, capped at 200)"`
}

type ListLogsOutput struct {
	Body []*domain.AuditRecord
}

func RegisterAuditRoutes(api huma.API, auditLog AuditLog) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-list-logs",
		Method:      http.MethodGet,
		Path:        "/admin/logs",
		Summary:     "List recent menu audit records, newest first",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ListLogsInput) (*ListLogsOutput, error) {
		recs, err := auditLog.ListRecent(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit records", err)
		}
		if recs == nil {
			recs = []*domain.AuditRecord{}
		}
		return &ListLogsOutput{Body: recs}, nil
	})
}
