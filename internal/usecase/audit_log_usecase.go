package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// AuditLogQuery は一覧の絞り込み（空文字は条件なし）。
type AuditLogQuery struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

type AuditLogListResponse struct {
	Items []model.AuditLog `json:"items"`
}

type AuditLogUsecase struct {
	auditLogRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditLogRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditLogRepo: auditLogRepo}
}

func (u *AuditLogUsecase) List(ctx context.Context, adminUserID string, q AuditLogQuery) (AuditLogListResponse, error) {
	if err := requireUser(adminUserID); err != nil {
		return AuditLogListResponse{}, err
	}
	if q.Limit < 0 || q.Offset < 0 {
		return AuditLogListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}

	filter := repo.AuditLogFilter{Limit: q.Limit, Offset: q.Offset}
	if s := strings.TrimSpace(q.ActorUserID); s != "" {
		filter.ActorUserID = &s
	}
	if s := strings.TrimSpace(q.Action); s != "" {
		a := model.AuditAction(strings.ToUpper(s))
		filter.Action = &a
	}
	if s := strings.TrimSpace(q.ResourceType); s != "" {
		rt := model.AuditResourceType(strings.ToLower(s))
		filter.ResourceType = &rt
	}
	if s := strings.TrimSpace(q.ResourceID); s != "" {
		filter.ResourceID = &s
	}

	logs, err := u.auditLogRepo.List(ctx, filter)
	if err != nil {
		return AuditLogListResponse{}, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListResponse{Items: logs}, nil
}
