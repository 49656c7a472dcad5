package service

import (
	"context"

	"stockly/internal/model"
	"stockly/internal/repository"
)

type AuditService interface {
	ListLogs(ctx context.Context, page, limit int, action string) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListLogs(ctx context.Context, page, limit int, action string) ([]model.AuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.auditRepo.List(ctx, page, limit, action)
}
