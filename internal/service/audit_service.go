package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

const (
	auditListDefaultPage = 1
	auditListDefaultSize = 20
	auditListMaxPageSize = 200
)

type AuditFilter struct {
	ActorID      *uuid.UUID
	Action       *string
	ActorType    *model.ActorType
	ResourceType *string
	StartTime    *time.Time
	EndTime      *time.Time
}

type AuditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

func (s *AuditService) List(ctx context.Context, page, pageSize int, filter AuditFilter) ([]*model.AuditLog, int64, error) {
	page, pageSize = normalizeAuditPagination(page, pageSize)

	repoFilter := repository.AuditListFilter{
		ActorID:      filter.ActorID,
		Action:       trimAuditStringPtr(filter.Action),
		ActorType:    filter.ActorType,
		ResourceType: trimAuditStringPtr(filter.ResourceType),
		StartTime:    filter.StartTime,
		EndTime:      filter.EndTime,
		Pagination: repository.Pagination{
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		},
	}

	logs, err := s.auditRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func normalizeAuditPagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = auditListDefaultPage
	}
	if pageSize <= 0 {
		pageSize = auditListDefaultSize
	}
	if pageSize > auditListMaxPageSize {
		pageSize = auditListMaxPageSize
	}
	return page, pageSize
}

func trimAuditStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
