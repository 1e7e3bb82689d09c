package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

const defaultAuditRetention = 180 * 24 * time.Hour

type AuditJob struct {
	auditRepo repository.AuditRepository
	retention time.Duration
	logger    *zap.Logger
}

func NewAuditJob(auditRepo repository.AuditRepository, retention time.Duration, logger *zap.Logger) *AuditJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = defaultAuditRetention
	}

	return &AuditJob{
		auditRepo: auditRepo,
		retention: retention,
		logger:    logger,
	}
}

func (j *AuditJob) PruneOld() {
	if j == nil || j.auditRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.retention)
	pruned, err := j.auditRepo.PruneBefore(ctx, cutoff)
	if err != nil {
		j.logger.Warn("audit prune failed", zap.Error(err))
		return
	}
	if pruned > 0 {
		j.logger.Info("old audit logs pruned",
			zap.Int64("count", pruned),
			zap.Time("cutoff", cutoff),
		)
	}
}
