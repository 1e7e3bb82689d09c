package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/metrics"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

// MetricsJob refreshes the membership gauges from the database so
// Prometheus sees absolute counts, not just deltas since boot.
type MetricsJob struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewMetricsJob(userRepo repository.UserRepository, logger *zap.Logger) *MetricsJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MetricsJob{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (j *MetricsJob) RefreshGauges() {
	if j == nil || j.userRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	total, err := j.userRepo.Count(ctx, repository.UserListFilter{})
	if err != nil {
		j.logger.Warn("user count refresh failed", zap.Error(err))
		return
	}
	metrics.SetRegisteredUsers(total)

	byTier, err := j.userRepo.CountByTier(ctx)
	if err != nil {
		j.logger.Warn("tier count refresh failed", zap.Error(err))
		return
	}
	for tier, count := range byTier {
		metrics.SetClubTierMembers(tier, count)
	}
}
