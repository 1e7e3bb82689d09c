package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

// ProgramJob watches the campaign deadline and warns operators once
// the window closes. Signups and claims stay open; closing them is an
// operator decision, not an automatic one.
type ProgramJob struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewProgramJob(settingsService *service.SettingsService, logger *zap.Logger) *ProgramJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProgramJob{
		settingsService: settingsService,
		logger:          logger,
	}
}

func (j *ProgramJob) CheckEndDate() {
	if j == nil || j.settingsService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	endDate, err := j.settingsService.ProgramEndDate(ctx)
	if err != nil {
		j.logger.Warn("program end date check failed", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	if now.After(endDate) {
		j.logger.Warn("program end date has passed",
			zap.Time("end_date", endDate),
			zap.Duration("overdue", now.Sub(endDate)),
		)
		return
	}

	j.logger.Debug("program window open",
		zap.Time("end_date", endDate),
		zap.Duration("remaining", endDate.Sub(now)),
	)
}
