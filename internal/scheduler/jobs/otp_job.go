package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

type OTPJob struct {
	otpRepo repository.OTPRepository
	logger  *zap.Logger
}

func NewOTPJob(otpRepo repository.OTPRepository, logger *zap.Logger) *OTPJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OTPJob{
		otpRepo: otpRepo,
		logger:  logger,
	}
}

func (j *OTPJob) PurgeExpired() {
	if j == nil || j.otpRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := j.otpRepo.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Warn("otp purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		j.logger.Debug("expired otps purged", zap.Int64("count", purged))
	}
}
