package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	specOTPPurge      = "0 */10 * * * *"
	specAuditPrune    = "0 0 3 * * *"
	specGaugeRefresh  = "0 * * * * *"
	specProgramEndLog = "0 0 0 * * *"
)

type OTPTask interface {
	PurgeExpired()
}

type AuditTask interface {
	PruneOld()
}

type MetricsTask interface {
	RefreshGauges()
}

type ProgramTask interface {
	CheckEndDate()
}

type Deps struct {
	OTPJob     OTPTask
	AuditJob   AuditTask
	MetricsJob MetricsTask
	ProgramJob ProgramTask
}

func NewScheduler(deps Deps, logger *zap.Logger) *cron.Cron {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if deps.OTPJob != nil {
		addFunc(c, specOTPPurge, "otp.purge_expired", logger, deps.OTPJob.PurgeExpired)
	}
	if deps.AuditJob != nil {
		addFunc(c, specAuditPrune, "audit.prune_old", logger, deps.AuditJob.PruneOld)
	}
	if deps.MetricsJob != nil {
		addFunc(c, specGaugeRefresh, "metrics.refresh_gauges", logger, deps.MetricsJob.RefreshGauges)
	}
	if deps.ProgramJob != nil {
		addFunc(c, specProgramEndLog, "program.check_end_date", logger, deps.ProgramJob.CheckEndDate)
	}

	return c
}

func addFunc(c *cron.Cron, spec string, name string, logger *zap.Logger, fn func()) {
	if c == nil || fn == nil {
		return
	}

	if _, err := c.AddFunc(spec, func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", zap.String("job", name), zap.Duration("cost", time.Since(start)))
	}); err != nil {
		logger.Error("register scheduler job failed",
			zap.String("job", name),
			zap.String("spec", spec),
			zap.Error(err),
		)
	}
}

func recoverJobPanic(jobName string, logger *zap.Logger) {
	if logger == nil {
		return
	}

	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			zap.String("job", jobName),
			zap.Any("panic", recovered),
		)
	}
}
