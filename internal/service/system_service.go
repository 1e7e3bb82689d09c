package service

import (
	"context"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

type SystemStatus struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemPercent    float64 `json:"mem_percent"`
	MemTotalBytes uint64  `json:"mem_total_bytes"`
	DiskPercent   float64 `json:"disk_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	DBConnsTotal  int32   `json:"db_conns_total"`
	DBConnsIdle   int32   `json:"db_conns_idle"`
	CollectedAt   string  `json:"collected_at"`
}

// SystemService reports host and pool health for the back office. Each
// probe failure degrades to a zero value instead of failing the whole
// snapshot.
type SystemService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSystemService(pool *pgxpool.Pool, logger *zap.Logger) *SystemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemService{pool: pool, logger: logger}
}

func (s *SystemService) Status(ctx context.Context) *SystemStatus {
	status := &SystemStatus{
		Goroutines:  runtime.NumGoroutine(),
		CollectedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if values, err := cpu.PercentWithContext(ctx, 250*time.Millisecond, false); err == nil && len(values) > 0 {
		status.CPUPercent = values[0]
	} else if err != nil {
		s.logger.Debug("cpu probe failed", zap.Error(err))
	}

	if stat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status.MemPercent = stat.UsedPercent
		status.MemTotalBytes = stat.Total
	} else {
		s.logger.Debug("memory probe failed", zap.Error(err))
	}

	if usage, err := disk.UsageWithContext(ctx, "/"); err == nil {
		status.DiskPercent = usage.UsedPercent
	} else {
		s.logger.Debug("disk probe failed", zap.Error(err))
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		status.UptimeSeconds = uptime
	} else {
		s.logger.Debug("uptime probe failed", zap.Error(err))
	}

	if s.pool != nil {
		stat := s.pool.Stat()
		status.DBConnsTotal = stat.TotalConns()
		status.DBConnsIdle = stat.IdleConns()
	}

	return status
}
