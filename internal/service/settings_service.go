package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

// defaultProgramDuration seeds program_end_date the first time anyone asks
// for it.
const defaultProgramDuration = 6 * 30 * 24 * time.Hour

var ErrInvalidEndDate = errors.New("invalid program end date")

type SettingsService struct {
	settingRepo repository.SettingRepository
	auditRepo   repository.AuditRepository
	clock       Clock
	logger      *zap.Logger
}

func NewSettingsService(
	settingRepo repository.SettingRepository,
	auditRepo repository.AuditRepository,
	clock Clock,
	logger *zap.Logger,
) *SettingsService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SettingsService{
		settingRepo: settingRepo,
		auditRepo:   auditRepo,
		clock:       clock,
		logger:      logger,
	}
}

// ProgramEndDate returns the configured end date, creating the default
// six-month horizon on first access.
func (s *SettingsService) ProgramEndDate(ctx context.Context) (time.Time, error) {
	setting, err := s.settingRepo.Get(ctx, model.SettingProgramEndDate)
	if errors.Is(err, repository.ErrNotFound) {
		endDate := s.clock.Now().UTC().Add(defaultProgramDuration)
		if err := s.settingRepo.Upsert(ctx, &model.Setting{
			Key:   model.SettingProgramEndDate,
			Value: endDate.Format(time.RFC3339),
		}); err != nil {
			return time.Time{}, err
		}
		return endDate, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	endDate, err := time.Parse(time.RFC3339, setting.Value)
	if err != nil {
		return time.Time{}, ErrInvalidEndDate
	}
	return endDate, nil
}

func (s *SettingsService) SetProgramEndDate(ctx context.Context, adminID uuid.UUID, raw string) (time.Time, error) {
	endDate, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidEndDate
	}

	var oldValue map[string]interface{}
	if current, err := s.settingRepo.Get(ctx, model.SettingProgramEndDate); err == nil {
		oldValue = map[string]interface{}{"end_date": current.Value}
	}

	if err := s.settingRepo.Upsert(ctx, &model.Setting{
		Key:   model.SettingProgramEndDate,
		Value: endDate.UTC().Format(time.RFC3339),
	}); err != nil {
		return time.Time{}, err
	}

	s.writeAudit(ctx, adminID, "settings.program_end_date", oldValue, map[string]interface{}{
		"end_date": endDate.UTC().Format(time.RFC3339),
	})

	return endDate.UTC(), nil
}

func (s *SettingsService) MaintenanceMode(ctx context.Context) (bool, error) {
	setting, err := s.settingRepo.Get(ctx, model.SettingMaintenanceMode)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false, nil
	}
	return enabled, nil
}

func (s *SettingsService) SetMaintenanceMode(ctx context.Context, adminID uuid.UUID, enabled bool) error {
	if err := s.settingRepo.Upsert(ctx, &model.Setting{
		Key:   model.SettingMaintenanceMode,
		Value: strconv.FormatBool(enabled),
	}); err != nil {
		return err
	}

	s.writeAudit(ctx, adminID, "settings.maintenance_mode", nil, map[string]interface{}{
		"enabled": enabled,
	})

	return nil
}

func (s *SettingsService) writeAudit(ctx context.Context, adminID uuid.UUID, action string, oldValue, newValue map[string]interface{}) {
	if s.auditRepo == nil {
		return
	}

	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &adminID,
		ActorType:    model.ActorTypeAdmin,
		Action:       action,
		ResourceType: strPtr("setting"),
		OldValue:     oldValue,
		NewValue:     newValue,
	}); err != nil {
		s.logger.Warn("write settings audit failed", zap.String("action", action), zap.Error(err))
	}
}
