package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

type settingRepository struct {
	pool *pgxpool.Pool
}

func NewSettingRepository(pool *pgxpool.Pool) repository.SettingRepository {
	return &settingRepository{pool: pool}
}

var _ repository.SettingRepository = (*settingRepository)(nil)

func (r *settingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	query := `
		SELECT setting_key, setting_value, created_at, updated_at
		FROM settings
		WHERE setting_key = $1
	`

	setting := &model.Setting{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&setting.Key,
		&setting.Value,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return setting, nil
}

func (r *settingRepository) Upsert(ctx context.Context, setting *model.Setting) error {
	now := time.Now().UTC()
	if setting.CreatedAt.IsZero() {
		setting.CreatedAt = now
	}
	setting.UpdatedAt = now

	query := `
		INSERT INTO settings (setting_key, setting_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (setting_key)
		DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, setting.Key, setting.Value, setting.CreatedAt, setting.UpdatedAt)
	return err
}
