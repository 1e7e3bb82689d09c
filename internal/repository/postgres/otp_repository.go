package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

type otpRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) repository.OTPRepository {
	return &otpRepository{pool: pool}
}

var _ repository.OTPRepository = (*otpRepository)(nil)

func (r *otpRepository) Replace(ctx context.Context, otp *model.AdminOTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM admin_otps WHERE email = $1`, otp.Email); err != nil {
		return err
	}

	query := `
		INSERT INTO admin_otps (id, email, otp_code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, query, otp.ID, otp.Email, otp.OTPCode, otp.ExpiresAt, otp.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *otpRepository) FindActive(ctx context.Context, email string, now time.Time) (*model.AdminOTP, error) {
	query := `
		SELECT id, email, otp_code, expires_at, created_at
		FROM admin_otps
		WHERE email = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	otp := &model.AdminOTP{}
	err := r.pool.QueryRow(ctx, query, email, now).Scan(
		&otp.ID,
		&otp.Email,
		&otp.OTPCode,
		&otp.ExpiresAt,
		&otp.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (r *otpRepository) Consume(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_otps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *otpRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
