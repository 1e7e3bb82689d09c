package service

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

// Row-locking helpers shared by the services that mutate balances and
// referral state. Every mutation of points, referrals_count, club_tier or
// last_reward_claim goes through a FOR UPDATE lock or a single atomic
// UPDATE; nothing reads then writes across statements without one.

const userTxColumns = `
	id,
	phone,
	name,
	password_hash,
	points,
	referral_code,
	referred_by,
	referrals_count,
	club_tier,
	last_reward_claim,
	created_at,
	updated_at
`

func scanUserRow(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID,
		&user.Phone,
		&user.Name,
		&user.PasswordHash,
		&user.Points,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.ReferralsCount,
		&user.ClubTier,
		&user.LastRewardClaim,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func lockUserTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userTxColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUserRow(tx.QueryRow(ctx, query, id))
}

func lockUserByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*model.User, error) {
	query := `SELECT ` + userTxColumns + ` FROM users WHERE referral_code = $1 FOR UPDATE`
	return scanUserRow(tx.QueryRow(ctx, query, code))
}

func findUserIDByCodeTx(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE referral_code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, repository.ErrNotFound
	}
	return id, err
}

func insertUserTx(ctx context.Context, tx pgx.Tx, user *model.User) error {
	query := `
		INSERT INTO users (
			id, phone, name, password_hash, points, referral_code,
			referred_by, referrals_count, club_tier, last_reward_claim,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(
		ctx,
		query,
		user.ID,
		user.Phone,
		user.Name,
		user.PasswordHash,
		user.Points,
		user.ReferralCode,
		user.ReferredBy,
		user.ReferralsCount,
		user.ClubTier,
		user.LastRewardClaim,
		user.CreatedAt,
		user.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_phone_key":
			return ErrPhoneTaken
		case "users_referral_code_key":
			return ErrCodeSpaceExhausted
		}
	}
	return err
}

func rewardReferrerTx(ctx context.Context, tx pgx.Tx, referrerID uuid.UUID, points int64, newTier int) error {
	tag, err := tx.Exec(
		ctx,
		`UPDATE users
		    SET points = points + $2,
		        referrals_count = referrals_count + 1,
		        club_tier = $3,
		        updated_at = NOW()
		  WHERE id = $1`,
		referrerID,
		points,
		newTier,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// uuidBefore gives the stable lock order for transactions touching two
// user rows at once.
func uuidBefore(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
