package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/metrics"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

type ClaimResult struct {
	Awarded            bool       `json:"awarded"`
	Points             int64      `json:"points"`
	NewBalance         int64      `json:"new_balance"`
	Message            string     `json:"message"`
	NextClaimAvailable *time.Time `json:"next_claim_available,omitempty"`
	SecondsRemaining   int64      `json:"seconds_remaining"`
}

type CooldownInfo struct {
	CanClaim           bool       `json:"can_claim"`
	NextClaimAvailable *time.Time `json:"next_claim_available,omitempty"`
	SecondsRemaining   int64      `json:"seconds_remaining"`
}

type PointsSummary struct {
	Points          int64        `json:"points"`
	LastRewardClaim *time.Time   `json:"last_reward_claim,omitempty"`
	Cooldown        CooldownInfo `json:"cooldown"`
}

type PointsService struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	pool      *pgxpool.Pool
	clock     Clock
	logger    *zap.Logger
}

func NewPointsService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	pool *pgxpool.Pool,
	clock Clock,
	logger *zap.Logger,
) *PointsService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PointsService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		pool:      pool,
		clock:     clock,
		logger:    logger,
	}
}

func (s *PointsService) Summary(ctx context.Context, userID string) (*PointsSummary, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &PointsSummary{
		Points:          user.Points,
		LastRewardClaim: user.LastRewardClaim,
		Cooldown:        cooldownAt(user.LastRewardClaim, s.clock.Now().UTC()),
	}, nil
}

// ClaimDaily credits the daily reward at most once per reward day. The row
// stays locked from the window check to the credit so a double submission
// cannot award twice; the loser of the lock race sees the winner's claim
// time and is declined.
func (s *PointsService) ClaimDaily(ctx context.Context, userID string) (*ClaimResult, error) {
	if s.pool == nil {
		return nil, errors.New("database pool is nil")
	}

	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	user, err := lockUserTx(ctx, tx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if user.LastRewardClaim != nil && sameRewardDay(*user.LastRewardClaim, now) {
		cooldown := cooldownAt(user.LastRewardClaim, now)
		metrics.IncDailyClaim(false)
		return &ClaimResult{
			Awarded:            false,
			NewBalance:         user.Points,
			Message:            "Daily reward already claimed today",
			NextClaimAvailable: cooldown.NextClaimAvailable,
			SecondsRemaining:   cooldown.SecondsRemaining,
		}, nil
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE users
		    SET points = points + $2,
		        last_reward_claim = $3,
		        updated_at = NOW()
		  WHERE id = $1`,
		uid,
		DailyRewardPoints,
		now,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncDailyClaim(true)
	metrics.AddPointsAwarded("daily", DailyRewardPoints)
	s.writeClaimAudit(ctx, uid, user.Points+DailyRewardPoints)

	next := nextRewardReset(now)
	return &ClaimResult{
		Awarded:            true,
		Points:             DailyRewardPoints,
		NewBalance:         user.Points + DailyRewardPoints,
		Message:            "Daily reward claimed",
		NextClaimAvailable: &next,
		SecondsRemaining:   int64(next.Sub(now).Seconds()),
	}, nil
}

// Cooldown answers what ClaimDaily would decide at this instant without
// touching the row.
func (s *PointsService) Cooldown(ctx context.Context, userID string) (*CooldownInfo, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	info := cooldownAt(user.LastRewardClaim, s.clock.Now().UTC())
	return &info, nil
}

func cooldownAt(lastClaim *time.Time, now time.Time) CooldownInfo {
	if lastClaim == nil || !sameRewardDay(*lastClaim, now) {
		return CooldownInfo{CanClaim: true}
	}

	next := nextRewardReset(now)
	remaining := int64(next.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return CooldownInfo{
		CanClaim:           false,
		NextClaimAvailable: &next,
		SecondsRemaining:   remaining,
	}
}

func (s *PointsService) writeClaimAudit(ctx context.Context, userID uuid.UUID, newBalance int64) {
	if s.auditRepo == nil {
		return
	}

	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &userID,
		ActorType:    model.ActorTypeUser,
		Action:       "points.claim_daily",
		ResourceType: strPtr("user"),
		ResourceID:   strPtr(userID.String()),
		NewValue: map[string]interface{}{
			"points":      DailyRewardPoints,
			"new_balance": newBalance,
		},
	}); err != nil {
		s.logger.Warn("write claim audit failed", zap.Error(err))
	}
}
