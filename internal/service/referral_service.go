package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/event"
	"github.com/Prasadchowdar/100CroresClub/internal/metrics"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
)

// ReferralOutcome tags the result of a referral application. Only
// OutcomeApplied moves points; the rest are declined without error.
type ReferralOutcome string

const (
	OutcomeApplied         ReferralOutcome = "applied"
	OutcomeAlreadyReferred ReferralOutcome = "already_referred"
	OutcomeInvalidCode     ReferralOutcome = "invalid_code"
	OutcomeSelfReferral    ReferralOutcome = "self_referral"
)

type ApplyResult struct {
	Success      bool            `json:"success"`
	Outcome      ReferralOutcome `json:"outcome"`
	Message      string          `json:"message"`
	PointsEarned int64           `json:"points_earned"`
	NewBalance   int64           `json:"new_balance"`
}

type ReferralStats struct {
	ReferralCode   string          `json:"referral_code"`
	ReferralsCount int             `json:"referrals_count"`
	PointsEarned   int64           `json:"points_earned"`
	ClubTier       int             `json:"club_tier"`
	NextTier       *model.ClubTier `json:"next_tier,omitempty"`
	NextTierNeeded int             `json:"next_tier_needed"`
}

type ReferralService struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	pool      *pgxpool.Pool
	tiers     *ClubTierTable
	bus       *event.Bus
	logger    *zap.Logger
}

func NewReferralService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	pool *pgxpool.Pool,
	tiers *ClubTierTable,
	bus *event.Bus,
	logger *zap.Logger,
) *ReferralService {
	if tiers == nil {
		tiers = DefaultClubTierTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReferralService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		pool:      pool,
		tiers:     tiers,
		bus:       bus,
		logger:    logger,
	}
}

// Apply links the applicant to the owner of the given code and credits both
// sides. A member can be referred at most once for life; the second attempt
// is declined no matter whose code it carries. Declines are outcomes, not
// errors, so the handler can answer 200 with success=false.
func (s *ReferralService) Apply(ctx context.Context, userID, code string) (*ApplyResult, error) {
	if s.pool == nil {
		return nil, errors.New("database pool is nil")
	}

	applicantID, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	// Referred-once-for-life is the first guard: an applicant who already
	// has a referrer is declined before the code is even looked at, so the
	// outcome does not vary with whatever code they submit. Re-checked
	// under the row lock below.
	snapshot, err := s.userRepo.FindByID(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if snapshot.ReferredBy != nil {
		result := declined(OutcomeAlreadyReferred, "You have already been referred")
		metrics.IncReferralApplication(string(result.Outcome))
		return result, nil
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return declined(OutcomeInvalidCode, "Invalid referral code"), nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	referrerID, err := findUserIDByCodeTx(ctx, tx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		result := declined(OutcomeInvalidCode, "Invalid referral code")
		metrics.IncReferralApplication(string(result.Outcome))
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if referrerID == applicantID {
		result := declined(OutcomeSelfReferral, "You cannot use your own referral code")
		metrics.IncReferralApplication(string(result.Outcome))
		return result, nil
	}

	applicant, referrer, err := lockPairTx(ctx, tx, applicantID, referrerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if applicant.ReferredBy != nil {
		result := declined(OutcomeAlreadyReferred, "You have already been referred")
		metrics.IncReferralApplication(string(result.Outcome))
		return result, nil
	}

	newTier := s.tiers.TierFor(referrer.ReferralsCount + 1)

	if _, err := tx.Exec(
		ctx,
		`UPDATE users
		    SET referred_by = $2,
		        points = points + $3,
		        updated_at = NOW()
		  WHERE id = $1`,
		applicant.ID,
		referrer.ID,
		ReferralRewardPoints,
	); err != nil {
		return nil, err
	}

	if err := rewardReferrerTx(ctx, tx, referrer.ID, ReferralRewardPoints, newTier); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncReferralApplication(string(OutcomeApplied))
	metrics.AddPointsAwarded("referral", 2*ReferralRewardPoints)
	s.writeApplyAudit(ctx, applicant, referrer)
	s.announceApplied(referrer, applicant.ID, newTier)

	return &ApplyResult{
		Success:      true,
		Outcome:      OutcomeApplied,
		Message:      "Referral applied",
		PointsEarned: ReferralRewardPoints,
		NewBalance:   applicant.Points + ReferralRewardPoints,
	}, nil
}

func (s *ReferralService) Stats(ctx context.Context, userID string) (*ReferralStats, error) {
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

	stats := &ReferralStats{
		ReferralCode:   user.ReferralCode,
		ReferralsCount: user.ReferralsCount,
		PointsEarned:   int64(user.ReferralsCount) * ReferralRewardPoints,
		ClubTier:       user.ClubTier,
	}
	if next := s.tiers.NextTier(user.ReferralsCount); next != nil {
		stats.NextTier = next
		stats.NextTierNeeded = next.ReferralsRequired - user.ReferralsCount
	}
	return stats, nil
}

// lockPairTx locks both rows FOR UPDATE in ascending id order so two
// concurrent applications touching the same pair cannot deadlock.
func lockPairTx(ctx context.Context, tx pgx.Tx, applicantID, referrerID uuid.UUID) (applicant, referrer *model.User, err error) {
	first, second := applicantID, referrerID
	if uuidBefore(referrerID, applicantID) {
		first, second = referrerID, applicantID
	}

	firstUser, err := lockUserTx(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	secondUser, err := lockUserTx(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if firstUser.ID == applicantID {
		return firstUser, secondUser, nil
	}
	return secondUser, firstUser, nil
}

func declined(outcome ReferralOutcome, message string) *ApplyResult {
	return &ApplyResult{Outcome: outcome, Message: message}
}

func (s *ReferralService) writeApplyAudit(ctx context.Context, applicant, referrer *model.User) {
	if s.auditRepo == nil {
		return
	}

	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &applicant.ID,
		ActorType:    model.ActorTypeUser,
		Action:       "referral.apply",
		ResourceType: strPtr("user"),
		ResourceID:   strPtr(referrer.ID.String()),
		NewValue: map[string]interface{}{
			"referrer_id":   referrer.ID.String(),
			"reward_points": ReferralRewardPoints,
		},
	}); err != nil {
		s.logger.Warn("write referral audit failed", zap.Error(err))
	}
}

func (s *ReferralService) announceApplied(referrer *model.User, applicantID uuid.UUID, newTier int) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.EventReferralLinked, event.ReferralLinkedPayload{
		ReferrerID: referrer.ID.String(),
		ReferredID: applicantID.String(),
		Points:     ReferralRewardPoints,
	})

	if newTier > referrer.ClubTier {
		metrics.IncTierPromotion()
		tierName := ""
		if row := tierByNumber(s.tiers, newTier); row != nil {
			tierName = row.Name
		}
		s.bus.Publish(event.EventTierChanged, event.TierChangedPayload{
			UserID:   referrer.ID.String(),
			Name:     referrer.Name,
			OldTier:  referrer.ClubTier,
			NewTier:  newTier,
			TierName: tierName,
		})
	}
}
