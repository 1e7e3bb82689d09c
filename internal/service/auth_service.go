package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Prasadchowdar/100CroresClub/internal/event"
	"github.com/Prasadchowdar/100CroresClub/internal/metrics"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
	jwtutil "github.com/Prasadchowdar/100CroresClub/pkg/jwt"
)

const defaultAccessTokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrPhoneTaken         = repository.ErrPhoneTaken
	ErrInvalidSignupInput = errors.New("invalid signup input")
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

type SignupRequest struct {
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
}

type AuthService struct {
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	pool       *pgxpool.Pool
	tiers      *ClubTierTable
	bus        *event.Bus
	privateKey *rsa.PrivateKey
	clock      Clock
	accessTTL  time.Duration
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	pool *pgxpool.Pool,
	tiers *ClubTierTable,
	bus *event.Bus,
	privateKey *rsa.PrivateKey,
	clock Clock,
	logger *zap.Logger,
) *AuthService {
	if tiers == nil {
		tiers = DefaultClubTierTable()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		pool:       pool,
		tiers:      tiers,
		bus:        bus,
		privateKey: privateKey,
		clock:      clock,
		accessTTL:  defaultAccessTokenTTL,
		logger:     logger,
	}
}

// Signup registers a member and, when the request carries a referral code
// that resolves to an existing member, links and rewards both sides inside
// the same transaction. A code that resolves to nobody is skipped without
// failing the signup.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*model.User, string, error) {
	if s.pool == nil {
		return nil, "", errors.New("database pool is nil")
	}
	if s.privateKey == nil {
		return nil, "", errors.New("private key is nil")
	}

	phone := strings.TrimSpace(req.Phone)
	name := strings.TrimSpace(req.Name)
	if !phonePattern.MatchString(phone) || name == "" || len(req.Password) < 6 {
		return nil, "", ErrInvalidSignupInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	code, err := generateUniqueReferralCode(ctx, s.userRepo.ReferralCodeExists)
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Phone:        phone,
		Name:         name,
		PasswordHash: string(hash),
		ReferralCode: code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var referrer *model.User
	var referrerNewTier int
	if applied := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); applied != "" {
		referrer, err = lockUserByCodeTx(ctx, tx, applied)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, "", err
		}
		if referrer != nil {
			user.ReferredBy = &referrer.ID
			user.Points = ReferralRewardPoints
		}
	}

	if err := insertUserTx(ctx, tx, user); err != nil {
		return nil, "", err
	}

	if referrer != nil {
		referrerNewTier = s.tiers.TierFor(referrer.ReferralsCount + 1)
		if err := rewardReferrerTx(ctx, tx, referrer.ID, ReferralRewardPoints, referrerNewTier); err != nil {
			return nil, "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", err
	}

	metrics.IncSignup()
	s.writeSignupAudit(ctx, user, referrer)
	if referrer != nil {
		metrics.AddPointsAwarded("referral", 2*ReferralRewardPoints)
		s.announceReferral(referrer, user.ID, referrerNewTier)
	}

	token, err := jwtutil.GenerateAccessToken(user.ID.String(), string(model.UserRoleUser), s.privateKey, s.accessTTL)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, phone, password string) (*model.User, string, error) {
	if s.privateKey == nil {
		return nil, "", errors.New("private key is nil")
	}

	user, err := s.userRepo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := jwtutil.GenerateAccessToken(user.ID.String(), string(model.UserRoleUser), s.privateKey, s.accessTTL)
	if err != nil {
		return nil, "", err
	}

	s.writeAudit(ctx, &user.ID, "auth.login")

	return user, token, nil
}

func (s *AuthService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) writeSignupAudit(ctx context.Context, user *model.User, referrer *model.User) {
	if s.auditRepo == nil {
		return
	}

	newValue := map[string]interface{}{
		"phone":         user.Phone,
		"referral_code": user.ReferralCode,
	}
	if referrer != nil {
		newValue["referred_by"] = referrer.ID.String()
		newValue["reward_points"] = ReferralRewardPoints
	}

	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &user.ID,
		ActorType:    model.ActorTypeUser,
		Action:       "auth.signup",
		ResourceType: strPtr("user"),
		ResourceID:   strPtr(user.ID.String()),
		NewValue:     newValue,
	}); err != nil {
		s.logger.Warn("write signup audit failed", zap.Error(err))
	}
}

func (s *AuthService) writeAudit(ctx context.Context, actorID *uuid.UUID, action string) {
	if s.auditRepo == nil {
		return
	}

	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:   actorID,
		ActorType: model.ActorTypeUser,
		Action:    action,
	})
}

func (s *AuthService) announceReferral(referrer *model.User, referredID uuid.UUID, newTier int) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.EventReferralLinked, event.ReferralLinkedPayload{
		ReferrerID: referrer.ID.String(),
		ReferredID: referredID.String(),
		Points:     ReferralRewardPoints,
	})

	if newTier > referrer.ClubTier {
		metrics.IncTierPromotion()
		tierName := ""
		if next := tierByNumber(s.tiers, newTier); next != nil {
			tierName = next.Name
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

func tierByNumber(tiers *ClubTierTable, n int) *model.ClubTier {
	for _, row := range tiers.Tiers() {
		if row.Tier == n {
			out := row
			return &out
		}
	}
	return nil
}

func strPtr(v string) *string {
	return &v
}
