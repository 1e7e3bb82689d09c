package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// Uniqueness sentinels let callers react to constraint violations
	// without parsing driver errors.
	ErrPhoneTaken        = errors.New("phone already registered")
	ErrEmailTaken        = errors.New("email already registered")
	ErrReferralCodeTaken = errors.New("referral code already assigned")
)

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type UserListFilter struct {
	ReferredBy *uuid.UUID `json:"referred_by,omitempty"`
	MinTier    *int       `json:"min_tier,omitempty"`
	Keyword    *string    `json:"keyword,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type AuditListFilter struct {
	ActorID      *uuid.UUID       `json:"actor_id,omitempty"`
	ActorType    *model.ActorType `json:"actor_type,omitempty"`
	Action       *string          `json:"action,omitempty"`
	ResourceType *string          `json:"resource_type,omitempty"`
	StartTime    *time.Time       `json:"start_time,omitempty"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	Pagination   Pagination       `json:"pagination"`
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByReferralCode(ctx context.Context, code string) (*model.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, user *model.User) error
	// CreditPoints atomically adds delta to the balance and returns the new value.
	CreditPoints(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context, filter UserListFilter) ([]*model.User, error)
	Count(ctx context.Context, filter UserListFilter) (int64, error)
	CountByTier(ctx context.Context) (map[int]int64, error)
}

type AdminRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, admin *model.Admin) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
}

type OTPRepository interface {
	// Replace deletes any pending codes for the email before storing the new one.
	Replace(ctx context.Context, otp *model.AdminOTP) error
	FindActive(ctx context.Context, email string, now time.Time) (*model.AdminOTP, error)
	Consume(ctx context.Context, id uuid.UUID) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filter AuditListFilter) ([]*model.AuditLog, error)
	Count(ctx context.Context, filter AuditListFilter) (int64, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Upsert(ctx context.Context, setting *model.Setting) error
}
