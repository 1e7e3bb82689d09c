package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Phone           string     `db:"phone" json:"phone"`
	Name            string     `db:"name" json:"name"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	Points          int64      `db:"points" json:"points"`
	ReferralCode    string     `db:"referral_code" json:"referral_code"`
	ReferredBy      *uuid.UUID `db:"referred_by" json:"referred_by,omitempty"`
	ReferralsCount  int        `db:"referrals_count" json:"referrals_count"`
	ClubTier        int        `db:"club_tier" json:"club_tier"`
	LastRewardClaim *time.Time `db:"last_reward_claim" json:"last_reward_claim,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
