package model

// ClubTier is one row of the club ladder. The ladder is ordered by
// ReferralsRequired ascending and never changes at runtime.
type ClubTier struct {
	Tier              int    `json:"tier"`
	Name              string `json:"name"`
	ReferralsRequired int    `json:"referrals_required"`
	Icon              string `json:"icon"`
}

// ClubTierStatus is a ladder row annotated for one member.
type ClubTierStatus struct {
	ClubTier
	Achieved bool    `json:"achieved"`
	Progress float64 `json:"progress"`
}
