package service

import (
	"github.com/Prasadchowdar/100CroresClub/internal/model"
)

// Reward amounts are fixed program-wide. Both sides of a referral receive
// the referral reward; the daily reward goes to whoever claims it.
const (
	ReferralRewardPoints int64 = 1_000_000
	DailyRewardPoints    int64 = 10_000
)

// ClubTierTable is the immutable club ladder, ordered by referral
// requirement ascending. A member's tier is the number of rungs their
// referral count has reached, so tier 0 means no club yet and tier
// len(tiers) means the top of the ladder.
type ClubTierTable struct {
	tiers []model.ClubTier
}

func DefaultClubTierTable() *ClubTierTable {
	return &ClubTierTable{tiers: []model.ClubTier{
		{Tier: 1, Name: "1 Crore", ReferralsRequired: 10, Icon: "bronze"},
		{Tier: 2, Name: "5 Crore", ReferralsRequired: 50, Icon: "silver"},
		{Tier: 3, Name: "10 Crore", ReferralsRequired: 100, Icon: "gold"},
		{Tier: 4, Name: "25 Crore", ReferralsRequired: 250, Icon: "platinum"},
		{Tier: 5, Name: "50 Crore", ReferralsRequired: 500, Icon: "diamond"},
		{Tier: 6, Name: "75 Crore", ReferralsRequired: 750, Icon: "master"},
		{Tier: 7, Name: "100 Crore", ReferralsRequired: 1000, Icon: "grandmaster"},
	}}
}

// TierFor returns the tier reached with the given referral count.
func (t *ClubTierTable) TierFor(referrals int) int {
	tier := 0
	for _, row := range t.tiers {
		if referrals < row.ReferralsRequired {
			break
		}
		tier = row.Tier
	}
	return tier
}

// NextTier returns the first rung not yet reached, or nil at the top.
func (t *ClubTierTable) NextTier(referrals int) *model.ClubTier {
	for _, row := range t.tiers {
		if referrals < row.ReferralsRequired {
			next := row
			return &next
		}
	}
	return nil
}

// Tiers returns a copy of the ladder.
func (t *ClubTierTable) Tiers() []model.ClubTier {
	out := make([]model.ClubTier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// StatusFor annotates every rung with achievement and progress for a
// member with the given referral count. Progress is capped at 1.
func (t *ClubTierTable) StatusFor(referrals int) []model.ClubTierStatus {
	out := make([]model.ClubTierStatus, 0, len(t.tiers))
	for _, row := range t.tiers {
		status := model.ClubTierStatus{ClubTier: row}
		if referrals >= row.ReferralsRequired {
			status.Achieved = true
			status.Progress = 1
		} else {
			status.Progress = float64(referrals) / float64(row.ReferralsRequired)
		}
		out = append(out, status)
	}
	return out
}
