package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "croreclub_signups_total",
		Help: "Total member signups",
	})

	ReferralApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "croreclub_referral_applications_total",
		Help: "Referral application attempts by outcome",
	}, []string{"outcome"})

	DailyClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "croreclub_daily_claims_total",
		Help: "Daily reward claim attempts by result",
	}, []string{"awarded"})

	PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "croreclub_points_awarded_total",
		Help: "Points credited by reward source",
	}, []string{"source"})

	RegisteredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "croreclub_registered_users",
		Help: "Current number of registered members",
	})

	ClubTierMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "croreclub_club_tier_members",
		Help: "Members per club tier",
	}, []string{"tier"})

	TierPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "croreclub_tier_promotions_total",
		Help: "Total club tier promotions",
	})
)

func IncSignup() {
	SignupsTotal.Inc()
}

func IncReferralApplication(outcome string) {
	label := strings.TrimSpace(outcome)
	if label == "" {
		label = "unknown"
	}
	ReferralApplications.WithLabelValues(label).Inc()
}

func IncDailyClaim(awarded bool) {
	DailyClaims.WithLabelValues(strconv.FormatBool(awarded)).Inc()
}

func AddPointsAwarded(source string, points int64) {
	if points <= 0 {
		return
	}
	label := strings.TrimSpace(source)
	if label == "" {
		label = "unknown"
	}
	PointsAwarded.WithLabelValues(label).Add(float64(points))
}

func SetRegisteredUsers(count int64) {
	if count < 0 {
		count = 0
	}
	RegisteredUsers.Set(float64(count))
}

func SetClubTierMembers(tier int, count int64) {
	if count < 0 {
		count = 0
	}
	ClubTierMembers.WithLabelValues(strconv.Itoa(tier)).Set(float64(count))
}

func IncTierPromotion() {
	TierPromotions.Inc()
}
