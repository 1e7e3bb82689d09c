package v1

import (
	"net/http"
	"testing"
)

func TestClubList_PublicLadder(t *testing.T) {
	s := setupTestServer(t)

	resp := s.perform(t, http.MethodGet, "/api/v1/clubs", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeAPIResponse(t, resp.Body.Bytes())
	var tiers []struct {
		Tier              int    `json:"tier"`
		Name              string `json:"name"`
		ReferralsRequired int    `json:"referrals_required"`
	}
	mustUnmarshal(t, body.Data, &tiers)

	if len(tiers) != 7 {
		t.Fatalf("expected 7 tiers, got %d", len(tiers))
	}
	if tiers[0].ReferralsRequired != 10 || tiers[6].ReferralsRequired != 1000 {
		t.Fatalf("unexpected ladder bounds: %+v", tiers)
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].ReferralsRequired <= tiers[i-1].ReferralsRequired {
			t.Fatalf("ladder not ascending at index %d: %+v", i, tiers)
		}
	}
}

func TestClubStatus_RequiresAuth(t *testing.T) {
	s := setupTestServer(t)

	resp := s.perform(t, http.MethodGet, "/api/v1/clubs/status", nil, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestClubStatus_TracksReferrals(t *testing.T) {
	s := setupTestServer(t)
	referrer := signupUser(t, s, "")

	// One successful referral: still below the first rung.
	referred := signupUser(t, s, "")
	applyCode(t, s, referred.AccessToken, referrer.User.ReferralCode)

	resp := s.perform(t, http.MethodGet, "/api/v1/clubs/status", nil, []*http.Cookie{authCookie(referrer.AccessToken)})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeAPIResponse(t, resp.Body.Bytes())
	var status struct {
		ClubTier       int `json:"club_tier"`
		ReferralsCount int `json:"referrals_count"`
		Tiers          []struct {
			Tier     int     `json:"tier"`
			Achieved bool    `json:"achieved"`
			Progress float64 `json:"progress"`
		} `json:"tiers"`
	}
	mustUnmarshal(t, body.Data, &status)

	if status.ClubTier != 0 {
		t.Fatalf("expected club tier 0 with one referral, got %d", status.ClubTier)
	}
	if status.ReferralsCount != 1 {
		t.Fatalf("expected referrals_count 1, got %d", status.ReferralsCount)
	}
	if len(status.Tiers) != 7 {
		t.Fatalf("expected 7 tier rows, got %d", len(status.Tiers))
	}
	if status.Tiers[0].Achieved {
		t.Fatalf("expected first rung unachieved, got %+v", status.Tiers[0])
	}
	if status.Tiers[0].Progress != 0.1 {
		t.Fatalf("expected progress 0.1 toward first rung, got %v", status.Tiers[0].Progress)
	}
}
