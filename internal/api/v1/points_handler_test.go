package v1

import (
	"net/http"
	"testing"
	"time"
)

type claimResponse struct {
	Awarded            bool   `json:"awarded"`
	Points             int64  `json:"points"`
	NewBalance         int64  `json:"new_balance"`
	SecondsRemaining   int64  `json:"seconds_remaining"`
	NextClaimAvailable string `json:"next_claim_available"`
}

func claimDaily(t *testing.T, s *testServer, token string) *claimResponse {
	t.Helper()

	resp := s.perform(t, http.MethodPost, "/api/v1/points/claim-daily", nil, []*http.Cookie{authCookie(token)})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected claim status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeAPIResponse(t, resp.Body.Bytes())
	var result claimResponse
	mustUnmarshal(t, body.Data, &result)
	return &result
}

func TestClaimDaily_OncePerRewardDay(t *testing.T) {
	s := setupTestServer(t)
	user := signupUser(t, s, "")

	first := claimDaily(t, s, user.AccessToken)
	if !first.Awarded {
		t.Fatalf("expected first claim to be awarded, got %+v", first)
	}
	if first.Points != 10_000 || first.NewBalance != 10_000 {
		t.Fatalf("expected 10000 points and balance, got %+v", first)
	}

	second := claimDaily(t, s, user.AccessToken)
	if second.Awarded {
		t.Fatalf("expected second claim in same reward day to be declined, got %+v", second)
	}
	if second.SecondsRemaining <= 0 {
		t.Fatalf("expected positive cooldown, got %d", second.SecondsRemaining)
	}
	if second.NextClaimAvailable == "" {
		t.Fatal("expected next_claim_available timestamp on declined claim")
	}
}

func TestClaimDaily_AvailableAgainAfterISTMidnight(t *testing.T) {
	s := setupTestServer(t)
	user := signupUser(t, s, "")

	// 2025-06-01 12:00 UTC is 17:30 IST.
	first := claimDaily(t, s, user.AccessToken)
	if !first.Awarded {
		t.Fatalf("expected first claim to be awarded, got %+v", first)
	}

	// Just before IST midnight: still the same reward day.
	s.clock.Set(time.Date(2025, 6, 1, 18, 29, 0, 0, time.UTC))
	blocked := claimDaily(t, s, user.AccessToken)
	if blocked.Awarded {
		t.Fatalf("expected claim before IST midnight to be declined, got %+v", blocked)
	}

	// Just after IST midnight: new reward day.
	s.clock.Set(time.Date(2025, 6, 1, 18, 31, 0, 0, time.UTC))
	renewed := claimDaily(t, s, user.AccessToken)
	if !renewed.Awarded {
		t.Fatalf("expected claim after IST midnight to be awarded, got %+v", renewed)
	}
	if renewed.NewBalance != 20_000 {
		t.Fatalf("expected balance 20000 after two awards, got %d", renewed.NewBalance)
	}
}

func TestCooldown_TracksClaimState(t *testing.T) {
	s := setupTestServer(t)
	user := signupUser(t, s, "")

	resp := s.perform(t, http.MethodGet, "/api/v1/points/cooldown", nil, []*http.Cookie{authCookie(user.AccessToken)})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := decodeAPIResponse(t, resp.Body.Bytes())
	var info struct {
		CanClaim         bool  `json:"can_claim"`
		SecondsRemaining int64 `json:"seconds_remaining"`
	}
	mustUnmarshal(t, body.Data, &info)
	if !info.CanClaim {
		t.Fatalf("expected fresh user to be claimable, got %+v", info)
	}

	claimDaily(t, s, user.AccessToken)

	resp = s.perform(t, http.MethodGet, "/api/v1/points/cooldown", nil, []*http.Cookie{authCookie(user.AccessToken)})
	body = decodeAPIResponse(t, resp.Body.Bytes())
	mustUnmarshal(t, body.Data, &info)
	if info.CanClaim {
		t.Fatalf("expected cooldown after claim, got %+v", info)
	}
	if info.SecondsRemaining <= 0 {
		t.Fatalf("expected positive seconds_remaining, got %d", info.SecondsRemaining)
	}
}

func TestPointsSummary_ReflectsBalance(t *testing.T) {
	s := setupTestServer(t)
	user := signupUser(t, s, "")
	claimDaily(t, s, user.AccessToken)

	resp := s.perform(t, http.MethodGet, "/api/v1/points", nil, []*http.Cookie{authCookie(user.AccessToken)})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	body := decodeAPIResponse(t, resp.Body.Bytes())
	var summary struct {
		Points   int64 `json:"points"`
		Cooldown struct {
			CanClaim bool `json:"can_claim"`
		} `json:"cooldown"`
	}
	mustUnmarshal(t, body.Data, &summary)
	if summary.Points != 10_000 {
		t.Fatalf("expected points 10000, got %d", summary.Points)
	}
	if summary.Cooldown.CanClaim {
		t.Fatal("expected claim cooldown to be active")
	}
}
