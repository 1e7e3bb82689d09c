package v1

import (
	"net/http"
	"sync"
	"testing"

	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type applyResponse struct {
	Success      bool   `json:"success"`
	Outcome      string `json:"outcome"`
	Message      string `json:"message"`
	PointsEarned int64  `json:"points_earned"`
	NewBalance   int64  `json:"new_balance"`
}

func applyCode(t *testing.T, s *testServer, token, code string) (*applyResponse, int) {
	t.Helper()

	resp := s.perform(t, http.MethodPost, "/api/v1/referrals/apply", map[string]any{
		"referral_code": code,
	}, []*http.Cookie{authCookie(token)})
	if resp.Code != http.StatusOK {
		return nil, resp.Code
	}

	body := decodeAPIResponse(t, resp.Body.Bytes())
	var result applyResponse
	mustUnmarshal(t, body.Data, &result)
	return &result, resp.Code
}

func TestApply_Success_RewardsBothSides(t *testing.T) {
	s := setupTestServer(t)

	referrer := signupUser(t, s, "")
	applicant := signupUser(t, s, "")

	result, status := applyCode(t, s, applicant.AccessToken, referrer.User.ReferralCode)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if !result.Success || result.Outcome != string(service.OutcomeApplied) {
		t.Fatalf("expected applied outcome, got %+v", result)
	}
	if result.PointsEarned != 1_000_000 {
		t.Fatalf("expected 1000000 points earned, got %d", result.PointsEarned)
	}
	if result.NewBalance != 1_000_000 {
		t.Fatalf("expected new balance 1000000, got %d", result.NewBalance)
	}

	statsResp := s.perform(t, http.MethodGet, "/api/v1/referrals/stats", nil, []*http.Cookie{authCookie(referrer.AccessToken)})
	if statsResp.Code != http.StatusOK {
		t.Fatalf("expected stats status 200, got %d", statsResp.Code)
	}
	body := decodeAPIResponse(t, statsResp.Body.Bytes())
	var stats struct {
		ReferralsCount int   `json:"referrals_count"`
		PointsEarned   int64 `json:"points_earned"`
	}
	mustUnmarshal(t, body.Data, &stats)
	if stats.ReferralsCount != 1 {
		t.Fatalf("expected referrals_count 1, got %d", stats.ReferralsCount)
	}
	if stats.PointsEarned != 1_000_000 {
		t.Fatalf("expected referrer points 1000000, got %d", stats.PointsEarned)
	}
}

func TestApply_InvalidCode_DeclinedNotError(t *testing.T) {
	s := setupTestServer(t)

	applicant := signupUser(t, s, "")
	result, status := applyCode(t, s, applicant.AccessToken, "100CRCLUBNOPE0000")
	if status != http.StatusOK {
		t.Fatalf("guard outcomes must answer 200, got %d", status)
	}
	if result.Success || result.Outcome != string(service.OutcomeInvalidCode) {
		t.Fatalf("expected invalid_code outcome, got %+v", result)
	}
	if result.PointsEarned != 0 {
		t.Fatalf("expected no points for declined apply, got %d", result.PointsEarned)
	}
}

func TestApply_OwnCode_Declined(t *testing.T) {
	s := setupTestServer(t)

	user := signupUser(t, s, "")
	result, status := applyCode(t, s, user.AccessToken, user.User.ReferralCode)
	if status != http.StatusOK {
		t.Fatalf("guard outcomes must answer 200, got %d", status)
	}
	if result.Success || result.Outcome != string(service.OutcomeSelfReferral) {
		t.Fatalf("expected self_referral outcome, got %+v", result)
	}
}

func TestApply_Twice_SecondDeclined(t *testing.T) {
	s := setupTestServer(t)

	first := signupUser(t, s, "")
	second := signupUser(t, s, "")
	applicant := signupUser(t, s, "")

	result, _ := applyCode(t, s, applicant.AccessToken, first.User.ReferralCode)
	if !result.Success {
		t.Fatalf("expected first apply to succeed, got %+v", result)
	}

	result, _ = applyCode(t, s, applicant.AccessToken, second.User.ReferralCode)
	if result.Success || result.Outcome != string(service.OutcomeAlreadyReferred) {
		t.Fatalf("expected already_referred outcome, got %+v", result)
	}
}

func TestApply_AfterReferred_AnyCodeDeclinedAsAlreadyReferred(t *testing.T) {
	s := setupTestServer(t)

	referrer := signupUser(t, s, "")
	applicant := signupUser(t, s, "")

	result, _ := applyCode(t, s, applicant.AccessToken, referrer.User.ReferralCode)
	if !result.Success {
		t.Fatalf("expected first apply to succeed, got %+v", result)
	}

	// Once referred, the decline reason never varies with the submitted
	// code: unknown codes and the applicant's own code both report
	// already_referred, not invalid_code or self_referral.
	result, _ = applyCode(t, s, applicant.AccessToken, "100CRCLUBZZZZZZZZ")
	if result.Success || result.Outcome != string(service.OutcomeAlreadyReferred) {
		t.Fatalf("expected already_referred for unknown code, got %+v", result)
	}

	result, _ = applyCode(t, s, applicant.AccessToken, applicant.User.ReferralCode)
	if result.Success || result.Outcome != string(service.OutcomeAlreadyReferred) {
		t.Fatalf("expected already_referred for own code, got %+v", result)
	}
}

func TestApply_Concurrent_OnlyOneWins(t *testing.T) {
	s := setupTestServer(t)

	referrer := signupUser(t, s, "")
	applicant := signupUser(t, s, "")

	const attempts = 4
	results := make([]*applyResponse, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			result, status := applyCode(t, s, applicant.AccessToken, referrer.User.ReferralCode)
			if status == http.StatusOK {
				results[slot] = result
			}
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, result := range results {
		if result != nil && result.Success {
			applied++
		}
	}
	if applied != 1 {
		t.Fatalf("expected exactly one successful apply, got %d", applied)
	}

	statsResp := s.perform(t, http.MethodGet, "/api/v1/referrals/stats", nil, []*http.Cookie{authCookie(referrer.AccessToken)})
	body := decodeAPIResponse(t, statsResp.Body.Bytes())
	var stats struct {
		ReferralsCount int `json:"referrals_count"`
	}
	mustUnmarshal(t, body.Data, &stats)
	if stats.ReferralsCount != 1 {
		t.Fatalf("expected referrals_count 1 after concurrent applies, got %d", stats.ReferralsCount)
	}
}

func TestApply_TwoApplicants_NoLostUpdate(t *testing.T) {
	s := setupTestServer(t)

	referrer := signupUser(t, s, "")
	applicants := []signupResult{
		signupUser(t, s, ""),
		signupUser(t, s, ""),
	}

	results := make([]*applyResponse, len(applicants))
	var wg sync.WaitGroup
	for i, applicant := range applicants {
		wg.Add(1)
		go func(slot int, token string) {
			defer wg.Done()
			result, status := applyCode(t, s, token, referrer.User.ReferralCode)
			if status == http.StatusOK {
				results[slot] = result
			}
		}(i, applicant.AccessToken)
	}
	wg.Wait()

	for i, result := range results {
		if result == nil || !result.Success {
			t.Fatalf("expected applicant %d to succeed, got %+v", i, result)
		}
	}

	statsResp := s.perform(t, http.MethodGet, "/api/v1/referrals/stats", nil, []*http.Cookie{authCookie(referrer.AccessToken)})
	body := decodeAPIResponse(t, statsResp.Body.Bytes())
	var stats struct {
		ReferralsCount int   `json:"referrals_count"`
		PointsEarned   int64 `json:"points_earned"`
	}
	mustUnmarshal(t, body.Data, &stats)
	if stats.ReferralsCount != 2 {
		t.Fatalf("expected referrals_count 2 after distinct applicants, got %d", stats.ReferralsCount)
	}
}

func TestApply_WithoutToken_Returns401(t *testing.T) {
	s := setupTestServer(t)

	resp := s.perform(t, http.MethodPost, "/api/v1/referrals/apply", map[string]any{
		"referral_code": "100CRCLUBAAAA1111",
	}, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
