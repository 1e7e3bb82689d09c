package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewReferralCode_Format(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := newReferralCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}

		if !strings.HasPrefix(code, referralCodePrefix) {
			t.Fatalf("code %q missing prefix %q", code, referralCodePrefix)
		}

		suffix := strings.TrimPrefix(code, referralCodePrefix)
		if len(suffix) != referralCodeSuffixLen {
			t.Fatalf("code %q suffix length %d, want %d", code, len(suffix), referralCodeSuffixLen)
		}
		for _, r := range suffix {
			if !strings.ContainsRune(referralCodeAlphabet, r) {
				t.Fatalf("code %q contains invalid character %q", code, r)
			}
		}

		seen[code] = true
	}

	if len(seen) < 95 {
		t.Fatalf("expected nearly all of 100 codes to be distinct, got %d", len(seen))
	}
}

func TestGenerateUniqueReferralCode_RetriesCollisions(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= 3, nil
	}

	code, err := generateUniqueReferralCode(context.Background(), exists)
	if err != nil {
		t.Fatalf("expected code after retries, got error: %v", err)
	}
	if code == "" {
		t.Fatal("expected non-empty code")
	}
	if calls != 4 {
		t.Fatalf("expected 4 uniqueness checks, got %d", calls)
	}
}

func TestGenerateUniqueReferralCode_Exhaustion(t *testing.T) {
	exists := func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}

	_, err := generateUniqueReferralCode(context.Background(), exists)
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestGenerateUniqueReferralCode_PropagatesLookupError(t *testing.T) {
	lookupErr := errors.New("connection lost")
	exists := func(ctx context.Context, code string) (bool, error) {
		return false, lookupErr
	}

	_, err := generateUniqueReferralCode(context.Background(), exists)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error to propagate, got %v", err)
	}
}
