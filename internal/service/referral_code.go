package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	referralCodePrefix    = "100CRCLUB"
	referralCodeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeSuffixLen = 8

	// maxCodeAttempts bounds the generate-and-check loop. 36^8 suffixes
	// make collisions vanishingly rare, so hitting the cap means the
	// generator or the uniqueness check is broken, not the code space.
	maxCodeAttempts = 32
)

var ErrCodeSpaceExhausted = errors.New("referral code space exhausted")

// codeExistsFunc reports whether a candidate code is already assigned.
type codeExistsFunc func(ctx context.Context, code string) (bool, error)

func newReferralCode() (string, error) {
	suffix := make([]byte, referralCodeSuffixLen)
	alphabetLen := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("draw referral code char: %w", err)
		}
		suffix[i] = referralCodeAlphabet[n.Int64()]
	}
	return referralCodePrefix + string(suffix), nil
}

// generateUniqueReferralCode draws candidates until one is unassigned.
// The database's unique constraint remains the final arbiter; this loop
// just keeps insert retries off the hot path.
func generateUniqueReferralCode(ctx context.Context, exists codeExistsFunc) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newReferralCode()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
