package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Ambiguous characters (0/O, 1/I/L) are left out so codes survive being read aloud.
const referralAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateReferralCode returns a random uppercase code of the given length.
func GenerateReferralCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid referral code length %d", length)
	}
	max := big.NewInt(int64(len(referralAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		code[i] = referralAlphabet[n.Int64()]
	}
	return string(code), nil
}
