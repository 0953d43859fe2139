package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeLength = 6

// randomCode draws a uniformly distributed numeric code.
func randomCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to draw random code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
