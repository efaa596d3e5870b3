package otp

import (
	"crypto/rand"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator defines the contract for numeric one-time code generation.
type Generator interface {
	// Generate returns a uniformly random code in [0, 10^digits).
	Generate() (int32, error)
	// Format renders a code zero-padded to the configured digit length.
	Format(code int32) string
}

// Numeric implements Generator using crypto/rand.
type Numeric struct {
	digits otp.Digits
	limit  *big.Int
}

// NewNumeric constructs a Numeric generator.
//
// If digits is not 6 or 8, it falls back to 6 digits.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	limit := big.NewInt(10)
	limit.Exp(limit, big.NewInt(int64(digits.Length())), nil)

	return &Numeric{digits: digits, limit: limit}
}

// Generate returns a uniformly random code in [0, 10^digits).
func (n *Numeric) Generate() (int32, error) {
	v, err := rand.Int(rand.Reader, n.limit)
	if err != nil {
		return 0, err
	}

	return int32(v.Int64()), nil
}

// Format renders a code zero-padded to the configured digit length.
func (n *Numeric) Format(code int32) string {
	return n.digits.Format(code)
}
