package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pquerna/otp"
)

// DefaultCodeDigits is the width of the one-time codes mailed to subjects.
const DefaultCodeDigits = otp.DigitsSix

// NewNumericCode draws a uniformly random code of the given width from
// crypto/rand. The result is zero padded so "004211" keeps all six digits.
func NewNumericCode(digits otp.Digits) (string, error) {
	width := digits.Length()
	if width <= 0 || width > 9 {
		return "", fmt.Errorf("cryptox: unsupported code width %d", width)
	}

	limit := big.NewInt(1)
	for range width {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to draw code: %w", err)
	}

	return digits.Format(int32(n.Int64())), nil
}

// IsNumericCode reports whether s looks like a code of the given width.
func IsNumericCode(s string, digits otp.Digits) bool {
	if len(s) != digits.Length() {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
