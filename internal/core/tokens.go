// AngelaMos | 2026
// tokens.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

const refreshTokenBytes = 32

// GenerateRefreshToken returns an opaque URL-safe token. Only its
// HashToken digest is stored.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateVerificationCode returns a uniformly random decimal code of the
// given number of digits, zero padded.
func GenerateVerificationCode(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", fmt.Errorf("verification code length %d out of range", digits)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// ConstantTimeEqual compares two short secrets without leaking where they
// first differ.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
