package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const charsetUpperAlphaNum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// String generates a cryptographically secure random string from the
// uppercase alphanumeric charset.
func String(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}

	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charsetUpperAlphaNum)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("generate random index: %w", err)
		}
		result[i] = charsetUpperAlphaNum[n.Int64()]
	}
	return string(result), nil
}

// OrderNo generates a human-readable order number like ORD-20260901-X7K2QF.
func OrderNo(now time.Time) string {
	suffix, _ := String(6)
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
