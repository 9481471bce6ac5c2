/*
Package randx provides functions for generating cryptographically secure random values.

It is used to generate fixed-length numeric phone verification codes and unique
storage object keys for uploaded files.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// VerificationCodeLength is the number of digits in a phone verification code.
	VerificationCodeLength = 6
)

// VerificationCode generates a numeric code of VerificationCodeLength digits using
// a cryptographically secure random number generator (crypto/rand). Leading zeros
// are preserved.
func VerificationCode() (string, error) {
	var b strings.Builder
	b.Grow(VerificationCodeLength)

	for i := 0; i < VerificationCodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit for verification code: %v", err)
		}
		fmt.Fprintf(&b, "%d", num.Int64())
	}

	return b.String(), nil
}

// ObjectKey builds a unique storage key for an uploaded file, preserving the original
// extension under the given prefix, e.g. "attachments/4f3c...-9a.png".
func ObjectKey(prefix string, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}
