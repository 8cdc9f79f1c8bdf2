// Package rand provides the CSPRNG source used to generate IVs, nonces and
// salts for the cipher and crypt packages.
package rand

import (
	"crypto/rand"
	"fmt"
)

// Bytes returns n cryptographically random bytes.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("rand: failed to read random bytes: %w", err)
	}

	return b, nil
}
