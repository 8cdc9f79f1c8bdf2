// Package kdf derives symmetric keys from passwords.
//
// The derivation is deliberately not PBKDF2/HKDF: it is the construction
// this codec's wire format was designed against — iterated SHA-512 over
// salt∥password, truncated to 16 bytes (an AES-128 key). Two password
// modes select the round count and whether a per-message salt is used; see
// Mode.
package kdf

import (
	"crypto/sha512"
	"sync"
)

// Mode selects the key-derivation policy for a Password.
type Mode uint8

const (
	// Salted derives an independent key per message from a fresh random
	// salt, using a moderate round count. Appropriate for an open-ended
	// set of passwords, since there is no cache to grow unbounded.
	Salted Mode = iota

	// Cached derives a key once per distinct password, using a very high
	// round count, and memoizes the result. Appropriate for a small,
	// reused set of passwords: the expensive derivation is amortized while
	// the per-key attack cost stays high.
	Cached
)

func (m Mode) String() string {
	switch m {
	case Salted:
		return "salted"
	case Cached:
		return "cached"
	default:
		return "unknown"
	}
}

// Default round counts, per the wire format's KDF contract.
const (
	SaltedRounds = 163_835
	CachedRounds = 2_147_450_880
)

// Password is a tagged (mode, secret) pair. Mode determines whether the
// derived key is salted per call or memoized via DeriveCached, and how
// many rounds are used by default.
type Password struct {
	Mode   Mode
	Secret string
}

// KeySize is the derived key length in bytes (AES-128).
const KeySize = 16

// Derive computes iterated SHA-512 over salt∥password for rounds
// iterations and truncates the result to KeySize bytes.
//
// salt may be nil/empty (Cached mode never has one).
func Derive(salt []byte, password string, rounds int) [KeySize]byte {
	buf := make([]byte, 0, len(salt)+len(password))
	buf = append(buf, salt...)
	buf = append(buf, password...)

	sum := sha512.Sum512(buf)
	for i := 1; i < rounds; i++ {
		sum = sha512.Sum512(sum[:])
	}

	var key [KeySize]byte
	copy(key[:], sum[:KeySize])

	return key
}

// cache memoizes Cached-mode derivations keyed by secret. Safe for
// concurrent use: LoadOrStore ensures concurrent first-use races converge on
// a single value, discarding the duplicate work rather than racing on it.
var cache sync.Map // map[string][KeySize]byte

// DeriveCached returns the memoized Cached-mode key for password, computing
// and storing it on first use.
func DeriveCached(password string) [KeySize]byte {
	if v, ok := cache.Load(password); ok {
		return v.([KeySize]byte)
	}

	key := Derive(nil, password, CachedRounds)
	actual, _ := cache.LoadOrStore(password, key)

	return actual.([KeySize]byte)
}

// ResetCache clears the cached-mode memoization cache. Exposed for tests.
func ResetCache() {
	cache = sync.Map{}
}

// KeyFor derives the key for pw, given salt (ignored in Cached mode).
func KeyFor(pw Password, salt []byte) [KeySize]byte {
	if pw.Mode == Cached {
		return DeriveCached(pw.Secret)
	}

	return Derive(salt, pw.Secret, SaltedRounds)
}
