// Package collision tracks hashed keys during map decoding and tells apart
// a genuine duplicate key from two distinct keys whose hash happens to
// collide.
package collision

import "github.com/arloliu/forma/errs"

// Tracker tracks the Name keys seen so far while decoding one Map, keyed by
// their xxhash fingerprint, so decodeMapBody can reject true duplicate keys
// without misclassifying a rare hash collision between two different names
// as a duplicate.
type Tracker struct {
	seen map[uint64][]string
}

// NewTracker creates a Tracker sized for an expected number of entries.
func NewTracker(expected int) *Tracker {
	return &Tracker{seen: make(map[uint64][]string, expected)}
}

// Track records name under hash. It returns an error only when the same
// name was already tracked under this hash (a genuine duplicate key); a
// different name sharing the hash is recorded alongside it but not
// reported as an error, since the stream is not corrupt — the hash
// function collided.
func (t *Tracker) Track(hash uint64, name string) error {
	for _, existing := range t.seen[hash] {
		if existing == name {
			return errs.ErrDuplicateMapKey
		}
	}

	t.seen[hash] = append(t.seen[hash], name)

	return nil
}
