// Package allowlist implements forma's opaque-object allow-list policy:
// the filter controlling which externally-framed object class names may be
// re-materialized on thaw (and, symmetrically, which may be frozen at all).
//
// Denying unsafe classes at thaw time is what prevents remote code
// execution via the opaque-object fallback path, while still letting a
// trusted sender freeze whatever it wants.
package allowlist

import (
	"os"
	"strings"
	"sync"
)

// Policy decides whether a given opaque class name may be (de)serialized.
type Policy interface {
	Allowed(class string) bool
}

// setPolicy allows only the exact class names given.
type setPolicy struct {
	names map[string]struct{}
}

// Set returns a Policy allowing only the exact class names given.
func Set(names ...string) Policy {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}

	return setPolicy{names: m}
}

func (p setPolicy) Allowed(class string) bool {
	_, ok := p.names[class]
	return ok
}

// wildcardPolicy allows class names matching any of a set of '*' patterns.
type wildcardPolicy struct {
	patterns []string
}

// Wildcard returns a Policy allowing class names matching any pattern.
// Patterns support '*' as a multi-character wildcard (e.g. "com.acme.*").
func Wildcard(patterns ...string) Policy {
	return wildcardPolicy{patterns: patterns}
}

func (p wildcardPolicy) Allowed(class string) bool {
	for _, pat := range p.patterns {
		if matchWildcard(pat, class) {
			return true
		}
	}

	return false
}

func matchWildcard(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, parts[0]) {
		return false
	}

	s = s[len(parts[0]):]

	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}

		s = s[idx+len(part):]
	}

	return strings.HasSuffix(s, parts[len(parts)-1])
}

// denyAllPolicy denies every class. This is the conservative default for
// the thaw side.
type denyAllPolicy struct{}

// DenyAll returns a Policy that denies every class.
func DenyAll() Policy { return denyAllPolicy{} }

func (denyAllPolicy) Allowed(string) bool { return false }

// allowAnyPolicy allows every class unconditionally. This is the default
// for the freeze side: a trusted local sender may emit any opaque object.
type allowAnyPolicy struct{}

// AllowAny returns a Policy that allows every class.
func AllowAny() Policy { return allowAnyPolicy{} }

func (allowAnyPolicy) Allowed(string) bool { return true }

// RecordingPolicy allows every class (like AllowAny) but additionally
// records {class name → frequency} for later audit, with a bounded,
// LRU-like eviction once the tracked-class count exceeds cap, and a full
// sweep once the total number of observations exceeds 16x cap. This is a
// transitional audit tool, not a durable allow-list.
type RecordingPolicy struct {
	mu       sync.Mutex
	cap      int
	observed int
	counts   map[string]int
	order    []string // insertion order, for bounded eviction
}

// AllowAnyAndRecord returns a RecordingPolicy bounded to at most capHint
// tracked class names (if capHint <= 0, the spec default of 1000 is used).
func AllowAnyAndRecord(capHint int) *RecordingPolicy {
	if capHint <= 0 {
		capHint = 1000
	}

	return &RecordingPolicy{
		cap:    capHint,
		counts: make(map[string]int),
	}
}

func (p *RecordingPolicy) Allowed(class string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.observed++

	if _, ok := p.counts[class]; !ok {
		if len(p.order) >= p.cap {
			evict := p.order[0]
			p.order = p.order[1:]
			delete(p.counts, evict)
		}

		p.order = append(p.order, class)
	}

	p.counts[class]++

	if p.observed > 16*p.cap {
		p.gc()
	}

	return true
}

// gc drops the oldest-inserted entries until the tracked set is back
// within cap, and resets the observation counter. Must be called with
// p.mu held.
func (p *RecordingPolicy) gc() {
	for len(p.order) > p.cap {
		evict := p.order[0]
		p.order = p.order[1:]
		delete(p.counts, evict)
	}

	p.observed = 0
}

// Observed returns a snapshot of the recorded {class → frequency} map.
func (p *RecordingPolicy) Observed() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}

	return out
}

// FromEnv builds a Policy from the documented env-var grammar: a
// comma-or-colon-separated list of class names / '*' wildcard patterns, or
// the literal "allow-and-record". base supplies the starting set (may be
// empty), add is unioned in. Both base and add are raw, unsplit
// environment variable values (e.g. os.Getenv(name)).
func FromEnv(base, add string) Policy {
	if strings.TrimSpace(base) == "allow-and-record" || strings.TrimSpace(add) == "allow-and-record" {
		return AllowAnyAndRecord(0)
	}

	var patterns []string
	patterns = append(patterns, splitList(base)...)
	patterns = append(patterns, splitList(add)...)

	if len(patterns) == 0 {
		return DenyAll()
	}

	hasWildcard := false

	for _, p := range patterns {
		if strings.Contains(p, "*") {
			hasWildcard = true
			break
		}
	}

	if hasWildcard {
		return Wildcard(patterns...)
	}

	return Set(patterns...)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ':'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}

// Env var names honored at process init.
const (
	EnvThawBase    = "CODEC_THAW_ALLOWLIST_BASE"
	EnvThawAdd     = "CODEC_THAW_ALLOWLIST_ADD"
	EnvFreezeBase  = "CODEC_FREEZE_ALLOWLIST_BASE"
	EnvFreezeAdd   = "CODEC_FREEZE_ALLOWLIST_ADD"
)

// FromProcessEnv reads the four documented environment variables and
// builds the (freeze, thaw) policy pair they describe. Unset variables
// read as "".
func FromProcessEnv() (freezePolicy, thawPolicy Policy) {
	freezePolicy = FromEnv(os.Getenv(EnvFreezeBase), os.Getenv(EnvFreezeAdd))
	thawPolicy = FromEnv(os.Getenv(EnvThawBase), os.Getenv(EnvThawAdd))

	return freezePolicy, thawPolicy
}
