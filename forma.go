// Package forma implements a self-describing binary serialization codec
// for structured, dynamically-typed data.
//
// forma serializes ("freezes") values — scalars, text, collections,
// records, timestamps, identifiers, and opaque externally-serialized
// objects — into a compact tagged byte stream, and deserializes ("thaws")
// the same bytes back into an equal logical value. Compression and
// authenticated encryption are optional post-processing stages layered on
// top of the raw tagged encoding; user code can register encoders and
// decoders for custom Go types under stable numeric identifiers via
// ExtendFreeze/ExtendThaw.
//
// # Basic usage
//
//	data, err := forma.Freeze(value.Int64(42))
//	v, err := forma.Thaw(data)
//	fmt.Println(v.AsInt64()) // 42
//
// # Package structure
//
// This file provides the top-level entry points callers reach for most of
// the time. For fine-grained control (per-call compressor/encryptor
// selection, custom allow-lists, registries), use the freeze and thaw
// packages directly — forma.Freeze/forma.Thaw simply apply the
// process-wide defaults configured here before delegating to them.
package forma

import (
	"fmt"
	"os"
	"reflect"
	"sync/atomic"

	"github.com/arloliu/forma/allowlist"
	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/freeze"
	"github.com/arloliu/forma/internal/options"
	"github.com/arloliu/forma/registry"
	"github.com/arloliu/forma/thaw"
	"github.com/arloliu/forma/value"
)

var (
	processFreezeAllowList atomic.Pointer[allowlist.Policy]
	processThawAllowList   atomic.Pointer[allowlist.Policy]
	processFinalFallback   atomic.Pointer[func(any) (value.Value, error)]
	processThawTransform   atomic.Pointer[thaw.ThawTransform]
)

func init() {
	freezeDefault := allowlist.AllowAny()
	processFreezeAllowList.Store(&freezeDefault)

	thawDefault := allowlist.DenyAll()
	processThawAllowList.Store(&thawDefault)

	// env vars only narrow the defaults above when actually set; FromEnv
	// returns DenyAll() for an unset base/add pair, which would otherwise
	// clobber the freeze side's AllowAny() default.
	if envSet(allowlist.EnvFreezeBase, allowlist.EnvFreezeAdd) {
		freezePolicy, _ := allowlist.FromProcessEnv()
		processFreezeAllowList.Store(&freezePolicy)
	}

	if envSet(allowlist.EnvThawBase, allowlist.EnvThawAdd) {
		_, thawPolicy := allowlist.FromProcessEnv()
		processThawAllowList.Store(&thawPolicy)
	}
}

func envSet(names ...string) bool {
	for _, n := range names {
		if os.Getenv(n) != "" {
			return true
		}
	}

	return false
}

// SetFreezeAllowList replaces the process-wide default opaque-object
// allow-list used by Freeze when no WithAllowList option is passed.
func SetFreezeAllowList(p allowlist.Policy) { processFreezeAllowList.Store(&p) }

// SetThawAllowList replaces the process-wide default opaque-object
// allow-list used by Thaw when no WithAllowList option is passed.
func SetThawAllowList(p allowlist.Policy) { processThawAllowList.Store(&p) }

// SetFinalFallback replaces the process-wide default final-fallback hook
// used by Freeze when no WithFinalFallback option is passed.
func SetFinalFallback(fn func(any) (value.Value, error)) {
	processFinalFallback.Store(&fn)
}

// SetThawTransform replaces the process-wide default ThawTransform used by
// Thaw when no WithTransform option is passed.
func SetThawTransform(fn thaw.ThawTransform) {
	processThawTransform.Store(&fn)
}

func freezeAllowList() allowlist.Policy {
	if p := processFreezeAllowList.Load(); p != nil {
		return *p
	}

	return allowlist.AllowAny()
}

func thawAllowList() allowlist.Policy {
	if p := processThawAllowList.Load(); p != nil {
		return *p
	}

	return allowlist.DenyAll()
}

// Freeze serializes v, applying the process-wide default allow-list and
// final-fallback hook (see SetFreezeAllowList/SetFinalFallback) unless
// opts overrides them.
func Freeze(v value.Value, opts ...freeze.Option) ([]byte, error) {
	base := []freeze.Option{freeze.WithAllowList(freezeAllowList())}

	if fn := processFinalFallback.Load(); fn != nil {
		base = append(base, freeze.WithFinalFallback(*fn))
	}

	return freeze.Encode(v, append(base, opts...)...)
}

// Thaw deserializes data, applying the process-wide default allow-list and
// thaw transform (see SetThawAllowList/SetThawTransform) unless opts
// overrides them.
func Thaw(data []byte, opts ...thaw.Option) (value.Value, error) {
	base := []thaw.Option{thaw.WithAllowList(thawAllowList())}

	if fn := processThawTransform.Load(); fn != nil {
		base = append(base, thaw.WithTransform(*fn))
	}

	return thaw.Decode(data, append(base, opts...)...)
}

// ExtendFreeze registers a custom encoder for Go type t under customID (in
// [1,128]) in the default freeze registry.
func ExtendFreeze(t reflect.Type, customID int, enc registry.Encoder) {
	registry.DefaultFreeze.Register(t, customID, enc)
}

// ExtendThaw registers a custom decoder for customID (in [1,128]) in the
// default thaw registry.
func ExtendThaw(customID int, dec registry.Decoder) {
	registry.DefaultThaw.Register(customID, dec)
}

// ReadQuarantinedUnsafe explicitly materializes a value.Quarantined
// placeholder (produced when Thaw denied an opaque object's class) as the
// value.Opaque it would have been had the class been allowed. Named
// "unsafe" because the caller is opting out of the allow-list's
// protection for this one value.
func ReadQuarantinedUnsafe(v value.Value) (value.Value, error) {
	q := v.AsQuarantined()
	if q == nil {
		return value.Value{}, fmt.Errorf("%w: value is not a quarantined placeholder", errs.ErrInvalidConfig)
	}

	return value.OpaqueValue(q.Class, q.Raw), nil
}

// FreezeKind classifies how Freezable expects Freeze to handle a value.
type FreezeKind uint8

const (
	// KindNone means Freeze would fail for this value under the given options.
	KindNone FreezeKind = iota
	// KindNative means v has a directly-supported wire representation.
	KindNative
	// KindFallback means v would be frozen via the opaque/text/final
	// fallback chain rather than a native tag.
	KindFallback
)

// Freezable reports how Freeze would handle v under opts without actually
// encoding it: KindNative for a value with a direct wire representation
// (including a registered custom type or an allow-listed Opaque),
// KindFallback if it would only succeed via the fallback chain, or
// KindNone if Freeze would return errs.ErrUnfreezableType. Only v itself
// is classified: the elements of a collection are not inspected.
func Freezable(v value.Value, opts ...freeze.Option) FreezeKind {
	cfg := &freeze.Config{AllowList: freezeAllowList(), Registry: registry.DefaultFreeze}
	if fn := processFinalFallback.Load(); fn != nil {
		cfg.FinalFallback = *fn
	}

	if err := options.Apply(cfg, opts...); err != nil {
		return KindNone
	}

	switch v.Kind() {
	case value.KindOpaque:
		if cfg.AllowList.Allowed(v.AsOpaque().Class) {
			return KindNative
		}

		return KindNone
	case value.KindCustom:
		t := reflect.TypeOf(v.AsCustom())
		if _, _, ok := cfg.Registry.Lookup(t); ok {
			return KindNative
		}

		if _, _, ok := cfg.Registry.LookupNamed(t); ok {
			return KindNative
		}

		if framer, ok := v.AsCustom().(freeze.OpaqueFramer); ok {
			if cfg.AllowList.Allowed(framer.FreezeClass()) {
				return KindFallback
			}

			return KindNone
		}

		if _, ok := v.AsCustom().(fmt.Stringer); ok {
			return KindFallback
		}

		if cfg.FinalFallback != nil {
			return KindFallback
		}

		return KindNone
	case value.KindUnthawable:
		return KindNone
	default:
		return KindNative
	}
}
