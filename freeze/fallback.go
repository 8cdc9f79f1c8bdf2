package freeze

import (
	"fmt"

	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/value"
	"github.com/arloliu/forma/wire"
)

// OpaqueFramer is implemented by Go values that know how to frame
// themselves as an opaque externally-serialized object: a class name plus
// the raw bytes of whatever host-specific encoding the caller wants
// preserved. This is the idiomatic stand-in for "a class the host runtime
// can externally serialize" from the fallback chain below.
type OpaqueFramer interface {
	FreezeClass() string
	FreezeFrame() ([]byte, error)
}

// freezeFallback runs the three-step chain required for a
// value with no native Kind and no registered custom encoder:
//  1. OpaqueFramer, if v implements it and its class is allow-listed
//  2. fmt.Stringer, as a last-resort text representation
//  3. the caller-supplied FinalFallback hook
//
// and otherwise fails with ErrUnfreezableType.
func freezeFallback(w *pool.ByteBuffer, v any, cfg *Config) error {
	if framer, ok := v.(OpaqueFramer); ok {
		class := framer.FreezeClass()

		if !cfg.AllowList.Allowed(class) {
			return fmt.Errorf("%w: opaque class %q denied by freeze allow-list", errs.ErrUnfreezableType, class)
		}

		data, err := framer.FreezeFrame()
		if err != nil {
			return fmt.Errorf("%w: opaque class %q failed to frame: %w", errs.ErrUnfreezableType, class, err)
		}

		return encodeOpaque(w, &value.Opaque{Class: class, Data: data}, cfg)
	}

	if s, ok := v.(fmt.Stringer); ok {
		wire.PutTag(w, wire.TagTextFallback)
		wire.PutBytes(w, []byte(s.String()))

		return nil
	}

	if cfg.FinalFallback != nil {
		fv, err := cfg.FinalFallback(v)
		if err != nil {
			return fmt.Errorf("%w: final fallback failed: %w", errs.ErrUnfreezableType, err)
		}

		return encodeTagged(w, fv, cfg)
	}

	return fmt.Errorf("%w: %T", errs.ErrUnfreezableType, v)
}
