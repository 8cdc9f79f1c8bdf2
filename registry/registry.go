// Package registry implements forma's user-extension registry: two
// process-wide mappings, populated at module-init time by user code and
// read on the freeze/thaw hot path.
//
// Reads are lock-free and writes are expected to happen at
// init time; concurrent writes during freeze/thaw are permitted but carry
// no stronger guarantee than eventual visibility — exactly the contract a
// sync.Map gives.
package registry

import (
	"reflect"
	"sync"

	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/wire"
)

// Encoder writes the body of a custom-tagged value. It is given the
// original Go value and a destination buffer; it must write exactly what
// the paired Decoder reads.
type Encoder func(v any, w *pool.ByteBuffer) error

// Decoder reads the body of a custom-tagged value previously written by
// the paired Encoder.
type Decoder func(data []byte) (v any, consumed int, err error)

type freezeEntry struct {
	tag     wire.Tag
	encoder Encoder
}

type namedFreezeEntry struct {
	name    string
	encoder Encoder
}

// FreezeRegistry maps a Go type to (tag, encoder), and separately to
// (symbolic name, encoder). The two namespaces never overlap: a type
// registered under an integer id via Register is untouched by
// RegisterNamed, and vice versa.
type FreezeRegistry struct {
	byType      sync.Map // reflect.Type -> freezeEntry
	byTypeNamed sync.Map // reflect.Type -> namedFreezeEntry
}

// NewFreezeRegistry returns an empty registry.
func NewFreezeRegistry() *FreezeRegistry { return &FreezeRegistry{} }

// Register records type → (tag, encoder). tag must be in [1,128] (the
// caller passes the custom id, not the negative wire tag). Re-registering
// the same type replaces the previous entry (last writer wins).
func (r *FreezeRegistry) Register(t reflect.Type, customID int, enc Encoder) {
	r.byType.Store(t, freezeEntry{tag: wire.ExtensionTag(customID), encoder: enc})
}

// Lookup returns the (tag, encoder) registered for t via Register, if any.
func (r *FreezeRegistry) Lookup(t reflect.Type) (wire.Tag, Encoder, bool) {
	v, ok := r.byType.Load(t)
	if !ok {
		return 0, nil, false
	}

	e := v.(freezeEntry)

	return e.tag, e.encoder, true
}

// RegisterNamed records type → (name, encoder) in the symbolic namespace.
// name travels on the wire as a length-prefixed UTF-8 string instead of a
// single negative tag byte, behind wire.TagSymbolicExtension. Re-registering
// the same type replaces the previous entry.
func (r *FreezeRegistry) RegisterNamed(t reflect.Type, name string, enc Encoder) {
	r.byTypeNamed.Store(t, namedFreezeEntry{name: name, encoder: enc})
}

// LookupNamed returns the (name, encoder) registered for t via
// RegisterNamed, if any.
func (r *FreezeRegistry) LookupNamed(t reflect.Type) (string, Encoder, bool) {
	v, ok := r.byTypeNamed.Load(t)
	if !ok {
		return "", nil, false
	}

	e := v.(namedFreezeEntry)

	return e.name, e.encoder, true
}

// ThawRegistry maps a Tag to a decoder, and separately maps a symbolic name
// to a decoder.
type ThawRegistry struct {
	byTag  sync.Map // wire.Tag -> Decoder
	byName sync.Map // string -> Decoder
}

// NewThawRegistry returns an empty registry.
func NewThawRegistry() *ThawRegistry { return &ThawRegistry{} }

// Register records tag → decoder. customID must be in [1,128].
// Re-registering the same tag replaces the previous entry.
func (r *ThawRegistry) Register(customID int, dec Decoder) {
	r.byTag.Store(wire.ExtensionTag(customID), dec)
}

// Lookup returns the decoder registered for tag via Register, if any.
func (r *ThawRegistry) Lookup(tag wire.Tag) (Decoder, bool) {
	v, ok := r.byTag.Load(tag)
	if !ok {
		return nil, false
	}

	return v.(Decoder), true
}

// RegisterNamed records name → decoder in the symbolic namespace, the
// counterpart to FreezeRegistry.RegisterNamed. Re-registering the same
// name replaces the previous entry.
func (r *ThawRegistry) RegisterNamed(name string, dec Decoder) {
	r.byName.Store(name, dec)
}

// LookupNamed returns the decoder registered for name via RegisterNamed,
// if any.
func (r *ThawRegistry) LookupNamed(name string) (Decoder, bool) {
	v, ok := r.byName.Load(name)
	if !ok {
		return nil, false
	}

	return v.(Decoder), true
}

// DefaultFreeze and DefaultThaw are the process-wide registry pair used by forma.Freeze/forma.Thaw
// when callers don't supply their own via options.
var (
	DefaultFreeze = NewFreezeRegistry()
	DefaultThaw   = NewThawRegistry()
)
