// Package value implements forma's dynamically-typed Value: a closed
// tagged-variant union covering every kind the wire format can represent.
//
// This reifies the open polymorphism of the source system (runtime
// protocol dispatch against arbitrary concrete types) as a single closed
// enumeration plus a user-extension escape hatch (Opaque / custom types),
// the variant's tag IS the wire tag — the same table serves both directions.
package value

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/forma/internal/hash"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindChar
	KindInt     // fixed-width/arbitrary-precision integer, see Value.IsInt64 and Value.AsBigInt
	KindFloat32
	KindFloat64
	KindDecimal
	KindRational
	KindBytes
	KindString
	KindName
	KindList
	KindVector
	KindSet
	KindSortedSet
	KindMap
	KindSortedMap
	KindQueue
	KindRecord
	KindCalendarDate
	KindInstant
	KindDuration
	KindUUID
	KindOpaque
	KindQuarantined
	KindUnthawable
	KindCustom
)

// Name is an interned, optionally namespaced identifier (e.g. "ns/local").
type Name struct {
	Namespace string
	Local     string
}

// String renders the name as "ns/local" or just "local" if unnamespaced.
func (n Name) String() string {
	if n.Namespace == "" {
		return n.Local
	}

	return n.Namespace + "/" + n.Local
}

// Hash returns a stable 64-bit fingerprint of the name, used by thaw's
// duplicate-key detection on Map decode to avoid repeated full string
// comparisons against every key seen so far.
func (n Name) Hash() uint64 {
	return hash.ID(n.String())
}

// MapEntry is one key/value pair of a Map or SortedMap.
type MapEntry struct {
	Key Value
	Val Value
}

// Record is a named struct of named fields (wire-encoded as a type name
// plus a field-name → value mapping).
type Record struct {
	TypeName string
	Fields   []MapEntry // key is always a KindString or KindName
}

// Opaque carries an externally-framed object this codec has no native
// representation for: a class name plus the raw framed bytes produced by
// whatever host-specific serialization the caller plugged in.
type Opaque struct {
	Class string
	Data  []byte
}

// Quarantined is the safe placeholder thaw substitutes for an opaque
// object whose class name the thaw-side allow-list denied. The raw framed
// bytes are preserved so a caller can later materialize it explicitly via
// forma.ReadQuarantinedUnsafe, but the opaque object is never constructed
// implicitly.
type Quarantined struct {
	Class string
	Raw   []byte
}

// Unthawable is a localized decode-failure placeholder substituted in
// place of a sub-tree that could not be decoded, so the rest of the value
// still decodes cleanly.
type Unthawable struct {
	Kind  string // "reader" or "custom"
	Cause error
}

// Value is forma's dynamically-typed logical value.
//
// Zero value is KindNil. Values are immutable once constructed; all
// mutation happens through the typed constructors below.
type Value struct {
	kind Kind

	b   bool
	i   int64
	big *big.Int
	f32 float32
	f64 float64
	dec *big.Rat
	num *big.Int // rational numerator
	den *big.Int // rational denominator

	bytes []byte
	str   string
	name  Name

	items   []Value // List/Vector/Set/SortedSet/Queue
	entries []MapEntry

	record *Record

	ts  time.Time
	dur time.Duration
	uid uuid.UUID

	opaque      *Opaque
	quarantined *Quarantined
	unthawable  *Unthawable
	custom      any

	meta *Value
}

// Kind returns which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Meta returns the out-of-band metadata attached to v, or nil if none.
func (v Value) Meta() *Value { return v.meta }

// WithMeta returns a copy of v carrying meta as out-of-band metadata.
// meta must be a KindMap or KindSortedMap value; an empty map is
// normalized to no metadata at all, since empty metadata is never emitted
// on the wire.
func (v Value) WithMeta(meta Value) Value {
	if meta.kind != KindMap && meta.kind != KindSortedMap {
		panic("value: metadata must be a Map or SortedMap")
	}

	if len(meta.entries) == 0 {
		v.meta = nil
		return v
	}

	m := meta
	v.meta = &m

	return v
}

func Nil() Value                    { return Value{kind: KindNil} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func Char(r rune) Value             { return Value{kind: KindChar, i: int64(r)} }
func Int64(i int64) Value           { return Value{kind: KindInt, i: i} }
func BigInt(i *big.Int) Value       { return Value{kind: KindInt, big: i} }
func Float32(f float32) Value       { return Value{kind: KindFloat32, f32: f} }
func Float64(f float64) Value       { return Value{kind: KindFloat64, f64: f} }
func Decimal(d *big.Rat) Value      { return Value{kind: KindDecimal, dec: d} }
func Bytes(b []byte) Value          { return Value{kind: KindBytes, bytes: b} }
func String(s string) Value         { return Value{kind: KindString, str: s} }
func NamedValue(n Name) Value       { return Value{kind: KindName, name: n} }
func Timestamp(t time.Time) Value   { return Value{kind: KindCalendarDate, ts: t} }
func Instant(t time.Time) Value     { return Value{kind: KindInstant, ts: t} }
func Duration(d time.Duration) Value { return Value{kind: KindDuration, dur: d} }
func UUIDValue(u uuid.UUID) Value   { return Value{kind: KindUUID, uid: u} }

// Rational constructs a numerator/denominator rational value. Unlike
// Decimal (an arbitrary-precision decimal via big.Rat), Rational preserves
// the exact numerator and denominator as written.
func Rational(num, den *big.Int) Value {
	return Value{kind: KindRational, num: num, den: den}
}

func List(items []Value) Value      { return Value{kind: KindList, items: items} }
func Vector(items []Value) Value    { return Value{kind: KindVector, items: items} }
func Set(items []Value) Value       { return Value{kind: KindSet, items: items} }
func SortedSet(items []Value) Value { return Value{kind: KindSortedSet, items: items} }
func Queue(items []Value) Value     { return Value{kind: KindQueue, items: items} }
func GenericSeq(items []Value) Value {
	return Value{kind: KindVector, items: items}
}

func Map(entries []MapEntry) Value       { return Value{kind: KindMap, entries: entries} }
func SortedMap(entries []MapEntry) Value { return Value{kind: KindSortedMap, entries: entries} }

func RecordValue(typeName string, fields []MapEntry) Value {
	return Value{kind: KindRecord, record: &Record{TypeName: typeName, Fields: fields}}
}

func OpaqueValue(class string, data []byte) Value {
	return Value{kind: KindOpaque, opaque: &Opaque{Class: class, Data: data}}
}

// QuarantinedValue constructs the placeholder thaw substitutes for a
// denied opaque class.
func QuarantinedValue(class string, raw []byte) Value {
	return Value{kind: KindQuarantined, quarantined: &Quarantined{Class: class, Raw: raw}}
}

func UnthawableValue(kind string, cause error) Value {
	return Value{kind: KindUnthawable, unthawable: &Unthawable{Kind: kind, Cause: cause}}
}

// CustomValue wraps an arbitrary Go value that a registered custom-type
// encoder/decoder pair (see package registry) knows how to freeze/thaw. It
// is the only way a non-native Go type participates in a List/Vector/Map/
// etc. container, since those hold []Value.
func CustomValue(v any) Value {
	return Value{kind: KindCustom, custom: v}
}

// Accessors. None of them checks Kind: called on the wrong Kind, each
// returns the zero value of the field it reads (nil for the pointer and
// slice accessors). Callers inspecting a Value of unknown provenance
// should check Kind first.

func (v Value) AsBool() bool           { return v.b }
func (v Value) AsChar() rune           { return rune(v.i) }
func (v Value) AsInt64() int64         { return v.i }
func (v Value) AsBigInt() *big.Int     { return v.big }
func (v Value) AsFloat32() float32     { return v.f32 }
func (v Value) AsFloat64() float64     { return v.f64 }
func (v Value) AsDecimal() *big.Rat    { return v.dec }
func (v Value) AsBytes() []byte        { return v.bytes }
func (v Value) AsString() string       { return v.str }
func (v Value) AsName() Name           { return v.name }
func (v Value) AsItems() []Value       { return v.items }
func (v Value) AsEntries() []MapEntry  { return v.entries }
func (v Value) AsRecord() *Record      { return v.record }
func (v Value) AsTime() time.Time      { return v.ts }
func (v Value) AsDuration() time.Duration { return v.dur }
func (v Value) AsUUID() uuid.UUID      { return v.uid }
func (v Value) AsOpaque() *Opaque      { return v.opaque }
func (v Value) AsQuarantined() *Quarantined { return v.quarantined }
func (v Value) AsUnthawable() *Unthawable { return v.unthawable }
func (v Value) AsCustom() any          { return v.custom }

// Rational returns the numerator and denominator of a KindRational value.
func (v Value) Rational() (num, den *big.Int) { return v.num, v.den }

// IsInt64 reports whether the KindInt value fits a plain int64 (as opposed
// to needing the arbitrary-precision big.Int form).
func (v Value) IsInt64() bool { return v.kind == KindInt && v.big == nil }
