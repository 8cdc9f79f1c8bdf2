// Package thaw implements forma's decode side: turning a tagged binary
// wire-format payload back into a value.Value, reversing package freeze.
package thaw

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/internal/collision"
	"github.com/arloliu/forma/internal/options"
	"github.com/arloliu/forma/registry"
	"github.com/arloliu/forma/value"
	"github.com/arloliu/forma/wire"
)

// MaxContainerLen bounds every length/count field read from the wire
// before any allocation happens, so a crafted huge count can never trigger
// an out-of-memory allocation on its own. Override for call sites that
// legitimately need to exceed it.
var MaxContainerLen uint32 = 1 << 24

type decodeFn func(r *wire.Reader, cfg *Config, parent value.Value) (value.Value, error)

var table [256]decodeFn

func reg(t wire.Tag, fn decodeFn) { table[uint8(t)+128] = fn }

func init() {
	reg(wire.TagNull, func(r *wire.Reader, cfg *Config, parent value.Value) (value.Value, error) {
		return value.Nil(), nil
	})
	reg(wire.TagBool, decodeBool)
	reg(wire.TagChar, decodeChar)
	reg(wire.TagByteArray, decodeBytes)
	reg(wire.TagString, decodeStringGeneral)
	reg(wire.TagSmallString, decodeStringSmall)
	reg(wire.TagName, decodeNameGeneral)
	reg(wire.TagSmallName, decodeNameSmall)
	reg(wire.TagTextFallback, decodeTextFallback)
	reg(wire.TagOpaque, decodeOpaque)

	reg(wire.TagInt64, decodeInt64)
	reg(wire.TagInt64As8, decodeInt64As8)
	reg(wire.TagInt64As16, decodeInt64As16)
	reg(wire.TagInt64As32, decodeInt64As32)
	reg(wire.TagBigInt, decodeBigInt)
	reg(wire.TagBigInt2, decodeBigInt2)

	// legacy declared-type tags: decode-only, never emitted by freeze (a
	// predecessor producer whose source language distinguishes byte/short/
	// int/long static types, unlike this codec's single integer Kind).
	reg(wire.TagInt8, decodeInt64As8)
	reg(wire.TagInt16, decodeInt64As16)
	reg(wire.TagInt32, decodeInt64As32)

	reg(wire.TagFloat32, decodeFloat32)
	reg(wire.TagFloat64, decodeFloat64)
	reg(wire.TagDecimal, decodeDecimal)
	reg(wire.TagRational, decodeRational)

	reg(wire.TagList, decodeListGeneral)
	reg(wire.TagEmptyList, decodeFixedSeq(value.List, 0))
	reg(wire.TagList1, decodeFixedSeq(value.List, 1))
	reg(wire.TagList2, decodeFixedSeq(value.List, 2))
	reg(wire.TagList3, decodeFixedSeq(value.List, 3))

	reg(wire.TagVector, decodeVectorGeneral)
	reg(wire.TagEmptyVector, decodeFixedSeq(value.Vector, 0))
	reg(wire.TagVector1, decodeFixedSeq(value.Vector, 1))
	reg(wire.TagVector2, decodeFixedSeq(value.Vector, 2))
	reg(wire.TagVector3, decodeFixedSeq(value.Vector, 3))

	reg(wire.TagGenericSeq, decodeVectorGeneral)

	reg(wire.TagSet, decodeCountedSeq(value.Set))
	reg(wire.TagSortedSet, decodeCountedSeq(value.SortedSet))
	reg(wire.TagQueue, decodeCountedSeq(value.Queue))

	reg(wire.TagMap, decodeMap(value.Map))
	reg(wire.TagSortedMap, decodeMap(value.SortedMap))
	reg(wire.TagRecord, decodeRecord)

	reg(wire.TagCalendarDate, decodeCalendarDate)
	reg(wire.TagInstant, decodeInstant)
	reg(wire.TagDuration, decodeDuration)
	reg(wire.TagUUID, decodeUUID)
}

// Decode parses data (optionally enveloped, compressed, and encrypted) and
// returns the single top-level value it encodes.
func Decode(data []byte, opts ...Option) (value.Value, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return value.Value{}, err
	}

	payload, err := unwrap(data, cfg)
	if err != nil {
		return value.Value{}, err
	}

	r := wire.NewReader(payload)

	v, err := decodeValue(r, cfg, value.Nil())
	if err != nil {
		return value.Value{}, err
	}

	if !r.Done() {
		return value.Value{}, fmt.Errorf("%w: %d trailing bytes after top-level value", errs.ErrCorruptStream, r.Len())
	}

	return v, nil
}

// unwrap strips the envelope header (if present), decrypts, then
// decompresses, returning the raw tagged payload.
func unwrap(data []byte, cfg *Config) ([]byte, error) {
	payload := data

	compressed, encrypted := false, false

	if wire.HasSignature(data) {
		h, err := wire.ParseHeader(data)
		if err != nil {
			return nil, err
		}

		compressed, encrypted = h.Compressed(), h.Encrypted()
		payload = data[wire.HeaderSize:]
	} else if !cfg.HeaderlessAssumption {
		return nil, fmt.Errorf("%w: missing envelope signature", errs.ErrCorruptStream)
	}

	var err error

	if encrypted {
		if cfg.Encryptor == nil || cfg.Password == nil {
			return nil, fmt.Errorf("%w: encrypted payload but no encryptor/password configured", errs.ErrInvalidConfig)
		}

		payload, err = cfg.Encryptor.Decrypt(*cfg.Password, payload)
		if err != nil {
			return nil, err
		}
	}

	if compressed {
		if cfg.Compressor == nil {
			return nil, fmt.Errorf("%w: compressed payload but no compressor configured", errs.ErrCompressorMismatch)
		}

		payload, err = cfg.Compressor.Decompress(payload)
		if err != nil {
			return nil, err
		}
	}

	return payload, nil
}

// decodeValue reads one tag and, if it is the metadata sentinel, its
// metadata value and base value; otherwise it dispatches the tag's body
// reader directly. parent is the enclosing container's shape stub (see
// containerStub), or value.Nil() at the top level.
func decodeValue(r *wire.Reader, cfg *Config, parent value.Value) (value.Value, error) {
	v, err := decodeValueUntransformed(r, cfg, parent)
	if err != nil {
		return value.Value{}, err
	}

	return cfg.Transform(parent, v), nil
}

// decodeValueUntransformed does the actual tag dispatch without invoking
// cfg.Transform, so a metadata-bearing value's base is fully assembled
// (tag body decoded, then WithMeta attached) before the single Transform
// call in decodeValue runs on it — calling decodeValue recursively for
// the base here would transform it once bare and once more with
// metadata attached.
func decodeValueUntransformed(r *wire.Reader, cfg *Config, parent value.Value) (value.Value, error) {
	tag, err := r.Tag()
	if err != nil {
		return value.Value{}, err
	}

	if tag == wire.TagMetaSentinel {
		meta, err := decodeValue(r, cfg, parent)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: metadata: %w", errs.ErrCorruptStream, err)
		}

		base, err := decodeValueUntransformed(r, cfg, parent)
		if err != nil {
			return value.Value{}, err
		}

		if cfg.IncludeMetadata && (meta.Kind() == value.KindMap || meta.Kind() == value.KindSortedMap) {
			base = base.WithMeta(meta)
		}

		return base, nil
	}

	if tag == wire.TagSymbolicExtension {
		return decodeSymbolicCustom(r, cfg)
	}

	if tag.IsExtension() {
		return decodeCustom(tag, r, cfg)
	}

	fn := table[uint8(tag)+128]
	if fn == nil {
		return value.Value{}, fmt.Errorf("%w: unrecognized tag %d", errs.ErrCorruptStream, int8(tag))
	}

	return fn(r, cfg, parent)
}

func decodeBool(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.Uint8()
	if err != nil {
		return value.Value{}, err
	}

	return value.Bool(b != 0), nil
}

func decodeChar(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	c, err := r.Uint16()
	if err != nil {
		return value.Value{}, err
	}

	return value.Char(rune(c)), nil
}

func decodeBytes(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	return value.Bytes(b), nil
}

func decodeStringGeneral(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	return value.String(string(b)), nil
}

func decodeStringSmall(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.SmallBytes()
	if err != nil {
		return value.Value{}, err
	}

	return value.String(string(b)), nil
}

func decodeNameGeneral(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	return value.NamedValue(parseName(string(b))), nil
}

func decodeNameSmall(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.SmallBytes()
	if err != nil {
		return value.Value{}, err
	}

	return value.NamedValue(parseName(string(b))), nil
}

// parseName splits "ns/local" on the first '/'; a name with no '/' is
// unnamespaced.
func parseName(s string) value.Name {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return value.Name{Namespace: s[:i], Local: s[i+1:]}
		}
	}

	return value.Name{Local: s}
}

func decodeTextFallback(r *wire.Reader, cfg *Config, _ value.Value) (value.Value, error) {
	b, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	v, err := parseEDNLiteral(string(b))
	if err != nil {
		return value.UnthawableValue("reader", err), nil
	}

	return v, nil
}

func decodeOpaque(r *wire.Reader, cfg *Config, _ value.Value) (value.Value, error) {
	classBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	data, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	class := string(classBytes)

	if !cfg.AllowList.Allowed(class) {
		return value.QuarantinedValue(class, data), nil
	}

	return value.OpaqueValue(class, data), nil
}

func decodeInt64(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	u, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	return value.Int64(int64(u)), nil
}

func decodeInt64As8(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	u, err := r.Uint8()
	if err != nil {
		return value.Value{}, err
	}

	return value.Int64(int64(int8(u))), nil
}

func decodeInt64As16(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	u, err := r.Uint16()
	if err != nil {
		return value.Value{}, err
	}

	return value.Int64(int64(int16(u))), nil
}

func decodeInt64As32(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	u, err := r.Uint32()
	if err != nil {
		return value.Value{}, err
	}

	return value.Int64(int64(int32(u))), nil
}

func decodeBigInt(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	b, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	return bigIntValue(wire.DecodeTwosComplement(b)), nil
}

// decodeBigInt2 reads the alternate, decode-only big-integer framing: a
// single sign byte (0 = non-negative, 1 = negative) followed by a
// length-prefixed unsigned magnitude. No freeze path ever emits this tag;
// it exists purely so forma can read big integers produced by a
// sign-magnitude-framing predecessor encoder.
func decodeBigInt2(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	sign, err := r.Uint8()
	if err != nil {
		return value.Value{}, err
	}

	mag, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	n := new(big.Int).SetBytes(mag)
	if sign != 0 {
		n.Neg(n)
	}

	return bigIntValue(n), nil
}

// bigIntValue returns a KindInt Value, collapsing to the plain int64 form
// whenever n fits, matching the normalization encodeInt performs.
func bigIntValue(n *big.Int) value.Value {
	if n.IsInt64() {
		return value.Int64(n.Int64())
	}

	return value.BigInt(n)
}

func decodeFloat32(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	u, err := r.Uint32()
	if err != nil {
		return value.Value{}, err
	}

	return value.Float32(math.Float32frombits(u)), nil
}

func decodeFloat64(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	u, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	return value.Float64(math.Float64frombits(u)), nil
}

func decodeDecimal(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	numBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	denBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	num := wire.DecodeTwosComplement(numBytes)
	den := wire.DecodeTwosComplement(denBytes)

	return value.Decimal(new(big.Rat).SetFrac(num, den)), nil
}

func decodeRational(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	numBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	denBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	num := wire.DecodeTwosComplement(numBytes)
	den := wire.DecodeTwosComplement(denBytes)

	return value.Rational(num, den), nil
}

// containerStub returns an empty shaped Value of the given container
// constructor, used as the `parent` argument threaded to child decode
// calls so a ThawTransform hook can inspect the enclosing container's kind
// without needing a fully-built parent.
func containerStub(ctor func([]value.Value) value.Value) value.Value {
	return ctor(nil)
}

// maxPreallocHint bounds the capacity reserved for a length-prefixed
// container before a single element has been read. MaxContainerLen alone
// only bounds the element *count*, not the element size: value.Value is
// a large struct, so preallocating straight from an attacker-controlled
// count near MaxContainerLen would force a multi-gigabyte allocation
// that fails (or swamps the process) before the first short read ever
// surfaces the real, much smaller, input length. Capping the upfront
// reservation and letting append grow it as elements actually decode
// keeps memory use proportional to bytes consumed, not to a claimed
// count.
const maxPreallocHint = 4096

func preallocHint(n uint32) int {
	return min(int(n), maxPreallocHint)
}

func decodeItems(r *wire.Reader, cfg *Config, parent value.Value, n uint32) ([]value.Value, error) {
	if n > MaxContainerLen {
		return nil, fmt.Errorf("%w: item count %d exceeds limit %d", errs.ErrCorruptStream, n, MaxContainerLen)
	}

	items := make([]value.Value, 0, preallocHint(n))

	for i := uint32(0); i < n; i++ {
		v, err := decodeValue(r, cfg, parent)
		if err != nil {
			return nil, err
		}

		items = append(items, v)
	}

	return items, nil
}

func decodeFixedSeq(ctor func([]value.Value) value.Value, n uint32) decodeFn {
	return func(r *wire.Reader, cfg *Config, _ value.Value) (value.Value, error) {
		parent := containerStub(ctor)

		items, err := decodeItems(r, cfg, parent, n)
		if err != nil {
			return value.Value{}, err
		}

		return ctor(items), nil
	}
}

func decodeGeneralSeq(ctor func([]value.Value) value.Value) decodeFn {
	return func(r *wire.Reader, cfg *Config, _ value.Value) (value.Value, error) {
		n, err := r.Uint32()
		if err != nil {
			return value.Value{}, err
		}

		parent := containerStub(ctor)

		items, err := decodeItems(r, cfg, parent, n)
		if err != nil {
			return value.Value{}, err
		}

		return ctor(items), nil
	}
}

var decodeListGeneral = decodeGeneralSeq(value.List)
var decodeVectorGeneral = decodeGeneralSeq(value.Vector)

func decodeCountedSeq(ctor func([]value.Value) value.Value) decodeFn {
	return decodeGeneralSeq(ctor)
}

func decodeMap(ctor func([]value.MapEntry) value.Value) decodeFn {
	return func(r *wire.Reader, cfg *Config, _ value.Value) (value.Value, error) {
		entries, err := decodeMapBody(r, cfg, ctor(nil))
		if err != nil {
			return value.Value{}, err
		}

		return ctor(entries), nil
	}
}

// decodeMapBody reads a 4-byte element count (2x the entry count) followed
// by that many key/value values, as written by freeze's encodeMapBody.
func decodeMapBody(r *wire.Reader, cfg *Config, parent value.Value) ([]value.MapEntry, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	if n%2 != 0 {
		return nil, fmt.Errorf("%w: odd map element count %d", errs.ErrCorruptStream, n)
	}

	pairCount := n / 2
	if pairCount > MaxContainerLen {
		return nil, fmt.Errorf("%w: map entry count %d exceeds limit %d", errs.ErrCorruptStream, pairCount, MaxContainerLen)
	}

	entries := make([]value.MapEntry, 0, preallocHint(pairCount))
	tracker := collision.NewTracker(preallocHint(pairCount))

	for i := uint32(0); i < pairCount; i++ {
		k, err := decodeValue(r, cfg, parent)
		if err != nil {
			return nil, err
		}

		v, err := decodeValue(r, cfg, parent)
		if err != nil {
			return nil, err
		}

		if k.Kind() == value.KindName {
			name := k.AsName()
			if err := tracker.Track(name.Hash(), name.String()); err != nil {
				return nil, fmt.Errorf("%w: %q", err, name.String())
			}
		}

		entries = append(entries, value.MapEntry{Key: k, Val: v})
	}

	return entries, nil
}

func decodeRecord(r *wire.Reader, cfg *Config, _ value.Value) (value.Value, error) {
	nameBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	parent := value.RecordValue(string(nameBytes), nil)

	fields, err := decodeMapBody(r, cfg, parent)
	if err != nil {
		return value.Value{}, err
	}

	return value.RecordValue(string(nameBytes), fields), nil
}

func decodeCalendarDate(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	ms, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	return value.Timestamp(time.UnixMilli(int64(ms)).UTC()), nil
}

func decodeInstant(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	secs, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	nanos, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	return value.Instant(time.Unix(int64(secs), int64(nanos)).UTC()), nil
}

func decodeDuration(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	n, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	return value.Duration(time.Duration(int64(n))), nil
}

func decodeUUID(r *wire.Reader, _ *Config, _ value.Value) (value.Value, error) {
	hi, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	lo, err := r.Uint64()
	if err != nil {
		return value.Value{}, err
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], hi)
	binary.BigEndian.PutUint64(b[8:16], lo)

	u, err := uuid.FromBytes(b[:])
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: invalid uuid bytes: %w", errs.ErrCorruptStream, err)
	}

	return value.UUIDValue(u), nil
}

func decodeCustom(tag wire.Tag, r *wire.Reader, cfg *Config) (value.Value, error) {
	dec, ok := cfg.Registry.Lookup(tag)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %d", errs.ErrMissingCustomReader, tag.CustomID())
	}

	return runCustomDecoder(r, dec)
}

// decodeSymbolicCustom reads the length-prefixed UTF-8 name written by
// freeze's symbolic extension path and dispatches to the decoder
// registered under that name, a namespace kept entirely separate from
// the integer extension tags decodeCustom serves.
func decodeSymbolicCustom(r *wire.Reader, cfg *Config) (value.Value, error) {
	nameBytes, err := r.Bytes(MaxContainerLen)
	if err != nil {
		return value.Value{}, err
	}

	name := string(nameBytes)

	dec, ok := cfg.Registry.LookupNamed(name)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %q", errs.ErrMissingCustomReader, name)
	}

	return runCustomDecoder(r, dec)
}

func runCustomDecoder(r *wire.Reader, dec registry.Decoder) (value.Value, error) {
	v, consumed, err := dec(r.Remaining())
	if err != nil {
		// still advance past whatever the decoder claims to have consumed,
		// or the whole remainder if it reports none, so the stream doesn't
		// desync for any sibling values that follow.
		skip := consumed
		if skip <= 0 {
			skip = r.Len()
		}

		if skipErr := r.Skip(skip); skipErr != nil {
			return value.Value{}, skipErr
		}

		return value.UnthawableValue("custom", err), nil
	}

	if err := r.Skip(consumed); err != nil {
		return value.Value{}, err
	}

	return value.CustomValue(v), nil
}
