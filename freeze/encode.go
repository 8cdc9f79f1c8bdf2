package freeze

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/value"
	"github.com/arloliu/forma/wire"
)

// encodeValue emits the metadata sentinel (if present and enabled) then
// dispatches v's tag and body.
func encodeValue(w *pool.ByteBuffer, v value.Value, cfg *Config) error {
	if cfg.IncludeMetadata {
		if m := v.Meta(); m != nil {
			wire.PutTag(w, wire.TagMetaSentinel)

			if err := encodeValue(w, *m, cfg); err != nil {
				return err
			}

			return encodeTagged(w, v, cfg)
		}
	}

	return encodeTagged(w, v, cfg)
}

// encodeTagged writes v's tag and body, ignoring any attached metadata
// (the caller, encodeValue, has already handled it).
func encodeTagged(w *pool.ByteBuffer, v value.Value, cfg *Config) error {
	switch v.Kind() {
	case value.KindNil:
		wire.PutTag(w, wire.TagNull)

		return nil
	case value.KindBool:
		wire.PutTag(w, wire.TagBool)

		b := uint8(0)
		if v.AsBool() {
			b = 1
		}

		wire.PutUint8(w, b)

		return nil
	case value.KindChar:
		wire.PutTag(w, wire.TagChar)
		wire.PutUint16(w, uint16(v.AsChar()))

		return nil
	case value.KindInt:
		return encodeInt(w, v)
	case value.KindFloat32:
		wire.PutTag(w, wire.TagFloat32)
		wire.PutUint32(w, math.Float32bits(v.AsFloat32()))

		return nil
	case value.KindFloat64:
		wire.PutTag(w, wire.TagFloat64)
		wire.PutUint64(w, math.Float64bits(v.AsFloat64()))

		return nil
	case value.KindDecimal:
		return encodeDecimal(w, v)
	case value.KindRational:
		return encodeRational(w, v)
	case value.KindBytes:
		wire.PutTag(w, wire.TagByteArray)
		wire.PutBytes(w, v.AsBytes())

		return nil
	case value.KindString:
		return encodeText(w, wire.TagString, wire.TagSmallString, v.AsString())
	case value.KindName:
		return encodeText(w, wire.TagName, wire.TagSmallName, v.AsName().String())
	case value.KindList:
		return encodeCompactSeq(w, wire.TagList, wire.TagEmptyList, wire.TagList1, wire.TagList2, wire.TagList3, v.AsItems(), cfg)
	case value.KindVector:
		return encodeCompactSeq(w, wire.TagVector, wire.TagEmptyVector, wire.TagVector1, wire.TagVector2, wire.TagVector3, v.AsItems(), cfg)
	case value.KindSet:
		return encodeCountedSeq(w, wire.TagSet, v.AsItems(), cfg)
	case value.KindSortedSet:
		return encodeCountedSeq(w, wire.TagSortedSet, v.AsItems(), cfg)
	case value.KindQueue:
		return encodeCountedSeq(w, wire.TagQueue, v.AsItems(), cfg)
	case value.KindMap:
		return encodeMap(w, wire.TagMap, v.AsEntries(), cfg)
	case value.KindSortedMap:
		return encodeMap(w, wire.TagSortedMap, v.AsEntries(), cfg)
	case value.KindRecord:
		return encodeRecord(w, v.AsRecord(), cfg)
	case value.KindCalendarDate:
		wire.PutTag(w, wire.TagCalendarDate)
		wire.PutUint64(w, uint64(v.AsTime().UnixMilli()))

		return nil
	case value.KindInstant:
		wire.PutTag(w, wire.TagInstant)
		t := v.AsTime()
		wire.PutUint64(w, uint64(t.Unix()))
		wire.PutUint64(w, uint64(t.Nanosecond()))

		return nil
	case value.KindDuration:
		wire.PutTag(w, wire.TagDuration)
		wire.PutUint64(w, uint64(v.AsDuration()))

		return nil
	case value.KindUUID:
		wire.PutTag(w, wire.TagUUID)
		u := v.AsUUID()
		wire.PutUint64(w, binary.BigEndian.Uint64(u[0:8]))
		wire.PutUint64(w, binary.BigEndian.Uint64(u[8:16]))

		return nil
	case value.KindOpaque:
		return encodeOpaque(w, v.AsOpaque(), cfg)
	case value.KindCustom:
		return encodeCustom(w, v, cfg)
	default:
		return fmt.Errorf("%w: %v value cannot be frozen directly", errs.ErrUnfreezableType, v.Kind())
	}
}

func encodeInt(w *pool.ByteBuffer, v value.Value) error {
	if !v.IsInt64() {
		wire.PutTag(w, wire.TagBigInt)
		wire.PutBytes(w, wire.EncodeTwosComplement(v.AsBigInt()))

		return nil
	}

	i := v.AsInt64()

	switch {
	case i >= math.MinInt8 && i <= math.MaxInt8:
		wire.PutTag(w, wire.TagInt64As8)
		wire.PutUint8(w, uint8(int8(i)))
	case i >= math.MinInt16 && i <= math.MaxInt16:
		wire.PutTag(w, wire.TagInt64As16)
		wire.PutUint16(w, uint16(int16(i)))
	case i >= math.MinInt32 && i <= math.MaxInt32:
		wire.PutTag(w, wire.TagInt64As32)
		wire.PutUint32(w, uint32(int32(i)))
	default:
		wire.PutTag(w, wire.TagInt64)
		wire.PutUint64(w, uint64(i))
	}

	return nil
}

// encodeDecimal encodes the big.Rat backing a Decimal value as its exact
// numerator/denominator pair. There is no canonical (unscaled, scale)
// representation in scope here (see DESIGN.md); this differs from a
// fixed-point BigDecimal's usual wire shape but round-trips exactly.
func encodeDecimal(w *pool.ByteBuffer, v value.Value) error {
	wire.PutTag(w, wire.TagDecimal)

	r := v.AsDecimal()
	wire.PutBytes(w, wire.EncodeTwosComplement(r.Num()))
	wire.PutBytes(w, wire.EncodeTwosComplement(r.Denom()))

	return nil
}

func encodeRational(w *pool.ByteBuffer, v value.Value) error {
	wire.PutTag(w, wire.TagRational)

	num, den := v.Rational()
	wire.PutBytes(w, wire.EncodeTwosComplement(num))
	wire.PutBytes(w, wire.EncodeTwosComplement(den))

	return nil
}

func encodeText(w *pool.ByteBuffer, generalTag, smallTag wire.Tag, s string) error {
	data := []byte(s)

	if len(data) <= wire.SmallLenThreshold {
		wire.PutTag(w, smallTag)
		wire.PutSmallBytes(w, data)
	} else {
		wire.PutTag(w, generalTag)
		wire.PutBytes(w, data)
	}

	return nil
}

// encodeTextBody writes a length-prefixed UTF-8 string with no tag byte,
// used for Record's embedded type name.
func encodeTextBody(w *pool.ByteBuffer, s string) {
	wire.PutBytes(w, []byte(s))
}

func encodeCompactSeq(w *pool.ByteBuffer, generalTag, emptyTag, tag1, tag2, tag3 wire.Tag, items []value.Value, cfg *Config) error {
	switch len(items) {
	case 0:
		wire.PutTag(w, emptyTag)
		return nil
	case 1:
		wire.PutTag(w, tag1)
	case 2:
		wire.PutTag(w, tag2)
	case 3:
		wire.PutTag(w, tag3)
	default:
		wire.PutTag(w, generalTag)
		wire.PutUint32(w, uint32(len(items)))
	}

	for _, it := range items {
		if err := encodeValue(w, it, cfg); err != nil {
			return err
		}
	}

	return nil
}

func encodeCountedSeq(w *pool.ByteBuffer, tag wire.Tag, items []value.Value, cfg *Config) error {
	wire.PutTag(w, tag)
	wire.PutUint32(w, uint32(len(items)))

	for _, it := range items {
		if err := encodeValue(w, it, cfg); err != nil {
			return err
		}
	}

	return nil
}

func encodeMapBody(w *pool.ByteBuffer, entries []value.MapEntry, cfg *Config) error {
	wire.PutUint32(w, uint32(2*len(entries)))

	for _, e := range entries {
		if err := encodeValue(w, e.Key, cfg); err != nil {
			return err
		}

		if err := encodeValue(w, e.Val, cfg); err != nil {
			return err
		}
	}

	return nil
}

func encodeMap(w *pool.ByteBuffer, tag wire.Tag, entries []value.MapEntry, cfg *Config) error {
	wire.PutTag(w, tag)
	return encodeMapBody(w, entries, cfg)
}

func encodeRecord(w *pool.ByteBuffer, rec *value.Record, cfg *Config) error {
	wire.PutTag(w, wire.TagRecord)
	encodeTextBody(w, rec.TypeName)

	return encodeMapBody(w, rec.Fields, cfg)
}

func encodeOpaque(w *pool.ByteBuffer, o *value.Opaque, cfg *Config) error {
	if !cfg.AllowList.Allowed(o.Class) {
		return fmt.Errorf("%w: opaque class %q denied by freeze allow-list", errs.ErrUnfreezableType, o.Class)
	}

	wire.PutTag(w, wire.TagOpaque)
	encodeTextBody(w, o.Class)
	wire.PutBytes(w, o.Data)

	return nil
}

func encodeCustom(w *pool.ByteBuffer, v value.Value, cfg *Config) error {
	custom := v.AsCustom()
	t := reflect.TypeOf(custom)

	if tag, enc, ok := cfg.Registry.Lookup(t); ok {
		wire.PutTag(w, tag)

		return enc(custom, w)
	}

	if name, enc, ok := cfg.Registry.LookupNamed(t); ok {
		wire.PutTag(w, wire.TagSymbolicExtension)
		encodeTextBody(w, name)

		return enc(custom, w)
	}

	return freezeFallback(w, custom, cfg)
}
