package freeze_test

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/forma/allowlist"
	"github.com/arloliu/forma/compress"
	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/freeze"
	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/kdf"
	"github.com/arloliu/forma/registry"
	"github.com/arloliu/forma/value"
	"github.com/arloliu/forma/wire"
)

func TestEncodeScalarsHaveHeaderByDefault(t *testing.T) {
	data, err := freeze.Encode(value.Int64(42))
	require.NoError(t, err)
	require.True(t, wire.HasSignature(data))

	h, err := wire.ParseHeader(data)
	require.NoError(t, err)
	require.False(t, h.Compressed())
	require.False(t, h.Encrypted())
}

func TestEncodeWithHeaderFalseOmitsEnvelope(t *testing.T) {
	data, err := freeze.Encode(value.Int64(7), freeze.WithHeader(false))
	require.NoError(t, err)
	require.False(t, wire.HasSignature(data))
}

func TestEncodeIsDeterministicForPlainValues(t *testing.T) {
	v := value.List([]value.Value{value.Int64(1), value.String("a")})

	a, err := freeze.Encode(v)
	require.NoError(t, err)
	b, err := freeze.Encode(v)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestEncodeWithCompressor(t *testing.T) {
	v := value.String("the quick brown fox jumps over the lazy dog, repeated many many times")

	data, err := freeze.Encode(v, freeze.WithCompressor(compress.NewZstdCompressor()))
	require.NoError(t, err)

	h, err := wire.ParseHeader(data)
	require.NoError(t, err)
	require.True(t, h.Compressed())
	require.False(t, h.Encrypted())
}

func TestEncodeEncryptorWithoutPasswordFails(t *testing.T) {
	_, err := freeze.Encode(value.Int64(1), freeze.WithEncryptor(cipherless{}))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

// cipherless satisfies crypt.Encryptor with no-op bodies, keeping this
// test focused on freeze's config validation rather than real encryption.
type cipherless struct{}

func (cipherless) Encrypt(_ kdf.Password, data []byte) ([]byte, error) { return data, nil }
func (cipherless) Decrypt(_ kdf.Password, data []byte) ([]byte, error) { return data, nil }

func TestEncodeMetadataRoundTripShape(t *testing.T) {
	meta := value.Map([]value.MapEntry{
		{Key: value.NamedValue(value.Name{Local: "unit"}), Val: value.String("ms")},
	})
	v := value.Int64(5).WithMeta(meta)

	data, err := freeze.Encode(v, freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagMetaSentinel, tag)
}

func TestEncodeOpaqueDeniedByAllowList(t *testing.T) {
	v := value.OpaqueValue("com.acme.Widget", []byte("payload"))

	_, err := freeze.Encode(v, freeze.WithAllowList(allowlist.DenyAll()))
	require.ErrorIs(t, err, errs.ErrUnfreezableType)
}

func TestEncodeOpaqueAllowedPasses(t *testing.T) {
	v := value.OpaqueValue("com.acme.Widget", []byte("payload"))

	data, err := freeze.Encode(v, freeze.WithAllowList(allowlist.Set("com.acme.Widget")))
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

type point struct{ X, Y int }

func TestEncodeCustomTypeViaRegistry(t *testing.T) {
	reg := registry.NewFreezeRegistry()
	reg.Register(reflect.TypeOf(point{}), 1, func(v any, w *pool.ByteBuffer) error {
		p := v.(point)
		wire.PutUint32(w, uint32(p.X))
		wire.PutUint32(w, uint32(p.Y))

		return nil
	})

	data, err := freeze.Encode(value.CustomValue(point{X: 3, Y: 4}), freeze.WithRegistry(reg), freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.True(t, tag.IsExtension())
	require.Equal(t, 1, tag.CustomID())
}

func TestEncodeCustomTypeViaRegisterNamedUsesSymbolicTag(t *testing.T) {
	reg := registry.NewFreezeRegistry()
	reg.RegisterNamed(reflect.TypeOf(point{}), "geo.point", func(v any, w *pool.ByteBuffer) error {
		p := v.(point)
		wire.PutUint32(w, uint32(p.X))
		wire.PutUint32(w, uint32(p.Y))

		return nil
	})

	data, err := freeze.Encode(value.CustomValue(point{X: 3, Y: 4}), freeze.WithRegistry(reg), freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagSymbolicExtension, tag)

	name, err := r.Bytes(1 << 24)
	require.NoError(t, err)
	require.Equal(t, "geo.point", string(name))
}

func TestEncodeCustomTypePrefersIntegerRegistrationOverNamed(t *testing.T) {
	reg := registry.NewFreezeRegistry()
	typ := reflect.TypeOf(point{})

	reg.Register(typ, 1, func(v any, w *pool.ByteBuffer) error {
		wire.PutUint32(w, 0)
		wire.PutUint32(w, 0)

		return nil
	})
	reg.RegisterNamed(typ, "geo.point", func(v any, w *pool.ByteBuffer) error {
		wire.PutUint32(w, 0)
		wire.PutUint32(w, 0)

		return nil
	})

	data, err := freeze.Encode(value.CustomValue(point{X: 3, Y: 4}), freeze.WithRegistry(reg), freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.True(t, tag.IsExtension())
	require.Equal(t, 1, tag.CustomID())
}

// textPoint has no registered encoder but implements fmt.Stringer, so it
// should fall back to the text representation.
type textPoint struct{ X, Y int }

func (p textPoint) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func TestEncodeFallbackViaStringer(t *testing.T) {
	data, err := freeze.Encode(value.CustomValue(textPoint{1, 2}), freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagTextFallback, tag)
}

// framedThing implements freeze.OpaqueFramer.
type framedThing struct{ id string }

func (f framedThing) FreezeClass() string         { return "com.acme.Framed" }
func (f framedThing) FreezeFrame() ([]byte, error) { return []byte(f.id), nil }

func TestEncodeFallbackViaOpaqueFramer(t *testing.T) {
	data, err := freeze.Encode(
		value.CustomValue(framedThing{id: "abc"}),
		freeze.WithAllowList(allowlist.Set("com.acme.Framed")),
		freeze.WithHeader(false),
	)
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagOpaque, tag)
}

func TestEncodeFallbackViaOpaqueFramerDeniedFails(t *testing.T) {
	_, err := freeze.Encode(
		value.CustomValue(framedThing{id: "abc"}),
		freeze.WithAllowList(allowlist.DenyAll()),
	)
	require.ErrorIs(t, err, errs.ErrUnfreezableType)
}

// unfreezableThing has no Stringer, no OpaqueFramer, and no registered
// encoder.
type unfreezableThing struct{ n int }

func TestEncodeFallbackViaFinalFallback(t *testing.T) {
	fallback := func(v any) (value.Value, error) {
		u, ok := v.(unfreezableThing)
		if !ok {
			return value.Value{}, errors.New("unexpected type")
		}

		return value.Int64(int64(u.n)), nil
	}

	data, err := freeze.Encode(
		value.CustomValue(unfreezableThing{n: 9}),
		freeze.WithFinalFallback(fallback),
		freeze.WithHeader(false),
	)
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagInt64As8, tag)
}

func TestEncodeUnfreezableWithNoFallbackFails(t *testing.T) {
	_, err := freeze.Encode(value.CustomValue(unfreezableThing{n: 1}))
	require.ErrorIs(t, err, errs.ErrUnfreezableType)
}

func TestEncodeBigIntUsesTwosComplementTag(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	data, err := freeze.Encode(value.BigInt(huge), freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagBigInt, tag)
}

func TestEncodeCollectionsAndRecord(t *testing.T) {
	rec := value.RecordValue("Point", []value.MapEntry{
		{Key: value.NamedValue(value.Name{Local: "x"}), Val: value.Int64(1)},
		{Key: value.NamedValue(value.Name{Local: "y"}), Val: value.Int64(2)},
	})

	data, err := freeze.Encode(rec, freeze.WithHeader(false))
	require.NoError(t, err)

	r := wire.NewReader(data)
	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagRecord, tag)
}

func TestEncodeTimeTypes(t *testing.T) {
	now := time.Now().UTC()

	for _, v := range []value.Value{
		value.Timestamp(now),
		value.Instant(now),
		value.Duration(5 * time.Second),
		value.UUIDValue(uuid.New()),
	} {
		data, err := freeze.Encode(v)
		require.NoError(t, err)
		require.NotEmpty(t, data)
	}
}
