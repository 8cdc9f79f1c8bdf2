package wire_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/wire"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := wire.Header{Flags: wire.FlagsFor(true, false)}
	b := h.Bytes()

	require.Len(t, b, wire.HeaderSize)
	require.True(t, wire.HasSignature(b))

	parsed, err := wire.ParseHeader(b)
	require.NoError(t, err)
	require.Equal(t, h.Flags, parsed.Flags)
	require.True(t, parsed.Flags.Compressed())
	require.False(t, parsed.Flags.Encrypted())
}

func TestFlagsFor(t *testing.T) {
	require.Equal(t, wire.FlagsV1Raw, wire.FlagsFor(false, false))
	require.Equal(t, wire.FlagsV1Compressed, wire.FlagsFor(true, false))
	require.Equal(t, wire.FlagsV1Encrypted, wire.FlagsFor(false, true))
	require.Equal(t, wire.FlagsV1CompressedEncrypted, wire.FlagsFor(true, true))
}

func TestParseHeaderRejectsBadSignatureAndFlags(t *testing.T) {
	_, err := wire.ParseHeader([]byte{0, 0, 0, 0})
	require.ErrorIs(t, err, errs.ErrUnrecognizedHeader)

	bad := append([]byte{}, wire.Signature[:]...)
	bad = append(bad, 0xFF)
	_, err = wire.ParseHeader(bad)
	require.ErrorIs(t, err, errs.ErrUnrecognizedHeader)

	_, err = wire.ParseHeader([]byte{'N', 'P'})
	require.ErrorIs(t, err, errs.ErrCorruptStream)
}

func TestExtensionTagRoundTrip(t *testing.T) {
	tag := wire.ExtensionTag(5)
	require.True(t, tag.IsExtension())
	require.Equal(t, 5, tag.CustomID())

	require.False(t, wire.TagInt64.IsExtension())
}

func TestTwosComplementRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 127, -128, 128, -129, 1 << 40, -(1 << 40)}

	for _, c := range cases {
		n := big.NewInt(c)
		encoded := wire.EncodeTwosComplement(n)
		decoded := wire.DecodeTwosComplement(encoded)
		require.Equal(t, 0, n.Cmp(decoded), "round trip of %d", c)
	}
}

func TestTwosComplementLargeMagnitude(t *testing.T) {
	n := new(big.Int)
	n.SetString("123456789012345678901234567890", 10)

	encoded := wire.EncodeTwosComplement(n)
	decoded := wire.DecodeTwosComplement(encoded)
	require.Equal(t, 0, n.Cmp(decoded))

	neg := new(big.Int).Neg(n)
	encodedNeg := wire.EncodeTwosComplement(neg)
	decodedNeg := wire.DecodeTwosComplement(encodedNeg)
	require.Equal(t, 0, neg.Cmp(decodedNeg))
}

func TestReaderPrimitives(t *testing.T) {
	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	wire.PutTag(buf, wire.TagInt64)
	wire.PutUint8(buf, 7)
	wire.PutUint16(buf, 300)
	wire.PutUint32(buf, 70000)
	wire.PutUint64(buf, 1<<40)
	wire.PutBytes(buf, []byte("hello"))
	wire.PutSmallBytes(buf, []byte("hi"))

	r := wire.NewReader(buf.Bytes())

	tag, err := r.Tag()
	require.NoError(t, err)
	require.Equal(t, wire.TagInt64, tag)

	u8, err := r.Uint8()
	require.NoError(t, err)
	require.Equal(t, uint8(7), u8)

	u16, err := r.Uint16()
	require.NoError(t, err)
	require.Equal(t, uint16(300), u16)

	u32, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(70000), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), u64)

	b, err := r.Bytes(0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)

	sb, err := r.SmallBytes()
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), sb)

	require.True(t, r.Done())
}

func TestReaderBoundsChecked(t *testing.T) {
	r := wire.NewReader([]byte{1, 2})

	_, err := r.Uint32()
	require.ErrorIs(t, err, errs.ErrCorruptStream)
}

func TestReaderRemainingAndSkip(t *testing.T) {
	r := wire.NewReader([]byte{1, 2, 3, 4, 5})

	require.Equal(t, []byte{1, 2, 3, 4, 5}, r.Remaining())

	require.NoError(t, r.Skip(2))
	require.Equal(t, []byte{3, 4, 5}, r.Remaining())
	require.Equal(t, 3, r.Len())

	require.Error(t, r.Skip(10))
}

func TestBytesRejectsOversizeLength(t *testing.T) {
	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	wire.PutBytes(buf, make([]byte, 100))

	r := wire.NewReader(buf.Bytes())
	_, err := r.Bytes(10)
	require.ErrorIs(t, err, errs.ErrCorruptStream)
}
