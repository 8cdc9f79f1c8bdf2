package value_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/forma/value"
)

func TestScalarConstructorsAndAccessors(t *testing.T) {
	require.True(t, value.Equal(value.Nil(), value.Nil()))
	require.Equal(t, value.KindNil, value.Nil().Kind())

	require.True(t, value.Bool(true).AsBool())
	require.False(t, value.Bool(false).AsBool())

	require.Equal(t, 'x', value.Char('x').AsChar())

	v := value.Int64(42)
	require.True(t, v.IsInt64())
	require.Equal(t, int64(42), v.AsInt64())

	big42 := value.BigInt(big.NewInt(42))
	require.False(t, big42.IsInt64())
	require.True(t, value.Equal(v, big42), "int64 and equal-valued big.Int should compare equal")

	require.Equal(t, float32(1.5), value.Float32(1.5).AsFloat32())
	require.Equal(t, 2.5, value.Float64(2.5).AsFloat64())

	require.Equal(t, "hello", value.String("hello").AsString())
	require.Equal(t, []byte("raw"), value.Bytes([]byte("raw")).AsBytes())
}

func TestNameString(t *testing.T) {
	n := value.Name{Namespace: "ns", Local: "local"}
	require.Equal(t, "ns/local", n.String())

	unnamespaced := value.Name{Local: "local"}
	require.Equal(t, "local", unnamespaced.String())
}

func TestRationalAndDecimal(t *testing.T) {
	num, den := big.NewInt(1), big.NewInt(3)
	r := value.Rational(num, den)

	gotNum, gotDen := r.Rational()
	require.Equal(t, 0, num.Cmp(gotNum))
	require.Equal(t, 0, den.Cmp(gotDen))

	dec := value.Decimal(big.NewRat(1, 4))
	require.Equal(t, 0, dec.AsDecimal().Cmp(big.NewRat(1, 4)))
}

func TestCollections(t *testing.T) {
	items := []value.Value{value.Int64(1), value.Int64(2)}

	list := value.List(items)
	require.Equal(t, value.KindList, list.Kind())
	require.Len(t, list.AsItems(), 2)

	vec := value.Vector(items)
	require.Equal(t, value.KindVector, vec.Kind())

	// GenericSeq shares Vector's Kind: there is no distinct KindGenericSeq.
	gen := value.GenericSeq(items)
	require.Equal(t, value.KindVector, gen.Kind())
	require.True(t, value.Equal(vec, gen))
}

func TestMapAndRecord(t *testing.T) {
	entries := []value.MapEntry{
		{Key: value.String("a"), Val: value.Int64(1)},
		{Key: value.String("b"), Val: value.Int64(2)},
	}

	m := value.Map(entries)
	require.Equal(t, value.KindMap, m.Kind())
	require.Len(t, m.AsEntries(), 2)

	rec := value.RecordValue("Point", entries)
	require.Equal(t, value.KindRecord, rec.Kind())
	require.Equal(t, "Point", rec.AsRecord().TypeName)
}

func TestTimeDurationUUID(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	ts := value.Timestamp(now)
	require.True(t, ts.AsTime().Equal(now))

	d := value.Duration(5 * time.Second)
	require.Equal(t, 5*time.Second, d.AsDuration())

	id := uuid.New()
	u := value.UUIDValue(id)
	require.Equal(t, id, u.AsUUID())
}

func TestOpaqueQuarantinedUnthawable(t *testing.T) {
	op := value.OpaqueValue("my.Class", []byte{1, 2, 3})
	require.Equal(t, "my.Class", op.AsOpaque().Class)

	q := value.QuarantinedValue("my.Class", []byte{1, 2, 3})
	require.Equal(t, value.KindQuarantined, q.Kind())
	require.NotEqual(t, value.KindOpaque, q.Kind())

	u := value.UnthawableValue("reader", nil)
	require.Equal(t, "reader", u.AsUnthawable().Kind)
}

func TestWithMetaNormalizesEmptyToNil(t *testing.T) {
	base := value.Int64(1)

	withEmpty := base.WithMeta(value.Map(nil))
	require.Nil(t, withEmpty.Meta())

	meta := value.Map([]value.MapEntry{{Key: value.String("k"), Val: value.Bool(true)}})
	withMeta := base.WithMeta(meta)
	require.NotNil(t, withMeta.Meta())
	require.True(t, value.Equal(*withMeta.Meta(), meta))
}

func TestWithMetaPanicsOnNonMapKind(t *testing.T) {
	require.Panics(t, func() {
		value.Int64(1).WithMeta(value.Int64(2))
	})
}

func TestEqualMapIsOrderInsensitive(t *testing.T) {
	a := value.Map([]value.MapEntry{
		{Key: value.String("a"), Val: value.Int64(1)},
		{Key: value.String("b"), Val: value.Int64(2)},
	})
	b := value.Map([]value.MapEntry{
		{Key: value.String("b"), Val: value.Int64(2)},
		{Key: value.String("a"), Val: value.Int64(1)},
	})

	require.True(t, value.Equal(a, b))
}

func TestEqualCustomIsAlwaysTrue(t *testing.T) {
	require.True(t, value.Equal(value.CustomValue(1), value.CustomValue("different")))
}
