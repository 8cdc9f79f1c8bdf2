package forma_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/forma"
	"github.com/arloliu/forma/allowlist"
	"github.com/arloliu/forma/errs"
	"github.com/arloliu/forma/freeze"
	"github.com/arloliu/forma/thaw"
	"github.com/arloliu/forma/value"
)

func TestFreezeThawRoundTrip(t *testing.T) {
	v := value.List([]value.Value{value.Int64(1), value.String("two"), value.Bool(true)})

	data, err := forma.Freeze(v)
	require.NoError(t, err)

	got, err := forma.Thaw(data)
	require.NoError(t, err)
	require.True(t, value.Equal(v, got))
}

func TestFreezeDefaultAllowListAllowsAnyOpaque(t *testing.T) {
	v := value.OpaqueValue("com.acme.Anything", []byte("x"))

	data, err := forma.Freeze(v)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestThawDefaultAllowListQuarantinesOpaque(t *testing.T) {
	data, err := freeze.Encode(value.OpaqueValue("com.acme.Anything", []byte("x")), freeze.WithAllowList(allowlist.AllowAny()))
	require.NoError(t, err)

	got, err := forma.Thaw(data)
	require.NoError(t, err)
	require.Equal(t, value.KindQuarantined, got.Kind())
}

func TestSetThawAllowListAffectsProcessDefault(t *testing.T) {
	defer forma.SetThawAllowList(allowlist.DenyAll())

	forma.SetThawAllowList(allowlist.Set("com.acme.Allowed"))

	data, err := freeze.Encode(value.OpaqueValue("com.acme.Allowed", []byte("x")), freeze.WithAllowList(allowlist.AllowAny()))
	require.NoError(t, err)

	got, err := forma.Thaw(data)
	require.NoError(t, err)
	require.Equal(t, value.KindOpaque, got.Kind())
}

func TestSetFreezeAllowListAffectsProcessDefault(t *testing.T) {
	defer forma.SetFreezeAllowList(allowlist.AllowAny())

	forma.SetFreezeAllowList(allowlist.DenyAll())

	_, err := forma.Freeze(value.OpaqueValue("com.acme.Denied", []byte("x")))
	require.ErrorIs(t, err, errs.ErrUnfreezableType)
}

type unfreezableThing struct{ n int }

func TestSetFinalFallbackAffectsProcessDefault(t *testing.T) {
	defer forma.SetFinalFallback(nil)

	forma.SetFinalFallback(func(v any) (value.Value, error) {
		u, ok := v.(unfreezableThing)
		if !ok {
			return value.Value{}, errors.New("unexpected type")
		}

		return value.Int64(int64(u.n)), nil
	})

	data, err := forma.Freeze(value.CustomValue(unfreezableThing{n: 4}))
	require.NoError(t, err)

	got, err := forma.Thaw(data, thaw.WithHeaderlessAssumption(true))
	require.NoError(t, err)
	require.Equal(t, int64(4), got.AsInt64())
}

func TestSetThawTransformAffectsProcessDefault(t *testing.T) {
	defer forma.SetThawTransform(nil)

	forma.SetThawTransform(func(_, v value.Value) value.Value {
		if v.Kind() == value.KindInt && v.IsInt64() {
			return value.Int64(v.AsInt64() * 2)
		}

		return v
	})

	data, err := forma.Freeze(value.Int64(21))
	require.NoError(t, err)

	got, err := forma.Thaw(data)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.AsInt64())
}

func TestReadQuarantinedUnsafe(t *testing.T) {
	data, err := freeze.Encode(value.OpaqueValue("com.acme.Secret", []byte("payload")), freeze.WithAllowList(allowlist.AllowAny()))
	require.NoError(t, err)

	quarantined, err := forma.Thaw(data)
	require.NoError(t, err)
	require.Equal(t, value.KindQuarantined, quarantined.Kind())

	opaque, err := forma.ReadQuarantinedUnsafe(quarantined)
	require.NoError(t, err)
	require.Equal(t, value.KindOpaque, opaque.Kind())
	require.Equal(t, []byte("payload"), opaque.AsOpaque().Data)
}

func TestReadQuarantinedUnsafeRejectsNonQuarantined(t *testing.T) {
	_, err := forma.ReadQuarantinedUnsafe(value.Int64(1))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestFreezableNativeKinds(t *testing.T) {
	require.Equal(t, forma.KindNative, forma.Freezable(value.Int64(1)))
	require.Equal(t, forma.KindNative, forma.Freezable(value.String("x")))
}

func TestFreezableOpaqueDependsOnAllowList(t *testing.T) {
	defer forma.SetFreezeAllowList(allowlist.AllowAny())

	forma.SetFreezeAllowList(allowlist.Set("com.acme.Allowed"))

	require.Equal(t, forma.KindNative, forma.Freezable(value.OpaqueValue("com.acme.Allowed", nil)))
	require.Equal(t, forma.KindNone, forma.Freezable(value.OpaqueValue("com.acme.Other", nil)))
}

func TestFreezableCustomFallbackPaths(t *testing.T) {
	require.Equal(t, forma.KindNone, forma.Freezable(value.CustomValue(unfreezableThing{n: 1})))

	defer forma.SetFinalFallback(nil)
	forma.SetFinalFallback(func(any) (value.Value, error) { return value.Nil(), nil })
	require.Equal(t, forma.KindFallback, forma.Freezable(value.CustomValue(unfreezableThing{n: 1})))
}

func TestFreezableUnthawableIsNone(t *testing.T) {
	require.Equal(t, forma.KindNone, forma.Freezable(value.UnthawableValue("reader", errors.New("boom"))))
}
