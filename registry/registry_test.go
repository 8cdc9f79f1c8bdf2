package registry_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/forma/internal/pool"
	"github.com/arloliu/forma/registry"
	"github.com/arloliu/forma/wire"
)

type point struct{ x, y int }

func TestFreezeRegistryRegisterAndLookup(t *testing.T) {
	r := registry.NewFreezeRegistry()

	enc := func(v any, w *pool.ByteBuffer) error {
		p := v.(point)
		wire.PutUint32(w, uint32(p.x))
		wire.PutUint32(w, uint32(p.y))

		return nil
	}

	r.Register(reflect.TypeOf(point{}), 7, enc)

	tag, gotEnc, ok := r.Lookup(reflect.TypeOf(point{}))
	require.True(t, ok)
	require.Equal(t, wire.ExtensionTag(7), tag)
	require.NotNil(t, gotEnc)

	_, _, ok = r.Lookup(reflect.TypeOf(0))
	require.False(t, ok)
}

func TestFreezeRegistryReRegisterReplaces(t *testing.T) {
	r := registry.NewFreezeRegistry()
	typ := reflect.TypeOf(point{})

	r.Register(typ, 1, func(any, *pool.ByteBuffer) error { return nil })
	r.Register(typ, 2, func(any, *pool.ByteBuffer) error { return nil })

	tag, _, ok := r.Lookup(typ)
	require.True(t, ok)
	require.Equal(t, wire.ExtensionTag(2), tag)
}

func TestThawRegistryRegisterAndLookup(t *testing.T) {
	r := registry.NewThawRegistry()

	dec := func(data []byte) (any, int, error) {
		return point{}, 8, nil
	}

	r.Register(7, dec)

	got, ok := r.Lookup(wire.ExtensionTag(7))
	require.True(t, ok)
	require.NotNil(t, got)

	_, ok = r.Lookup(wire.ExtensionTag(99))
	require.False(t, ok)
}

func TestDefaultRegistriesAreDistinctPerInstance(t *testing.T) {
	require.NotSame(t, registry.DefaultFreeze, registry.NewFreezeRegistry())
	require.NotSame(t, registry.DefaultThaw, registry.NewThawRegistry())
}

func TestFreezeRegistryRegisterNamedAndLookupNamed(t *testing.T) {
	r := registry.NewFreezeRegistry()
	typ := reflect.TypeOf(point{})

	enc := func(v any, w *pool.ByteBuffer) error {
		p := v.(point)
		wire.PutUint32(w, uint32(p.x))
		wire.PutUint32(w, uint32(p.y))

		return nil
	}

	r.RegisterNamed(typ, "geo.point", enc)

	name, gotEnc, ok := r.LookupNamed(typ)
	require.True(t, ok)
	require.Equal(t, "geo.point", name)
	require.NotNil(t, gotEnc)

	_, _, ok = r.LookupNamed(reflect.TypeOf(0))
	require.False(t, ok)
}

func TestFreezeRegistryNamedAndIntegerNamespacesAreIndependent(t *testing.T) {
	r := registry.NewFreezeRegistry()
	typ := reflect.TypeOf(point{})

	r.Register(typ, 7, func(any, *pool.ByteBuffer) error { return nil })

	// Registering the same type in the symbolic namespace must not
	// disturb, or be visible through, the integer-id lookup.
	r.RegisterNamed(typ, "7", func(any, *pool.ByteBuffer) error { return nil })

	tag, _, ok := r.Lookup(typ)
	require.True(t, ok)
	require.Equal(t, wire.ExtensionTag(7), tag)

	name, _, ok := r.LookupNamed(typ)
	require.True(t, ok)
	require.Equal(t, "7", name)
}

func TestFreezeRegistryRegisterNamedReplaces(t *testing.T) {
	r := registry.NewFreezeRegistry()
	typ := reflect.TypeOf(point{})

	r.RegisterNamed(typ, "first", func(any, *pool.ByteBuffer) error { return nil })
	r.RegisterNamed(typ, "second", func(any, *pool.ByteBuffer) error { return nil })

	name, _, ok := r.LookupNamed(typ)
	require.True(t, ok)
	require.Equal(t, "second", name)
}

func TestThawRegistryRegisterNamedAndLookupNamed(t *testing.T) {
	r := registry.NewThawRegistry()

	dec := func(data []byte) (any, int, error) {
		return point{}, 8, nil
	}

	r.RegisterNamed("geo.point", dec)

	got, ok := r.LookupNamed("geo.point")
	require.True(t, ok)
	require.NotNil(t, got)

	_, ok = r.LookupNamed("does.not.exist")
	require.False(t, ok)
}

func TestThawRegistryNamedAndIntegerNamespacesAreIndependent(t *testing.T) {
	r := registry.NewThawRegistry()

	r.Register(7, func(data []byte) (any, int, error) { return point{}, 8, nil })

	_, ok := r.LookupNamed("7")
	require.False(t, ok)

	_, ok = r.Lookup(wire.ExtensionTag(7))
	require.True(t, ok)
}
