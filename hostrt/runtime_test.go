package hostrt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjects(t *testing.T) {
	rt := New()

	i, err := rt.NewInt(-7)
	require.NoError(t, err)
	f, err := rt.NewFloat(2.5)
	require.NoError(t, err)
	s, err := rt.NewStr("héllo")
	require.NoError(t, err)
	b, err := rt.NewBytes(nil)
	require.NoError(t, err)

	assert.Equal(t, 4, rt.Live())

	v, err := i.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)

	fv, err := f.Float64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, fv)

	sv, err := s.UTF8()
	require.NoError(t, err)
	assert.Equal(t, "héllo", string(sv))

	bv, err := b.Bytes()
	require.NoError(t, err)
	assert.NotNil(t, bv, "nil input yields an empty, non-nil buffer")
	assert.Empty(t, bv)

	for _, o := range []*Object{i, f, s, b} {
		assert.Equal(t, int64(1), o.RefCount())
		o.DecRef()
		assert.True(t, o.Freed())
	}
	assert.Equal(t, 0, rt.Live())
}

func TestAccessorTypeErrors(t *testing.T) {
	rt := New()
	s, err := rt.NewStr("x")
	require.NoError(t, err)
	defer s.DecRef()

	_, err = s.Int64()
	require.Error(t, err)

	var he *HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "TypeError", he.Type)
	assert.Equal(t, err, rt.Fetch(), "accessor failure leaves the error pending")
}

func TestNoneIsShared(t *testing.T) {
	rt := New()
	base := rt.none.RefCount()

	n1 := rt.None()
	n2 := rt.None()
	assert.Same(t, n1, n2)
	assert.Equal(t, base+2, n1.RefCount())

	n1.DecRef()
	n2.DecRef()
	assert.Equal(t, base, rt.none.RefCount())
	assert.Equal(t, 0, rt.Live(), "None is not counted as a live allocation")
}

func TestTupleStealsItems(t *testing.T) {
	rt := New()

	tup, err := rt.NewTuple(3)
	require.NoError(t, err)

	a, _ := rt.NewInt(1)
	c, _ := rt.NewStr("c")
	require.NoError(t, tup.SetItem(0, a))
	require.NoError(t, tup.SetItem(1, c))
	// slot 2 stays empty, as after a conversion failure

	assert.Equal(t, int64(1), a.RefCount(), "SetItem does not add a reference")
	assert.Equal(t, 3, rt.Live())

	tup.DecRef()
	assert.True(t, a.Freed())
	assert.True(t, c.Freed())
	assert.Equal(t, 0, rt.Live())
}

func TestSetItemOutOfRangeReleasesItem(t *testing.T) {
	rt := New()
	tup, _ := rt.NewTuple(1)
	defer tup.DecRef()

	item, _ := rt.NewInt(5)
	err := tup.SetItem(3, item)
	require.Error(t, err)
	assert.True(t, item.Freed())
	rt.Clear()
}

func TestMapReleasesValues(t *testing.T) {
	rt := New()
	m, err := rt.NewMap()
	require.NoError(t, err)

	v, _ := rt.NewInt(1)
	require.NoError(t, m.MapSet("k", v))
	assert.Equal(t, 1, m.Len())

	m.DecRef()
	assert.True(t, v.Freed())
	assert.Equal(t, 0, rt.Live())
}

func TestDoubleFreePanics(t *testing.T) {
	rt := New()
	o, _ := rt.NewInt(1)
	o.DecRef()

	assert.Panics(t, func() { o.DecRef() })
	assert.Panics(t, func() { o.IncRef() })
}

func TestMaxObjects(t *testing.T) {
	rt := New(WithMaxObjects(2))

	a, err := rt.NewInt(1)
	require.NoError(t, err)
	b, err := rt.NewInt(2)
	require.NoError(t, err)

	_, err = rt.NewInt(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMemory))

	var he *HostError
	require.ErrorAs(t, rt.Occurred(), &he)
	assert.Equal(t, "MemoryError", he.Type)
	rt.Clear()

	none := rt.None()
	assert.NotNil(t, none, "None never allocates")
	none.DecRef()

	a.DecRef()
	c, err := rt.NewInt(3)
	require.NoError(t, err, "freeing makes room again")
	c.DecRef()
	b.DecRef()
}

func TestDecodeUTF8(t *testing.T) {
	rt := New()

	s, err := rt.DecodeUTF8([]byte("ok"))
	require.NoError(t, err)
	s.DecRef()

	_, err = rt.DecodeUTF8([]byte{0xff, 0xfe})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnicode))
	assert.Equal(t, 0, rt.Live())
	rt.Clear()
}

func TestUTF8RejectsInvalidStr(t *testing.T) {
	rt := New()
	s, err := rt.NewStr(string([]byte{'a', 0xc3}))
	require.NoError(t, err)
	defer s.DecRef()

	_, err = s.UTF8()
	assert.True(t, errors.Is(err, ErrUnicode))
	rt.Clear()
}

func TestCall(t *testing.T) {
	rt := New()
	ctx := context.Background()

	add, err := rt.NewFunc("add", func(_ context.Context, args []*Object) (*Object, error) {
		var sum int64
		for _, a := range args {
			v, err := a.Int64()
			if err != nil {
				return nil, err
			}
			sum += v
		}
		return rt.NewInt(sum)
	})
	require.NoError(t, err)
	defer add.DecRef()
	assert.True(t, add.Callable())

	x, _ := rt.NewInt(40)
	y, _ := rt.NewInt(2)
	defer x.DecRef()
	defer y.DecRef()

	res, err := rt.CallArgs(ctx, add, x, y)
	require.NoError(t, err)
	v, _ := res.Int64()
	assert.Equal(t, int64(42), v)
	res.DecRef()

	assert.Equal(t, int64(1), x.RefCount(), "CallArgs releases its tuple")
	assert.Equal(t, 3, rt.Live())
}

func TestCallRaises(t *testing.T) {
	rt := New()
	ctx := context.Background()

	boom, _ := rt.NewFunc("boom", func(context.Context, []*Object) (*Object, error) {
		return nil, fmt.Errorf("kaboom")
	})
	defer boom.DecRef()

	res, err := rt.Call(ctx, boom, nil)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRaised))

	var he *HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "RuntimeError", he.Type)
	assert.Equal(t, "RuntimeError: kaboom", rt.Fetch().Error())
}

func TestCallNotCallable(t *testing.T) {
	rt := New()
	n, _ := rt.NewInt(1)
	defer n.DecRef()

	_, err := rt.Call(context.Background(), n, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not callable")
	rt.Clear()
}

func TestCallNilResultWithoutError(t *testing.T) {
	rt := New()
	bad, _ := rt.NewFunc("bad", func(context.Context, []*Object) (*Object, error) {
		return nil, nil
	})
	defer bad.DecRef()

	_, err := rt.Call(context.Background(), bad, nil)
	assert.True(t, errors.Is(err, ErrRaised))
	assert.Contains(t, rt.Fetch().Error(), "SystemError")
}

func TestPrintErr(t *testing.T) {
	rt := New()
	assert.NoError(t, rt.PrintErr(context.Background()))

	rt.Raise(Errorf("ValueError", "bad value"))
	err := rt.PrintErr(context.Background())
	require.Error(t, err)
	assert.Equal(t, "ValueError: bad value", err.Error())
	assert.NoError(t, rt.Occurred())
}

func TestGuardReentrant(t *testing.T) {
	rt := New()
	ctx := context.Background()

	outer := rt.Ensure(ctx)
	assert.True(t, outer.Owned())
	assert.True(t, rt.Held(outer.Context()))

	inner := rt.Ensure(outer.Context())
	assert.False(t, inner.Owned(), "nested Ensure does not lock again")
	inner.Release()
	assert.True(t, rt.Held(outer.Context()))

	outer.Release()
	outer.Release()
	assert.False(t, rt.Held(outer.Context()))
}

func TestGuardSerializes(t *testing.T) {
	rt := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := rt.Ensure(context.Background())
			defer g.Release()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestRef(t *testing.T) {
	rt := New()
	o, _ := rt.NewInt(1)

	r := NewRef(o)
	assert.Equal(t, int64(2), o.RefCount())
	r.Release()
	r.Release()
	assert.Equal(t, int64(1), o.RefCount())
	assert.False(t, r.Valid())

	owned := Own(o)
	got := owned.Steal()
	assert.Same(t, o, got)
	owned.Release()
	assert.False(t, o.Freed(), "a stolen reference is not released")
	got.DecRef()
	assert.True(t, o.Freed())
}
