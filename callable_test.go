package memhook

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func triple(x int) int {
	return 3 * x
}

func TestMakeFunc(t *testing.T) {
	t.Run("not a func", func(t *testing.T) {
		_, err := MakeFunc[int](1)
		assert.ErrorIs(t, err, ErrInputType)
	})

	t.Run("nil address", func(t *testing.T) {
		_, err := MakeFunc[func(int) int](0)
		assert.ErrorIs(t, err, ErrNilAddress)
	})

	t.Run("round trip", func(t *testing.T) {
		pc, err := FuncPC(triple)
		require.NoError(t, err)
		fn, err := MakeFunc[func(int) int](pc)
		require.NoError(t, err)
		assert.Equal(t, 21, fn(7))

		again, err := FuncPC(fn)
		require.NoError(t, err)
		assert.Equal(t, pc, again)
	})
}

func TestFuncPC(t *testing.T) {
	_, err := FuncPC(42)
	assert.ErrorIs(t, err, ErrInputType)

	var nilFn func()
	_, err = FuncPC(nilFn)
	assert.ErrorIs(t, err, ErrNilAddress)

	n := 0
	a := func() { n++ }
	b := func() { n += 2 }
	pa, err := FuncPC(a)
	require.NoError(t, err)
	pb, err := FuncPC(b)
	require.NoError(t, err)
	assert.NotEqual(t, pa, pb)
}

func TestFuncCell(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("memory reads need linux")
	}
	fn := triple
	cell := funcCell(fn)
	require.NotZero(t, cell)

	code, err := Read[uintptr](cell)
	require.NoError(t, err)
	pc, err := FuncPC(fn)
	require.NoError(t, err)
	assert.Equal(t, pc, code)
}
