package concurrency

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/momentics/forkjoin/api"
)

func TestArithmeticSeries(t *testing.T) {
	v, err := ArithmeticSeries(100)
	require.NoError(t, err)
	assert.Equal(t, int64(5050), v)

	v, err = ArithmeticSeries(3037000499)
	require.NoError(t, err)
	assert.Equal(t, int64(4611686016981624750), v)
}

func TestArithmeticSeries_ProductOverflow(t *testing.T) {
	// n*(n+1) exceeds int64 although n*(n+1)/2 would not.
	_, err := ArithmeticSeries(3037000500)
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrArithmeticOverflow))
	assert.Equal(t, api.ErrCodeArithmeticOverflow, api.CodeOf(err))
}

func TestAddMulExact(t *testing.T) {
	_, err := AddExact(math.MaxInt64, 1)
	assert.ErrorIs(t, err, api.ErrArithmeticOverflow)
	_, err = AddExact(math.MinInt64, -1)
	assert.ErrorIs(t, err, api.ErrArithmeticOverflow)
	v, err := AddExact(math.MaxInt64, math.MinInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	_, err = MulExact(math.MinInt64, -1)
	assert.ErrorIs(t, err, api.ErrArithmeticOverflow)
	_, err = MulExact(1<<32, 1<<31)
	assert.ErrorIs(t, err, api.ErrArithmeticOverflow)
	v, err = MulExact(-(1 << 31), 1<<32)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), v)
}

func TestSumRange_Edges(t *testing.T) {
	v, err := SumRange(api.Range{Lo: 5, Hi: 4})
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = SumRange(api.Range{Lo: math.MaxInt64, Hi: math.MaxInt64})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)

	v, err = SumRange(api.Range{Lo: -10, Hi: 10})
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = SumRange(api.Range{Lo: math.MaxInt64 - 1, Hi: math.MaxInt64})
	assert.ErrorIs(t, err, api.ErrArithmeticOverflow)

	_, err = SumRange(api.Range{Lo: math.MinInt64, Hi: math.MaxInt64})
	assert.ErrorIs(t, err, api.ErrArithmeticOverflow)
}

func TestSumRange_MatchesLoop(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.Int64Range(-5000, 5000).Draw(t, "lo")
		n := rapid.Int64Range(0, 3000).Draw(t, "n")
		hi := lo + n - 1
		var want int64
		for i := lo; i <= hi; i++ {
			want += i
		}
		got, err := SumRange(api.Range{Lo: lo, Hi: hi})
		if err != nil {
			t.Fatalf("SumRange(%d, %d): %v", lo, hi, err)
		}
		if got != want {
			t.Fatalf("SumRange(%d, %d) = %d, want %d", lo, hi, got, want)
		}
	})
}
