// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Overflow-checked integer arithmetic for leaf sums and joins.

package concurrency

import (
	"math"

	"github.com/momentics/forkjoin/api"
)

// AddExact returns a+b or an ArithmeticOverflowError.
func AddExact(a, b int64) (int64, error) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, overflowError("add", a, b)
	}
	return c, nil
}

// MulExact returns a*b or an ArithmeticOverflowError.
func MulExact(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, overflowError("mul", a, b)
	}
	c := a * b
	if c/b != a {
		return 0, overflowError("mul", a, b)
	}
	return c, nil
}

// ArithmeticSeries returns 1+2+...+n using n*(n+1)/2. The product itself
// must fit in an int64.
func ArithmeticSeries(n int64) (int64, error) {
	m, err := AddExact(n, 1)
	if err != nil {
		return 0, err
	}
	p, err := MulExact(n, m)
	if err != nil {
		return 0, err
	}
	return p / 2, nil
}

// SumRange returns lo+(lo+1)+...+hi. Of (lo+hi) and the length exactly one is
// even, so it is halved before the multiplication.
func SumRange(r api.Range) (int64, error) {
	n, ok := r.Len()
	if !ok {
		return 0, overflowError("len", r.Lo, r.Hi)
	}
	switch n {
	case 0:
		return 0, nil
	case 1:
		return r.Lo, nil
	}
	s, err := AddExact(r.Lo, r.Hi)
	if err != nil {
		return 0, err
	}
	if n%2 == 0 {
		return MulExact(n/2, s)
	}
	return MulExact(n, s/2)
}
