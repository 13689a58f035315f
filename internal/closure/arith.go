package closure

import "math"

// All helpers work on the uint16 domain and report false instead of wrapping.

func checkedAdd(a, b uint16) (uint16, bool) {
	s := uint32(a) + uint32(b)
	return uint16(s), s <= math.MaxUint16
}

func checkedSub(a, b uint16) (uint16, bool) {
	return a - b, a >= b
}

func checkedMul(a, b uint16) (uint16, bool) {
	p := uint32(a) * uint32(b)
	return uint16(p), p <= math.MaxUint16
}

func checkedPow(base, exp uint16) (uint16, bool) {
	switch {
	case exp == 0:
		return 1, true
	case base <= 1:
		return base, true
	}
	acc := uint32(1)
	for range exp {
		acc *= uint32(base)
		if acc > math.MaxUint16 {
			return 0, false
		}
	}
	return uint16(acc), true
}

// checkedShl shifts n left and fails if any set bit would fall off.
func checkedShl(n uint16, shift uint8) (uint16, bool) {
	s := uint32(n) << shift
	return uint16(s), s <= math.MaxUint16
}

func factorial(n uint16) uint16 {
	acc := uint16(1)
	for i := uint16(2); i <= n; i++ {
		acc *= i
	}
	return acc
}

func doubleFactorial(n uint16) uint16 {
	acc := uint16(1)
	for i := n; i >= 2; i -= 2 {
		acc *= i
	}
	return acc
}

// IsPerfectSquare returns the exact integer square root of n, if it has one.
func IsPerfectSquare(n uint16) (uint16, bool) {
	r := uint32(math.Sqrt(float64(n)))
	for r*r > uint32(n) {
		r--
	}
	for (r+1)*(r+1) <= uint32(n) {
		r++
	}
	return uint16(r), r*r == uint32(n)
}
