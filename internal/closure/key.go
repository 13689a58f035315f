package closure

import (
	"fmt"
	"math/bits"
)

// MaxCost is the per-dimension bit budget for a derivation.
const MaxCost = 4

// Key identifies a table entry: the value produced and the zero/one bits spent on it.
type Key struct {
	Num   uint16
	Zeros uint8
	Ones  uint8
}

func (k Key) String() string {
	return fmt.Sprintf("%d(%d,%d)", k.Num, k.Zeros, k.Ones)
}

// InBudget reports whether both cost fields are within MaxCost.
func (k Key) InBudget() bool {
	return k.Zeros <= MaxCost && k.Ones <= MaxCost
}

// Less orders keys by (Num, Zeros, Ones).
func (k Key) Less(o Key) bool {
	if k.Num != o.Num {
		return k.Num < o.Num
	}
	if k.Zeros != o.Zeros {
		return k.Zeros < o.Zeros
	}
	return k.Ones < o.Ones
}

// Covers reports whether k is at least as cheap as o in both dimensions.
func (k Key) Covers(o Key) bool {
	return k.Zeros <= o.Zeros && k.Ones <= o.Ones
}

func (k Key) mustBudget() {
	if !k.InBudget() {
		panic(fmt.Sprintf("closure: key %v exceeds cost budget (%d,%d)", k, MaxCost, MaxCost))
	}
}

// LiteralCost returns the cost of writing b directly: one bits are its popcount,
// zero bits are the zeros below the highest set bit. Zero itself costs one zero.
func LiteralCost(b uint8) (zeros, ones uint8) {
	if b == 0 {
		return 1, 0
	}
	ones = uint8(bits.OnesCount8(b))
	zeros = uint8(bits.Len8(b)) - ones
	return zeros, ones
}

// BitLen is the number of binary digits the literal n is written with.
func BitLen(n uint16) uint8 {
	return uint8(bits.Len16(n))
}
