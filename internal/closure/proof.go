package closure

import "fmt"

// Op tags how a value was derived.
type Op uint8

const (
	// Dominated marks a key superseded by a cheaper derivation of the same value.
	Dominated Op = iota
	Literal
	Factorial
	DoubleFactorial
	Sqrt
	Plus
	Minus
	Times
	Div
	Exp
	TimesShift
	DivShift
)

var opNames = [...]string{
	Dominated:       "dominated",
	Literal:         "literal",
	Factorial:       "factorial",
	DoubleFactorial: "double-factorial",
	Sqrt:            "sqrt",
	Plus:            "plus",
	Minus:           "minus",
	Times:           "times",
	Div:             "div",
	Exp:             "exp",
	TimesShift:      "times-shift",
	DivShift:        "div-shift",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Unary reports whether o takes a single operand.
func (o Op) Unary() bool {
	return o == Factorial || o == DoubleFactorial || o == Sqrt
}

// Binary reports whether o takes two operands.
func (o Op) Binary() bool {
	return o >= Plus
}

// Shifted reports whether o carries a shift amount.
func (o Op) Shifted() bool {
	return o == TimesShift || o == DivShift
}

// Proof records one derivation. Operands are keys into the owning Table.
// The zero Proof is Dominated.
type Proof struct {
	Op    Op
	Raw   uint8 // Literal only
	Left  Key
	Right Key   // binary ops only
	Shift uint8
}

func literalProof(b uint8) Proof { return Proof{Op: Literal, Raw: b} }

func unaryProof(op Op, k Key) Proof { return Proof{Op: op, Left: k} }

func binaryProof(op Op, l, r Key) Proof { return Proof{Op: op, Left: l, Right: r} }

func shiftProof(op Op, l, r Key, shift uint8) Proof {
	return Proof{Op: op, Left: l, Right: r, Shift: shift}
}

// Operands returns the keys p refers to.
func (p Proof) Operands() []Key {
	switch {
	case p.Op.Unary():
		return []Key{p.Left}
	case p.Op.Binary():
		return []Key{p.Left, p.Right}
	}
	return nil
}
