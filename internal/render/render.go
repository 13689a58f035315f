// Package render turns closure proofs back into expressions.
//
// Literals print as binary digits. Operands are parenthesized only where the
// enclosing operator needs it: + never wraps, - wraps its right side, and
// * / ^ wrap both. Unary operators always wrap a non-literal operand; ! and !!
// are suffixes, s (integer square root) is a prefix. The shifted * and /
// splice a binary point into their literal right operand.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"bitnum/internal/closure"
)

// Resolver yields the proof an operand key was derived with.
type Resolver interface {
	Resolve(k closure.Key) closure.Proof
}

// Render returns the full expression for p. With wrap set a non-literal
// result is parenthesized.
func Render(p closure.Proof, r Resolver, wrap bool) string {
	var s string
	switch {
	case p.Op == closure.Literal:
		return binary(uint16(p.Raw))
	case p.Op.Unary():
		s = unary(p.Op, Render(r.Resolve(p.Left), r, true))
	case p.Op.Shifted():
		left := Render(r.Resolve(p.Left), r, true)
		right := Render(r.Resolve(p.Right), r, true)
		s = left + symbol(p.Op) + splice(right, p.Shift)
	case p.Op.Binary():
		wl, wr := wrapping(p.Op)
		s = Render(r.Resolve(p.Left), r, wl) + symbol(p.Op) + Render(r.Resolve(p.Right), r, wr)
	default:
		panic(fmt.Sprintf("render: cannot render %v proof", p.Op))
	}
	if wrap {
		return "(" + s + ")"
	}
	return s
}

// RenderTop renders only the top operator of p over its operands' values.
// Values print in decimal; the literal of a shifted operator prints in binary
// so the point can be spliced into it.
func RenderTop(p closure.Proof) string {
	switch {
	case p.Op == closure.Literal:
		return binary(uint16(p.Raw))
	case p.Op.Unary():
		return unary(p.Op, decimal(p.Left.Num))
	case p.Op.Shifted():
		return decimal(p.Left.Num) + symbol(p.Op) + splice(binary(p.Right.Num), p.Shift)
	case p.Op.Binary():
		return decimal(p.Left.Num) + symbol(p.Op) + decimal(p.Right.Num)
	}
	panic(fmt.Sprintf("render: cannot render %v proof", p.Op))
}

func wrapping(op closure.Op) (left, right bool) {
	switch op {
	case closure.Plus:
		return false, false
	case closure.Minus:
		return false, true
	}
	return true, true
}

func symbol(op closure.Op) string {
	switch op {
	case closure.Plus:
		return "+"
	case closure.Minus:
		return "-"
	case closure.Times, closure.TimesShift:
		return "*"
	case closure.Div, closure.DivShift:
		return "/"
	case closure.Exp:
		return "^"
	}
	panic(fmt.Sprintf("render: %v has no symbol", op))
}

func unary(op closure.Op, operand string) string {
	switch op {
	case closure.Factorial:
		return operand + "!"
	case closure.DoubleFactorial:
		return operand + "!!"
	}
	return "s" + operand
}

// splice places a binary point shift digits from the right of s, padding
// with zeros after the point when s is too short.
func splice(s string, shift uint8) string {
	n := int(shift)
	if len(s) > n {
		return s[:len(s)-n] + "." + s[len(s)-n:]
	}
	return "." + strings.Repeat("0", n-len(s)) + s
}

func binary(n uint16) string  { return strconv.FormatUint(uint64(n), 2) }
func decimal(n uint16) string { return strconv.FormatUint(uint64(n), 10) }
