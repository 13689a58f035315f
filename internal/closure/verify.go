package closure

import (
	"errors"
	"fmt"
)

// Verify checks the structural properties of a finished table: every live key
// is within budget, no costlier key of a value is live next to a cheaper one,
// every proof recomputes to its key and every operand resolves. With
// checkFixedPoint set it also confirms one more pass over a clone adds nothing.
func Verify(t *Table, limit uint16, checkFixedPoint bool) error {
	var errs []error
	for _, k := range t.liveKeys() {
		if !k.InBudget() {
			errs = append(errs, fmt.Errorf("key %v exceeds cost budget", k))
			continue
		}
		p, _ := t.Lookup(k)
		if err := t.checkProof(k, p); err != nil {
			errs = append(errs, err)
		}
		for _, other := range t.Live(k.Num) {
			if other != k && k.Covers(other) {
				errs = append(errs, fmt.Errorf("key %v is live next to cheaper %v", other, k))
			}
		}
	}
	if checkFixedPoint {
		if n := Extend(t.Clone(), limit); n != 0 {
			errs = append(errs, fmt.Errorf("table is not closed: one more pass added %d keys", n))
		}
	}
	return errors.Join(errs...)
}

func (t *Table) checkProof(k Key, p Proof) error {
	var ops []Key
	for _, o := range p.Operands() {
		op, ok := t.entries[o]
		if !ok {
			return fmt.Errorf("key %v: operand %v not in table", k, o)
		}
		if op.Op == Dominated {
			if _, ok := t.superseded[o]; !ok {
				return fmt.Errorf("key %v: operand %v is dominated", k, o)
			}
		}
		ops = append(ops, o)
	}
	got, ok := Apply(p, ops)
	if !ok {
		return fmt.Errorf("key %v: %v does not apply to %v", k, p.Op, ops)
	}
	if got != k.Num {
		return fmt.Errorf("key %v: %v recomputes to %d", k, p.Op, got)
	}
	want := p.cost(ops)
	if want.Zeros != k.Zeros || want.Ones != k.Ones {
		return fmt.Errorf("key %v: %v costs (%d,%d)", k, p.Op, want.Zeros, want.Ones)
	}
	return nil
}

// Apply computes the value p derives from its operand keys.
func Apply(p Proof, ops []Key) (uint16, bool) {
	switch p.Op {
	case Literal:
		return uint16(p.Raw), true
	case Factorial:
		return factorial(ops[0].Num), ops[0].Num <= 8
	case DoubleFactorial:
		return doubleFactorial(ops[0].Num), ops[0].Num <= 12
	case Sqrt:
		return IsPerfectSquare(ops[0].Num)
	}
	if len(ops) != 2 {
		return 0, false
	}
	a, b := ops[0].Num, ops[1].Num
	switch p.Op {
	case Plus:
		return checkedAdd(a, b)
	case Minus:
		return checkedSub(a, b)
	case Times:
		return checkedMul(a, b)
	case Div:
		if b == 0 || a%b != 0 {
			return 0, false
		}
		return a / b, true
	case Exp:
		return checkedPow(a, b)
	case TimesShift:
		if a%(1<<p.Shift) != 0 {
			return 0, false
		}
		v, ok := checkedMul(a, b)
		return v >> p.Shift, ok
	case DivShift:
		if b == 0 || a%b != 0 {
			return 0, false
		}
		return checkedShl(a/b, p.Shift)
	}
	return 0, false
}

// cost is the key cost p produces from its operands.
func (p Proof) cost(ops []Key) Key {
	switch {
	case p.Op == Literal:
		z, o := LiteralCost(p.Raw)
		return Key{Zeros: z, Ones: o}
	case p.Op.Unary():
		return Key{Zeros: ops[0].Zeros, Ones: ops[0].Ones}
	}
	c := Key{Zeros: ops[0].Zeros + ops[1].Zeros, Ones: ops[0].Ones + ops[1].Ones}
	if p.Op.Shifted() {
		c.Zeros += p.Shift - min(p.Shift, BitLen(ops[1].Num))
	}
	return c
}
