package render

import (
	"context"
	"math/big"
	"testing"

	"bitnum/internal/closure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable map[closure.Key]closure.Proof

func (f fakeTable) Resolve(k closure.Key) closure.Proof {
	p, ok := f[k]
	if !ok || p.Op == closure.Dominated {
		panic("unresolvable " + k.String())
	}
	return p
}

func lit(f fakeTable, b uint8) closure.Key {
	z, o := closure.LiteralCost(b)
	k := closure.Key{Num: uint16(b), Zeros: z, Ones: o}
	f[k] = closure.Proof{Op: closure.Literal, Raw: b}
	return k
}

func derive(f fakeTable, num uint16, p closure.Proof) closure.Key {
	k := closure.Key{Num: num, Zeros: 4, Ones: 4}
	f[k] = p
	return k
}

func TestRender(t *testing.T) {
	f := fakeTable{}
	one, three, five, six, eight := lit(f, 1), lit(f, 3), lit(f, 5), lit(f, 6), lit(f, 8)
	sum := derive(f, 8, closure.Proof{Op: closure.Plus, Left: three, Right: five})
	diff := derive(f, 2, closure.Proof{Op: closure.Minus, Left: three, Right: one})

	tests := []struct {
		name string
		p    closure.Proof
		want string
	}{
		{"literal", f[six], "110"},
		{"plus", closure.Proof{Op: closure.Plus, Left: sum, Right: diff}, "11+101+11-1"},
		{"minus wraps right", closure.Proof{Op: closure.Minus, Left: sum, Right: diff}, "11+101-(11-1)"},
		{"times wraps both", closure.Proof{Op: closure.Times, Left: sum, Right: three}, "(11+101)*11"},
		{"div", closure.Proof{Op: closure.Div, Left: six, Right: diff}, "110/(11-1)"},
		{"exp", closure.Proof{Op: closure.Exp, Left: diff, Right: three}, "(11-1)^11"},
		{"factorial", closure.Proof{Op: closure.Factorial, Left: six}, "110!"},
		{"double factorial", closure.Proof{Op: closure.DoubleFactorial, Left: sum}, "(11+101)!!"},
		{"sqrt", closure.Proof{Op: closure.Sqrt, Left: eight}, "s1000"},
		{"times shift", closure.Proof{Op: closure.TimesShift, Left: eight, Right: three, Shift: 1}, "1000*1.1"},
		{"div shift", closure.Proof{Op: closure.DivShift, Left: sum, Right: five, Shift: 2}, "(11+101)/1.01"},
		{"shift pads", closure.Proof{Op: closure.TimesShift, Left: eight, Right: three, Shift: 5}, "1000*.00011"},
		{"shift exact width", closure.Proof{Op: closure.TimesShift, Left: eight, Right: three, Shift: 2}, "1000*.11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.p, f, false))
		})
	}
}

func TestRender_Wrap(t *testing.T) {
	f := fakeTable{}
	three, five := lit(f, 3), lit(f, 5)
	assert.Equal(t, "11", Render(f[three], f, true))
	assert.Equal(t, "(11+101)", Render(closure.Proof{Op: closure.Plus, Left: three, Right: five}, f, true))
}

func TestRender_DominatedPanics(t *testing.T) {
	f := fakeTable{}
	assert.Panics(t, func() { Render(closure.Proof{}, f, false) })
	assert.Panics(t, func() { RenderTop(closure.Proof{}) })
	missing := closure.Key{Num: 9, Zeros: 1, Ones: 2}
	assert.Panics(t, func() { Render(closure.Proof{Op: closure.Sqrt, Left: missing}, f, false) })
}

func TestRenderTop(t *testing.T) {
	k := func(n uint16) closure.Key { return closure.Key{Num: n, Zeros: 1, Ones: 1} }
	tests := []struct {
		p    closure.Proof
		want string
	}{
		{closure.Proof{Op: closure.Literal, Raw: 6}, "110"},
		{closure.Proof{Op: closure.Plus, Left: k(300), Right: k(12)}, "300+12"},
		{closure.Proof{Op: closure.Minus, Left: k(300), Right: k(12)}, "300-12"},
		{closure.Proof{Op: closure.Exp, Left: k(2), Right: k(10)}, "2^10"},
		{closure.Proof{Op: closure.Factorial, Left: k(6)}, "6!"},
		{closure.Proof{Op: closure.DoubleFactorial, Left: k(12)}, "12!!"},
		{closure.Proof{Op: closure.Sqrt, Left: k(5041)}, "s5041"},
		{closure.Proof{Op: closure.TimesShift, Left: k(40), Right: k(3), Shift: 1}, "40*1.1"},
		{closure.Proof{Op: closure.DivShift, Left: k(40), Right: k(5), Shift: 4}, "40/.0101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RenderTop(tt.p))
	}
}

func TestCheckRoundTrip(t *testing.T) {
	tbl := closure.Build(2000)
	n, err := CheckRoundTrip(context.Background(), tbl, 4)
	require.NoError(t, err)
	assert.Positive(t, n)

	// every live expression also evaluates back through the parser
	for _, v := range []uint16{0, 1, 255, 720, 1999} {
		for _, k := range tbl.Live(v) {
			p, _ := tbl.Lookup(k)
			got, err := Eval(Render(p, tbl, false))
			require.NoError(t, err)
			assert.Zero(t, got.Cmp(new(big.Rat).SetUint64(uint64(v))), "value %d", v)
		}
	}
}

func TestCheckRoundTrip_Cancelled(t *testing.T) {
	tbl := closure.Build(2000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CheckRoundTrip(ctx, tbl, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
