package render

import (
	"fmt"
	"math/big"
)

// maxExponent bounds ^ so a malformed expression cannot ask for a huge power.
const maxExponent = 1 << 16

// Eval evaluates a rendered expression exactly. Numbers are binary and may
// carry a binary point; s is the exact square root, ! and !! the factorial
// and double factorial.
func Eval(expr string) (*big.Rat, error) {
	p := &parser{src: expr}
	v, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("eval %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) expr() (*big.Rat, error) {
	acc, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			v, err := p.term()
			if err != nil {
				return nil, err
			}
			acc = new(big.Rat).Add(acc, v)
		case '-':
			p.pos++
			v, err := p.term()
			if err != nil {
				return nil, err
			}
			acc = new(big.Rat).Sub(acc, v)
		default:
			return acc, nil
		}
	}
}

func (p *parser) term() (*big.Rat, error) {
	acc, err := p.power()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			v, err := p.power()
			if err != nil {
				return nil, err
			}
			acc = new(big.Rat).Mul(acc, v)
		case '/':
			p.pos++
			v, err := p.power()
			if err != nil {
				return nil, err
			}
			if v.Sign() == 0 {
				return nil, p.errorf("division by zero")
			}
			acc = new(big.Rat).Quo(acc, v)
		default:
			return acc, nil
		}
	}
}

func (p *parser) power() (*big.Rat, error) {
	base, err := p.prefix()
	if err != nil {
		return nil, err
	}
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	exp, err := p.power()
	if err != nil {
		return nil, err
	}
	if !exp.IsInt() || !exp.Num().IsInt64() {
		return nil, p.errorf("exponent %s is not a small integer", exp.RatString())
	}
	e := exp.Num().Int64()
	if e > maxExponent || e < -maxExponent {
		return nil, p.errorf("exponent %d out of range", e)
	}
	v, ok := powRat(base, int(e))
	if !ok {
		return nil, p.errorf("0 to a negative power")
	}
	return v, nil
}

func (p *parser) prefix() (*big.Rat, error) {
	if p.peek() != 's' {
		return p.postfix()
	}
	p.pos++
	v, err := p.prefix()
	if err != nil {
		return nil, err
	}
	if !v.IsInt() || v.Sign() < 0 {
		return nil, p.errorf("square root of %s", v.RatString())
	}
	r := new(big.Int).Sqrt(v.Num())
	if new(big.Int).Mul(r, r).Cmp(v.Num()) != 0 {
		return nil, p.errorf("%s is not a perfect square", v.RatString())
	}
	return new(big.Rat).SetInt(r), nil
}

func (p *parser) postfix() (*big.Rat, error) {
	v, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.peek() == '!' {
		p.pos++
		step := int64(1)
		if p.peek() == '!' {
			p.pos++
			step = 2
		}
		if !v.IsInt() || v.Sign() < 0 || !v.Num().IsInt64() || v.Num().Int64() > 1000 {
			return nil, p.errorf("factorial of %s", v.RatString())
		}
		acc := big.NewInt(1)
		for i := v.Num().Int64(); i > 1; i -= step {
			acc.Mul(acc, big.NewInt(i))
		}
		v = new(big.Rat).SetInt(acc)
	}
	return v, nil
}

func (p *parser) primary() (*big.Rat, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("missing )")
		}
		p.pos++
		return v, nil
	}
	return p.number()
}

// number reads binary digits with an optional binary point.
func (p *parser) number() (*big.Rat, error) {
	start := p.pos
	num := new(big.Int)
	frac := -1
	for ; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]
		switch {
		case c == '0' || c == '1':
			num.Lsh(num, 1)
			if c == '1' {
				num.SetBit(num, 0, 1)
			}
			if frac >= 0 {
				frac++
			}
			continue
		case c == '.' && frac < 0:
			frac = 0
			continue
		}
		break
	}
	digits := p.pos - start
	if frac >= 0 {
		digits--
	}
	if digits == 0 {
		p.pos = start
		return nil, p.errorf("expected a number")
	}
	v := new(big.Rat).SetInt(num)
	if frac > 0 {
		v.Quo(v, new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), uint(frac))))
	}
	return v, nil
}

// powRat raises base to an integer power; negative powers invert.
func powRat(base *big.Rat, exp int) (*big.Rat, bool) {
	if exp == 0 {
		return big.NewRat(1, 1), true
	}
	num := new(big.Int).Set(base.Num())
	den := new(big.Int).Set(base.Denom())
	if exp < 0 {
		if num.Sign() == 0 {
			return nil, false
		}
		num, den = den, num
		exp = -exp
	}
	e := big.NewInt(int64(exp))
	num.Exp(num, e, nil)
	den.Exp(den, e, nil)
	return new(big.Rat).SetFrac(num, den), true
}
