// Package report prints the cheapest known derivation of every value in a range.
package report

import (
	"fmt"
	"io"

	"bitnum/internal/closure"
	"bitnum/internal/config"
	"bitnum/internal/render"
)

// Summary counts what a report printed.
type Summary struct {
	Values  int // values with at least one printed derivation
	Lines   int
	Missing []uint16
	Longest string
}

// Write prints 0..opts.MaxNum from t to w.
//
// Lines are "<value>: <expr>" with SimplePrint and
// "<value>: <zeros>,<ones>: <top> <expr>" otherwise. A value with no live
// entry prints "<value> was not found".
func Write(w io.Writer, t *closure.Table, opts config.Options) (Summary, error) {
	var s Summary
	for num := 0; num <= int(opts.MaxNum); num++ {
		n, err := writeValue(w, t, uint16(num), opts, &s)
		if err != nil {
			return s, err
		}
		if n > 0 {
			s.Values++
		}
	}
	return s, nil
}

func writeValue(w io.Writer, t *closure.Table, num uint16, opts config.Options, s *Summary) (int, error) {
	keys := t.Live(num)
	if len(keys) == 0 {
		s.Missing = append(s.Missing, num)
		_, err := fmt.Fprintf(w, "%d was not found\n", num)
		return 0, err
	}
	printed := 0
	seenTop := make(map[string]struct{})
	for _, k := range keys {
		p, _ := t.Lookup(k)
		if opts.PrintBig && MaxOperand(p, t) <= opts.MaxNum {
			continue
		}
		top := render.RenderTop(p)
		if opts.SkipTop {
			if _, dup := seenTop[top]; dup {
				continue
			}
			seenTop[top] = struct{}{}
		}
		expr := render.Render(p, t, false)
		line := Line(k, p, expr, opts.SimplePrint)
		if opts.MarkMax && len(expr) > len(s.Longest) {
			s.Longest = expr
			line += " *"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return printed, err
		}
		printed++
		s.Lines++
		if opts.PrintOne {
			break
		}
	}
	return printed, nil
}

// Line formats one derivation of k.
func Line(k closure.Key, p closure.Proof, expr string, simple bool) string {
	if simple {
		return fmt.Sprintf("%d: %s", k.Num, expr)
	}
	return fmt.Sprintf("%d: %d,%d: %s %s", k.Num, k.Zeros, k.Ones, render.RenderTop(p), expr)
}

// MaxOperand is the largest value used anywhere below the root of p.
func MaxOperand(p closure.Proof, r render.Resolver) uint16 {
	var best uint16
	for _, k := range p.Operands() {
		best = max(best, k.Num, MaxOperand(r.Resolve(k), r))
	}
	return best
}
