package render

import (
	"context"
	"fmt"
	"math/big"
	"runtime"

	"bitnum/internal/closure"
	"golang.org/x/sync/errgroup"
)

// CheckRoundTrip renders every live non-literal entry of t and evaluates the
// result, failing on the first expression that does not give back its value.
// The table is only read, so the keys are split across workers.
func CheckRoundTrip(ctx context.Context, t *closure.Table, workers int) (checked int, err error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	var keys []closure.Key
	for _, k := range t.Keys() {
		if p, _ := t.Lookup(k); p.Op != closure.Dominated && p.Op != closure.Literal {
			keys = append(keys, k)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(keys) + workers - 1) / workers
	for start := 0; start < len(keys); start += chunk {
		part := keys[start:min(start+chunk, len(keys))]
		g.Go(func() error {
			for i, k := range part {
				if i%1024 == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				if err := roundTrip(t, k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func roundTrip(t *closure.Table, k closure.Key) error {
	p, _ := t.Lookup(k)
	expr := Render(p, t, false)
	v, err := Eval(expr)
	if err != nil {
		return fmt.Errorf("key %v: %w", k, err)
	}
	if v.Cmp(new(big.Rat).SetUint64(uint64(k.Num))) != 0 {
		return fmt.Errorf("key %v: %s evaluates to %s", k, expr, v.RatString())
	}
	return nil
}
