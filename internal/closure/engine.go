// Package closure builds the table of cheapest known derivations for every
// value reachable from the bit-budget literal alphabet.
//
// Build seeds the table with the one-byte literals whose zero and one costs
// both fit in MaxCost, then repeatedly combines live entries through every
// operator until a pass inserts nothing. The first derivation inserted for a
// (value, cost) key wins; it immediately tombstones every costlier key of the
// same value.
package closure

import (
	"log/slog"
	"time"
)

// maxLiteral bounds the values a Literal proof can carry.
const maxLiteral = 255

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-pass progress.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records closure counters into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

type candidate struct {
	key   Key
	proof Proof
}

// operand is a live entry as seen by one scan.
type operand struct {
	key Key
	lit bool
}

// Engine runs the fixed point over one Table. It is single-use and not safe
// for concurrent use.
type Engine struct {
	limit   uint16
	table   *Table
	pending []candidate

	// fresh holds the keys inserted by the latest drain. Pairs of two older
	// keys were already tried by an earlier scan and can only fail again.
	fresh    map[Key]struct{}
	inserted []Key

	queued  [DivShift + 1]int
	logger  *slog.Logger
	metrics *Metrics
}

func newEngine(limit uint16, t *Table, opts ...Option) *Engine {
	e := &Engine{
		limit:  limit,
		table:  t,
		fresh:  make(map[Key]struct{}),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build runs the closure to its fixed point for values up to limit.
func Build(limit uint16, opts ...Option) *Table {
	e := newEngine(limit, newTable(), opts...)
	start := time.Now()
	e.seed()
	passes := e.run()
	s := e.table.Stats()
	e.logger.Info("closure reached fixed point",
		"limit", limit,
		"passes", passes,
		"keys", s.Keys,
		"live", s.Live,
		"values", s.Values,
		"elapsed", time.Since(start))
	return e.table
}

// Extend runs one more scan over every live entry of t followed by one drain,
// and returns how many keys it added. At the fixed point it returns 0.
func Extend(t *Table, limit uint16, opts ...Option) int {
	e := newEngine(limit, t, opts...)
	before := t.Len()
	e.scan(true)
	e.drain()
	return t.Len() - before
}

func (e *Engine) seed() {
	for b := 0; b <= maxLiteral; b++ {
		zeros, ones := LiteralCost(uint8(b))
		if zeros > MaxCost || ones > MaxCost {
			continue
		}
		e.push(Key{Num: uint16(b), Zeros: zeros, Ones: ones}, literalProof(uint8(b)))
	}
}

func (e *Engine) run() int {
	for pass := 1; ; pass++ {
		before := e.table.Len()
		queued := len(e.pending)
		inserted, superseded := e.drain()
		e.metrics.pass(inserted, superseded, e.table.Len(), e.queued)
		e.queued = [DivShift + 1]int{}
		e.logger.Debug("closure pass",
			"pass", pass,
			"queued", queued,
			"inserted", inserted,
			"superseded", superseded,
			"keys", e.table.Len())
		if e.table.Len() == before {
			return pass
		}
		e.scan(false)
	}
}

// drain moves the pending candidates into the table. The first candidate for
// a key wins and tombstones the costlier keys of its value.
func (e *Engine) drain() (inserted, superseded int) {
	e.inserted = e.inserted[:0]
	for _, c := range e.pending {
		if c.key.Num > e.limit {
			continue
		}
		if !e.table.tryInsert(c.key, c.proof) {
			c.key.mustBudget()
			continue
		}
		inserted++
		e.inserted = append(e.inserted, c.key)
		superseded += e.table.dominate(c.key)
	}
	e.pending = e.pending[:0]

	clear(e.fresh)
	for _, k := range e.inserted {
		if p, _ := e.table.Lookup(k); p.Op != Dominated {
			e.fresh[k] = struct{}{}
		}
	}
	return inserted, superseded
}

// scan queues every derivation from the live entries. Unless all is set, a
// pair is only tried when at least one side is fresh.
func (e *Engine) scan(all bool) {
	live := e.table.liveKeys()
	var freshLive []Key
	if !all {
		freshLive = make([]Key, 0, len(e.fresh))
		for _, k := range live {
			if _, ok := e.fresh[k]; ok {
				freshLive = append(freshLive, k)
			}
		}
	}
	allBy := e.byBudget(live)
	freshBy := allBy
	if !all {
		freshBy = e.byBudget(freshLive)
	}

	for _, k1 := range live {
		k1.mustBudget()
		_, isFresh := e.fresh[k1]
		isFresh = isFresh || all
		if isFresh {
			e.unary(k1)
		}
		others := freshBy[MaxCost-k1.Zeros][MaxCost-k1.Ones]
		if isFresh {
			others = allBy[MaxCost-k1.Zeros][MaxCost-k1.Ones]
		}
		for _, k2 := range others {
			if k2.key.Num > k1.Num && k2.key.Num > maxLiteral {
				break
			}
			e.binary(k1, k2)
		}
	}
}

// byBudget splits sorted keys by the remaining budget they fit in. Entry
// [z][o] keeps every key with Zeros <= z and Ones <= o, in order.
func (e *Engine) byBudget(keys []Key) (out [MaxCost + 1][MaxCost + 1][]operand) {
	for _, k := range keys {
		k.mustBudget()
		p, _ := e.table.Lookup(k)
		op := operand{key: k, lit: p.Op == Literal}
		for z := k.Zeros; z <= MaxCost; z++ {
			for o := k.Ones; o <= MaxCost; o++ {
				out[z][o] = append(out[z][o], op)
			}
		}
	}
	return out
}

func (e *Engine) unary(k Key) {
	n := k.Num
	if n <= 8 {
		e.push(Key{Num: factorial(n), Zeros: k.Zeros, Ones: k.Ones}, unaryProof(Factorial, k))
	}
	if n <= 12 {
		e.push(Key{Num: doubleFactorial(n), Zeros: k.Zeros, Ones: k.Ones}, unaryProof(DoubleFactorial, k))
	}
	if r, ok := IsPerfectSquare(n); ok {
		e.push(Key{Num: r, Zeros: k.Zeros, Ones: k.Ones}, unaryProof(Sqrt, k))
	}
}

func (e *Engine) binary(k1 Key, k2 operand) {
	n1, n2 := k1.Num, k2.key.Num
	zeros := k1.Zeros + k2.key.Zeros
	ones := k1.Ones + k2.key.Ones
	if zeros > MaxCost || ones > MaxCost {
		return
	}

	if k2.lit {
		width := BitLen(n2)
		for shift := uint8(1); shift < 8; shift++ {
			extra := shift - min(shift, width)
			z := zeros + extra
			if z > MaxCost {
				continue
			}
			if n1%(1<<shift) == 0 {
				if p, ok := checkedMul(n1, n2); ok {
					e.push(Key{Num: p >> shift, Zeros: z, Ones: ones}, shiftProof(TimesShift, k1, k2.key, shift))
				}
			}
			if n2 != 0 && n1%n2 == 0 {
				if q, ok := checkedShl(n1/n2, shift); ok {
					e.push(Key{Num: q, Zeros: z, Ones: ones}, shiftProof(DivShift, k1, k2.key, shift))
				}
			}
		}
	}

	if n1 < n2 {
		return
	}
	at := func(n uint16) Key { return Key{Num: n, Zeros: zeros, Ones: ones} }
	if v, ok := checkedPow(n1, n2); ok {
		e.push(at(v), binaryProof(Exp, k1, k2.key))
	}
	if v, ok := checkedPow(n2, n1); ok {
		e.push(at(v), binaryProof(Exp, k2.key, k1))
	}
	if v, ok := checkedAdd(n1, n2); ok {
		e.push(at(v), binaryProof(Plus, k1, k2.key))
	}
	if v, ok := checkedSub(n1, n2); ok {
		e.push(at(v), binaryProof(Minus, k1, k2.key))
	}
	if v, ok := checkedMul(n1, n2); ok {
		e.push(at(v), binaryProof(Times, k1, k2.key))
	}
	if n2 != 0 && n1%n2 == 0 {
		e.push(at(n1/n2), binaryProof(Div, k1, k2.key))
	}
}

// push queues a derivation. Values above the limit are dropped here rather
// than carried to the next drain.
func (e *Engine) push(k Key, p Proof) {
	if k.Num > e.limit {
		return
	}
	e.pending = append(e.pending, candidate{key: k, proof: p})
	e.queued[p.Op]++
}
