package closure

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fullOnce  sync.Once
	fullTable *Table
)

// full builds the 16-bit table once per test binary.
func full(t *testing.T) *Table {
	t.Helper()
	if testing.Short() {
		t.Skip("full closure skipped in short mode")
	}
	fullOnce.Do(func() { fullTable = Build(65535) })
	return fullTable
}

// naiveBuild rescans every pair on every pass.
func naiveBuild(limit uint16) *Table {
	e := newEngine(limit, newTable())
	e.seed()
	for {
		before := e.table.Len()
		e.drain()
		if e.table.Len() == before {
			return e.table
		}
		e.scan(true)
	}
}

func requireSameTable(t *testing.T, want, got *Table) {
	t.Helper()
	require.Equal(t, want.Keys(), got.Keys())
	for _, k := range want.Keys() {
		wp, _ := want.Lookup(k)
		gp, _ := got.Lookup(k)
		require.Equal(t, wp, gp, "key %v", k)
	}
	require.Equal(t, want.superseded, got.superseded)
}

func TestBuild_SeedsLiterals(t *testing.T) {
	e := newEngine(65535, newTable())
	e.seed()
	e.drain()

	for b := 0; b <= 255; b++ {
		zeros, ones := LiteralCost(uint8(b))
		k := Key{Num: uint16(b), Zeros: zeros, Ones: ones}
		p, ok := e.table.Lookup(k)
		if zeros > MaxCost || ones > MaxCost {
			assert.False(t, ok, "literal %b is over budget", b)
			continue
		}
		require.True(t, ok, "literal %b", b)
		assert.Equal(t, Literal, p.Op)
		assert.Equal(t, uint8(b), p.Raw)
	}
}

func TestBuild_ZeroIsLiteral(t *testing.T) {
	tbl := Build(100)
	k, p, ok := tbl.Best(0)
	require.True(t, ok)
	assert.Equal(t, Key{Num: 0, Zeros: 1, Ones: 0}, k)
	assert.Equal(t, Literal, p.Op)
	assert.Equal(t, uint8(0), p.Raw)
}

func TestBuild_RespectsLimit(t *testing.T) {
	const limit = 150
	tbl := Build(limit)
	for _, k := range tbl.Keys() {
		assert.LessOrEqual(t, k.Num, uint16(limit))
	}
	_, _, ok := tbl.Best(limit + 1)
	assert.False(t, ok)
}

func TestBuild_Deterministic(t *testing.T) {
	requireSameTable(t, Build(700), Build(700))
}

func TestBuild_MatchesNaiveRescan(t *testing.T) {
	for _, limit := range []uint16{40, 300, 1500} {
		requireSameTable(t, naiveBuild(limit), Build(limit))
	}
}

func TestBuild_Monotonic(t *testing.T) {
	e := newEngine(800, newTable())
	e.seed()
	seen := make(map[Key]Proof)
	for {
		before := e.table.Len()
		e.drain()
		for k, p := range seen {
			now, ok := e.table.Lookup(k)
			require.True(t, ok)
			if now.Op != Dominated {
				require.Equal(t, p, now, "live key %v changed its proof", k)
			} else {
				delete(seen, k)
			}
		}
		for _, k := range e.table.liveKeys() {
			p, _ := e.table.Lookup(k)
			seen[k] = p
		}
		if e.table.Len() == before {
			break
		}
		e.scan(false)
	}
}

func TestBuild_Invariants(t *testing.T) {
	for _, limit := range []uint16{20, 500, 3000} {
		tbl := Build(limit)
		assert.NoError(t, Verify(tbl, limit, true), "limit %d", limit)
	}
}

func TestExtend_AddsToUnfinishedTable(t *testing.T) {
	e := newEngine(500, newTable())
	e.seed()
	e.drain()
	assert.Positive(t, Extend(e.table, 500))
}

func TestBuild_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	tbl := Build(400, WithMetrics(m))
	s := tbl.Stats()

	assert.Greater(t, testutil.ToFloat64(m.Passes), 1.0)
	assert.Equal(t, float64(tbl.Len()), testutil.ToFloat64(m.TableKeys))
	assert.Equal(t, float64(s.Superseded), testutil.ToFloat64(m.Superseded))
	assert.Equal(t, float64(s.Live+s.Superseded), testutil.ToFloat64(m.Inserted))

	literals := 0
	for b := 0; b <= 255; b++ {
		if z, o := LiteralCost(uint8(b)); z <= MaxCost && o <= MaxCost {
			literals++
		}
	}
	assert.Equal(t, float64(literals), testutil.ToFloat64(m.Candidates.WithLabelValues("literal")))
}

func TestFull_255NeedsComposition(t *testing.T) {
	tbl := full(t)
	_, ok := tbl.Lookup(Key{Num: 255, Zeros: 0, Ones: 8})
	assert.False(t, ok)
	keys := tbl.Live(255)
	require.NotEmpty(t, keys)
	for _, k := range keys {
		p, _ := tbl.Lookup(k)
		assert.NotEqual(t, Literal, p.Op)
		assert.True(t, k.InBudget())
	}
}

func TestFull_720ViaFactorialCost(t *testing.T) {
	tbl := full(t)
	six := Key{Zeros: 1, Ones: 2}
	var covered bool
	for _, k := range tbl.Live(720) {
		covered = covered || k.Covers(six)
	}
	assert.True(t, covered, "720 should cost no more than literal 110")
}

func TestFull_Invariants(t *testing.T) {
	tbl := full(t)
	assert.NoError(t, Verify(tbl, 65535, false))
}
