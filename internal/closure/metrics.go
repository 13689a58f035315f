package closure

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the closure counters. A nil *Metrics records nothing.
type Metrics struct {
	Passes     prometheus.Counter
	Candidates *prometheus.CounterVec
	Inserted   prometheus.Counter
	Superseded prometheus.Counter
	TableKeys  prometheus.Gauge
}

// NewMetrics creates the closure metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitnum_closure_passes_total",
			Help: "Closure passes run until the fixed point",
		}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bitnum_closure_candidates_total",
			Help: "Derivations queued by operator",
		}, []string{"op"}),
		Inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitnum_closure_inserted_total",
			Help: "Keys inserted as live entries",
		}),
		Superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitnum_closure_superseded_total",
			Help: "Live entries tombstoned by a cheaper derivation found later",
		}),
		TableKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bitnum_closure_table_keys",
			Help: "Keys in the table, tombstones included",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Passes, m.Candidates, m.Inserted, m.Superseded, m.TableKeys)
	}
	return m
}

func (m *Metrics) pass(inserted, superseded, keys int, queued [DivShift + 1]int) {
	if m == nil {
		return
	}
	m.Passes.Inc()
	m.Inserted.Add(float64(inserted))
	m.Superseded.Add(float64(superseded))
	m.TableKeys.Set(float64(keys))
	for op, n := range queued {
		if n > 0 {
			m.Candidates.WithLabelValues(Op(op).String()).Add(float64(n))
		}
	}
}
