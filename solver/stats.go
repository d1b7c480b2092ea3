package solver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats counts solver queries. The plain fields are read directly by tests
// and the CLI; the prometheus counters mirror them for external monitoring
// when a Registerer is supplied.
type Stats struct {
	Queries              int64
	QueryCounterexamples int64
	QueriesValid         int64
	QueriesInvalid       int64
	QueryTime            time.Duration

	queries         prometheus.Counter
	counterexamples prometheus.Counter
	valid           prometheus.Counter
	invalid         prometheus.Counter
	querySeconds    prometheus.Counter
}

// NewStats returns a Stats whose counters are registered with reg. A nil reg
// keeps the counters local.
func NewStats(reg prometheus.Registerer) *Stats {
	s := &Stats{
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floatgauge_solver_queries_total",
			Help: "Solver queries issued.",
		}),
		counterexamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floatgauge_solver_query_counterexamples_total",
			Help: "Solver queries requesting concrete assignments.",
		}),
		valid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floatgauge_solver_queries_valid_total",
			Help: "Queries whose negation was unsatisfiable.",
		}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floatgauge_solver_queries_invalid_total",
			Help: "Queries for which a counterexample was found.",
		}),
		querySeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "floatgauge_solver_query_seconds_total",
			Help: "Cumulative wall time spent in solver queries.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.queries, s.counterexamples, s.valid, s.invalid, s.querySeconds)
	}
	return s
}

func (s *Stats) addQuery(counterexample bool) {
	if s == nil {
		return
	}
	s.Queries++
	s.queries.Inc()
	if counterexample {
		s.QueryCounterexamples++
		s.counterexamples.Inc()
	}
}

func (s *Stats) addOutcome(hasSolution bool) {
	if s == nil {
		return
	}
	if hasSolution {
		s.QueriesInvalid++
		s.invalid.Inc()
	} else {
		s.QueriesValid++
		s.valid.Inc()
	}
}

func (s *Stats) addTime(d time.Duration) {
	if s == nil {
		return
	}
	s.QueryTime += d
	s.querySeconds.Add(d.Seconds())
}
