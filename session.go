// Package floatgauge tracks first-order floating-point error expressions
// through program values and checks error bounds with an SMT optimizer.
package floatgauge

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/floatgauge/floatgauge/errprop"
	"github.com/floatgauge/floatgauge/expr"
	"github.com/floatgauge/floatgauge/logging"
	"github.com/floatgauge/floatgauge/solver"
)

// Session wires a ledger and an optimizer over one shared expression builder.
type Session struct {
	ID        uuid.UUID
	Builder   *expr.Builder
	Ledger    *errprop.Ledger
	Backend   *solver.Z3
	Optimizer *solver.Optimizer
	Stats     *solver.Stats
	Log       logging.Logger

	cfg *Config
}

// NewSession builds a session from the config. Solver metrics register on
// reg when it is non-nil.
func NewSession(cfg *Config, reg prometheus.Registerer) *Session {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := logging.New(cfg.LogLevel(), os.Stderr)

	id := uuid.New()
	log = log.With(map[string]any{"session": id.String()})

	b := expr.NewBuilder()
	stats := solver.NewStats(reg)
	backend := solver.NewZ3(cfg.Solver.Path, log)
	opt := solver.NewOptimizer(backend, b, &solver.Options{
		Logger: log,
		Stats:  stats,
	})
	opt.SetTimeout(cfg.Timeout())

	return &Session{
		ID:        id,
		Builder:   b,
		Ledger:    errprop.NewLedger(b, log),
		Backend:   backend,
		Optimizer: opt,
		Stats:     stats,
		Log:       log,
		cfg:       cfg,
	}
}

// WriteReport writes the accumulated error report to the configured output,
// or to w when the config names no file and w is non-nil.
func (s *Session) WriteReport(w io.Writer) error {
	report := s.Ledger.Report()
	if report.Empty() {
		s.Log.Infof("no error bounds recorded")
		return nil
	}
	if s.cfg.Report.Output != "" {
		f, err := os.Create(s.cfg.Report.Output)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		defer f.Close()
		w = f
	} else if w == nil {
		w = os.Stdout
	}
	_, err := io.WriteString(w, report.String())
	return err
}
