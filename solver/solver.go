// Package solver resolves error bounds by posing validity, model and Pareto
// multi-objective optimization queries to an SMT backend.
//
// Queries are validity queries: ∀X constraints(X) → goal(X). Backends work in
// terms of satisfiability, so every check asserts the constraints together
// with the negated goal and asks for a model of constraints ∧ ¬goal.
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/floatgauge/floatgauge/expr"
	"github.com/floatgauge/floatgauge/logging"
)

// Solver outcome errors. Timeout is non-fatal: callers may retry with a
// larger timeout or abandon the query. Failure means the backend gave up for
// a generic reason.
var (
	ErrSolverTimeout = errors.New("solver: query timed out")
	ErrSolverFailure = errors.New("solver: backend returned unknown")
)

// RunStatus is the terminal state of the last query.
type RunStatus uint8

const (
	StatusFailure RunStatus = iota
	StatusSolvable
	StatusUnsolvable
	StatusTimeout
)

func (s RunStatus) String() string {
	switch s {
	case StatusSolvable:
		return "solvable"
	case StatusUnsolvable:
		return "unsolvable"
	case StatusTimeout:
		return "timeout"
	case StatusFailure:
		return "failure"
	default:
		return "invalid"
	}
}

// OptimalValue is one objective's decoded optimization result.
type OptimalValue struct {
	// Infinite reports an unbounded objective.
	Infinite bool
	// Value is the decoded bound.
	Value float64
	// Epsilon reports that the bound holds only up to an infinitesimal
	// slack (a strict, not attained, supremum).
	Epsilon bool
}

// Options configures an Optimizer.
type Options struct {
	Logger logging.Logger
	Stats  *Stats
}

// Optimizer wraps a solver backend to answer error-bound queries. It is not
// safe for concurrent use.
type Optimizer struct {
	backend Backend
	builder *expr.Builder
	timeout time.Duration
	stats   *Stats
	log     logging.Logger
	status  RunStatus
}

// NewOptimizer returns an optimizer over backend, building expressions
// through b. opts may be nil.
func NewOptimizer(backend Backend, b *expr.Builder, opts *Options) *Optimizer {
	o := &Optimizer{
		backend: backend,
		builder: b,
		log:     logging.Noop(),
		status:  StatusFailure,
	}
	if opts != nil {
		if opts.Logger != nil {
			o.log = opts.Logger
		}
		o.stats = opts.Stats
	}
	return o
}

// SetTimeout configures the per-query backend timeout. Zero means no timeout.
// Panics on a negative duration.
func (o *Optimizer) SetTimeout(d time.Duration) {
	if d < 0 {
		panic("solver: timeout must be >= 0")
	}
	o.timeout = d
}

// Status returns the terminal state of the most recent query.
func (o *Optimizer) Status() RunStatus { return o.status }

// ComputeTruth reports whether the query holds for all assignments: it is
// valid iff constraints ∧ ¬goal is unsatisfiable.
func (o *Optimizer) ComputeTruth(ctx context.Context, q *Query) (bool, error) {
	_, hasSolution, err := o.runSolver(ctx, q, nil)
	if err != nil {
		return false, err
	}
	return !hasSolution, nil
}

// ComputeInitialValues finds one satisfying assignment and returns a concrete
// value buffer per requested array: the array's single numeral serialized as
// an 8-byte little-endian double. hasSolution is false when the query is
// unsolvable.
func (o *Optimizer) ComputeInitialValues(ctx context.Context, q *Query, arrays []*expr.Array) (values [][]byte, hasSolution bool, err error) {
	return o.runSolver(ctx, q, arrays)
}

// ComputeValue evaluates the query's goal under one satisfying assignment of
// the constraint set and returns the decoded double.
func (o *Optimizer) ComputeValue(ctx context.Context, q *Query) (float64, error) {
	arrays := expr.ArraysOf(q.Goal)
	values, hasSolution, err := o.ComputeInitialValues(ctx, q.WithFalse(o.builder), arrays)
	if err != nil {
		return 0, err
	}
	if !hasSolution {
		return 0, errors.New("solver: state has invalid constraint set")
	}

	a := expr.NewAssignment()
	for i, array := range arrays {
		if err := a.BindBytes(array, values[i]); err != nil {
			return 0, err
		}
	}
	return a.Evaluate(q.Goal)
}

// ComputeOptimalValues asserts the constraints and the negated goal, adds one
// maximize objective per requested array (the array's value as a real), and
// checks under Pareto priority. On success it returns each objective's
// decoded upper bound.
func (o *Optimizer) ComputeOptimalValues(ctx context.Context, q *Query, arrays []*expr.Array) (values []OptimalValue, hasSolution bool, err error) {
	start := time.Now()
	defer func() { o.stats.addTime(time.Since(start)) }()

	o.status = StatusFailure
	o.stats.addQuery(true)

	resp, err := o.backend.Optimize(ctx, OptimizeRequest{
		Assertions: o.assertions(q),
		Maximize:   arrays,
		Timeout:    o.timeout,
	})
	if err != nil {
		return nil, false, fmt.Errorf("solver: optimize: %w", err)
	}

	status, err := o.mapResult(resp.Result, resp.Reason)
	o.status = status
	if err != nil {
		return nil, false, err
	}

	if status == StatusSolvable {
		hasSolution = true
		if len(resp.Bounds) != len(arrays) {
			return nil, true, fmt.Errorf("solver: backend returned %d bounds for %d objectives", len(resp.Bounds), len(arrays))
		}
		values = make([]OptimalValue, 0, len(resp.Bounds))
		for _, b := range resp.Bounds {
			values = append(values, OptimalValue{
				Infinite: b.Infinite,
				Value:    b.Value.Float64(),
				Epsilon:  b.Epsilon,
			})
		}
	}
	o.stats.addOutcome(hasSolution)
	return values, hasSolution, nil
}

// ConstraintLog serializes the query (constraints plus negated goal) to the
// backend's textual benchmark representation, for external tooling.
func (o *Optimizer) ConstraintLog(q *Query) string {
	return o.backend.ConstraintLog(q.Constraints, o.builder.Not(q.Goal))
}

// runSolver performs one satisfiability check of constraints ∧ ¬goal. When
// arrays is non-nil the backend also produces a model, decoded into one
// 8-byte buffer per array.
func (o *Optimizer) runSolver(ctx context.Context, q *Query, arrays []*expr.Array) (values [][]byte, hasSolution bool, err error) {
	start := time.Now()
	defer func() { o.stats.addTime(time.Since(start)) }()

	o.status = StatusFailure
	o.stats.addQuery(arrays != nil)

	resp, err := o.backend.Solve(ctx, SolveRequest{
		Assertions: o.assertions(q),
		Evaluate:   arrays,
		Timeout:    o.timeout,
	})
	if err != nil {
		return nil, false, fmt.Errorf("solver: solve: %w", err)
	}

	status, err := o.mapResult(resp.Result, resp.Reason)
	o.status = status
	if err != nil {
		return nil, false, err
	}

	if status == StatusSolvable {
		hasSolution = true
		if arrays != nil {
			if len(resp.Values) != len(arrays) {
				return nil, true, fmt.Errorf("solver: backend returned %d values for %d arrays", len(resp.Values), len(arrays))
			}
			values = make([][]byte, 0, len(resp.Values))
			for _, n := range resp.Values {
				values = append(values, n.Bytes())
			}
		}
	}
	o.stats.addOutcome(hasSolution)
	return values, hasSolution, nil
}

// assertions builds the satisfiability encoding of a validity query: every
// constraint plus the negated goal.
func (o *Optimizer) assertions(q *Query) []expr.Expr {
	out := make([]expr.Expr, 0, len(q.Constraints)+1)
	out = append(out, q.Constraints...)
	out = append(out, o.builder.Not(q.Goal))
	return out
}

// mapResult translates a backend satisfiability result into a run status.
// Timeout and cancellation are normal non-fatal outcomes; a generic "unknown"
// is a failure; any other reason is a backend contract violation and aborts.
func (o *Optimizer) mapResult(result SatResult, reason string) (RunStatus, error) {
	switch result {
	case Sat:
		return StatusSolvable, nil
	case Unsat:
		return StatusUnsolvable, nil
	case UnknownResult:
		switch reason {
		case "timeout", "canceled":
			return StatusTimeout, ErrSolverTimeout
		case "unknown":
			return StatusFailure, ErrSolverFailure
		default:
			o.log.Errorf("unexpected solver failure, reason %q", reason)
			panic(fmt.Sprintf("solver: unexpected backend failure reason %q", reason))
		}
	default:
		panic(fmt.Sprintf("solver: unhandled backend result %d", result))
	}
}
