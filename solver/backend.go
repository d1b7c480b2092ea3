package solver

import (
	"context"
	"time"

	"github.com/floatgauge/floatgauge/expr"
)

// SatResult is the raw satisfiability outcome reported by a backend.
type SatResult uint8

const (
	Sat SatResult = iota
	Unsat
	UnknownResult
)

func (r SatResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	case UnknownResult:
		return "unknown"
	default:
		return "invalid"
	}
}

// SolveRequest asks a backend to check the satisfiability of a conjunction of
// assertions and, when satisfiable, to evaluate each listed array under the
// model. A zero timeout means no timeout.
type SolveRequest struct {
	Assertions []expr.Expr
	Evaluate   []*expr.Array
	Timeout    time.Duration
}

// SolveResponse carries the backend's outcome. Reason holds the backend's
// reason-unknown string when Result is UnknownResult. Values holds one
// numeral per Evaluate entry, in order, when Result is Sat.
type SolveResponse struct {
	Result SatResult
	Reason string
	Values []Numeral
}

// OptimizeRequest asks a backend to check the assertions under Pareto
// priority while simultaneously maximizing one real-valued objective per
// listed array.
type OptimizeRequest struct {
	Assertions []expr.Expr
	Maximize   []*expr.Array
	Timeout    time.Duration
}

// Bound is one objective's upper bound as the (infinity coefficient, value,
// epsilon coefficient) triple the backend reports.
type Bound struct {
	Infinite bool
	Value    Numeral
	Epsilon  bool
}

// OptimizeResponse carries the optimization outcome with one Bound per
// objective, in request order, when Result is Sat.
type OptimizeResponse struct {
	Result SatResult
	Reason string
	Bounds []Bound
}

// Backend is the solver capability consumed by the Optimizer. A backend
// session exists only for the duration of one call; implementations must not
// leak state between calls.
type Backend interface {
	Solve(ctx context.Context, req SolveRequest) (SolveResponse, error)
	Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResponse, error)

	// ConstraintLog serializes the assertions and the extra formula to the
	// backend's native textual benchmark representation.
	ConstraintLog(assertions []expr.Expr, formula expr.Expr) string
}
