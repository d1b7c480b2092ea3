package solver

import "github.com/floatgauge/floatgauge/expr"

// Query is a validity question: do the constraints imply the goal expression?
// Constraints are iterated in insertion order.
type Query struct {
	Constraints []expr.Expr
	Goal        expr.Expr
}

// NewQuery returns a query over the given constraints and goal.
func NewQuery(constraints []expr.Expr, goal expr.Expr) *Query {
	return &Query{Constraints: constraints, Goal: goal}
}

// WithFalse returns the query with its goal replaced by the false constant,
// turning a validity question into a plain satisfiability check of the
// constraint set.
func (q *Query) WithFalse(b *expr.Builder) *Query {
	return &Query{Constraints: q.Constraints, Goal: b.False()}
}
