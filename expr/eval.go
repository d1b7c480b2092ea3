package expr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Assignment binds symbolic arrays to concrete numerals for evaluation.
//
// The error calculus is interpreted over the reals, matching the solver
// backend's encoding: each array contributes a single real-valued numeral,
// and any read of the array (or concatenation of its reads) evaluates to
// that numeral. Unbound arrays evaluate to zero, mirroring solver model
// completion.
type Assignment struct {
	values map[*Array]float64
}

// NewAssignment returns an empty assignment.
func NewAssignment() *Assignment {
	return &Assignment{values: make(map[*Array]float64)}
}

// Bind assigns v to array, replacing any previous binding.
func (a *Assignment) Bind(array *Array, v float64) {
	a.values[array] = v
}

// BindBytes assigns the numeral carried by an 8-byte little-endian double
// buffer, the wire format produced by the solver for concrete values.
func (a *Assignment) BindBytes(array *Array, buf []byte) error {
	if len(buf) != 8 {
		return fmt.Errorf("expr: assignment buffer for %s is %d bytes, want 8", array.Name, len(buf))
	}
	a.values[array] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
	return nil
}

// Evaluate computes the real value of e under the assignment. Boolean
// expressions evaluate to 1 or 0.
func (a *Assignment) Evaluate(e Expr) (float64, error) {
	switch e := e.(type) {
	case *ConstantExpr:
		if e.Width() == WidthBool {
			return float64(e.Value), nil
		}
		// Arithmetic constants are read as two's complement, so a folded
		// negative stays negative under the real interpretation.
		return float64(e.Signed()), nil
	case *ReadExpr:
		return a.values[e.Array], nil
	case *ConcatExpr:
		// A concatenation of reads is the array's single numeral; a
		// purely concrete concatenation combines numerically.
		if _, ok := e.MSB.(*ReadExpr); ok {
			return a.Evaluate(e.MSB)
		}
		msb, err := a.Evaluate(e.MSB)
		if err != nil {
			return 0, err
		}
		lsb, err := a.Evaluate(e.LSB)
		if err != nil {
			return 0, err
		}
		return msb*math.Exp2(float64(e.LSB.Width())) + lsb, nil
	case *ZExtExpr:
		return a.Evaluate(e.Src)
	case *SExtExpr:
		return a.Evaluate(e.Src)
	case *ExtractExpr:
		return a.Evaluate(e.Src)
	case *NotExpr:
		x, err := a.Evaluate(e.X)
		if err != nil {
			return 0, err
		}
		if x == 0 {
			return 1, nil
		}
		return 0, nil
	case *BinaryExpr:
		lhs, err := a.Evaluate(e.LHS)
		if err != nil {
			return 0, err
		}
		rhs, err := a.Evaluate(e.RHS)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case Add:
			return lhs + rhs, nil
		case Sub:
			return lhs - rhs, nil
		case Mul:
			return lhs * rhs, nil
		case UDiv, SDiv:
			if rhs == 0 {
				return 0, fmt.Errorf("expr: division by zero evaluating %s", e)
			}
			return lhs / rhs, nil
		case Eq:
			return boolValue(lhs == rhs), nil
		case Ult, Slt:
			return boolValue(lhs < rhs), nil
		case Ule, Sle:
			return boolValue(lhs <= rhs), nil
		default:
			return 0, fmt.Errorf("expr: cannot evaluate operation %s", e.Op)
		}
	default:
		return 0, fmt.Errorf("expr: cannot evaluate expression type %T", e)
	}
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
