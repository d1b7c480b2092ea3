// Package expr implements the symbolic expression IR consumed by the error
// ledger and the bound optimizer. Nodes are immutable and hash-consed: two
// structurally equal expressions built through the same Builder are the same
// object, so equality and map keying are by identity.
package expr

import "fmt"

// Width is the bit width of an expression.
type Width uint

// Common widths.
const (
	WidthBool Width = 1
	Width8    Width = 8
	Width16   Width = 16
	Width32   Width = 32
	Width64   Width = 64
)

// Expr represents a symbolic expression node.
//
// The ID is unique per distinct expression within one Builder and is stable
// for the Builder's lifetime; diagnostic names derived from it (such as the
// report's error variables) are therefore stable too.
type Expr interface {
	ID() uint64
	Width() Width
	String() string
	expr()
}

func (*ConstantExpr) expr() {}
func (*ReadExpr) expr()     {}
func (*ConcatExpr) expr()   {}
func (*ZExtExpr) expr()     {}
func (*SExtExpr) expr()     {}
func (*ExtractExpr) expr()  {}
func (*NotExpr) expr()      {}
func (*BinaryExpr) expr()   {}

// BinaryOp enumerates binary expression operations.
type BinaryOp uint8

// Binary operations.
const (
	Add BinaryOp = iota
	Sub
	Mul
	UDiv
	SDiv
	Eq
	Ult
	Ule
	Slt
	Sle
)

var binaryOpNames = [...]string{
	Add:  "add",
	Sub:  "sub",
	Mul:  "mul",
	UDiv: "udiv",
	SDiv: "sdiv",
	Eq:   "eq",
	Ult:  "ult",
	Ule:  "ule",
	Slt:  "slt",
	Sle:  "sle",
}

// String returns the lowercase mnemonic of the operation.
func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", uint8(op))
}

// IsCompare returns true if op yields a boolean (width 1) result.
func (op BinaryOp) IsCompare() bool {
	return op >= Eq
}

// Array is a named, width-typed symbolic input buffer. Identity is the name:
// a Builder returns the same *Array for the same name.
type Array struct {
	Name      string
	ElemWidth Width
}

func (a *Array) String() string { return a.Name }

// ConstantExpr is a constant value of a fixed width.
type ConstantExpr struct {
	id    uint64
	Value uint64
	W     Width
}

func (e *ConstantExpr) ID() uint64   { return e.id }
func (e *ConstantExpr) Width() Width { return e.W }

// Signed reinterprets the constant's low bits as a two's complement value.
// The real-valued encodings of the arithmetic widths read constants this way.
func (e *ConstantExpr) Signed() int64 { return signed(e.Value, e.W) }

// IsTrue reports whether the constant is the boolean true value.
func (e *ConstantExpr) IsTrue() bool { return e.W == WidthBool && e.Value == 1 }

// IsFalse reports whether the constant is the boolean false value.
func (e *ConstantExpr) IsFalse() bool { return e.W == WidthBool && e.Value == 0 }

func (e *ConstantExpr) String() string {
	if e.W == WidthBool {
		if e.Value == 0 {
			return "false"
		}
		return "true"
	}
	return fmt.Sprintf("%d", e.Value)
}

// ReadExpr reads one element of a symbolic array at the given offset.
type ReadExpr struct {
	id    uint64
	Array *Array
	Index Expr
}

func (e *ReadExpr) ID() uint64     { return e.id }
func (e *ReadExpr) Width() Width   { return e.Array.ElemWidth }
func (e *ReadExpr) String() string { return fmt.Sprintf("(read %s %s)", e.Array.Name, e.Index) }

// ConcatExpr is the byte-wise concatenation of two expressions, MSB first.
type ConcatExpr struct {
	id  uint64
	MSB Expr
	LSB Expr
}

func (e *ConcatExpr) ID() uint64     { return e.id }
func (e *ConcatExpr) Width() Width   { return e.MSB.Width() + e.LSB.Width() }
func (e *ConcatExpr) String() string { return fmt.Sprintf("(concat %s %s)", e.MSB, e.LSB) }

// ZExtExpr zero-extends Src to width W.
type ZExtExpr struct {
	id  uint64
	Src Expr
	W   Width
}

func (e *ZExtExpr) ID() uint64     { return e.id }
func (e *ZExtExpr) Width() Width   { return e.W }
func (e *ZExtExpr) String() string { return fmt.Sprintf("(zext %d %s)", e.W, e.Src) }

// SExtExpr sign-extends Src to width W.
type SExtExpr struct {
	id  uint64
	Src Expr
	W   Width
}

func (e *SExtExpr) ID() uint64     { return e.id }
func (e *SExtExpr) Width() Width   { return e.W }
func (e *SExtExpr) String() string { return fmt.Sprintf("(sext %d %s)", e.W, e.Src) }

// ExtractExpr truncates Src to its low W bits.
type ExtractExpr struct {
	id  uint64
	Src Expr
	W   Width
}

func (e *ExtractExpr) ID() uint64     { return e.id }
func (e *ExtractExpr) Width() Width   { return e.W }
func (e *ExtractExpr) String() string { return fmt.Sprintf("(extract %d %s)", e.W, e.Src) }

// NotExpr is boolean negation.
type NotExpr struct {
	id uint64
	X  Expr
}

func (e *NotExpr) ID() uint64     { return e.id }
func (e *NotExpr) Width() Width   { return WidthBool }
func (e *NotExpr) String() string { return fmt.Sprintf("(not %s)", e.X) }

// BinaryExpr is an operation on two expressions of equal width.
type BinaryExpr struct {
	id  uint64
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

func (e *BinaryExpr) ID() uint64 { return e.id }

func (e *BinaryExpr) Width() Width {
	if e.Op.IsCompare() {
		return WidthBool
	}
	return e.LHS.Width()
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Op, e.LHS, e.RHS)
}

// ArraysOf returns the distinct symbolic arrays referenced by the given
// expressions, in first-reference order.
func ArraysOf(exprs ...Expr) []*Array {
	var out []*Array
	seen := make(map[*Array]struct{})
	var walk func(Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case *ConstantExpr:
		case *ReadExpr:
			if _, ok := seen[e.Array]; !ok {
				seen[e.Array] = struct{}{}
				out = append(out, e.Array)
			}
			walk(e.Index)
		case *ConcatExpr:
			walk(e.MSB)
			walk(e.LSB)
		case *ZExtExpr:
			walk(e.Src)
		case *SExtExpr:
			walk(e.Src)
		case *ExtractExpr:
			walk(e.Src)
		case *NotExpr:
			walk(e.X)
		case *BinaryExpr:
			walk(e.LHS)
			walk(e.RHS)
		default:
			panic(fmt.Sprintf("expr: unknown expression type %T", e))
		}
	}
	for _, e := range exprs {
		walk(e)
	}
	return out
}
