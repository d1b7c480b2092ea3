package expr

import "fmt"

// Builder constructs hash-consed expressions. All expressions of one analysis
// session must come from the same Builder; nodes from different Builders never
// compare equal.
//
// The cache is keyed by a canonical structural encoding of each node, so a
// repeated construction returns the previously built object.
type Builder struct {
	nodes  map[string]Expr
	arrays map[string]*Array
	nextID uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:  make(map[string]Expr, 256),
		arrays: make(map[string]*Array, 16),
	}
}

// intern returns the cached node for key, building it on first use.
func (b *Builder) intern(key string, mk func(id uint64) Expr) Expr {
	if e, ok := b.nodes[key]; ok {
		return e
	}
	b.nextID++
	e := mk(b.nextID)
	b.nodes[key] = e
	return e
}

// Array returns the symbolic array with the given name, creating it on first
// use. A second call with the same name returns the same *Array regardless of
// elemWidth, since the name is the identity.
func (b *Builder) Array(name string, elemWidth Width) *Array {
	if a, ok := b.arrays[name]; ok {
		return a
	}
	a := &Array{Name: name, ElemWidth: elemWidth}
	b.arrays[name] = a
	return a
}

// Constant returns the constant v of width w. Values wider than w are
// truncated to w bits.
func (b *Builder) Constant(v uint64, w Width) *ConstantExpr {
	if w < Width64 {
		v &= (1 << w) - 1
	}
	e := b.intern(fmt.Sprintf("c|%d|%d", v, w), func(id uint64) Expr {
		return &ConstantExpr{id: id, Value: v, W: w}
	})
	return e.(*ConstantExpr)
}

// False returns the boolean false constant.
func (b *Builder) False() *ConstantExpr { return b.Constant(0, WidthBool) }

// True returns the boolean true constant.
func (b *Builder) True() *ConstantExpr { return b.Constant(1, WidthBool) }

// Read returns a read of array at index.
func (b *Builder) Read(array *Array, index Expr) *ReadExpr {
	key := fmt.Sprintf("r|%s|%d", array.Name, index.ID())
	e := b.intern(key, func(id uint64) Expr {
		return &ReadExpr{id: id, Array: array, Index: index}
	})
	return e.(*ReadExpr)
}

// Concat returns the concatenation of msb and lsb, MSB first.
func (b *Builder) Concat(msb, lsb Expr) Expr {
	key := fmt.Sprintf("k|%d|%d", msb.ID(), lsb.ID())
	return b.intern(key, func(id uint64) Expr {
		return &ConcatExpr{id: id, MSB: msb, LSB: lsb}
	})
}

// ZExt zero-extends src to width w. Extending to the source width is the
// identity; extending to a narrower width is a caller error.
func (b *Builder) ZExt(src Expr, w Width) Expr {
	if w == src.Width() {
		return src
	}
	if w < src.Width() {
		panic(fmt.Sprintf("expr: zext from %d to narrower width %d", src.Width(), w))
	}
	key := fmt.Sprintf("z|%d|%d", src.ID(), w)
	return b.intern(key, func(id uint64) Expr {
		return &ZExtExpr{id: id, Src: src, W: w}
	})
}

// SExt sign-extends src to width w, with the same width rules as ZExt.
func (b *Builder) SExt(src Expr, w Width) Expr {
	if w == src.Width() {
		return src
	}
	if w < src.Width() {
		panic(fmt.Sprintf("expr: sext from %d to narrower width %d", src.Width(), w))
	}
	key := fmt.Sprintf("s|%d|%d", src.ID(), w)
	return b.intern(key, func(id uint64) Expr {
		return &SExtExpr{id: id, Src: src, W: w}
	})
}

// Extract truncates src to its low w bits. Extracting the source width is the
// identity; extracting to a wider width is a caller error. A constant source
// folds by masking.
func (b *Builder) Extract(src Expr, w Width) Expr {
	if w == src.Width() {
		return src
	}
	if w > src.Width() {
		panic(fmt.Sprintf("expr: extract from %d to wider width %d", src.Width(), w))
	}
	if c, ok := src.(*ConstantExpr); ok {
		return b.Constant(c.Value, w)
	}
	key := fmt.Sprintf("x|%d|%d", src.ID(), w)
	return b.intern(key, func(id uint64) Expr {
		return &ExtractExpr{id: id, Src: src, W: w}
	})
}

// Not returns the boolean negation of x.
func (b *Builder) Not(x Expr) Expr {
	if x.Width() != WidthBool {
		panic(fmt.Sprintf("expr: not of non-boolean expression of width %d", x.Width()))
	}
	if c, ok := x.(*ConstantExpr); ok {
		return b.Constant(1-c.Value, WidthBool)
	}
	key := fmt.Sprintf("n|%d", x.ID())
	return b.intern(key, func(id uint64) Expr {
		return &NotExpr{id: id, X: x}
	})
}

// Binary returns the binary expression op(lhs, rhs). Both operands must have
// the same width. Constant operands are folded for arithmetic operations
// except division by zero, which is preserved symbolically.
func (b *Builder) Binary(op BinaryOp, lhs, rhs Expr) Expr {
	if lhs.Width() != rhs.Width() {
		panic(fmt.Sprintf("expr: binary width mismatch: %s %d != %d", op, lhs.Width(), rhs.Width()))
	}
	if lc, ok := lhs.(*ConstantExpr); ok {
		if rc, ok := rhs.(*ConstantExpr); ok {
			if folded, ok := foldConstants(b, op, lc, rc); ok {
				return folded
			}
		}
	}
	key := fmt.Sprintf("b|%d|%d|%d", op, lhs.ID(), rhs.ID())
	return b.intern(key, func(id uint64) Expr {
		return &BinaryExpr{id: id, Op: op, LHS: lhs, RHS: rhs}
	})
}

// Arithmetic and comparison shorthands.

func (b *Builder) Add(lhs, rhs Expr) Expr  { return b.Binary(Add, lhs, rhs) }
func (b *Builder) Sub(lhs, rhs Expr) Expr  { return b.Binary(Sub, lhs, rhs) }
func (b *Builder) Mul(lhs, rhs Expr) Expr  { return b.Binary(Mul, lhs, rhs) }
func (b *Builder) UDiv(lhs, rhs Expr) Expr { return b.Binary(UDiv, lhs, rhs) }
func (b *Builder) SDiv(lhs, rhs Expr) Expr { return b.Binary(SDiv, lhs, rhs) }
func (b *Builder) Eq(lhs, rhs Expr) Expr   { return b.Binary(Eq, lhs, rhs) }
func (b *Builder) Ult(lhs, rhs Expr) Expr  { return b.Binary(Ult, lhs, rhs) }
func (b *Builder) Ule(lhs, rhs Expr) Expr  { return b.Binary(Ule, lhs, rhs) }
func (b *Builder) Slt(lhs, rhs Expr) Expr  { return b.Binary(Slt, lhs, rhs) }
func (b *Builder) Sle(lhs, rhs Expr) Expr  { return b.Binary(Sle, lhs, rhs) }

func foldConstants(b *Builder, op BinaryOp, lhs, rhs *ConstantExpr) (Expr, bool) {
	w := lhs.W
	switch op {
	case Add:
		return b.Constant(lhs.Value+rhs.Value, w), true
	case Sub:
		return b.Constant(lhs.Value-rhs.Value, w), true
	case Mul:
		return b.Constant(lhs.Value*rhs.Value, w), true
	case UDiv, SDiv:
		if rhs.Value == 0 {
			return nil, false
		}
		if op == SDiv {
			return b.Constant(uint64(signed(lhs.Value, w)/signed(rhs.Value, w)), w), true
		}
		return b.Constant(lhs.Value/rhs.Value, w), true
	case Eq:
		return b.boolConstant(lhs.Value == rhs.Value), true
	case Ult:
		return b.boolConstant(lhs.Value < rhs.Value), true
	case Ule:
		return b.boolConstant(lhs.Value <= rhs.Value), true
	case Slt:
		return b.boolConstant(signed(lhs.Value, w) < signed(rhs.Value, w)), true
	case Sle:
		return b.boolConstant(signed(lhs.Value, w) <= signed(rhs.Value, w)), true
	}
	return nil, false
}

func (b *Builder) boolConstant(v bool) *ConstantExpr {
	if v {
		return b.True()
	}
	return b.False()
}

// signed reinterprets the low w bits of v as a two's complement value.
func signed(v uint64, w Width) int64 {
	if w >= Width64 {
		return int64(v)
	}
	shift := 64 - uint(w)
	return int64(v<<shift) >> shift
}
