package expr

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEvaluateArithmetic(t *testing.T) {
	b := NewBuilder()
	x := b.Read(b.Array("x", Width64), b.Constant(0, Width8))
	y := b.Read(b.Array("y", Width64), b.Constant(0, Width8))

	a := NewAssignment()
	a.Bind(x.Array, 10)
	a.Bind(y.Array, 4)

	tests := []struct {
		expr Expr
		want float64
	}{
		{b.Add(x, y), 14},
		{b.Sub(x, y), 6},
		{b.Mul(x, y), 40},
		{b.UDiv(x, y), 2.5},
		{b.SDiv(x, y), 2.5},
		{b.Eq(x, y), 0},
		{b.Ule(y, x), 1},
		{b.Not(b.Ult(y, x)), 0},
		{b.ZExt(b.Read(b.Array("z", Width8), b.Constant(0, Width8)), Width64), 0},
	}
	for _, tt := range tests {
		got, err := a.Evaluate(tt.expr)
		if err != nil {
			t.Errorf("Evaluate(%s): %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Evaluate(%s) = %g, want %g", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluateSignedConstants(t *testing.T) {
	b := NewBuilder()
	x := b.Read(b.Array("x", Width8), b.Constant(0, Width8))

	// A folded negative (0 - 1 wraps to 0xff) reads as -1 over the reals.
	neg := b.Sub(b.Constant(0, Width8), b.Constant(1, Width8))
	a := NewAssignment()
	got, err := a.Evaluate(neg)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != -1 {
		t.Errorf("Evaluate(%s) = %g, want -1", neg, got)
	}

	a.Bind(x.Array, 2)
	got, err = a.Evaluate(b.Mul(x, neg))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != -2 {
		t.Errorf("x * -1 = %g, want -2", got)
	}

	wide := b.ZExt(x, Width64)
	if got, _ := a.Evaluate(b.Extract(b.Mul(wide, wide), Width8)); got != 4 {
		t.Errorf("extract passthrough = %g, want 4", got)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	b := NewBuilder()
	x := b.Read(b.Array("x", Width64), b.Constant(0, Width8))
	a := NewAssignment()
	if _, err := a.Evaluate(b.UDiv(b.Constant(1, Width64), x)); err == nil {
		t.Error("expected division by an unbound (zero) array to error")
	}
}

func TestEvaluateConcatOfReads(t *testing.T) {
	b := NewBuilder()
	arr := b.Array("input", Width8)
	hi := b.Read(arr, b.Constant(1, Width8))
	lo := b.Read(arr, b.Constant(0, Width8))
	cat := b.Concat(hi, lo)

	a := NewAssignment()
	a.Bind(arr, 0.25)
	got, err := a.Evaluate(cat)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 0.25 {
		t.Errorf("concat of reads = %g, want the array numeral 0.25", got)
	}
}

func TestBindBytes(t *testing.T) {
	b := NewBuilder()
	arr := b.Array("v", Width64)
	r := b.Read(arr, b.Constant(0, Width8))

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(1.5))
	a := NewAssignment()
	if err := a.BindBytes(arr, buf); err != nil {
		t.Fatalf("BindBytes: %v", err)
	}
	got, err := a.Evaluate(r)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 1.5 {
		t.Errorf("bound value = %g, want 1.5", got)
	}

	if err := a.BindBytes(arr, buf[:4]); err == nil {
		t.Error("expected short buffer to error")
	}
}
