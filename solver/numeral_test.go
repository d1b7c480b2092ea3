package solver

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNumeralFloat64(t *testing.T) {
	tests := []struct {
		n    Numeral
		want float64
	}{
		{IntNumeral(42), 42},
		{IntNumeral(-7), -7},
		{RatNumeral(1, 2), 0.5},
		{RatNumeral(1, 3), 1.0 / 3.0},
		{RatNumeral(-3, 4), -0.75},
	}
	for _, tt := range tests {
		if got := tt.n.Float64(); got != tt.want {
			t.Errorf("%s.Float64() = %g, want %g", tt.n, got, tt.want)
		}
	}
}

func TestNumeralString(t *testing.T) {
	if got := IntNumeral(42).String(); got != "42" {
		t.Errorf("String = %q, want %q", got, "42")
	}
	if got := RatNumeral(1, 3).String(); got != "1/3" {
		t.Errorf("String = %q, want %q", got, "1/3")
	}
}

// TestNumeralBytes checks the wire contract: every decoded value, integer or
// rational, travels as an 8-byte little-endian double.
func TestNumeralBytes(t *testing.T) {
	for _, tt := range []struct {
		n    Numeral
		want float64
	}{
		{IntNumeral(42), 42.0},
		{RatNumeral(1, 3), 1.0 / 3.0},
	} {
		buf := tt.n.Bytes()
		if len(buf) != 8 {
			t.Fatalf("Bytes() is %d bytes, want 8", len(buf))
		}
		wantBits := math.Float64bits(tt.want)
		if gotBits := binary.LittleEndian.Uint64(buf); gotBits != wantBits {
			t.Errorf("%s.Bytes() = %x, want bits of %g", tt.n, buf, tt.want)
		}
		back, err := Float64FromBytes(buf)
		if err != nil {
			t.Fatalf("Float64FromBytes: %v", err)
		}
		if back != tt.want {
			t.Errorf("roundtrip = %g, want %g", back, tt.want)
		}
	}
}

func TestFloat64FromBytesLength(t *testing.T) {
	if _, err := Float64FromBytes([]byte{1, 2, 3}); err == nil {
		t.Error("expected a short buffer to error")
	}
}

func TestRatNumeralZeroDenominatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a zero denominator to panic")
		}
	}()
	RatNumeral(1, 0)
}
