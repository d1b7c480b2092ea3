package solver

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Numeral is a solver-reported numeric value: an exact integer or a rational
// with integer numerator and denominator.
type Numeral struct {
	num int64
	den int64
}

// IntNumeral returns the exact integer v.
func IntNumeral(v int64) Numeral { return Numeral{num: v, den: 1} }

// RatNumeral returns the rational num/den. Panics on a zero denominator,
// which no conforming backend reports.
func RatNumeral(num, den int64) Numeral {
	if den == 0 {
		panic("solver: rational numeral with zero denominator")
	}
	return Numeral{num: num, den: den}
}

// IsInt reports whether the numeral is an exact integer.
func (n Numeral) IsInt() bool { return n.den == 1 }

// Float64 returns the numeral as a double: the exact integer when possible,
// otherwise the floating quotient of numerator and denominator.
func (n Numeral) Float64() float64 {
	if n.den == 1 {
		return float64(n.num)
	}
	return float64(n.num) / float64(n.den)
}

func (n Numeral) String() string {
	if n.den == 1 {
		return fmt.Sprintf("%d", n.num)
	}
	return fmt.Sprintf("%d/%d", n.num, n.den)
}

// Bytes serializes the numeral's double value into a fresh 8-byte buffer,
// little-endian. This fixed encoding is a hard contract with every consumer
// of decoded solver values; both byte order and width must never change.
func (n Numeral) Bytes() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(n.Float64()))
	return buf
}

// Float64FromBytes decodes an 8-byte little-endian double buffer produced by
// Numeral.Bytes.
func Float64FromBytes(buf []byte) (float64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("solver: value buffer is %d bytes, want 8", len(buf))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}
