package survey

import (
	"math"
	"strconv"
)

// Float is a nullable float64. The zero value is null, so an unset field is
// never confused with a reading of 0.
type Float struct {
	V     float64
	Valid bool
}

// Some returns a set Float holding v.
func Some(v float64) Float {
	return Float{V: v, Valid: true}
}

// Finite returns a set Float when v is finite and null otherwise.
func Finite(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{V: v, Valid: true}
}

// Get returns the value and whether it is set.
func (f Float) Get() (float64, bool) {
	return f.V, f.Valid
}

// IsFinite reports whether f is set and holds a finite number.
func (f Float) IsFinite() bool {
	return f.Valid && !math.IsNaN(f.V) && !math.IsInf(f.V, 0)
}

// OrNaN returns the value, or NaN when null.
func (f Float) OrNaN() float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.V
}

// Neg returns -f, preserving null.
func (f Float) Neg() Float {
	if !f.Valid {
		return f
	}
	return Float{V: -f.V, Valid: true}
}

// Format renders f with the given precision, or "" when null or non-finite.
// A precision of -1 uses the shortest representation.
func (f Float) Format(prec int) string {
	if !f.IsFinite() {
		return ""
	}
	return strconv.FormatFloat(f.V, 'f', prec, 64)
}

// String implements fmt.Stringer.
func (f Float) String() string {
	if !f.Valid {
		return "null"
	}
	return strconv.FormatFloat(f.V, 'g', -1, 64)
}
