package domain

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Value is a layer scalar that may be missing.
// The zero Value is missing.
type Value struct {
	v  float64
	ok bool
}

// Some wraps v. NaN and infinities are stored as missing.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Missing returns the missing value.
func Missing() Value {
	return Value{}
}

// Get returns the wrapped number and whether it is present.
func (x Value) Get() (float64, bool) {
	return x.v, x.ok
}

// IsMissing reports whether x carries no number.
func (x Value) IsMissing() bool {
	return !x.ok
}

// Float returns the number, or NaN when missing.
func (x Value) Float() float64 {
	if !x.ok {
		return math.NaN()
	}
	return x.v
}

// Add returns x + y.
func (x Value) Add(y Value) Value {
	if !x.ok || !y.ok {
		return Value{}
	}
	return Some(x.v + y.v)
}

// Sub returns x - y.
func (x Value) Sub(y Value) Value {
	if !x.ok || !y.ok {
		return Value{}
	}
	return Some(x.v - y.v)
}

// Scale returns x * f.
func (x Value) Scale(f float64) Value {
	if !x.ok {
		return Value{}
	}
	return Some(x.v * f)
}

// Div returns x / d. Division by zero yields missing.
func (x Value) Div(d float64) Value {
	if !x.ok || d == 0 {
		return Value{}
	}
	return Some(x.v / d)
}

// Less reports whether both values are present and x < y.
func (x Value) Less(y Value) bool {
	return x.ok && y.ok && x.v < y.v
}

// String formats the value, "--" when missing.
func (x Value) String() string {
	if !x.ok {
		return "--"
	}
	return strconv.FormatFloat(x.v, 'g', 6, 64)
}

// MarshalJSON encodes missing as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON decodes null as missing.
func (x *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*x = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*x = Some(f)
	return nil
}

// Present returns the numbers of the non-missing values, in order.
func Present(vals []Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.ok {
			out = append(out, v.v)
		}
	}
	return out
}

// Mean averages the non-missing values. It is missing if every value is.
func Mean(vals []Value) Value {
	xs := Present(vals)
	if len(xs) == 0 {
		return Value{}
	}
	return Some(stat.Mean(xs, nil))
}

// Extent returns the smallest and largest non-missing values.
// Both are missing when no value is present.
func Extent(vals []Value) (Value, Value) {
	xs := Present(vals)
	if len(xs) == 0 {
		return Value{}, Value{}
	}
	return Some(floats.Min(xs)), Some(floats.Max(xs))
}
