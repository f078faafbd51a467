package calculate

import "strconv"

// Value is an indicator reading that may not be available yet.
// The zero Value is "not yet available", which is distinct from a reading of 0.
type Value struct {
	v  float64
	ok bool
}

// Some wraps an available reading
func Some(v float64) Value {
	return Value{v: v, ok: true}
}

// None returns the not-yet-available marker
func None() Value {
	return Value{}
}

// Get returns the reading and whether it is available
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// Valid reports whether the reading is available
func (v Value) Valid() bool {
	return v.ok
}

// OrZero returns the reading, or 0 when unavailable
func (v Value) OrZero() float64 {
	if !v.ok {
		return 0
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "n/a"
	}
	return strconv.FormatFloat(v.v, 'f', 4, 64)
}

// MarshalJSON renders unavailable readings as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.v, 'g', -1, 64), nil
}
