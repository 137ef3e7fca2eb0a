package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a scalar that may be undefined at a grid point.
type Value struct {
	V  float64
	OK bool
}

// Some returns a defined value.
func Some(v float64) Value { return Value{V: v, OK: true} }

// None returns an undefined value.
func None() Value { return Value{} }

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.V, 'g', -1, 64)), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
