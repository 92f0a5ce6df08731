package forms

import (
	"bytes"
	"encoding/json"
)

// Optional is the double-optional field state every form is built from. A
// field is either omitted (no opinion), explicitly null (clear/unset), or
// set to a value. The zero value is omitted.
type Optional[T any] struct {
	set   bool
	null  bool
	value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{set: true, value: v}
}

// Null returns an explicitly-null Optional.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// Omitted reports whether the field was absent from the form.
func (o Optional[T]) Omitted() bool { return !o.set }

// IsNull reports whether the field was explicitly set to null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Get returns the value and whether one is present.
func (o Optional[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Interface returns the held value, or nil for null/omitted states.
func (o Optional[T]) Interface() any {
	if !o.set || o.null {
		return nil
	}
	return o.value
}

var jsonNull = []byte("null")

// UnmarshalJSON records presence: a key that appears in the body is set,
// and a literal null is an explicit null rather than a missing field.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*o = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalJSON renders omitted and null states both as null; forms are an
// input representation, so this is used only for diagnostics.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return jsonNull, nil
	}
	return json.Marshal(o.value)
}
