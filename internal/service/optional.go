package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
)

// Optional distinguishes a field that was left out of a request body from one
// that was sent. Set is true when the key was present; Null is true when it
// was present with a JSON null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only called by encoding/json when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	if err := json.Unmarshal(data, &o.Value); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return err
		}
		// Values with their own decoders (decimal.Decimal) fail with plain
		// errors; report them as type errors so the field name is attached.
		return &json.UnmarshalTypeError{Value: "value", Type: reflect.TypeOf((*T)(nil)).Elem()}
	}
	return nil
}

// MarshalJSON writes the value, or null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present reports whether the field was sent with a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}
