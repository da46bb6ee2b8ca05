// Package optional models request fields that distinguish "omitted", "null" and
// "value" when decoding JSON.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value. The zero value is an absent field.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a present, non-null field.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a present field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// HasValue reports whether the field was supplied with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Ptr returns nil for null fields and a pointer to the value otherwise.
// Callers are expected to check Set first.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}

// Or returns the value when present or fallback otherwise.
func (f Field[T]) Or(fallback T) T {
	if f.HasValue() {
		return f.Value
	}
	return fallback
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON renders absent and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Map converts the value of a field while keeping its state.
func Map[T, U any](f Field[T], fn func(T) U) Field[U] {
	out := Field[U]{Set: f.Set, Null: f.Null}
	if f.HasValue() {
		out.Value = fn(f.Value)
	}
	return out
}
