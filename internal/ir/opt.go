package ir

import "encoding/json"

// Opt is an explicitly optional configuration value.
//
// The zero Opt is unset. An unset check is skipped entirely, which is
// different from a check declared with the zero value (IsInAir=false is a
// real constraint).
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns an Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// None returns an unset Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// IsSet reports whether the value was declared.
func (o Opt[T]) IsSet() bool { return o.set }

// Get returns the value and whether it was declared.
func (o Opt[T]) Get() (T, bool) { return o.value, o.set }

// MustGet returns the value, panicking if unset.
// Only call after IsSet.
func (o Opt[T]) MustGet() T {
	if !o.set {
		panic("ir: MustGet on unset Opt")
	}
	return o.value
}

// IsZero lets encoding/json omit unset values under `omitzero`.
func (o Opt[T]) IsZero() bool { return !o.set }

// MarshalJSON encodes the held value, or null when unset.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes a value and marks it set. A JSON null leaves it unset.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
