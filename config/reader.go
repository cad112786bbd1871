// Package config provides a small combinator library for resolving
// runtime configuration values, primarily from environment variables,
// without committing to any particular config-file format.
//
// A [Reader] is a deterministic function from a context to a resolved
// [Value] or an error. Readers compose: [Or] tries a primary reader and
// falls back to a secondary one if the primary yields no value, [Default]
// supplies a value when none was set, [Map] and [Bind] transform a
// reader's resolved value, and [Must]/[MustOr] collapse a reader down to
// a plain value or panic, for use in constructors where the absence of a
// value is a programming error rather than a runtime condition.
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// Value is the result of resolving a [Reader]. Set reports whether a
// value was actually found; a Reader that finds nothing (e.g. an unset
// environment variable) returns a [Value] with Set false rather than an
// error, so callers can distinguish "not configured" from "failed to
// resolve".
type Value[T any] struct {
	V   T
	Set bool
}

// ValueOf wraps v as a resolved, present [Value].
func ValueOf[T any](v T) Value[T] {
	return Value[T]{V: v, Set: true}
}

// Reader resolves a configuration value of type T.
type Reader[T any] interface {
	Read(ctx context.Context) (Value[T], error)
}

// ReaderFunc adapts a plain function to a [Reader].
type ReaderFunc[T any] func(ctx context.Context) (Value[T], error)

// Read implements [Reader].
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// ReaderOf returns a [Reader] that always resolves to v.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// EmptyReader returns a [Reader] that never resolves a value.
func EmptyReader[T any]() Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return Value[T]{}, nil
	})
}

// envReader reads a raw environment variable as a string [Reader].
type envReader struct {
	name string
}

// Env returns a [Reader] that resolves to the value of the named
// environment variable, or an unset [Value] if it is not present (or
// present but empty).
func Env(name string) Reader[string] {
	return envReader{name: name}
}

func (e envReader) Read(ctx context.Context) (Value[string], error) {
	v, ok := os.LookupEnv(e.name)
	if !ok || v == "" {
		return Value[string]{}, nil
	}
	return ValueOf(v), nil
}

// Or returns a [Reader] that resolves primary, falling back to
// secondary only when primary yields no value. Errors from primary are
// propagated without consulting secondary.
func Or[T any](primary, secondary Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		v, err := primary.Read(ctx)
		if err != nil {
			return Value[T]{}, err
		}
		if v.Set {
			return v, nil
		}
		return secondary.Read(ctx)
	})
}

// Default returns a [Reader] that resolves r, substituting def when r
// yields no value.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[T]{}, err
		}
		if v.Set {
			return v, nil
		}
		return ValueOf(def), nil
	})
}

// Map returns a [Reader] that resolves r and, if a value was set,
// transforms it with f. An unset r yields an unset result without
// invoking f.
func Map[A, B any](r Reader[A], f func(ctx context.Context, a A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}
		if !v.Set {
			return Value[B]{}, nil
		}
		b, err := f(ctx, v.V)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// Bind returns a [Reader] that resolves r and passes its value to f,
// which selects the next [Reader] to resolve. This is how readers whose
// later stages depend on an earlier resolved value (e.g. "which
// exporter to build, given whether it's enabled") are composed.
func Bind[A, B any](r Reader[A], f func(ctx context.Context, a A) Reader[B]) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}
		if !v.Set {
			var zero A
			return f(ctx, zero).Read(ctx)
		}
		return f(ctx, v.V).Read(ctx)
	})
}

// Must resolves r and panics if it yields no value or an error. Intended
// for use inside other Readers' Read methods, where an unresolved
// dependency is unrecoverable for that Reader.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := r.Read(ctx)
	if err != nil {
		panic(err)
	}
	if !v.Set {
		panic("config: required value not set")
	}
	return v.V
}

// MustOr resolves r, returning def if r yields no value, and panics only
// on error.
func MustOr[T any](ctx context.Context, r Reader[T], def T) T {
	v, err := r.Read(ctx)
	if err != nil {
		panic(err)
	}
	if !v.Set {
		return def
	}
	return v.V
}

// BoolFromString maps a string [Reader] through [strconv.ParseBool].
func BoolFromString(r Reader[string]) Reader[bool] {
	return Map(r, func(ctx context.Context, s string) (bool, error) {
		return strconv.ParseBool(s)
	})
}

// IntFromString maps a string [Reader] through [strconv.Atoi].
func IntFromString(r Reader[string]) Reader[int] {
	return Map(r, func(ctx context.Context, s string) (int, error) {
		return strconv.Atoi(s)
	})
}

// Float64FromString maps a string [Reader] through [strconv.ParseFloat].
func Float64FromString(r Reader[string]) Reader[float64] {
	return Map(r, func(ctx context.Context, s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// DurationFromString maps a string [Reader] through [time.ParseDuration].
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return Map(r, func(ctx context.Context, s string) (time.Duration, error) {
		return time.ParseDuration(s)
	})
}

// StringSliceFromString maps a string [Reader] by splitting on commas,
// trimming surrounding whitespace from each element. Matches the
// OTEL_RESOURCE_ATTRIBUTES / header-list env var conventions, which are
// comma-separated key=value pairs.
func StringSliceFromString(r Reader[string]) Reader[[]string] {
	return Map(r, func(ctx context.Context, s string) ([]string, error) {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
		return out, nil
	})
}
