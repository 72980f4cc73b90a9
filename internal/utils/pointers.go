package utils

import "time"

func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// UTCPtr returns a copy of t normalised to UTC, or nil when t is nil.
func UTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return Ptr(t.UTC())
}

// NonEmptyPtr returns nil for the empty string so absent identity fields stay null.
func NonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
