package enums

import (
	"fmt"
	"slices"
	"strings"
)

// closedSet is the list of legal values for one string enum.
type closedSet[T ~string] struct {
	kind   string
	values []T
}

func newSet[T ~string](kind string, values ...T) closedSet[T] {
	return closedSet[T]{kind: kind, values: values}
}

func (s closedSet[T]) has(v T) bool {
	return slices.Contains(s.values, v)
}

// parse trims surrounding space but is otherwise exact: case is significant.
func (s closedSet[T]) parse(raw string) (T, error) {
	v := T(strings.TrimSpace(raw))
	if s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", s.kind, raw)
}

func (s closedSet[T]) all() []T {
	return slices.Clone(s.values)
}
