package router

import (
	"strings"

	"github.com/google/uuid"
)

// BigQuery NULLs are nil pointers on the row structs.

func ptr[T any](v T) *T { return &v }

// text is NULL for blank input.
func text[S ~string](v S) *string {
	trimmed := strings.TrimSpace(string(v))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// idText is NULL for a missing or zero id.
func idText(id *uuid.UUID) *string {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return ptr(id.String())
}
