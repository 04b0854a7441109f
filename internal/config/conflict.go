// ABOUTME: Query var collision errors raised while resolving registrations.
// ABOUTME: A conflict is fatal: the registration must not proceed.

package config

import (
	"errors"
	"fmt"
)

// ErrConfigConflict matches every *ConflictError.
var ErrConfigConflict = errors.New("config conflict")

// ReservedQueryVars cannot be used as taxonomy query vars.
var ReservedQueryVars = []string{"type", "tab"}

// QueryVars looks up which registered content type or taxonomy owns a query var.
type QueryVars interface {
	ContentTypeByQueryVar(queryVar string) (key string, ok bool)
	TaxonomyByQueryVar(queryVar string) (key string, ok bool)
}

// ConflictError reports a query var that collides with another registration
// or with a reserved token.
type ConflictError struct {
	Kind     string // "content type" or "taxonomy"
	Key      string
	QueryVar string
	// With is the key of the registration already using QueryVar. Empty
	// when QueryVar is reserved.
	With     string
	WithKind string
}

func (e *ConflictError) Error() string {
	if e.With == "" {
		return fmt.Sprintf("%s query var %q is not allowed", e.Kind, e.QueryVar)
	}
	return fmt.Sprintf("%s query var %q clashes with %s %q query var of the same name", e.Kind, e.QueryVar, e.WithKind, e.With)
}

func (e *ConflictError) Unwrap() error {
	return ErrConfigConflict
}

func isReserved(queryVar string) bool {
	for _, r := range ReservedQueryVars {
		if r == queryVar {
			return true
		}
	}
	return false
}

// queryVarOf derives a query var from the query_var arg: absent or true
// means the key itself, a string is used as given, false means none.
func queryVarOf(key string, a Args) string {
	v, ok := a["query_var"]
	if !ok || v == nil {
		return key
	}
	if b, isBool := v.(bool); isBool {
		if b {
			return key
		}
		return ""
	}
	return a.String("query_var")
}
