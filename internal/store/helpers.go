// ABOUTME: SQL helpers shared by the item, meta and term queries.
// ABOUTME: LIKE escaping and placeholder lists for bound parameters.

package store

import "strings"

// likeEscaper escapes the LIKE wildcards and the escape character itself.
// Queries pair it with ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeSQLLike(pattern string) string {
	return likeEscaper.Replace(pattern)
}

// placeholders returns n comma separated bind markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func inList(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return placeholders(len(ids)), args
}
