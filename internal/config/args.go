// ABOUTME: Loosely typed registration arguments and their merge rules.
// ABOUTME: Top-level keys merge shallowly; labels and rewrite merge one level deep.

package config

import (
	"github.com/spf13/cast"

	"github.com/2389/cpt/internal/names"
)

// Args are registration arguments keyed by option name ("public", "admin_cols", ...).
type Args map[string]any

// Clone returns a copy of a. labels and rewrite maps are copied one level deep.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	if labels, ok := toLabels(out["labels"]); ok {
		out["labels"] = labels.Clone()
	}
	if rw, ok := out["rewrite"]; ok {
		if m, err := cast.ToStringMapE(rw); err == nil {
			cp := make(map[string]any, len(m))
			for k, v := range m {
				cp[k] = v
			}
			out["rewrite"] = cp
		}
	}
	return out
}

// Has reports whether key is present and not nil.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// Bool returns key as a bool, or def when absent.
func (a Args) Bool(key string, def bool) bool {
	if !a.Has(key) {
		return def
	}
	return cast.ToBool(a[key])
}

// String returns key as a string, or "" when absent.
func (a Args) String(key string) string {
	return cast.ToString(a[key])
}

// Int returns key as an int, or def when absent.
func (a Args) Int(key string, def int) int {
	if !a.Has(key) {
		return def
	}
	return cast.ToInt(a[key])
}

// Strings returns key as a string slice.
func (a Args) Strings(key string) []string {
	if !a.Has(key) {
		return nil
	}
	return cast.ToStringSlice(a[key])
}

// merge layers args over defaults: a shallow merge except for labels and
// rewrite, where a map in args is merged over the default map.
func merge(defaults, args Args) Args {
	out := make(Args, len(defaults)+len(args))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range args {
		out[k] = v
	}

	if over, ok := toLabels(args["labels"]); ok {
		base, _ := toLabels(defaults["labels"])
		out["labels"] = names.Merge(base, over)
	}

	if over, ok := args["rewrite"]; ok {
		if m, err := cast.ToStringMapE(over); err == nil {
			merged := map[string]any{}
			if base, err := cast.ToStringMapE(defaults["rewrite"]); err == nil {
				for k, v := range base {
					merged[k] = v
				}
			}
			for k, v := range m {
				merged[k] = v
			}
			out["rewrite"] = merged
		}
	}
	return out
}

func toLabels(v any) (names.Labels, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case names.Labels:
		return m, true
	case map[string]string:
		return names.Labels(m), true
	}
	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		return nil, false
	}
	return names.Labels(m), true
}
