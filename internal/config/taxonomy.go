// ABOUTME: Resolves the effective configuration of a taxonomy.
// ABOUTME: Rejects query vars that clash with content types or reserved tokens.

package config

import (
	"github.com/2389/cpt/internal/names"
)

// TaxonomyDefaults returns the arguments a taxonomy starts from.
func TaxonomyDefaults() Args {
	return Args{
		"public":          true,
		"show_ui":         true,
		"hierarchical":    true,
		"query_var":       true,
		"exclusive":       false,
		"allow_hierarchy": false,
	}
}

// Taxonomy is the effective, read-only configuration of one taxonomy.
type Taxonomy struct {
	Key         string
	Names       names.Names
	Labels      names.Labels
	Args        Args
	ObjectTypes []string
	QueryVar    string

	Public         bool
	ShowUI         bool
	Hierarchical   bool
	Exclusive      bool
	AllowHierarchy bool
	Rewrite        *Rewrite
}

// ResolveTaxonomy merges args over the defaults for key attached to objectTypes.
func ResolveTaxonomy(key string, objectTypes []string, n names.Names, args Args, vars QueryVars) (*Taxonomy, error) {
	defaults := TaxonomyDefaults()
	defaults["labels"] = names.TaxonomyLabels(n)
	if args.Has("public") && !args.Bool("public", true) {
		defaults["rewrite"] = false
	} else {
		defaults["rewrite"] = map[string]any{
			"slug":         n.Slug,
			"with_front":   false,
			"hierarchical": args.Bool("allow_hierarchy", false),
		}
	}

	merged := merge(defaults, args)

	queryVar := queryVarOf(key, merged)
	if queryVar != "" {
		if vars != nil {
			if owner, ok := vars.ContentTypeByQueryVar(queryVar); ok {
				return nil, &ConflictError{Kind: "taxonomy", Key: key, QueryVar: queryVar, With: owner, WithKind: "content type"}
			}
		}
		if isReserved(queryVar) {
			return nil, &ConflictError{Kind: "taxonomy", Key: key, QueryVar: queryVar}
		}
	}

	tax := &Taxonomy{
		Key:            key,
		Names:          n,
		ObjectTypes:    append([]string(nil), objectTypes...),
		QueryVar:       queryVar,
		Public:         merged.Bool("public", true),
		ShowUI:         merged.Bool("show_ui", true),
		Hierarchical:   merged.Bool("hierarchical", true),
		Exclusive:      merged.Bool("exclusive", false),
		AllowHierarchy: merged.Bool("allow_hierarchy", false),
	}
	tax.Labels, _ = toLabels(merged["labels"])
	merged["labels"] = tax.Labels
	tax.Rewrite = rewriteOf(merged["rewrite"], n.Slug)
	tax.Args = merged
	return tax, nil
}

// AttachedTo reports whether the taxonomy is attached to the content type.
func (t *Taxonomy) AttachedTo(contentType string) bool {
	for _, ot := range t.ObjectTypes {
		if ot == contentType {
			return true
		}
	}
	return false
}

// WithObjectType returns a copy of t also attached to contentType.
func (t *Taxonomy) WithObjectType(contentType string) *Taxonomy {
	out := *t
	out.Args = t.Args.Clone()
	out.ObjectTypes = append([]string(nil), t.ObjectTypes...)
	if !t.AttachedTo(contentType) {
		out.ObjectTypes = append(out.ObjectTypes, contentType)
	}
	return &out
}
