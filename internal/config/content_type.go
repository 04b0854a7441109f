// ABOUTME: Resolves the effective configuration of a content type.
// ABOUTME: Layers defaults, generated labels and rewrite, then caller args.

package config

import (
	"log"

	"github.com/spf13/cast"

	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/schema"
)

// ContentTypeDefaults returns the arguments a content type starts from.
func ContentTypeDefaults() Args {
	return Args{
		"public":          true,
		"menu_position":   20,
		"capability_type": "page",
		"hierarchical":    true,
		"supports":        []string{"title"},
		"site_filters":    nil,
		"site_sortables":  nil,
		"show_in_feed":    false,
		"archive":         nil,
		"featured_image":  nil,
		"admin_filters": map[string]any{
			"month": false,
			"seo":   false,
		},
		"quick_edit":       true,
		"dashboard_glance": true,
		"admin_cols":       nil,
		"enter_title_here": nil,
		"hide_search":      false,
		"extend_search":    false,
	}
}

// ContentType is the effective, read-only configuration of one content type.
type ContentType struct {
	Key      string
	Names    names.Names
	Labels   names.Labels
	Args     Args
	QueryVar string

	Public         bool
	HasArchive     bool
	ArchiveSlug    string
	Hierarchical   bool
	CapabilityType string
	MenuPosition   int
	Supports       []string
	Rewrite        *Rewrite

	ShowInFeed    bool
	Archive       map[string]string
	FeaturedImage string

	AdminCols     *schema.ColumnSet
	AdminFilters  *schema.FilterSet
	SiteFilters   *schema.FilterSet
	SiteSortables *schema.ColumnSet

	QuickEdit       bool
	DashboardGlance bool
	HideSearch      bool
	ExtendSearch    []string
	EnterTitleHere  string
}

// ResolveContentType merges args over the defaults for key. vars, when not
// nil, is checked for a taxonomy already using the derived query var.
func ResolveContentType(key string, n names.Names, args Args, vars QueryVars) (*ContentType, error) {
	defaults := ContentTypeDefaults()
	defaults["labels"] = names.ContentTypeLabels(n, args.String("featured_image"))
	if args.Has("public") && !args.Bool("public", true) {
		defaults["rewrite"] = false
	} else {
		defaults["rewrite"] = map[string]any{
			"slug":       n.Slug,
			"with_front": false,
		}
	}

	merged := merge(defaults, args)
	if !merged.Has("has_archive") {
		merged["has_archive"] = merged.Bool("public", true)
	}

	queryVar := queryVarOf(key, merged)
	if queryVar != "" && vars != nil {
		if owner, ok := vars.TaxonomyByQueryVar(queryVar); ok {
			return nil, &ConflictError{Kind: "content type", Key: key, QueryVar: queryVar, With: owner, WithKind: "taxonomy"}
		}
	}

	ct := &ContentType{
		Key:             key,
		Names:           n,
		QueryVar:        queryVar,
		Public:          merged.Bool("public", true),
		Hierarchical:    merged.Bool("hierarchical", true),
		CapabilityType:  merged.String("capability_type"),
		MenuPosition:    merged.Int("menu_position", 20),
		Supports:        merged.Strings("supports"),
		ShowInFeed:      merged.Bool("show_in_feed", false),
		FeaturedImage:   merged.String("featured_image"),
		QuickEdit:       merged.Bool("quick_edit", true),
		DashboardGlance: merged.Bool("dashboard_glance", true),
		HideSearch:      merged.Bool("hide_search", false),
		EnterTitleHere:  merged.String("enter_title_here"),
	}

	ct.Labels, _ = toLabels(merged["labels"])
	merged["labels"] = ct.Labels
	ct.Rewrite = rewriteOf(merged["rewrite"], n.Slug)

	switch ha := merged["has_archive"].(type) {
	case string:
		ct.HasArchive = ha != ""
		ct.ArchiveSlug = ha
	default:
		ct.HasArchive = cast.ToBool(ha)
	}

	if merged.Has("archive") {
		ct.Archive = cast.ToStringMapString(merged["archive"])
	}
	if _, isBool := merged["extend_search"].(bool); !isBool {
		ct.ExtendSearch = merged.Strings("extend_search")
	}

	ct.AdminCols = columnsArg(key, merged, "admin_cols")
	ct.SiteSortables = columnsArg(key, merged, "site_sortables")
	ct.AdminFilters = filtersArg(key, merged, "admin_filters")
	ct.SiteFilters = filtersArg(key, merged, "site_filters")

	ct.Args = merged
	return ct, nil
}

// columnsArg parses a column argument, logs the descriptors it has to skip,
// and stores the parsed set back into args.
func columnsArg(key string, args Args, name string) *schema.ColumnSet {
	if !args.Has(name) {
		return nil
	}
	set, errs := schema.ParseColumns(args[name], nil)
	for _, err := range errs {
		log.Printf("Skipping %s on %s %q: %v", name, "content type", key, err)
	}
	args[name] = set
	return set
}

func filtersArg(key string, args Args, name string) *schema.FilterSet {
	if !args.Has(name) {
		return nil
	}
	set, errs := schema.ParseFilters(args[name])
	for _, err := range errs {
		log.Printf("Skipping %s on %s %q: %v", name, "content type", key, err)
	}
	args[name] = set
	return set
}

// WithLabels returns a copy of ct carrying labels in place of its own.
func (ct *ContentType) WithLabels(labels names.Labels) *ContentType {
	out := *ct
	out.Labels = labels.Clone()
	out.Args = ct.Args.Clone()
	out.Args["labels"] = out.Labels
	return &out
}

// SupportsFeature reports whether the content type lists feature.
func (ct *ContentType) SupportsFeature(feature string) bool {
	for _, s := range ct.Supports {
		if s == feature {
			return true
		}
	}
	return false
}
