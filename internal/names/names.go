// ABOUTME: Derives singular, plural and slug names for content types and taxonomies.
// ABOUTME: Pluralization is suffix-only: "s" is appended unless a plural is given.

package names

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Overrides holds caller-supplied names. Empty fields are derived.
type Overrides struct {
	Singular string `yaml:"singular" json:"singular,omitempty"`
	Plural   string `yaml:"plural" json:"plural,omitempty"`
	Slug     string `yaml:"slug" json:"slug,omitempty"`
}

// Names is the fully derived name set for one content type or taxonomy.
type Names struct {
	Key           string
	Singular      string
	Plural        string
	Slug          string
	SingularLower string
	PluralLower   string
}

// Humanize replaces dashes and underscores with spaces and uppercases the
// first letter of every word. Letters already uppercase are left alone.
func Humanize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// Derive computes the name set for key. archiveSlug is the content type's
// string has_archive value, if any; taxonomies pass "".
//
// Slug precedence is explicit slug, explicit plural, archiveSlug, then key+"s".
func Derive(key string, o Overrides, archiveSlug string) Names {
	n := Names{Key: strings.ToLower(key)}

	n.Singular = o.Singular
	if n.Singular == "" {
		n.Singular = Humanize(key)
	}

	switch {
	case o.Slug != "":
		n.Slug = o.Slug
	case o.Plural != "":
		n.Slug = o.Plural
	case archiveSlug != "":
		n.Slug = archiveSlug
	default:
		n.Slug = key + "s"
	}
	n.Slug = strings.ToLower(n.Slug)

	n.Plural = o.Plural
	if n.Plural == "" {
		n.Plural = n.Singular + "s"
	}

	n.SingularLower = strings.ToLower(n.Singular)
	n.PluralLower = strings.ToLower(n.Plural)
	return n
}
