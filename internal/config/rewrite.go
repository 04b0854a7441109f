// ABOUTME: Typed view of the rewrite argument.

package config

import "github.com/spf13/cast"

// Rewrite describes pretty URL generation for a content type or taxonomy.
type Rewrite struct {
	Slug         string
	WithFront    bool
	Hierarchical bool
	// Permastruct is a custom permalink structure such as "/%year%/%event_slug%/%postname%/".
	Permastruct string
}

// rewriteOf returns nil when rewriting is off.
func rewriteOf(v any, slug string) *Rewrite {
	switch rw := v.(type) {
	case nil:
		return nil
	case bool:
		if !rw {
			return nil
		}
		return &Rewrite{Slug: slug}
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil
	}
	r := &Rewrite{
		Slug:         cast.ToString(m["slug"]),
		WithFront:    cast.ToBool(m["with_front"]),
		Hierarchical: cast.ToBool(m["hierarchical"]),
		Permastruct:  cast.ToString(m["permastruct"]),
	}
	if r.Slug == "" {
		r.Slug = slug
	}
	return r
}
