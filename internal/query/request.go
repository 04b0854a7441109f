// ABOUTME: Request-level query vars: feed inclusion and archive overrides.

package query

// IncludeInFeed adds contentType to a feed request. With no types the feed
// becomes post plus contentType; with several types contentType is appended.
// A single explicit type is left alone.
func IncludeInFeed(q *Query, contentType string) {
	if !q.Feed {
		return
	}
	switch {
	case len(q.Types) == 0:
		q.Types = []string{"post", contentType}
	case len(q.Types) > 1 && !q.HasType(contentType):
		q.Types = append(q.Types, contentType)
	}
}

// ApplyArchive overrides query vars on contentType's archive. Single item
// requests and other types are untouched.
func ApplyArchive(q *Query, contentType string, overrides map[string]string) {
	if len(overrides) == 0 || len(q.Types) != 1 || q.Types[0] != contentType || q.Name != "" {
		return
	}
	for k, v := range overrides {
		q.Public[k] = v
		switch k {
		case "orderby":
			q.OrderBy = v
		case "order":
			q.Order = v
		case "s":
			q.Search = v
		case "m":
			q.Month = v
		}
	}
}

// TermVars restricts q to the terms named by taxonomy query vars. vars maps
// a taxonomy key to its query var; an empty or "0" value is ignored.
func TermVars(q *Query, vars map[string]string) {
	for tax, qv := range vars {
		if qv == "" {
			continue
		}
		if slug := q.Public[qv]; slug != "" && slug != "0" {
			q.Terms[tax] = slug
		}
	}
}
