// ABOUTME: Capability sets for the current user and the built-in role map.
// ABOUTME: Filters and columns that name a capability are omitted when it is missing.

package caps

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrMissingCapability is returned by Require when the user lacks a capability.
var ErrMissingCapability = errors.New("missing capability")

// All grants every capability.
const All = "*"

// Checker answers capability questions for one user.
type Checker interface {
	Can(capability string) bool
}

// Set is a set of granted capabilities.
type Set map[string]bool

// Can reports whether capability is granted. An empty capability is always granted.
func (s Set) Can(capability string) bool {
	if capability == "" {
		return true
	}
	return s[All] || s[capability]
}

// Names returns the granted capabilities, sorted.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for name, ok := range s {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Of builds a Set from capability names.
func Of(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Require returns an error wrapping ErrMissingCapability if c cannot do capability.
func Require(c Checker, capability string) error {
	if c == nil || !c.Can(capability) {
		return fmt.Errorf("%w: %s", ErrMissingCapability, capability)
	}
	return nil
}

// EditPosts is the capability to edit items of a content type with the given
// capability type ("post", "page", ...).
func EditPosts(capabilityType string) string {
	if capabilityType == "" {
		capabilityType = "post"
	}
	return "edit_" + capabilityType + "s"
}

// EditOthersPosts is the capability to edit items authored by other users.
func EditOthersPosts(capabilityType string) string {
	if capabilityType == "" {
		capabilityType = "post"
	}
	return "edit_others_" + capabilityType + "s"
}

// ManageTerms is the capability to edit taxonomy terms.
const ManageTerms = "manage_categories"

var roles = map[string]Set{
	"administrator": Of(All),
	"editor": Of(
		"read", "edit_posts", "edit_others_posts", "edit_pages", "edit_others_pages",
		"publish_posts", "publish_pages", "delete_posts", "delete_pages",
		ManageTerms, "upload_files",
	),
	"author":     Of("read", "edit_posts", "publish_posts", "delete_posts", "upload_files"),
	"subscriber": Of("read"),
}

// Role returns the capability set of a built-in role. Unknown roles get no capabilities.
func Role(name string) Set {
	if s, ok := roles[name]; ok {
		return s
	}
	return Set{}
}

// Roles lists the built-in role names.
func Roles() []string {
	out := make([]string, 0, len(roles))
	for name := range roles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type contextKey struct{}

// WithChecker returns a context carrying c.
func WithChecker(ctx context.Context, c Checker) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the Checker stored in ctx, or an empty Set.
func FromContext(ctx context.Context) Checker {
	if c, ok := ctx.Value(contextKey{}).(Checker); ok && c != nil {
		return c
	}
	return Set{}
}
