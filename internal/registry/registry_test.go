// ABOUTME: Tests for the registry and registrar.
// ABOUTME: A fake host records what reached it so partial registrations are visible.

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
)

type fakeHost struct {
	types    map[string]*config.ContentType
	taxes    map[string]*config.Taxonomy
	builtin  map[string]names.Labels
	extended map[string]names.Labels
	attached [][2]string
	fail     error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		types: map[string]*config.ContentType{},
		taxes: map[string]*config.Taxonomy{},
		builtin: map[string]names.Labels{
			"post": {"name": "Posts", "singular_name": "Post", "menu_name": "Posts"},
		},
		extended: map[string]names.Labels{},
	}
}

func (h *fakeHost) RegisterContentType(_ context.Context, ct *config.ContentType) error {
	if h.fail != nil {
		return h.fail
	}
	h.types[ct.Key] = ct
	return nil
}

func (h *fakeHost) RegisterTaxonomy(_ context.Context, tax *config.Taxonomy) error {
	if h.fail != nil {
		return h.fail
	}
	h.taxes[tax.Key] = tax
	return nil
}

func (h *fakeHost) ContentTypeLabels(_ context.Context, key string) (names.Labels, bool, error) {
	if l, ok := h.builtin[key]; ok {
		return l, true, nil
	}
	if ct, ok := h.types[key]; ok {
		return ct.Labels, true, nil
	}
	return nil, false, nil
}

func (h *fakeHost) ExtendContentType(_ context.Context, key string, labels names.Labels) error {
	h.extended[key] = labels
	return nil
}

func (h *fakeHost) AttachTaxonomy(_ context.Context, taxonomy, contentType string) error {
	h.attached = append(h.attached, [2]string{taxonomy, contentType})
	return nil
}

func TestDefineContentType(t *testing.T) {
	host := newFakeHost()
	r := NewRegistrar(New(), host)

	ct, err := r.DefineContentType(context.Background(), "Event", nil, names.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "event", ct.Key)
	assert.Equal(t, "Events", ct.Labels["name"])

	got, ok := r.Registry().ContentType("event")
	require.True(t, ok)
	assert.Same(t, ct, got)
	assert.Contains(t, host.types, "event")

	key, ok := r.Registry().ContentTypeByQueryVar("event")
	assert.True(t, ok)
	assert.Equal(t, "event", key)
}

func TestDefineContentType_HasArchiveSlug(t *testing.T) {
	r := NewRegistrar(New(), newFakeHost())
	ct, err := r.DefineContentType(context.Background(), "event", config.Args{"has_archive": "whats-on"}, names.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "whats-on", ct.Names.Slug)
}

func TestDefineContentType_ExtendsExisting(t *testing.T) {
	host := newFakeHost()
	r := NewRegistrar(New(), host)

	ct, err := r.DefineContentType(context.Background(), "post", config.Args{
		"labels": map[string]string{"menu_name": "News"},
	}, names.Overrides{Singular: "Article"})
	require.NoError(t, err)

	assert.NotContains(t, host.types, "post", "existing types are extended, not registered")
	require.Contains(t, host.extended, "post")
	assert.Equal(t, "News", host.extended["post"]["menu_name"])
	assert.Equal(t, "Article", ct.Labels["singular_name"])
	assert.Equal(t, "Posts", host.builtin["post"]["menu_name"], "host labels are replaced, not mutated")
}

func TestHooksRunInOrder(t *testing.T) {
	r := NewRegistrar(New(), newFakeHost())
	var calls []string
	r.OnContentTypeArgs(func(key string, args config.Args) config.Args {
		calls = append(calls, "first")
		args["menu_position"] = 5
		return args
	})
	r.OnContentTypeArgs(func(key string, args config.Args) config.Args {
		calls = append(calls, "second")
		args["menu_position"] = args.Int("menu_position", 0) + 1
		return args
	})
	r.OnContentTypeNames(func(key string, o names.Overrides) names.Overrides {
		o.Plural = "People"
		return o
	})

	original := config.Args{"public": true}
	ct, err := r.DefineContentType(context.Background(), "person", original, names.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 6, ct.MenuPosition)
	assert.Equal(t, "People", ct.Names.Plural)
	assert.Equal(t, "people", ct.Names.Slug)
	assert.NotContains(t, original, "menu_position", "hooks work on copies")
}

func TestDefineTaxonomy_ConflictIsAtomic(t *testing.T) {
	host := newFakeHost()
	r := NewRegistrar(New(), host)
	ctx := context.Background()

	_, err := r.DefineContentType(ctx, "event", nil, names.Overrides{})
	require.NoError(t, err)

	_, err = r.DefineTaxonomy(ctx, "event", []string{"event"}, nil, names.Overrides{})
	require.ErrorIs(t, err, config.ErrConfigConflict)

	_, ok := r.Registry().Taxonomy("event")
	assert.False(t, ok)
	assert.NotContains(t, host.taxes, "event")
}

func TestDefineContentType_ConflictWithTaxonomy(t *testing.T) {
	host := newFakeHost()
	r := NewRegistrar(New(), host)
	ctx := context.Background()

	_, err := r.DefineTaxonomy(ctx, "venue", nil, nil, names.Overrides{})
	require.NoError(t, err)
	_, err = r.DefineContentType(ctx, "venue", nil, names.Overrides{})
	require.ErrorIs(t, err, config.ErrConfigConflict)
	assert.NotContains(t, host.types, "venue")
}

func TestDefine_HostFailureLeavesRegistryEmpty(t *testing.T) {
	host := newFakeHost()
	host.fail = errors.New("disk full")
	r := NewRegistrar(New(), host)

	_, err := r.DefineContentType(context.Background(), "event", nil, names.Overrides{})
	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, r.Registry().ContentTypes())
}

func TestInvalidKeys(t *testing.T) {
	r := NewRegistrar(New(), newFakeHost())
	ctx := context.Background()

	for _, key := range []string{"", "has space", "a/b", "averyveryverylongtypekey"} {
		_, err := r.DefineContentType(ctx, key, nil, names.Overrides{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
	_, err := r.DefineTaxonomy(ctx, "q?x", nil, nil, names.Overrides{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = r.DefineTaxonomy(ctx, "averyveryverylongtaxonomy", nil, nil, names.Overrides{})
	assert.NoError(t, err, "taxonomy keys may be longer than type keys")
}

func TestAddTaxonomy(t *testing.T) {
	host := newFakeHost()
	r := NewRegistrar(New(), host)
	ctx := context.Background()

	created, err := r.AddTaxonomy(ctx, "event", "venue", config.Args{"exclusive": true}, names.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, []string{"event"}, created.ObjectTypes)
	assert.True(t, created.Exclusive)

	widened, err := r.AddTaxonomy(ctx, "talk", "venue", nil, names.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, []string{"event", "talk"}, widened.ObjectTypes)
	assert.Equal(t, []string{"event"}, created.ObjectTypes, "earlier entry is not mutated")
	assert.Equal(t, [][2]string{{"venue", "talk"}}, host.attached)

	assert.Len(t, r.Registry().TaxonomiesFor("talk"), 1)
	assert.Empty(t, r.Registry().TaxonomiesFor("page"))
}

func TestFreezeAndReset(t *testing.T) {
	reg := New()
	r := NewRegistrar(reg, newFakeHost())
	ctx := context.Background()

	_, err := r.DefineContentType(ctx, "event", nil, names.Overrides{})
	require.NoError(t, err)

	reg.Freeze()
	assert.True(t, reg.Frozen())
	_, err = r.DefineContentType(ctx, "talk", nil, names.Overrides{})
	require.ErrorIs(t, err, ErrFrozen)
	_, err = r.DefineTaxonomy(ctx, "venue", nil, nil, names.Overrides{})
	require.ErrorIs(t, err, ErrFrozen)

	reg.Reset()
	assert.False(t, reg.Frozen())
	assert.Empty(t, reg.ContentTypes())
	assert.Empty(t, reg.Taxonomies())
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistrar(New(), newFakeHost())
	ctx := context.Background()
	for _, key := range []string{"zebra", "apple", "mango"} {
		_, err := r.DefineContentType(ctx, key, nil, names.Overrides{})
		require.NoError(t, err)
	}
	var keys []string
	for _, ct := range r.Registry().ContentTypes() {
		keys = append(keys, ct.Key)
	}
	assert.Equal(t, []string{"zebra", "apple", "mango"}, keys)
}
