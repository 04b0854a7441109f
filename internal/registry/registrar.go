// ABOUTME: Defines content types and taxonomies: hooks, name derivation, resolution, host registration.
// ABOUTME: A definition either fully lands in the host and the registry or not at all.

package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
)

// ErrInvalidKey is returned for keys that cannot name a content type or taxonomy.
var ErrInvalidKey = errors.New("invalid key")

var validate = validator.New()

func init() {
	if err := validate.RegisterValidation("key", isKey); err != nil {
		panic(err)
	}
}

// isKey accepts lowercase ASCII letters, digits, dashes and underscores.
func isKey(fl validator.FieldLevel) bool {
	for _, c := range fl.Field().String() {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

type contentTypeKey struct {
	Key string `validate:"required,max=20,key"`
}

type taxonomyKey struct {
	Key string `validate:"required,max=32,key"`
}

// Host is the content store the definitions are registered with.
type Host interface {
	RegisterContentType(ctx context.Context, ct *config.ContentType) error
	RegisterTaxonomy(ctx context.Context, tax *config.Taxonomy) error
	// ContentTypeLabels returns the labels of a content type the host already
	// knows, such as a built-in one.
	ContentTypeLabels(ctx context.Context, key string) (names.Labels, bool, error)
	ExtendContentType(ctx context.Context, key string, labels names.Labels) error
	AttachTaxonomy(ctx context.Context, taxonomy, contentType string) error
}

// ArgsHook transforms the arguments of a definition before resolution.
type ArgsHook func(key string, args config.Args) config.Args

// NamesHook transforms the name overrides of a definition before derivation.
type NamesHook func(key string, o names.Overrides) names.Overrides

// Registrar defines content types and taxonomies into a Registry and a Host.
type Registrar struct {
	mu   sync.Mutex
	reg  *Registry
	host Host

	typeArgs  []ArgsHook
	typeNames []NamesHook
	taxArgs   []ArgsHook
	taxNames  []NamesHook
}

// NewRegistrar returns a Registrar writing to reg and host.
func NewRegistrar(reg *Registry, host Host) *Registrar {
	return &Registrar{reg: reg, host: host}
}

// Registry returns the registry definitions land in.
func (r *Registrar) Registry() *Registry {
	return r.reg
}

// OnContentTypeArgs appends a hook run on content type args, in order.
func (r *Registrar) OnContentTypeArgs(h ArgsHook) {
	r.mu.Lock()
	r.typeArgs = append(r.typeArgs, h)
	r.mu.Unlock()
}

// OnContentTypeNames appends a hook run on content type names, in order.
func (r *Registrar) OnContentTypeNames(h NamesHook) {
	r.mu.Lock()
	r.typeNames = append(r.typeNames, h)
	r.mu.Unlock()
}

// OnTaxonomyArgs appends a hook run on taxonomy args, in order.
func (r *Registrar) OnTaxonomyArgs(h ArgsHook) {
	r.mu.Lock()
	r.taxArgs = append(r.taxArgs, h)
	r.mu.Unlock()
}

// OnTaxonomyNames appends a hook run on taxonomy names, in order.
func (r *Registrar) OnTaxonomyNames(h NamesHook) {
	r.mu.Lock()
	r.taxNames = append(r.taxNames, h)
	r.mu.Unlock()
}

func applyHooks(key string, args config.Args, o names.Overrides, ah []ArgsHook, nh []NamesHook) (config.Args, names.Overrides) {
	args = args.Clone()
	for _, h := range ah {
		args = h(key, args.Clone())
	}
	for _, h := range nh {
		o = h(key, o)
	}
	if args == nil {
		args = config.Args{}
	}
	return args, o
}

// DefineContentType resolves and registers a content type. When the host
// already has a content type under key, only its labels are extended.
func (r *Registrar) DefineContentType(ctx context.Context, key string, args config.Args, o names.Overrides) (*config.ContentType, error) {
	key = strings.ToLower(key)
	if err := validate.Struct(contentTypeKey{Key: key}); err != nil {
		return nil, fmt.Errorf("%w: content type %q: %v", ErrInvalidKey, key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reg.Frozen() {
		return nil, ErrFrozen
	}

	args, o = applyHooks(key, args, o, r.typeArgs, r.typeNames)

	var archiveSlug string
	if s, ok := args["has_archive"].(string); ok {
		archiveSlug = s
	}
	n := names.Derive(key, o, archiveSlug)

	ct, err := config.ResolveContentType(key, n, args, r.reg)
	if err != nil {
		return nil, err
	}

	existing, exists, err := r.host.ContentTypeLabels(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("look up content type %q: %w", key, err)
	}
	if exists {
		ct = ct.WithLabels(names.Merge(existing, ct.Labels))
		if err := r.host.ExtendContentType(ctx, key, ct.Labels); err != nil {
			return nil, fmt.Errorf("extend content type %q: %w", key, err)
		}
	} else if err := r.host.RegisterContentType(ctx, ct); err != nil {
		return nil, fmt.Errorf("register content type %q: %w", key, err)
	}

	if err := r.reg.putContentType(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// DefineTaxonomy resolves and registers a taxonomy attached to objectTypes.
func (r *Registrar) DefineTaxonomy(ctx context.Context, key string, objectTypes []string, args config.Args, o names.Overrides) (*config.Taxonomy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defineTaxonomy(ctx, key, objectTypes, args, o)
}

func (r *Registrar) defineTaxonomy(ctx context.Context, key string, objectTypes []string, args config.Args, o names.Overrides) (*config.Taxonomy, error) {
	key = strings.ToLower(key)
	if err := validate.Struct(taxonomyKey{Key: key}); err != nil {
		return nil, fmt.Errorf("%w: taxonomy %q: %v", ErrInvalidKey, key, err)
	}
	if r.reg.Frozen() {
		return nil, ErrFrozen
	}

	args, o = applyHooks(key, args, o, r.taxArgs, r.taxNames)
	n := names.Derive(key, o, "")

	tax, err := config.ResolveTaxonomy(key, objectTypes, n, args, r.reg)
	if err != nil {
		return nil, err
	}
	if err := r.host.RegisterTaxonomy(ctx, tax); err != nil {
		return nil, fmt.Errorf("register taxonomy %q: %w", key, err)
	}
	if err := r.reg.putTaxonomy(tax); err != nil {
		return nil, err
	}
	return tax, nil
}

// AddTaxonomy attaches taxonomy to contentType, defining the taxonomy with
// args and o when it does not exist yet.
func (r *Registrar) AddTaxonomy(ctx context.Context, contentType, taxonomy string, args config.Args, o names.Overrides) (*config.Taxonomy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taxonomy = strings.ToLower(taxonomy)
	existing, ok := r.reg.Taxonomy(taxonomy)
	if !ok {
		return r.defineTaxonomy(ctx, taxonomy, []string{contentType}, args, o)
	}
	if r.reg.Frozen() {
		return nil, ErrFrozen
	}

	updated := existing.WithObjectType(contentType)
	if err := r.host.AttachTaxonomy(ctx, taxonomy, contentType); err != nil {
		return nil, fmt.Errorf("attach taxonomy %q to %q: %w", taxonomy, contentType, err)
	}
	if err := r.reg.putTaxonomy(updated); err != nil {
		return nil, err
	}
	return updated, nil
}
