// ABOUTME: Declarative content type and taxonomy definitions loaded from YAML.
// ABOUTME: Descriptor maps keep their file order so columns and filters appear as written.

package definitions

import (
	"context"
	"fmt"
	"log"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
)

// File is a parsed definitions file.
type File struct {
	ContentTypes []ContentType `yaml:"content_types"`
	Taxonomies   []Taxonomy    `yaml:"taxonomies"`
}

// ContentType defines one content type.
type ContentType struct {
	Key   string          `yaml:"key"`
	Names names.Overrides `yaml:"names"`
	Args  yaml.Node       `yaml:"args"`
}

// Taxonomy defines one taxonomy.
type Taxonomy struct {
	Key         string          `yaml:"key"`
	ObjectTypes []string        `yaml:"object_types"`
	Names       names.Overrides `yaml:"names"`
	Args        yaml.Node       `yaml:"args"`
}

// descriptorArgs hold ordered descriptor sets.
var descriptorArgs = map[string]bool{
	"admin_cols":     true,
	"admin_filters":  true,
	"site_filters":   true,
	"site_sortables": true,
}

var columnArgs = []string{"admin_cols", "site_sortables"}

// Parse validates data against the schema and decodes it. Schema failures
// are returned as *ValidationError.
func Parse(data []byte) (*File, error) {
	issues, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	return &f, nil
}

// Load reads and parses the definitions file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Apply defines every content type, then every taxonomy, through r. Column
// "function" references are looked up in funcs. The first failure stops Apply.
func (f *File) Apply(ctx context.Context, r *registry.Registrar, funcs schema.Funcs) error {
	for _, d := range f.ContentTypes {
		args, err := argsOf(&d.Args)
		if err != nil {
			return fmt.Errorf("content type %q: %w", d.Key, err)
		}
		parseColumnArgs(d.Key, args, funcs)
		if _, err := r.DefineContentType(ctx, d.Key, args, d.Names); err != nil {
			return fmt.Errorf("content type %q: %w", d.Key, err)
		}
	}
	for _, d := range f.Taxonomies {
		args, err := argsOf(&d.Args)
		if err != nil {
			return fmt.Errorf("taxonomy %q: %w", d.Key, err)
		}
		if _, err := r.DefineTaxonomy(ctx, d.Key, d.ObjectTypes, args, d.Names); err != nil {
			return fmt.Errorf("taxonomy %q: %w", d.Key, err)
		}
	}
	log.Printf("Applied definitions: %d content types, %d taxonomies", len(f.ContentTypes), len(f.Taxonomies))
	return nil
}

func parseColumnArgs(key string, args config.Args, funcs schema.Funcs) {
	for _, name := range columnArgs {
		raw, ok := args[name]
		if !ok {
			continue
		}
		set, errs := schema.ParseColumns(raw, funcs)
		for _, err := range errs {
			log.Printf("Skipping %s on content type %q: %v", name, key, err)
		}
		args[name] = set
	}
}

// argsOf decodes an args mapping. Descriptor sets become ordered maps.
func argsOf(n *yaml.Node) (config.Args, error) {
	if n.Kind == 0 {
		return config.Args{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: args must be a mapping", n.Line)
	}
	args := config.Args{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if descriptorArgs[key] && val.Kind == yaml.MappingNode {
			set, err := descriptorSet(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			args[key] = set
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		args[key] = v
	}
	return args, nil
}

func descriptorSet(n *yaml.Node) (*orderedmap.OrderedMap[string, any], error) {
	set := orderedmap.New[string, any]()
	for i := 0; i+1 < len(n.Content); i += 2 {
		id, val := n.Content[i].Value, n.Content[i+1]
		if val.Kind != yaml.MappingNode {
			var v any
			if err := val.Decode(&v); err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}
			set.Set(id, v)
			continue
		}
		desc := map[string]any{}
		for j := 0; j+1 < len(val.Content); j += 2 {
			field, fv := val.Content[j].Value, val.Content[j+1]
			if field == "meta_exists" && fv.Kind == yaml.MappingNode {
				candidates, err := orderedScalars(fv)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", id, field, err)
				}
				desc[field] = candidates
				continue
			}
			var v any
			if err := fv.Decode(&v); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", id, field, err)
			}
			desc[field] = v
		}
		set.Set(id, desc)
	}
	return set, nil
}

func orderedScalars(n *yaml.Node) (*orderedmap.OrderedMap[string, any], error) {
	m := orderedmap.New[string, any]()
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return nil, err
		}
		m.Set(n.Content[i].Value, v)
	}
	return m, nil
}
