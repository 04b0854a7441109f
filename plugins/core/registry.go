// ABOUTME: Plugin registry for registering and retrieving plugins.
// ABOUTME: Plugins register themselves in init() functions.

package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/2389/cpt/internal/schema"
)

var (
	plugins = make(map[string]Plugin)
	mu      sync.RWMutex
)

// Register adds a plugin to the registry
func Register(p Plugin) {
	mu.Lock()
	defer mu.Unlock()

	name := p.Name()
	if _, exists := plugins[name]; exists {
		panic(fmt.Sprintf("plugin %q already registered", name))
	}
	plugins[name] = p
}

// Get retrieves a plugin by name
func Get(name string) (Plugin, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := plugins[name]
	return p, ok
}

// All returns all registered plugins sorted by name, so definitions run in
// a stable order.
func All() []Plugin {
	mu.RLock()
	defer mu.RUnlock()

	all := make([]Plugin, 0, len(plugins))
	for _, p := range plugins {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// Names returns all registered plugin names, sorted
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Funcs merges the cell functions of every FuncProvider plugin. Later
// plugins win on name clashes.
func Funcs() schema.Funcs {
	out := schema.Funcs{}
	for _, p := range All() {
		if fp, ok := p.(FuncProvider); ok {
			for name, fn := range fp.Funcs() {
				out[name] = fn
			}
		}
	}
	return out
}
