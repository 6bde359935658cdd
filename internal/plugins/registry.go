package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores available source plugins keyed by language.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourcePlugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourcePlugin),
	}
}

func (r *Registry) RegisterSource(p SourcePlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[p.Language()] = p
}

func (r *Registry) Source(lang string) (SourcePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.sources[lang]
	if !ok {
		return nil, fmt.Errorf("no source plugin for language %q", lang)
	}
	return p, nil
}

// Languages lists registered languages in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for lang := range r.sources {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
