// Package component is the catalog of placeable infrastructure components and
// their provider-specific mappings. The pattern engine only reads from it.
package component

import (
	"sort"
	"sync"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// Provider names.
const (
	ProviderAWS     = "aws"
	ProviderAzure   = "azure"
	ProviderGCP     = "gcp"
	ProviderGeneric = "generic"
)

// ProviderMapping describes how a catalog component is realized by one provider.
type ProviderMapping struct {
	// Name is the human-readable provider label (e.g. "Amazon EC2").
	Name string `json:"name"`
	// ResourceType is the IaC resource type (e.g. "aws_instance").
	ResourceType string `json:"resourceType,omitempty"`
	IconPath     string `json:"iconPath,omitempty"`
}

// Metadata describes one catalog component.
type Metadata struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	Description      string                     `json:"description,omitempty"`
	Category         string                     `json:"category"`
	Tags             []string                   `json:"tags,omitempty"`
	ProviderMappings map[string]ProviderMapping `json:"providerMappings"`
	DefaultConfig    pattern.Properties         `json:"defaultConfig,omitempty"`
	// RequiredConfig lists configuration keys a usable instance must set.
	RequiredConfig []string `json:"requiredConfig,omitempty"`
}

// SupportsProvider reports whether the component has a mapping for provider.
func (m *Metadata) SupportsProvider(provider string) bool {
	_, ok := m.ProviderMappings[provider]
	return ok
}

// Label returns the provider-specific label, falling back to the generic name.
func (m *Metadata) Label(provider string) string {
	if pm, ok := m.ProviderMappings[provider]; ok && pm.Name != "" {
		return pm.Name
	}
	return m.Name
}

func (m Metadata) clone() *Metadata {
	out := m
	out.Tags = append([]string(nil), m.Tags...)
	out.RequiredConfig = append([]string(nil), m.RequiredConfig...)
	out.DefaultConfig = m.DefaultConfig.Clone()
	out.ProviderMappings = make(map[string]ProviderMapping, len(m.ProviderMappings))
	for k, v := range m.ProviderMappings {
		out.ProviderMappings[k] = v
	}
	return &out
}

// Lookup is the read-only view of the catalog used by the pattern engine.
type Lookup interface {
	GetComponent(id string) (*Metadata, bool)
}

// Alternatives is implemented by catalogs able to suggest a replacement
// component for a provider.
type Alternatives interface {
	Alternative(componentID, provider string) (*Metadata, bool)
}

// Registry holds catalog components.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*Metadata
}

// NewRegistry returns a new empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]*Metadata)}
}

// NewBuiltin returns a registry preloaded with the built-in catalog.
func NewBuiltin() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds or replaces a component.
func (r *Registry) Register(m Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[m.ID] = m.clone()
}

// GetComponent returns a copy of the component with the given id.
func (r *Registry) GetComponent(id string) (*Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.components[id]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

// List returns all components sorted by id.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.components))
	for _, m := range r.components {
		out = append(out, *m.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByCategory returns the components of a category sorted by id.
func (r *Registry) ByCategory(category string) []Metadata {
	var out []Metadata
	for _, m := range r.List() {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// ListSupportedProviders returns every provider that has at least one mapping.
func (r *Registry) ListSupportedProviders() []string {
	seen := make(map[string]bool)
	for _, m := range r.List() {
		for p := range m.ProviderMappings {
			seen[p] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Alternative finds another component of the same category that supports provider.
func (r *Registry) Alternative(componentID, provider string) (*Metadata, bool) {
	src, ok := r.GetComponent(componentID)
	if !ok {
		return nil, false
	}
	for _, m := range r.ByCategory(src.Category) {
		if m.ID != componentID && m.SupportsProvider(provider) {
			return m.clone(), true
		}
	}
	return nil, false
}
