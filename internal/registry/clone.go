package registry

import (
	"github.com/canvas-infra/patterns/internal/pattern"
)

// Overrides are applied to a clone. Nil and empty fields keep the source value.
type Overrides struct {
	ID          string             `json:"id,omitempty"`
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Version     string             `json:"version,omitempty"`
	Author      string             `json:"author,omitempty"`
	Category    pattern.Category   `json:"category,omitempty"`
	Complexity  pattern.Complexity `json:"complexity,omitempty"`
	Status      pattern.Status     `json:"status,omitempty"`
	Providers   []string           `json:"providers,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Metadata    pattern.Properties `json:"metadata,omitempty"`
}

// Clone copies a registered pattern, applies o, resets its usage counters
// and registers the copy. The id defaults to "{source id}-copy".
func (r *Registry) Clone(sourceID string, o Overrides) (*pattern.Pattern, error) {
	src, err := r.Get(sourceID)
	if err != nil {
		return nil, err
	}

	c := src
	c.ID = sourceID + "-copy"
	if o.ID != "" {
		c.ID = o.ID
	}
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.Description != "" {
		c.Description = o.Description
	}
	if o.Version != "" {
		c.Version = o.Version
	}
	if o.Author != "" {
		c.Author = o.Author
	}
	if o.Category != "" {
		c.Category = o.Category
	}
	if o.Complexity != "" {
		c.Complexity = o.Complexity
	}
	if o.Status != "" {
		c.Status = o.Status
	}
	if o.Providers != nil {
		c.Providers = append([]string(nil), o.Providers...)
	}
	if o.Tags != nil {
		c.Tags = append([]string(nil), o.Tags...)
	}
	if o.Metadata != nil {
		if c.Metadata == nil {
			c.Metadata = pattern.Properties{}
		}
		for k, v := range o.Metadata.Clone() {
			c.Metadata[k] = v
		}
	}
	c.DownloadCount = 0
	c.Rating = 0
	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := r.Register(c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}
