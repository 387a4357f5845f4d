// Package registry is the catalog of concrete infrastructure patterns with
// category, tag and author indexes and relevance-ranked search.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/metrics"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/validate"
)

var (
	// ErrPatternNotFound is returned when a pattern id is not registered.
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrInvalidPattern is returned when validation rejects a pattern.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Options configures the registry.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Now stamps UpdatedAt on clones. Defaults to time.Now.
	Now func() time.Time
}

// Registry holds validated patterns keyed by id.
type Registry struct {
	mu        sync.RWMutex
	validator *validate.Validator
	patterns  map[string]*pattern.Pattern

	byCategory map[pattern.Category][]string
	byTag      map[string][]string
	byAuthor   map[string][]string

	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New returns an empty registry that validates with v.
func New(v *validate.Validator, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Registry{
		validator: v,
		patterns:  make(map[string]*pattern.Pattern),
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	r.rebuildIndexes()
	return r
}

// Register validates p and stores a copy of it, replacing any pattern with
// the same id. An invalid pattern is not stored and ErrInvalidPattern is
// returned together with the validation result.
func (r *Registry) Register(p *pattern.Pattern) (validate.Result, error) {
	res := r.validator.Validate(p)
	if !res.Valid {
		r.log.Warn("pattern rejected", "pattern_id", patternID(p), "errors", len(res.Errors))
		return res, fmt.Errorf("%w: %s", ErrInvalidPattern, patternID(p))
	}

	r.mu.Lock()
	r.patterns[p.ID] = p.Clone()
	r.rebuildIndexes()
	n := len(r.patterns)
	r.mu.Unlock()

	r.metrics.SetRegistryPatterns(n)
	r.log.Info("pattern registered", "pattern_id", p.ID, "components", len(p.Components))
	return res, nil
}

// Unregister removes a pattern and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	_, ok := r.patterns[id]
	if ok {
		delete(r.patterns, id)
		r.rebuildIndexes()
	}
	n := len(r.patterns)
	r.mu.Unlock()

	r.metrics.SetRegistryPatterns(n)
	return ok
}

// Get returns a copy of the pattern with the given id.
func (r *Registry) Get(id string) (*pattern.Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatternNotFound, id)
	}
	return p.Clone(), nil
}

// List returns copies of all patterns sorted by id.
func (r *Registry) List() []*pattern.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pattern.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered patterns.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

// ByCategory returns the patterns of a category.
func (r *Registry) ByCategory(c pattern.Category) []*pattern.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byCategory[c])
}

// ByTag returns the patterns carrying a tag (case-insensitive).
func (r *Registry) ByTag(tag string) []*pattern.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byTag[strings.ToLower(tag)])
}

// ByAuthor returns the patterns of an author (case-insensitive).
func (r *Registry) ByAuthor(author string) []*pattern.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byAuthor[strings.ToLower(author)])
}

// RecordDownload bumps the usage counter of a pattern.
func (r *Registry) RecordDownload(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patterns[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPatternNotFound, id)
	}
	p.DownloadCount++
	return nil
}

// Stats summarizes the catalog.
type Stats struct {
	Total      int                      `json:"total"`
	Categories map[pattern.Category]int `json:"categories"`
	Tags       int                      `json:"tags"`
	Authors    int                      `json:"authors"`
	Downloads  int                      `json:"downloads"`
}

// Stats returns counts over the current catalog.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		Total:      len(r.patterns),
		Categories: make(map[pattern.Category]int, len(r.byCategory)),
		Tags:       len(r.byTag),
		Authors:    len(r.byAuthor),
	}
	for c, ids := range r.byCategory {
		s.Categories[c] = len(ids)
	}
	for _, p := range r.patterns {
		s.Downloads += p.DownloadCount
	}
	return s
}

// rebuildIndexes recomputes every index from scratch. Callers hold the
// write lock.
func (r *Registry) rebuildIndexes() {
	r.byCategory = make(map[pattern.Category][]string)
	r.byTag = make(map[string][]string)
	r.byAuthor = make(map[string][]string)

	ids := make([]string, 0, len(r.patterns))
	for id := range r.patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := r.patterns[id]
		r.byCategory[p.Category] = append(r.byCategory[p.Category], id)
		for _, tag := range p.Tags {
			key := strings.ToLower(tag)
			r.byTag[key] = append(r.byTag[key], id)
		}
		if p.Author != "" {
			key := strings.ToLower(p.Author)
			r.byAuthor[key] = append(r.byAuthor[key], id)
		}
	}
}

func (r *Registry) collect(ids []string) []*pattern.Pattern {
	out := make([]*pattern.Pattern, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.patterns[id].Clone())
	}
	return out
}

func patternID(p *pattern.Pattern) string {
	if p == nil {
		return ""
	}
	return p.ID
}
