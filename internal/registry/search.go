package registry

import (
	"math"
	"sort"
	"strings"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// Filters narrows a search. Every non-empty filter must match.
type Filters struct {
	Categories   []pattern.Category   `json:"categories,omitempty"`
	Complexities []pattern.Complexity `json:"complexities,omitempty"`
	// Providers and Tags match when the pattern shares at least one entry.
	Providers []string `json:"providers,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	// Author matches as a case-insensitive substring.
	Author    string  `json:"author,omitempty"`
	MinRating float64 `json:"minRating,omitempty"`
	// Text matches name, description or tags as a case-insensitive substring.
	Text string `json:"text,omitempty"`
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	Pattern *pattern.Pattern `json:"pattern"`
	Score   float64          `json:"score"`
}

// Score weights.
const (
	weightRating      = 20
	weightCategory    = 50
	weightTag         = 30
	weightProvider    = 25
	weightComplexity  = 20
	weightPopularity  = 10
	weightNameText    = 100
	weightDescription = 50
)

// Search returns the patterns matching f, best first. Patterns whose name
// contains the free text always rank above those that do not; within each
// group hits are ordered by score, then by name.
func (r *Registry) Search(f Filters) []SearchResult {
	r.mu.RLock()
	var hits []SearchResult
	nameHit := make(map[string]bool)
	text := strings.ToLower(strings.TrimSpace(f.Text))
	for _, p := range r.patterns {
		if !matches(p, f, text) {
			continue
		}
		hits = append(hits, SearchResult{Pattern: p.Clone(), Score: score(p, f, text)})
		nameHit[p.ID] = text != "" && strings.Contains(strings.ToLower(p.Name), text)
	}
	r.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if nameHit[a.Pattern.ID] != nameHit[b.Pattern.ID] {
			return nameHit[a.Pattern.ID]
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Pattern.Name != b.Pattern.Name {
			return a.Pattern.Name < b.Pattern.Name
		}
		return a.Pattern.ID < b.Pattern.ID
	})
	if hits == nil {
		hits = []SearchResult{}
	}
	return hits
}

func matches(p *pattern.Pattern, f Filters, text string) bool {
	if len(f.Categories) > 0 && !containsValue(f.Categories, p.Category) {
		return false
	}
	if len(f.Complexities) > 0 && !containsValue(f.Complexities, p.Complexity) {
		return false
	}
	if len(f.Providers) > 0 && overlap(f.Providers, p.Providers) == 0 {
		return false
	}
	if len(f.Tags) > 0 && overlap(f.Tags, p.Tags) == 0 {
		return false
	}
	if f.Author != "" && !strings.Contains(strings.ToLower(p.Author), strings.ToLower(f.Author)) {
		return false
	}
	if p.Rating < f.MinRating {
		return false
	}
	if text != "" && !textMatch(p, text) {
		return false
	}
	return true
}

func textMatch(p *pattern.Pattern, text string) bool {
	if strings.Contains(strings.ToLower(p.Name), text) || strings.Contains(strings.ToLower(p.Description), text) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

func score(p *pattern.Pattern, f Filters, text string) float64 {
	s := p.Rating * weightRating
	if len(f.Categories) > 0 && containsValue(f.Categories, p.Category) {
		s += weightCategory
	}
	s += weightTag * float64(overlap(f.Tags, p.Tags))
	s += weightProvider * float64(overlap(f.Providers, p.Providers))
	if len(f.Complexities) > 0 && containsValue(f.Complexities, p.Complexity) {
		s += weightComplexity
	}
	s += weightPopularity * math.Log10(float64(p.DownloadCount)+1)
	if text != "" {
		if strings.Contains(strings.ToLower(p.Name), text) {
			s += weightNameText
		}
		if strings.Contains(strings.ToLower(p.Description), text) {
			s += weightDescription
		}
	}
	return s
}

func containsValue[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// overlap counts the entries of want present in have, ignoring case.
func overlap(want, have []string) int {
	n := 0
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				n++
				break
			}
		}
	}
	return n
}
