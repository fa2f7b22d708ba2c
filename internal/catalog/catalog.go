// internal/catalog/catalog.go

// Package catalog provides read-only access to the feature catalog.
package catalog

import (
	"context"

	"starterforge/internal/models"
)

// Accessor is the query contract the resolver depends on. FindFeatures
// returns at most the features that exist; callers infer missing slugs
// by diffing requested vs returned.
type Accessor interface {
	FindFeatures(ctx context.Context, slugs []string) ([]models.FeatureSpec, error)
}

// Static is an in-memory Accessor backed by a fixed feature list. Used
// by tests and by the catalog seeder tool.
type Static struct {
	bySlug map[string]models.FeatureSpec
	order  []string
}

// NewStatic builds a Static accessor from a feature list.
func NewStatic(features []models.FeatureSpec) *Static {
	s := &Static{bySlug: make(map[string]models.FeatureSpec, len(features))}
	for _, f := range features {
		if _, dup := s.bySlug[f.Slug]; !dup {
			s.order = append(s.order, f.Slug)
		}
		s.bySlug[f.Slug] = f
	}
	return s
}

// FindFeatures returns the known features among the requested slugs, in
// request order.
func (s *Static) FindFeatures(_ context.Context, slugs []string) ([]models.FeatureSpec, error) {
	out := make([]models.FeatureSpec, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		if f, ok := s.bySlug[slug]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// All returns every feature in insertion order.
func (s *Static) All() []models.FeatureSpec {
	out := make([]models.FeatureSpec, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.bySlug[slug])
	}
	return out
}
