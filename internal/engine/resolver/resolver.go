// internal/engine/resolver/resolver.go

// Package resolver computes the transitive closure of feature
// dependencies for a generation run.
package resolver

import (
	"context"

	"starterforge/internal/catalog"
	"starterforge/internal/common/errors"
	"starterforge/internal/common/logger"
	"starterforge/internal/models"
)

type Resolver struct {
	catalog catalog.Accessor
	logger  logger.Logger
}

func New(cat catalog.Accessor, log logger.Logger) *Resolver {
	return &Resolver{
		catalog: cat,
		logger:  log.WithFields(map[string]interface{}{"component": "resolver"}),
	}
}

// Resolve expands the selected and template-provided slugs into the full
// dependency closure. Slug order is preserved: selected features first,
// then template base features, then transitively pulled-in dependencies
// in discovery order. Tier is accepted for future gating and threaded
// through to downstream generators; it does not filter the walk.
//
// Fails with UnknownFeatureError when any referenced slug is not in the
// catalog. Cyclic requires graphs are tolerated: a slug already in the
// working set is never re-queried, and a self-reference is a no-op.
func (r *Resolver) Resolve(ctx context.Context, selected []string, tier string, templateBase []string) (*models.ResolvedFeatureSet, error) {
	seed := dedupe(selected, templateBase)
	if len(seed) == 0 {
		return &models.ResolvedFeatureSet{
			AllFeatureSlugs: []string{},
			Features:        []models.FeatureSpec{},
			DependencyTree:  models.DependencyTree{},
		}, nil
	}

	r.logger.Debug("resolving feature set", map[string]interface{}{
		"seed": seed,
		"tier": tier,
	})

	working := make(map[string]models.FeatureSpec, len(seed))
	var order []string

	if err := r.fetchBatch(ctx, seed, working, &order); err != nil {
		return nil, err
	}

	for {
		missing := pendingRequires(working, order)
		if len(missing) == 0 {
			break
		}
		if err := r.fetchBatch(ctx, missing, working, &order); err != nil {
			return nil, err
		}
	}

	features := make([]models.FeatureSpec, 0, len(order))
	tree := make(models.DependencyTree, len(order))
	for _, slug := range order {
		f := working[slug]
		features = append(features, f)
		requires := f.Requires
		if requires == nil {
			requires = []string{}
		}
		tree[slug] = requires
	}

	return &models.ResolvedFeatureSet{
		AllFeatureSlugs: order,
		Features:        features,
		DependencyTree:  tree,
	}, nil
}

// fetchBatch queries the catalog for every slug in the batch and adds
// the results to the working set in request order. If any slug is not
// returned the batch fails as a whole and the working set is left
// untouched, so a retried batch starts clean.
func (r *Resolver) fetchBatch(ctx context.Context, slugs []string, working map[string]models.FeatureSpec, order *[]string) error {
	found, err := r.catalog.FindFeatures(ctx, slugs)
	if err != nil {
		return errors.NewCatalogQueryFailedError(err)
	}

	bySlug := make(map[string]models.FeatureSpec, len(found))
	for _, f := range found {
		bySlug[f.Slug] = f
	}

	var missing []string
	for _, slug := range slugs {
		if _, ok := bySlug[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	if len(missing) > 0 {
		return &errors.UnknownFeatureError{Slugs: missing}
	}

	for _, slug := range slugs {
		if _, exists := working[slug]; exists {
			continue
		}
		working[slug] = bySlug[slug]
		*order = append(*order, slug)
	}
	return nil
}

// pendingRequires collects, in discovery order, every required slug not
// yet in the working set. Self-references are skipped.
func pendingRequires(working map[string]models.FeatureSpec, order []string) []string {
	var pending []string
	seen := make(map[string]bool)
	for _, slug := range order {
		for _, req := range working[slug].Requires {
			if req == slug {
				continue
			}
			if _, resolved := working[req]; resolved {
				continue
			}
			if seen[req] {
				continue
			}
			seen[req] = true
			pending = append(pending, req)
		}
	}
	return pending
}

// dedupe merges the selected and template base slugs, selected first, a
// slug appearing in both lists exactly once.
func dedupe(selected, templateBase []string) []string {
	out := make([]string, 0, len(selected)+len(templateBase))
	seen := make(map[string]bool, len(selected)+len(templateBase))
	for _, list := range [][]string{selected, templateBase} {
		for _, slug := range list {
			if slug == "" || seen[slug] {
				continue
			}
			seen[slug] = true
			out = append(out, slug)
		}
	}
	return out
}
