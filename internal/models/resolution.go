// internal/models/resolution.go
package models

// DependencyTree maps a feature slug to the ordered list of slugs it
// directly requires. Every slug in the resolved set has an entry;
// features pulled in purely as dependencies with no requires of their
// own get an empty list, not a missing key.
type DependencyTree map[string][]string

// ResolvedFeatureSet is the output of dependency resolution.
//
// AllFeatureSlugs preserves insertion order: selected features first,
// then template base features, then transitively pulled-in dependencies
// in discovery order. The merge and override logic downstream depends on
// this ordering.
type ResolvedFeatureSet struct {
	AllFeatureSlugs []string       `json:"allFeatureSlugs"`
	Features        []FeatureSpec  `json:"features"`
	DependencyTree  DependencyTree `json:"dependencyTree"`
}

// FeatureBySlug returns the member feature with the given slug.
func (r *ResolvedFeatureSet) FeatureBySlug(slug string) (FeatureSpec, bool) {
	for _, f := range r.Features {
		if f.Slug == slug {
			return f, true
		}
	}
	return FeatureSpec{}, false
}
