// internal/engine/manifest/manifest.go

// Package manifest merges the base package.json with per-feature
// dependency and script contributions.
package manifest

import (
	"encoding/json"

	"starterforge/internal/models"
)

// PackageJSON models the subset of package.json the generator owns.
// Field order here is the serialization order; map keys serialize
// sorted, so repeated generation of the same order is byte-identical.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description,omitempty"`
	Private         bool              `json:"private"`
	Scripts         map[string]string `json:"scripts,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Engines         map[string]string `json:"engines,omitempty"`
}

// FeaturePackages is one feature's npm dependency contribution.
type FeaturePackages struct {
	Feature  string
	Packages []models.PackageSpec
}

// FeatureScripts is one feature's package.json script contribution.
type FeatureScripts struct {
	Feature string
	Scripts map[string]string
}

// MergePackageJSON unions the base dependencies with every fragment's
// packages in resolution order. When the same package name appears with
// different version constraints, the later (more specific, later
// resolved) constraint wins — features are assumed to declare compatible
// or intentionally overriding versions.
func MergePackageJSON(base PackageJSON, fragments []FeaturePackages) PackageJSON {
	merged := base
	merged.Dependencies = copyMap(base.Dependencies)

	for _, frag := range fragments {
		for _, pkg := range frag.Packages {
			merged.Dependencies[pkg.Name] = pkg.Version
		}
	}

	return merged
}

// GenerateScripts adds feature-declared scripts to the base script set.
// A feature script is added only when the name does not already exist:
// the base manifest's lifecycle commands are never overwritten, and the
// first feature to claim a name keeps it.
func GenerateScripts(base map[string]string, fragments []FeatureScripts) map[string]string {
	merged := copyMap(base)

	for _, frag := range fragments {
		for name, cmd := range frag.Scripts {
			if _, exists := merged[name]; exists {
				continue
			}
			merged[name] = cmd
		}
	}

	return merged
}

// StringifyPackageJSON renders the manifest with fixed indentation and
// stable key order.
func StringifyPackageJSON(pkg PackageJSON) (string, error) {
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func copyMap(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
