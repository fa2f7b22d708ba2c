// internal/models/feature.go
package models

// ModuleRef identifies the module a feature belongs to. The category is
// used for grouping in generated documentation.
type ModuleRef struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// FileMapping maps a feature's file payload to its location in the
// generated project tree.
type FileMapping struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// SchemaMapping is a named data-model fragment contributed by a feature.
// Source is either a path or the fragment text itself.
type SchemaMapping struct {
	Model  string `json:"model"`
	Source string `json:"source"`
}

// EnvVarSpec describes one environment variable a feature needs.
type EnvVarSpec struct {
	Key         string  `json:"key"`
	Description string  `json:"description"`
	Required    bool    `json:"required"`
	Default     *string `json:"default"`
}

// PackageSpec is one npm dependency declared by a feature. Version is a
// semver range or exact version.
type PackageSpec struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FeatureSpec is a catalog entry. Immutable once loaded for a resolution
// run; the slice fields may be nil when the feature contributes nothing
// of that kind.
type FeatureSpec struct {
	Slug           string          `json:"slug"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Module         ModuleRef       `json:"module"`
	Requires       []string        `json:"requires"`
	FileMappings   []FileMapping   `json:"fileMappings"`
	SchemaMappings []SchemaMapping `json:"schemaMappings"`
	EnvVars        []EnvVarSpec    `json:"envVars"`
	NpmPackages    []PackageSpec   `json:"npmPackages"`
}
