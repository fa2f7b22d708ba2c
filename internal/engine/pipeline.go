// internal/engine/pipeline.go

// Package engine orchestrates a generation run: resolve the feature
// closure, assemble the virtual file tree, merge schema and manifest,
// and generate the document artifacts.
package engine

import (
	"context"
	"encoding/json"
	"io"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"starterforge/internal/catalog"
	"starterforge/internal/common/errors"
	"starterforge/internal/common/logger"
	"starterforge/internal/common/validation"
	"starterforge/internal/engine/assembler"
	"starterforge/internal/engine/docs"
	"starterforge/internal/engine/manifest"
	"starterforge/internal/engine/resolver"
	"starterforge/internal/engine/schema"
	"starterforge/internal/models"
)

// Output locations inside the generated tree.
const (
	schemaPath      = "packages/database/prisma/schema.prisma"
	packageJSONPath = "package.json"
	envExamplePath  = ".env.example"
	licensePath     = "LICENSE.txt"
	readmePath      = "README.md"
	configPath      = "project.config.json"
)

// Scripts every generated project gets unless the base manifest already
// defines them.
var generatedScripts = manifest.FeatureScripts{
	Feature: "generated",
	Scripts: map[string]string{
		"dev":        "turbo run dev",
		"build":      "turbo run build",
		"start":      "turbo run start",
		"db:migrate": "prisma migrate deploy",
		"db:seed":    "prisma db seed",
	},
}

// Result is the assembled project for one order: the complete virtual
// file tree (artifacts already written into it) plus each artifact
// individually for the packaging layer and the job record.
type Result struct {
	ProjectName string
	Resolved    *models.ResolvedFeatureSet
	Tree        *assembler.VirtualFileTree
	Schema      string
	PackageJSON string
	EnvExample  string
	License     string
	Readme      string
	Config      []byte
}

// Engine runs the generation pipeline. All collaborators are injected;
// an Engine holds no mutable state between runs.
type Engine struct {
	resolver  *resolver.Resolver
	assembler *assembler.Assembler
	fs        billy.Filesystem
	baseRoot  string
	logger    logger.Logger
	now       func() time.Time
}

func New(cat catalog.Accessor, fs billy.Filesystem, baseRoot string, log logger.Logger) *Engine {
	return &Engine{
		resolver:  resolver.New(cat, log),
		assembler: assembler.New(fs, log),
		fs:        fs,
		baseRoot:  baseRoot,
		logger:    log.WithFields(map[string]interface{}{"component": "engine"}),
		now:       time.Now,
	}
}

// WithClock overrides the timestamp source, for reproducible tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Generate executes the full pipeline for one order. Resolution and
// merge errors abort the run; no partial result is ever returned.
func (e *Engine) Generate(ctx context.Context, order models.OrderDetails) (*Result, error) {
	var templateBase []string
	if order.Template != nil {
		templateBase = order.Template.IncludedFeatures
	}

	resolved, err := e.resolver.Resolve(ctx, order.SelectedFeatures, order.Tier, templateBase)
	if err != nil {
		return nil, err
	}

	e.logger.Info("feature set resolved", map[string]interface{}{
		"orderId":      order.ID,
		"featureCount": len(resolved.AllFeatureSlugs),
	})

	tree, err := e.assembler.Assemble(e.baseRoot, resolved.Features)
	if err != nil {
		return nil, err
	}

	mergedSchema, err := e.mergeSchema(tree, resolved.Features)
	if err != nil {
		return nil, err
	}

	mergedManifest, err := e.mergeManifest(tree, resolved.Features)
	if err != nil {
		return nil, err
	}

	generatedAt := e.now()
	envExample := docs.GenerateEnvExample(resolved.Features)
	license := docs.GenerateLicense(order, generatedAt)
	readme := docs.GenerateReadme(order, resolved.Features, generatedAt)

	configDoc, err := docs.GenerateConfig(order, resolved.AllFeatureSlugs, generatedAt)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateProjectConfig(configDoc); err != nil {
		return nil, errors.NewConfigInvalidError(err.Error())
	}

	tree.Put(schemaPath, []byte(mergedSchema))
	tree.Put(packageJSONPath, []byte(mergedManifest))
	tree.Put(envExamplePath, []byte(envExample))
	tree.Put(licensePath, []byte(license))
	tree.Put(readmePath, []byte(readme))
	tree.Put(configPath, configDoc)

	return &Result{
		ProjectName: docs.GenerateProjectName(order),
		Resolved:    resolved,
		Tree:        tree,
		Schema:      mergedSchema,
		PackageJSON: mergedManifest,
		EnvExample:  envExample,
		License:     license,
		Readme:      readme,
		Config:      configDoc,
	}, nil
}

// mergeSchema combines the base schema (from the assembled tree, when
// the base project ships one) with every feature's schema fragments in
// resolution order.
func (e *Engine) mergeSchema(tree *assembler.VirtualFileTree, features []models.FeatureSpec) (string, error) {
	base := ""
	if content, ok := tree.Get(schemaPath); ok {
		base = string(content)
	}

	var fragments []schema.Fragment
	for _, feature := range features {
		for _, mapping := range feature.SchemaMappings {
			text, err := e.fragmentText(mapping)
			if err != nil {
				return "", err
			}
			fragments = append(fragments, schema.Fragment{
				Feature: feature.Slug,
				Model:   mapping.Model,
				Text:    text,
			})
		}
	}

	return schema.MergeSchemas(base, fragments)
}

// fragmentText resolves a schema mapping source: a path on the source
// filesystem when one exists there, otherwise the source is the
// fragment text itself.
func (e *Engine) fragmentText(mapping models.SchemaMapping) (string, error) {
	if _, err := e.fs.Stat(mapping.Source); err != nil {
		return mapping.Source, nil
	}

	f, err := e.fs.Open(mapping.Source)
	if err != nil {
		return "", &errors.TreeWalkError{Path: mapping.Source, Err: err}
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", &errors.TreeWalkError{Path: mapping.Source, Err: err}
	}
	return string(content), nil
}

// mergeManifest combines the base package.json (from the assembled
// tree) with every feature's npm packages, then fills in the generated
// lifecycle scripts without overwriting base ones.
func (e *Engine) mergeManifest(tree *assembler.VirtualFileTree, features []models.FeatureSpec) (string, error) {
	base := manifest.PackageJSON{
		Name:    "starter",
		Version: "0.1.0",
		Private: true,
	}
	if content, ok := tree.Get(packageJSONPath); ok {
		if err := json.Unmarshal(content, &base); err != nil {
			return "", errors.NewTreeWalkFailedError(packageJSONPath, err)
		}
	}

	var fragments []manifest.FeaturePackages
	for _, feature := range features {
		if len(feature.NpmPackages) == 0 {
			continue
		}
		fragments = append(fragments, manifest.FeaturePackages{
			Feature:  feature.Slug,
			Packages: feature.NpmPackages,
		})
	}

	merged := manifest.MergePackageJSON(base, fragments)
	merged.Scripts = manifest.GenerateScripts(base.Scripts, []manifest.FeatureScripts{generatedScripts})

	return manifest.StringifyPackageJSON(merged)
}
