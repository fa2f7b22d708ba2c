// internal/engine/pipeline_test.go
package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starterforge/internal/catalog"
	"starterforge/internal/common/errors"
	"starterforge/internal/common/logger"
	"starterforge/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedTime = time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

func setupBaseTree(t *testing.T) billy.Filesystem {
	fs := memfs.New()
	files := map[string]string{
		"base/package.json": `{
  "name": "starter",
  "version": "0.1.0",
  "private": true,
  "scripts": {"dev": "next dev"},
  "dependencies": {"react": "^18.3.0"}
}`,
		"base/packages/database/prisma/schema.prisma": "model User {\n  id String @id\n}",
		"base/apps/web/src/App.tsx":                   "export const App = () => null",
		"base/node_modules/react/index.js":            "excluded",

		"features/auth-jwt/api/auth.ts":         "export const auth = {}",
		"features/auth-jwt/schema/session.prisma": "model Session {\n  id String @id\n}",
		"features/billing/api/billing.ts":       "export const billing = {}",
	}
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func testFeatures() []models.FeatureSpec {
	return []models.FeatureSpec{
		{
			Slug: "auth-jwt", Name: "JWT Authentication",
			Description: "JWT auth",
			Module:      models.ModuleRef{Slug: "auth", Name: "Authentication", Category: "security"},
			FileMappings: []models.FileMapping{
				{Source: "features/auth-jwt/api", Destination: "apps/api/src/auth"},
			},
			SchemaMappings: []models.SchemaMapping{
				{Model: "Session", Source: "features/auth-jwt/schema/session.prisma"},
			},
			EnvVars: []models.EnvVarSpec{
				{Key: "JWT_SECRET", Description: "Signing secret", Required: true},
			},
			NpmPackages: []models.PackageSpec{
				{Name: "jsonwebtoken", Version: "^9.0.2"},
			},
		},
		{
			Slug: "stripe-payments", Name: "Stripe Payments",
			Description: "Stripe billing",
			Module:      models.ModuleRef{Slug: "billing", Name: "Billing", Category: "commerce"},
			Requires:    []string{"auth-jwt"},
			FileMappings: []models.FileMapping{
				{Source: "features/billing/api", Destination: "apps/api/src/billing"},
			},
			SchemaMappings: []models.SchemaMapping{
				{Model: "Subscription", Source: "model Subscription {\n  id String @id\n}"},
			},
			NpmPackages: []models.PackageSpec{
				{Name: "stripe", Version: "^14.21.0"},
			},
		},
	}
}

func pipelineOrder() models.OrderDetails {
	return models.OrderDetails{
		ID:               "order-1",
		OrderNumber:      "ORD-2026-0042",
		Tier:             "professional",
		SelectedFeatures: []string{"stripe-payments"},
		CustomerEmail:    "dana@example.com",
		CustomerName:     strptr("Dana Smith"),
		Template: &models.TemplateRef{
			Name:             "E-Commerce Pro",
			Slug:             "e-commerce-pro",
			IncludedFeatures: []string{"auth-jwt"},
		},
		License: &models.LicenseRef{LicenseKey: "SF-PRO-XXXX"},
	}
}

func newTestEngine(t *testing.T, fs billy.Filesystem, features []models.FeatureSpec) *Engine {
	t.Helper()
	return New(catalog.NewStatic(features), fs, "base", logger.NewTestLogger(t)).
		WithClock(func() time.Time { return fixedTime })
}

// ==========================
// Pipeline Tests
// ==========================

func TestEngine_Generate(t *testing.T) {
	eng := newTestEngine(t, setupBaseTree(t), testFeatures())

	result, err := eng.Generate(context.Background(), pipelineOrder())
	require.NoError(t, err)

	assert.Equal(t, "e-commerce-pro-professional", result.ProjectName)
	assert.Equal(t, []string{"stripe-payments", "auth-jwt"}, result.Resolved.AllFeatureSlugs)

	// Base and feature files, with exclusions applied.
	assert.True(t, result.Tree.Has("apps/web/src/App.tsx"))
	assert.True(t, result.Tree.Has("apps/api/src/auth/auth.ts"))
	assert.True(t, result.Tree.Has("apps/api/src/billing/billing.ts"))
	assert.False(t, result.Tree.Has("node_modules/react/index.js"))

	// Merged schema carries base model plus both fragments.
	assert.Contains(t, result.Schema, "model User")
	assert.Contains(t, result.Schema, "model Session")
	assert.Contains(t, result.Schema, "model Subscription")

	// Merged manifest: base deps, feature deps, base script preserved.
	var pkg map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.PackageJSON), &pkg))
	deps := pkg["dependencies"].(map[string]interface{})
	assert.Equal(t, "^18.3.0", deps["react"])
	assert.Equal(t, "^9.0.2", deps["jsonwebtoken"])
	assert.Equal(t, "^14.21.0", deps["stripe"])
	scripts := pkg["scripts"].(map[string]interface{})
	assert.Equal(t, "next dev", scripts["dev"])
	assert.Equal(t, "turbo run build", scripts["build"])

	// Documents.
	assert.Contains(t, result.EnvExample, "JWT_SECRET=")
	assert.Contains(t, result.License, "Dana Smith")
	assert.Contains(t, result.Readme, "# E-Commerce Pro")

	// Artifacts are written back into the tree.
	for _, path := range []string{
		"packages/database/prisma/schema.prisma",
		"package.json",
		".env.example",
		"LICENSE.txt",
		"README.md",
		"project.config.json",
	} {
		assert.True(t, result.Tree.Has(path), "missing artifact %s", path)
	}

	treeConfig, _ := result.Tree.Get("project.config.json")
	assert.Equal(t, result.Config, treeConfig)
}

func TestEngine_Generate_ConfigContract(t *testing.T) {
	eng := newTestEngine(t, setupBaseTree(t), testFeatures())

	result, err := eng.Generate(context.Background(), pipelineOrder())
	require.NoError(t, err)

	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Config, &cfg))
	assert.Equal(t, "professional", cfg["tier"])
	assert.Equal(t, "e-commerce-pro", cfg["template"])
	assert.Equal(t, []interface{}{"stripe-payments", "auth-jwt"}, cfg["features"])
	assert.Equal(t, "2026-08-12T10:00:00Z", cfg["generatedAt"])
}

func TestEngine_Generate_Deterministic(t *testing.T) {
	eng := newTestEngine(t, setupBaseTree(t), testFeatures())

	first, err := eng.Generate(context.Background(), pipelineOrder())
	require.NoError(t, err)
	second, err := eng.Generate(context.Background(), pipelineOrder())
	require.NoError(t, err)

	assert.Equal(t, first.PackageJSON, second.PackageJSON)
	assert.Equal(t, first.Schema, second.Schema)
	assert.Equal(t, first.Config, second.Config)
	assert.Equal(t, first.Tree.Paths(), second.Tree.Paths())
}

func TestEngine_Generate_UnknownFeatureAborts(t *testing.T) {
	eng := newTestEngine(t, setupBaseTree(t), testFeatures())

	order := pipelineOrder()
	order.SelectedFeatures = []string{"ghost"}

	_, err := eng.Generate(context.Background(), order)

	var unknown *errors.UnknownFeatureError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"ghost"}, unknown.Slugs)
}

func TestEngine_Generate_DuplicateModelAborts(t *testing.T) {
	features := testFeatures()
	// A second feature declaring the base User model.
	features = append(features, models.FeatureSpec{
		Slug: "profiles", Name: "Profiles",
		Module: models.ModuleRef{Slug: "auth", Name: "Authentication", Category: "security"},
		SchemaMappings: []models.SchemaMapping{
			{Model: "User", Source: "model User {\n  id String @id\n  bio String\n}"},
		},
	})
	eng := newTestEngine(t, setupBaseTree(t), features)

	order := pipelineOrder()
	order.SelectedFeatures = []string{"profiles"}

	_, err := eng.Generate(context.Background(), order)

	var dup *errors.DuplicateModelError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "User", dup.Model)
	assert.Equal(t, "base schema", dup.FirstSource)
}

func TestEngine_Generate_MissingBaseTree(t *testing.T) {
	eng := newTestEngine(t, memfs.New(), testFeatures())

	_, err := eng.Generate(context.Background(), pipelineOrder())

	var walkErr *errors.TreeWalkError
	require.ErrorAs(t, err, &walkErr)
}

func TestEngine_Generate_NoBaseManifestUsesDefault(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "base/index.ts", []byte("export {}"), 0o644))
	eng := newTestEngine(t, fs, nil)

	order := models.OrderDetails{
		ID:            "order-2",
		OrderNumber:   "ORD-2",
		Tier:          "starter",
		CustomerEmail: "a@b.c",
	}

	result, err := eng.Generate(context.Background(), order)
	require.NoError(t, err)

	var pkg map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.PackageJSON), &pkg))
	assert.Equal(t, "starter", pkg["name"])
	assert.Equal(t, "0.1.0", pkg["version"])
	assert.Equal(t, "starter-starter", result.ProjectName)
}
