// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"starterforge/internal/common/logger"
	"starterforge/internal/common/metrics"
	"starterforge/internal/models"

	"github.com/lib/pq"
)

const findFeaturesQuery = `
SELECT slug, name, description,
       module_slug, module_name, module_category,
       requires, file_mappings, schema_mappings, env_vars, npm_packages
FROM features
WHERE slug = ANY($1)`

// PostgresCatalog reads feature records from the features table. The
// structured columns (mappings, env vars, packages) are stored as JSONB
// and may be NULL when a feature contributes nothing of that kind.
type PostgresCatalog struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresCatalog(db *sql.DB, log logger.Logger) *PostgresCatalog {
	return &PostgresCatalog{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "catalog"}),
	}
}

// FindFeatures returns the known features among the requested slugs, in
// request order. Unknown slugs are simply absent from the result.
func (c *PostgresCatalog) FindFeatures(ctx context.Context, slugs []string) ([]models.FeatureSpec, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, findFeaturesQuery, pq.Array(slugs))
	if err != nil {
		metrics.CatalogLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	bySlug := make(map[string]models.FeatureSpec, len(slugs))
	for rows.Next() {
		feature, err := scanFeature(rows)
		if err != nil {
			metrics.CatalogLookups.WithLabelValues("error").Inc()
			return nil, err
		}
		bySlug[feature.Slug] = feature
	}
	if err := rows.Err(); err != nil {
		metrics.CatalogLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("iterate features: %w", err)
	}

	metrics.CatalogLookups.WithLabelValues("ok").Inc()

	// Preserve request order for deterministic downstream output.
	out := make([]models.FeatureSpec, 0, len(bySlug))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		if f, ok := bySlug[slug]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func scanFeature(rows *sql.Rows) (models.FeatureSpec, error) {
	var (
		f            models.FeatureSpec
		requires     pq.StringArray
		fileJSON     []byte
		schemaJSON   []byte
		envJSON      []byte
		packagesJSON []byte
	)

	err := rows.Scan(
		&f.Slug, &f.Name, &f.Description,
		&f.Module.Slug, &f.Module.Name, &f.Module.Category,
		&requires, &fileJSON, &schemaJSON, &envJSON, &packagesJSON,
	)
	if err != nil {
		return models.FeatureSpec{}, fmt.Errorf("scan feature: %w", err)
	}

	f.Requires = []string(requires)

	if err := unmarshalColumn(fileJSON, &f.FileMappings); err != nil {
		return models.FeatureSpec{}, fmt.Errorf("feature %s file_mappings: %w", f.Slug, err)
	}
	if err := unmarshalColumn(schemaJSON, &f.SchemaMappings); err != nil {
		return models.FeatureSpec{}, fmt.Errorf("feature %s schema_mappings: %w", f.Slug, err)
	}
	if err := unmarshalColumn(envJSON, &f.EnvVars); err != nil {
		return models.FeatureSpec{}, fmt.Errorf("feature %s env_vars: %w", f.Slug, err)
	}
	if err := unmarshalColumn(packagesJSON, &f.NpmPackages); err != nil {
		return models.FeatureSpec{}, fmt.Errorf("feature %s npm_packages: %w", f.Slug, err)
	}

	return f, nil
}

// unmarshalColumn decodes a nullable JSONB column. NULL leaves the target
// slice nil, matching the catalog contract.
func unmarshalColumn(data []byte, target interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
