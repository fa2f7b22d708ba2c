// cmd/tools/catalog-seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/lib/pq"

	"starterforge/internal/common/config"
	"starterforge/internal/common/database"
	"starterforge/internal/models"
)

const upsertFeatureQuery = `
	INSERT INTO features (slug, name, description, module_slug, module_name,
	                      module_category, requires, file_mappings,
	                      schema_mappings, env_vars, npm_packages)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (slug) DO UPDATE SET
	    name = EXCLUDED.name,
	    description = EXCLUDED.description,
	    module_slug = EXCLUDED.module_slug,
	    module_name = EXCLUDED.module_name,
	    module_category = EXCLUDED.module_category,
	    requires = EXCLUDED.requires,
	    file_mappings = EXCLUDED.file_mappings,
	    schema_mappings = EXCLUDED.schema_mappings,
	    env_vars = EXCLUDED.env_vars,
	    npm_packages = EXCLUDED.npm_packages`

func main() {
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	seedPath := seedCmd.String("path", "configs/features.json", "Path to feature definitions file")
	validatePath := validateCmd.String("path", "configs/features.json", "Path to feature definitions file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "seed":
		seedCmd.Parse(os.Args[2:])
		features, err := loadFeatures(*seedPath)
		if err != nil {
			fmt.Printf("Error loading features: %v\n", err)
			os.Exit(1)
		}
		if err := validateFeatures(features); err != nil {
			fmt.Printf("Feature validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := seedFeatures(features); err != nil {
			fmt.Printf("Error seeding catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %d features.\n", len(features))

	case "validate":
		validateCmd.Parse(os.Args[2:])
		features, err := loadFeatures(*validatePath)
		if err != nil {
			fmt.Printf("Error loading features: %v\n", err)
			os.Exit(1)
		}
		if err := validateFeatures(features); err != nil {
			fmt.Printf("Feature validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Feature validation passed. Found %d features.\n", len(features))

	case "help":
		fallthrough
	default:
		help()
	}
}

func loadFeatures(path string) ([]models.FeatureSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var features []models.FeatureSpec
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, fmt.Errorf("failed to parse feature definitions: %w", err)
	}
	return features, nil
}

// validateFeatures checks slug uniqueness and that every requires edge
// points at a slug defined in the same file. Catching a dangling slug
// here is cheaper than catching it at resolution time in production.
func validateFeatures(features []models.FeatureSpec) error {
	if len(features) == 0 {
		return fmt.Errorf("file contains no features")
	}

	slugs := make(map[string]bool)
	for _, f := range features {
		if f.Slug == "" {
			return fmt.Errorf("feature missing required field: slug")
		}
		if slugs[f.Slug] {
			return fmt.Errorf("duplicate feature slug: %s", f.Slug)
		}
		slugs[f.Slug] = true

		if f.Name == "" {
			return fmt.Errorf("feature %s missing required field: name", f.Slug)
		}
	}

	for _, f := range features {
		for _, req := range f.Requires {
			if !slugs[req] {
				return fmt.Errorf("feature %s requires undefined feature: %s", f.Slug, req)
			}
		}
		for _, m := range f.FileMappings {
			if m.Source == "" || m.Destination == "" {
				return fmt.Errorf("feature %s has a file mapping with empty source or destination", f.Slug)
			}
		}
	}

	return nil
}

func seedFeatures(features []models.FeatureSpec) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}
	defer pg.Close()

	ctx := context.Background()

	for _, f := range features {
		fileMappings, err := json.Marshal(f.FileMappings)
		if err != nil {
			return err
		}
		schemaMappings, err := json.Marshal(f.SchemaMappings)
		if err != nil {
			return err
		}
		envVars, err := json.Marshal(f.EnvVars)
		if err != nil {
			return err
		}
		npmPackages, err := json.Marshal(f.NpmPackages)
		if err != nil {
			return err
		}

		_, err = pg.Exec(ctx, upsertFeatureQuery,
			f.Slug, f.Name, f.Description,
			f.Module.Slug, f.Module.Name, f.Module.Category,
			pq.Array(f.Requires),
			fileMappings, schemaMappings, envVars, npmPackages,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert feature %s: %w", f.Slug, err)
		}
	}

	return nil
}

func help() {
	fmt.Println(`
Usage: catalog-seeder <command> [flags]

Commands:
  seed     Validate and upsert feature definitions into the catalog database
  validate Validate a feature definitions file without touching the database
  help     Show this help message

Examples:
  catalog-seeder seed -path configs/features.json
  catalog-seeder validate -path configs/features.json

Use 'catalog-seeder <command> -h' for more information about a command.`)
}
