// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"os"

	"starterforge/internal/common/errors"
	"starterforge/internal/models"
)

func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TemplateRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindBySlug returns the template with the given slug.
func (r *TemplateRegistry) FindBySlug(slug string) (*Template, error) {
	for i := range r.Templates {
		if r.Templates[i].Slug == slug {
			return &r.Templates[i], nil
		}
	}
	return nil, errors.NewTemplateNotFoundError(slug)
}

// ToRef converts a registry template into the order-facing reference.
func (t *Template) ToRef() *models.TemplateRef {
	return &models.TemplateRef{
		Name:             t.Name,
		Slug:             t.Slug,
		IncludedFeatures: append([]string(nil), t.IncludedFeatures...),
	}
}
