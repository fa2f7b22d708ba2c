// pkg/registry/schema.go
package registry

type TemplateRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Templates   []Template `json:"templates"`
}

type Template struct {
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	IncludedFeatures []string `json:"includedFeatures"`
	MinTier          string   `json:"minTier"`
	PreviewURL       string   `json:"previewUrl"`
	Tags             []string `json:"tags"`
}
