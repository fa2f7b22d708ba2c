// internal/models/order.go
package models

// TemplateRef is a named bundle of default features pre-selected for a
// use case.
type TemplateRef struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	IncludedFeatures []string `json:"includedFeatures"`
}

// LicenseRef is the license record attached to a paid order.
type LicenseRef struct {
	ID            string `json:"id"`
	LicenseKey    string `json:"licenseKey"`
	DownloadToken string `json:"downloadToken"`
	DownloadCount int    `json:"downloadCount"`
	MaxDownloads  int    `json:"maxDownloads"`
	Status        string `json:"status"`
	ExpiresAt     string `json:"expiresAt"`
}

// OrderDetails is the input to a generation run: the customer's tier,
// feature selection and optional template plus license metadata.
type OrderDetails struct {
	ID               string       `json:"id"`
	OrderNumber      string       `json:"orderNumber"`
	Tier             string       `json:"tier"`
	SelectedFeatures []string     `json:"selectedFeatures"`
	CustomerEmail    string       `json:"customerEmail"`
	CustomerName     *string      `json:"customerName"`
	Total            float64      `json:"total"`
	Template         *TemplateRef `json:"template"`
	License          *LicenseRef  `json:"license"`
}
