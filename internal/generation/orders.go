// internal/generation/orders.go
package generation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"starterforge/internal/models"
	"starterforge/pkg/registry"
)

const getOrderQuery = `
	SELECT o.id, o.order_number, o.tier, o.selected_features,
	       o.customer_email, o.customer_name, o.total, o.template_slug,
	       l.id, l.license_key, l.download_token, l.download_count,
	       l.max_downloads, l.status, l.expires_at
	FROM orders o
	LEFT JOIN licenses l ON l.order_id = o.id
	WHERE o.id = $1`

// PostgresOrderProvider loads paid orders and their license from the
// orders database and resolves the template reference against the
// registry loaded at boot.
type PostgresOrderProvider struct {
	db  *sql.DB
	reg *registry.TemplateRegistry
}

func NewPostgresOrderProvider(db *sql.DB, reg *registry.TemplateRegistry) *PostgresOrderProvider {
	return &PostgresOrderProvider{db: db, reg: reg}
}

func (p *PostgresOrderProvider) GetOrder(ctx context.Context, orderID string) (models.OrderDetails, error) {
	var (
		order        models.OrderDetails
		customerName sql.NullString
		templateSlug sql.NullString

		licenseID     sql.NullString
		licenseKey    sql.NullString
		downloadToken sql.NullString
		downloadCount sql.NullInt64
		maxDownloads  sql.NullInt64
		licenseStatus sql.NullString
		expiresAt     sql.NullTime
	)

	err := p.db.QueryRowContext(ctx, getOrderQuery, orderID).Scan(
		&order.ID, &order.OrderNumber, &order.Tier,
		pq.Array(&order.SelectedFeatures),
		&order.CustomerEmail, &customerName, &order.Total, &templateSlug,
		&licenseID, &licenseKey, &downloadToken, &downloadCount,
		&maxDownloads, &licenseStatus, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return models.OrderDetails{}, fmt.Errorf("order %s not found", orderID)
	}
	if err != nil {
		return models.OrderDetails{}, fmt.Errorf("order lookup failed: %w", err)
	}

	if customerName.Valid {
		order.CustomerName = &customerName.String
	}

	if templateSlug.Valid && templateSlug.String != "" {
		tpl, err := p.reg.FindBySlug(templateSlug.String)
		if err != nil {
			return models.OrderDetails{}, err
		}
		order.Template = tpl.ToRef()
	}

	if licenseID.Valid {
		var expiry string
		if expiresAt.Valid {
			expiry = expiresAt.Time.UTC().Format(time.RFC3339)
		}
		order.License = &models.LicenseRef{
			ID:            licenseID.String,
			LicenseKey:    licenseKey.String,
			DownloadToken: downloadToken.String,
			DownloadCount: int(downloadCount.Int64),
			MaxDownloads:  int(maxDownloads.Int64),
			Status:        licenseStatus.String,
			ExpiresAt:     expiry,
		}
	}

	return order, nil
}
