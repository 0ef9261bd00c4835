// Package tariffs declares read access to the purchasable minute bundles.
package tariffs

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type Repository interface {
	// ListActive returns active tariffs in display order.
	ListActive(ctx context.Context) ([]*models.Tariff, error)
	// GetActive returns common.ErrorNotFound for unknown or inactive tariffs.
	GetActive(ctx context.Context, id string) (*models.Tariff, error)
}
