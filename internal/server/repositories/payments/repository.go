// Package payments declares the storage contract for purchase intents.
package payments

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type Repository interface {
	// Create inserts p as pending and fills ID and timestamps.
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	// ListForUser returns the user's payments newest first.
	ListForUser(ctx context.Context, userID string) ([]*models.Payment, error)
}
