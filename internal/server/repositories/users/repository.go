// Package users declares the storage contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type Repository interface {
	// Upsert creates the user keyed by TelegramID with startingBalance
	// minutes, or refreshes the display attributes of an existing one.
	// created reports which of the two happened.
	Upsert(ctx context.Context, u *models.User, startingBalance int) (user *models.User, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	CompleteOnboarding(ctx context.Context, id string) error
}
