// Package sessions declares the storage contract for login sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

// Repository stores opaque session tokens.
type Repository interface {
	// Create persists s. The token must be unique.
	Create(ctx context.Context, s *models.Session) error

	// Find returns the session for token or common.ErrorNotFound.
	// Expired sessions are returned as-is; callers check Expired.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Delete removes the session. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired purges sessions that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
