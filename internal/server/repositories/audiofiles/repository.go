// Package audiofiles declares the storage contract for uploaded recordings.
package audiofiles

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type Repository interface {
	// Create inserts f with its caller-assigned ID and fills CreatedAt/UpdatedAt.
	Create(ctx context.Context, f *models.AudioFile) (*models.AudioFile, error)
	GetByID(ctx context.Context, id string) (*models.AudioFile, error)
	// GetForUser returns the file only if userID owns it and it is not deleted.
	GetForUser(ctx context.Context, id, userID string) (*models.AudioFile, error)
	// ListForUser returns the user's non-deleted files, newest first.
	ListForUser(ctx context.Context, userID string) ([]*models.AudioFile, error)
	SetDuration(ctx context.Context, id string, seconds int) error
	SetStatus(ctx context.Context, id string, status models.AudioFileStatus, errMsg string) error
	// MarkProcessingFailed records a processing failure unless the file was
	// deleted. It reports whether the row changed.
	MarkProcessingFailed(ctx context.Context, id, errMsg string) (bool, error)
	// Usage reports the number of files the user uploaded and their total
	// known duration in seconds.
	Usage(ctx context.Context, userID string) (files int, seconds int64, err error)
}
