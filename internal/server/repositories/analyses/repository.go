// Package analyses declares the storage contract for analysis work items,
// unique per (transcription, analysis type).
package analyses

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type Repository interface {
	// CreateIfAbsent inserts a pending analysis unless one already exists for
	// the pair, in which case the existing row is returned with created=false.
	// Concurrent callers for the same pair observe exactly one created=true.
	CreateIfAbsent(ctx context.Context, transcriptionID string, t models.AnalysisType) (a *models.Analysis, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.Analysis, error)
	// GetForUser enforces ownership through transcriptions and audio_files.
	GetForUser(ctx context.Context, id, userID string) (*models.Analysis, error)
	// ListByTranscription returns analyses newest first.
	ListByTranscription(ctx context.Context, transcriptionID string) ([]*models.Analysis, error)
	MarkProcessing(ctx context.Context, id string) (bool, error)
	Finish(ctx context.Context, id string, status models.ProcessingStatus, errMsg string) (bool, error)
	SetResult(ctx context.Context, id string, res models.AnalysisResult) error
	CountCompletedForUser(ctx context.Context, userID string) (int, error)
}
