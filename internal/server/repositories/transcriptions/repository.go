// Package transcriptions declares the storage contract for transcription
// work items. Status updates are guarded in SQL so a terminal row is never
// moved again, whichever writer gets there first.
package transcriptions

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type Repository interface {
	// Create inserts a pending transcription for t.FileID. A second row for
	// the same file yields common.ErrorAlreadyExists.
	Create(ctx context.Context, t *models.Transcription) (*models.Transcription, error)
	GetByID(ctx context.Context, id string) (*models.Transcription, error)
	GetByFileID(ctx context.Context, fileID string) (*models.Transcription, error)
	// GetForUser and GetByFileForUser enforce ownership through audio_files.
	GetForUser(ctx context.Context, id, userID string) (*models.Transcription, error)
	GetByFileForUser(ctx context.Context, fileID, userID string) (*models.Transcription, error)
	// MarkProcessing moves pending -> processing. It reports false when the
	// row had already left pending.
	MarkProcessing(ctx context.Context, id string) (bool, error)
	// Finish moves a non-terminal row to a terminal status. It reports false
	// when the row was already terminal.
	Finish(ctx context.Context, id string, status models.ProcessingStatus, errMsg string) (bool, error)
	// SetResult stores the non-empty fields of res.
	SetResult(ctx context.Context, id string, res models.TranscriptionResult) error
}
