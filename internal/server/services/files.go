package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/auth"
	"github.com/dmitrijs2005/vat/internal/server/blobstore"
	"github.com/dmitrijs2005/vat/internal/server/config"
	"github.com/dmitrijs2005/vat/internal/server/dispatch"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var allowedAudioExtensions = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"m4a":  true,
	"flac": true,
	"ogg":  true,
}

// Upload is an incoming audio file. Size must be the exact byte count of Body.
type Upload struct {
	FileName string
	Size     int64
	Body     io.Reader
}

// FileService stores recordings and starts their transcription.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	dispatcher  dispatch.Dispatcher
	tokens      *auth.CallbackTokens
	callbackURL string
	presignTTL  time.Duration
	maxBytes    int64
	log         logging.Logger
	now         clock
	newID       func() string
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blobstore.Store, d dispatch.Dispatcher,
	tokens *auth.CallbackTokens, cfg *config.Config, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		dispatcher:  d,
		tokens:      tokens,
		callbackURL: callbackURL(cfg.AppBaseURL, TranscriptionCallbackPath),
		presignTTL:  cfg.PresignTTL,
		maxBytes:    common.MaxUploadBytes,
		log:         log.With("module", "services.files"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// AudioExtension returns the lower-cased extension of name if it is an
// accepted audio format.
func AudioExtension(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !allowedAudioExtensions[ext] {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, filepath.Ext(name))
	}
	return ext, nil
}

// SubmitAudio validates and stores the upload, records the file with a
// pending transcription and hands the transcription to the processor.
//
// Nothing is written when validation or the blob upload fails. Once the rows
// are committed a dispatch failure does not undo them: the transcription is
// marked failed with the dispatch error instead.
func (s *FileService) SubmitAudio(ctx context.Context, userID string, up Upload) (*models.AudioFile, error) {
	ext, err := AudioExtension(up.FileName)
	if err != nil {
		return nil, err
	}
	if up.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", common.ErrFileTooLarge, up.Size, s.maxBytes)
	}
	if up.Size <= 0 {
		return nil, common.ErrEmptyFile
	}

	fileID := s.newID()
	key := blobstore.AudioKey(userID, fileID, ext, s.now())
	if err := s.store.Put(ctx, key, up.Body, up.Size, blobstore.AudioContentType(ext)); err != nil {
		return nil, err
	}

	var (
		file *models.AudioFile
		tr   *models.Transcription
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		file, err = s.repomanager.AudioFiles(tx).Create(ctx, &models.AudioFile{
			ID:               fileID,
			UserID:           userID,
			OriginalFileName: filepath.Base(up.FileName),
			StorageKey:       key,
			SizeBytes:        up.Size,
			Status:           models.AudioUploaded,
		})
		if err != nil {
			return fmt.Errorf("error creating audio file: %w", err)
		}
		tr, err = s.repomanager.Transcriptions(tx).Create(ctx, &models.Transcription{FileID: fileID})
		if err != nil {
			return fmt.Errorf("error creating transcription: %w", err)
		}
		return nil
	})
	if err != nil {
		if delErr := s.store.Delete(detached(ctx), key); delErr != nil {
			s.log.Warn(ctx, "orphaned audio object", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.log.Info(ctx, "audio stored", "file_id", fileID, "user_id", userID, "size", up.Size)
	s.startTranscription(ctx, file, tr)

	return s.repomanager.AudioFiles(s.db).GetByID(detached(ctx), fileID)
}

// startTranscription dispatches tr and records the outcome. Errors are
// recorded on the rows rather than returned.
func (s *FileService) startTranscription(ctx context.Context, file *models.AudioFile, tr *models.Transcription) {
	err := s.dispatchTranscription(ctx, file, tr)

	ctx = detached(ctx)
	repo := s.repomanager.Transcriptions(s.db)
	if err != nil {
		msg := fmt.Sprintf("dispatch failed: %v", err)
		s.log.Warn(ctx, "transcription dispatch failed", "transcription_id", tr.ID, "error", err)
		if _, ferr := repo.Finish(ctx, tr.ID, models.StatusFailed, msg); ferr != nil {
			s.log.Error(ctx, "error recording dispatch failure", "transcription_id", tr.ID, "error", ferr)
			return
		}
		if _, serr := s.repomanager.AudioFiles(s.db).MarkProcessingFailed(ctx, file.ID, msg); serr != nil {
			s.log.Error(ctx, "error updating audio status", "file_id", file.ID, "error", serr)
		}
		return
	}

	moved, err := repo.MarkProcessing(ctx, tr.ID)
	if err != nil {
		s.log.Error(ctx, "error marking transcription processing", "transcription_id", tr.ID, "error", err)
		return
	}
	if !moved {
		// The completion callback arrived before the acknowledgment.
		s.log.Debug(ctx, "transcription already left pending", "transcription_id", tr.ID)
	}
}

func (s *FileService) dispatchTranscription(ctx context.Context, file *models.AudioFile, tr *models.Transcription) error {
	sourceURL, err := s.store.PresignGet(ctx, file.StorageKey, s.presignTTL)
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(auth.KindTranscription, tr.ID)
	if err != nil {
		return err
	}
	return s.dispatcher.DispatchTranscription(ctx, dispatch.TranscriptionTask{
		Action:          dispatch.ActionTranscribe,
		FileID:          file.ID,
		TranscriptionID: tr.ID,
		UserID:          file.UserID,
		SourceKey:       file.StorageKey,
		SourceURL:       sourceURL,
		CallbackURL:     s.callbackURL,
		CallbackToken:   token,
	})
}

// ListFiles returns the user's files, newest first.
func (s *FileService) ListFiles(ctx context.Context, userID string) ([]*models.AudioFile, error) {
	files, err := s.repomanager.AudioFiles(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return files, nil
}

func (s *FileService) GetFile(ctx context.Context, userID, fileID string) (*models.AudioFile, error) {
	return s.repomanager.AudioFiles(s.db).GetForUser(ctx, fileID, userID)
}

// DeleteFile removes the stored audio and marks the file deleted. Related
// transcriptions and analyses are kept for billing history.
func (s *FileService) DeleteFile(ctx context.Context, userID, fileID string) error {
	repo := s.repomanager.AudioFiles(s.db)
	f, err := repo.GetForUser(ctx, fileID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, f.StorageKey); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	if err := repo.SetStatus(ctx, f.ID, models.AudioDeleted, ""); err != nil {
		return fmt.Errorf("error deleting file: %w", err)
	}
	s.log.Info(ctx, "audio deleted", "file_id", f.ID, "user_id", userID)
	return nil
}

// GetTranscription returns the transcription of one of the user's files.
func (s *FileService) GetTranscription(ctx context.Context, userID, fileID string) (*models.Transcription, error) {
	return s.repomanager.Transcriptions(s.db).GetByFileForUser(ctx, fileID, userID)
}
