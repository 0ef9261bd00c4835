package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/auth"
	"github.com/dmitrijs2005/vat/internal/server/blobstore"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/repositories/repomanager"
)

const (
	defaultTranscriptionError = "transcription failed"
	defaultAnalysisError      = "analysis failed"
)

// TranscriptionCallback is a completion report for a transcription.
type TranscriptionCallback struct {
	FileID          string
	TranscriptionID string
	Status          string
	DurationSeconds *int
	Text            string
	SpeakersCount   *int
	Language        string
	ErrorMessage    string
	Token           string
}

// AnalysisCallback is a completion report for an analysis. Documents are
// base64 encoded.
type AnalysisCallback struct {
	AnalysisID   string
	Status       string
	DocxContent  string
	PdfContent   string
	Text         string
	Summary      string
	ErrorMessage string
	Token        string
}

// WebhookService reconciles processor callbacks with stored work items.
// Callbacks are delivered at least once and in any order: repeating the
// outcome a row already has is a no-op, and a different outcome for a
// terminal row fails with common.ErrTerminalState.
type WebhookService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	tokens      *auth.CallbackTokens
	log         logging.Logger
	now         clock
}

func NewWebhookService(db *sql.DB, m repomanager.RepositoryManager, store blobstore.Store,
	tokens *auth.CallbackTokens, log logging.Logger) *WebhookService {
	return &WebhookService{
		db:          db,
		repomanager: m,
		store:       store,
		tokens:      tokens,
		log:         log.With("module", "services.webhooks"),
		now:         time.Now,
	}
}

// ReconcileTranscription applies a transcription callback. On completion the
// transcript, if present, is stored and the reported duration is copied to
// the audio file.
func (s *WebhookService) ReconcileTranscription(ctx context.Context, cb TranscriptionCallback) (*models.Transcription, error) {
	outcome, err := models.ParseOutcome(cb.Status)
	if err != nil {
		return nil, err
	}
	if cb.DurationSeconds != nil && *cb.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: negative duration", common.ErrorValidation)
	}

	repo := s.repomanager.Transcriptions(s.db)
	tr, err := repo.GetByFileID(ctx, cb.FileID)
	if err != nil {
		return nil, err
	}
	if cb.TranscriptionID != "" && cb.TranscriptionID != tr.ID {
		return nil, fmt.Errorf("%w: transcription %s does not belong to file %s", common.ErrorNotFound, cb.TranscriptionID, cb.FileID)
	}
	if err := s.verifyToken(cb.Token, auth.KindTranscription, tr.ID); err != nil {
		return nil, err
	}
	if tr.Status.IsTerminal() {
		return tr, s.redelivered(ctx, "transcription", tr.ID, tr.Status, outcome)
	}

	var res models.TranscriptionResult
	msg := ""
	if outcome == models.StatusCompleted {
		res = models.TranscriptionResult{
			Text:          cb.Text,
			SpeakersCount: cb.SpeakersCount,
			Language:      cb.Language,
		}
		if cb.Text != "" {
			res.TextKey = blobstore.TranscriptKey(tr.ID, s.now())
			body := []byte(cb.Text)
			if err := s.store.Put(ctx, res.TextKey, bytes.NewReader(body), int64(len(body)), blobstore.TextContentType); err != nil {
				return nil, err
			}
		}
	} else {
		msg = orDefault(cb.ErrorMessage, defaultTranscriptionError)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		changed, err := s.repomanager.Transcriptions(tx).Finish(ctx, tr.ID, outcome, msg)
		if err != nil {
			return err
		}
		if !changed {
			return errStale
		}
		if outcome == models.StatusFailed {
			// A file deleted while it was processing stays deleted.
			_, err := s.repomanager.AudioFiles(tx).MarkProcessingFailed(ctx, tr.FileID, msg)
			return err
		}
		if err := s.repomanager.Transcriptions(tx).SetResult(ctx, tr.ID, res); err != nil {
			return err
		}
		if cb.DurationSeconds != nil {
			return s.repomanager.AudioFiles(tx).SetDuration(ctx, tr.FileID, *cb.DurationSeconds)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, res.TextKey)
	}
	if errors.Is(err, errStale) {
		// Another delivery finished the row between our read and write.
		current, gerr := repo.GetByID(ctx, tr.ID)
		if gerr != nil {
			return nil, gerr
		}
		return current, s.redelivered(ctx, "transcription", tr.ID, current.Status, outcome)
	}
	if err != nil {
		return nil, fmt.Errorf("error reconciling transcription: %w", err)
	}

	s.log.Info(ctx, "transcription reconciled", "transcription_id", tr.ID, "status", outcome)
	return repo.GetByID(ctx, tr.ID)
}

// ReconcileAnalysis applies an analysis callback. Documents carried by a
// completed callback are stored before the status changes.
func (s *WebhookService) ReconcileAnalysis(ctx context.Context, cb AnalysisCallback) (*models.Analysis, error) {
	outcome, err := models.ParseOutcome(cb.Status)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Analyses(s.db)
	a, err := repo.GetByID(ctx, cb.AnalysisID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyToken(cb.Token, auth.KindAnalysis, a.ID); err != nil {
		return nil, err
	}
	if a.Status.IsTerminal() {
		return a, s.redelivered(ctx, "analysis", a.ID, a.Status, outcome)
	}

	var res models.AnalysisResult
	msg := ""
	if outcome == models.StatusCompleted {
		res = models.AnalysisResult{Text: cb.Text, Summary: cb.Summary}
		if res.DocxKey, err = s.storeDocument(ctx, a.ID, models.FormatDocx, cb.DocxContent); err != nil {
			return nil, err
		}
		if res.PdfKey, err = s.storeDocument(ctx, a.ID, models.FormatPdf, cb.PdfContent); err != nil {
			s.discard(ctx, res.DocxKey)
			return nil, err
		}
	} else {
		msg = orDefault(cb.ErrorMessage, defaultAnalysisError)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		changed, err := s.repomanager.Analyses(tx).Finish(ctx, a.ID, outcome, msg)
		if err != nil {
			return err
		}
		if !changed {
			return errStale
		}
		if outcome == models.StatusCompleted {
			return s.repomanager.Analyses(tx).SetResult(ctx, a.ID, res)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, res.DocxKey, res.PdfKey)
	}
	if errors.Is(err, errStale) {
		current, gerr := repo.GetByID(ctx, a.ID)
		if gerr != nil {
			return nil, gerr
		}
		return current, s.redelivered(ctx, "analysis", a.ID, current.Status, outcome)
	}
	if err != nil {
		return nil, fmt.Errorf("error reconciling analysis: %w", err)
	}

	s.log.Info(ctx, "analysis reconciled", "analysis_id", a.ID, "type", a.Type, "status", outcome)
	return repo.GetByID(ctx, a.ID)
}

// storeDocument decodes a base64 document and stores it, returning its key
// or "" when content is empty.
func (s *WebhookService) storeDocument(ctx context.Context, analysisID string, f models.DocumentFormat, content string) (string, error) {
	if content == "" {
		return "", nil
	}
	body, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("%w: %s content is not valid base64", common.ErrorValidation, f)
	}
	key := blobstore.AnalysisKey(analysisID, f, s.now())
	if err := s.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), blobstore.DocumentContentType(f)); err != nil {
		return "", err
	}
	return key, nil
}

// discard removes objects stored for a callback whose status write did not
// happen. Empty keys are skipped.
func (s *WebhookService) discard(ctx context.Context, keys ...string) {
	ctx = detached(ctx)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "orphaned callback object", "key", key, "error", err)
		}
	}
}

func (s *WebhookService) verifyToken(token string, kind auth.Kind, subject string) error {
	if err := s.tokens.Verify(token, kind, subject); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return nil
}

// redelivered decides the result for a callback that found its row already
// terminal.
func (s *WebhookService) redelivered(ctx context.Context, kind, id string, current, outcome models.ProcessingStatus) error {
	if current == outcome {
		s.log.Debug(ctx, "duplicate callback ignored", "kind", kind, "id", id, "status", current)
		return nil
	}
	s.log.Warn(ctx, "conflicting callback rejected", "kind", kind, "id", id, "status", current, "reported", outcome)
	return fmt.Errorf("%w: %s %s is %s, callback reported %s", common.ErrTerminalState, kind, id, current, outcome)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
