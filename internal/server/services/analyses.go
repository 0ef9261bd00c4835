package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/auth"
	"github.com/dmitrijs2005/vat/internal/server/blobstore"
	"github.com/dmitrijs2005/vat/internal/server/config"
	"github.com/dmitrijs2005/vat/internal/server/dispatch"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/repositories/repomanager"
)

// AnalysisService starts analyses over completed transcriptions and serves
// their results.
type AnalysisService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	dispatcher  dispatch.Dispatcher
	tokens      *auth.CallbackTokens
	callbackURL string
	presignTTL  time.Duration
	log         logging.Logger
}

func NewAnalysisService(db *sql.DB, m repomanager.RepositoryManager, store blobstore.Store, d dispatch.Dispatcher,
	tokens *auth.CallbackTokens, cfg *config.Config, log logging.Logger) *AnalysisService {
	return &AnalysisService{
		db:          db,
		repomanager: m,
		store:       store,
		dispatcher:  d,
		tokens:      tokens,
		callbackURL: callbackURL(cfg.AppBaseURL, AnalysisCallbackPath),
		presignTTL:  cfg.PresignTTL,
		log:         log.With("module", "services.analyses"),
	}
}

// Catalog lists the analysis types a client may request.
func (s *AnalysisService) Catalog() []models.AnalysisTypeInfo {
	return models.AnalysisCatalog()
}

// RequestAnalyses ensures one analysis per requested type exists for the
// transcription and returns them in request order.
//
// A type that already has an analysis is returned unchanged and is not
// dispatched again. New analyses are dispatched one by one; a dispatch
// failure marks only that analysis failed.
func (s *AnalysisService) RequestAnalyses(ctx context.Context, userID, transcriptionID string, types []string) ([]*models.Analysis, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no analysis types requested", common.ErrorValidation)
	}
	parsed := make([]models.AnalysisType, 0, len(types))
	for _, t := range types {
		at, err := models.ParseAnalysisType(t)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, at)
	}

	tr, err := s.repomanager.Transcriptions(s.db).GetForUser(ctx, transcriptionID, userID)
	if err != nil {
		return nil, err
	}
	if tr.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: transcription %s is %s", common.ErrorNotFound, tr.ID, tr.Status)
	}
	if tr.TextKey == "" {
		return nil, common.ErrTextUnavailable
	}

	repo := s.repomanager.Analyses(s.db)
	var sourceURL string
	out := make([]*models.Analysis, 0, len(parsed))
	for _, at := range parsed {
		a, created, err := repo.CreateIfAbsent(ctx, tr.ID, at)
		if err != nil {
			return nil, fmt.Errorf("error creating analysis: %w", err)
		}
		if !created {
			out = append(out, a)
			continue
		}

		if sourceURL == "" {
			sourceURL, err = s.store.PresignGet(ctx, tr.TextKey, s.presignTTL)
		}
		if err == nil {
			err = s.dispatchAnalysis(ctx, a, tr, userID, sourceURL)
		}
		a, err = s.recordDispatch(ctx, a, err)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *AnalysisService) dispatchAnalysis(ctx context.Context, a *models.Analysis, tr *models.Transcription, userID, sourceURL string) error {
	token, err := s.tokens.Issue(auth.KindAnalysis, a.ID)
	if err != nil {
		return err
	}
	return s.dispatcher.DispatchAnalysis(ctx, dispatch.AnalysisTask{
		Action:          dispatch.ActionAnalyze,
		AnalysisID:      a.ID,
		AnalysisType:    a.Type,
		TranscriptionID: tr.ID,
		FileID:          tr.FileID,
		UserID:          userID,
		SourceKey:       tr.TextKey,
		SourceURL:       sourceURL,
		CallbackURL:     s.callbackURL,
		CallbackToken:   token,
	})
}

// recordDispatch applies the dispatch outcome to a freshly created analysis
// and returns the stored row.
func (s *AnalysisService) recordDispatch(ctx context.Context, a *models.Analysis, dispatchErr error) (*models.Analysis, error) {
	ctx = detached(ctx)
	repo := s.repomanager.Analyses(s.db)

	var err error
	if dispatchErr != nil {
		s.log.Warn(ctx, "analysis dispatch failed", "analysis_id", a.ID, "type", a.Type, "error", dispatchErr)
		_, err = repo.Finish(ctx, a.ID, models.StatusFailed, fmt.Sprintf("dispatch failed: %v", dispatchErr))
	} else {
		_, err = repo.MarkProcessing(ctx, a.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating analysis status: %w", err)
	}
	return repo.GetByID(ctx, a.ID)
}

// ListAnalyses returns the analyses of one of the user's transcriptions,
// newest first.
func (s *AnalysisService) ListAnalyses(ctx context.Context, userID, transcriptionID string) ([]*models.Analysis, error) {
	tr, err := s.repomanager.Transcriptions(s.db).GetForUser(ctx, transcriptionID, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.repomanager.Analyses(s.db).ListByTranscription(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing analyses: %w", err)
	}
	return list, nil
}

func (s *AnalysisService) GetAnalysis(ctx context.Context, userID, analysisID string) (*models.Analysis, error) {
	return s.repomanager.Analyses(s.db).GetForUser(ctx, analysisID, userID)
}

// DocumentURL returns a time-limited download link for a completed
// analysis's document in the given format.
func (s *AnalysisService) DocumentURL(ctx context.Context, userID, analysisID, format string) (string, error) {
	var f models.DocumentFormat
	switch models.DocumentFormat(format) {
	case models.FormatDocx, models.FormatPdf:
		f = models.DocumentFormat(format)
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format)
	}

	a, err := s.GetAnalysis(ctx, userID, analysisID)
	if err != nil {
		return "", err
	}
	if a.Status != models.StatusCompleted {
		return "", fmt.Errorf("%w: analysis %s is %s", common.ErrNotReady, a.ID, a.Status)
	}

	key := a.DocxKey
	if f == models.FormatPdf {
		key = a.PdfKey
	}
	if key == "" {
		return "", fmt.Errorf("%w: no %s document for analysis %s", common.ErrorNotFound, f, a.ID)
	}
	return s.store.PresignGet(ctx, key, s.presignTTL)
}
