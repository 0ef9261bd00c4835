package httpapi

import (
	"context"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/server/identity"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/services"
)

// Each stub answers from its function fields; unset fields mean "not found".

type stubAuth struct {
	sessions map[string]*models.User
	login    func(identity.LoginData, services.ClientMeta) (*models.User, *models.Session, error)
	webApp   func(string) (*models.User, *models.Session, error)
	closed   []string
	onboard  func(string) (*models.User, error)
}

func (s *stubAuth) LoginWidget(_ context.Context, d identity.LoginData, meta services.ClientMeta) (*models.User, *models.Session, error) {
	return s.login(d, meta)
}

func (s *stubAuth) LoginWebApp(_ context.Context, initData string, _ services.ClientMeta) (*models.User, *models.Session, error) {
	return s.webApp(initData)
}

func (s *stubAuth) ResolveSession(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.sessions[token]; ok {
		return u, nil
	}
	return nil, common.ErrorUnauthorized
}

func (s *stubAuth) CloseSession(_ context.Context, token string) error {
	s.closed = append(s.closed, token)
	return nil
}

func (s *stubAuth) CompleteOnboarding(_ context.Context, userID string) (*models.User, error) {
	return s.onboard(userID)
}

type stubFiles struct {
	submit   func(string, services.Upload) (*models.AudioFile, error)
	list     []*models.AudioFile
	get      func(userID, fileID string) (*models.AudioFile, error)
	deleted  []string
	deleteFn func(userID, fileID string) error
	tr       func(userID, fileID string) (*models.Transcription, error)
}

func (s *stubFiles) SubmitAudio(_ context.Context, userID string, up services.Upload) (*models.AudioFile, error) {
	return s.submit(userID, up)
}

func (s *stubFiles) ListFiles(context.Context, string) ([]*models.AudioFile, error) {
	return s.list, nil
}

func (s *stubFiles) GetFile(_ context.Context, userID, fileID string) (*models.AudioFile, error) {
	if s.get == nil {
		return nil, common.ErrorNotFound
	}
	return s.get(userID, fileID)
}

func (s *stubFiles) DeleteFile(_ context.Context, userID, fileID string) error {
	if s.deleteFn != nil {
		if err := s.deleteFn(userID, fileID); err != nil {
			return err
		}
	}
	s.deleted = append(s.deleted, fileID)
	return nil
}

func (s *stubFiles) GetTranscription(_ context.Context, userID, fileID string) (*models.Transcription, error) {
	if s.tr == nil {
		return nil, common.ErrorNotFound
	}
	return s.tr(userID, fileID)
}

type stubAnalyses struct {
	request func(userID, trID string, types []string) ([]*models.Analysis, error)
	list    func(userID, trID string) ([]*models.Analysis, error)
	get     func(userID, id string) (*models.Analysis, error)
	docURL  func(userID, id, format string) (string, error)
}

func (s *stubAnalyses) Catalog() []models.AnalysisTypeInfo { return models.AnalysisCatalog() }

func (s *stubAnalyses) RequestAnalyses(_ context.Context, userID, trID string, types []string) ([]*models.Analysis, error) {
	return s.request(userID, trID, types)
}

func (s *stubAnalyses) ListAnalyses(_ context.Context, userID, trID string) ([]*models.Analysis, error) {
	return s.list(userID, trID)
}

func (s *stubAnalyses) GetAnalysis(_ context.Context, userID, id string) (*models.Analysis, error) {
	if s.get == nil {
		return nil, common.ErrorNotFound
	}
	return s.get(userID, id)
}

func (s *stubAnalyses) DocumentURL(_ context.Context, userID, id, format string) (string, error) {
	return s.docURL(userID, id, format)
}

type stubWebhooks struct {
	transcription func(services.TranscriptionCallback) error
	analysis      func(services.AnalysisCallback) error
}

func (s *stubWebhooks) ReconcileTranscription(_ context.Context, cb services.TranscriptionCallback) (*models.Transcription, error) {
	if err := s.transcription(cb); err != nil {
		return nil, err
	}
	return &models.Transcription{FileID: cb.FileID}, nil
}

func (s *stubWebhooks) ReconcileAnalysis(_ context.Context, cb services.AnalysisCallback) (*models.Analysis, error) {
	if err := s.analysis(cb); err != nil {
		return nil, err
	}
	return &models.Analysis{ID: cb.AnalysisID}, nil
}

type stubBilling struct {
	stats    *models.UserStats
	tariffs  []*models.Tariff
	payments []*models.Payment
	create   func(userID, tariffID string) (*models.Payment, string, error)
}

func (s *stubBilling) Stats(context.Context, string) (*models.UserStats, error) { return s.stats, nil }

func (s *stubBilling) Tariffs(context.Context) ([]*models.Tariff, error) { return s.tariffs, nil }

func (s *stubBilling) Payments(context.Context, string) ([]*models.Payment, error) {
	return s.payments, nil
}

func (s *stubBilling) CreatePayment(_ context.Context, userID, tariffID string) (*models.Payment, string, error) {
	return s.create(userID, tariffID)
}
