package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/config"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/repositories/repomanager"
)

// BillingService reports usage and records purchase intents. Payment
// settlement is handled by the payment provider.
type BillingService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	confirmationPrefix string
	log                logging.Logger
}

func NewBillingService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *BillingService {
	return &BillingService{
		db:                 db,
		repomanager:        m,
		confirmationPrefix: cfg.PaymentConfirmationBaseURL,
		log:                log.With("module", "services.billing"),
	}
}

// Stats aggregates the user's balance and usage. Used minutes round down.
func (s *BillingService) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	files, seconds, err := s.repomanager.AudioFiles(s.db).Usage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading usage: %w", err)
	}
	completed, err := s.repomanager.Analyses(s.db).CountCompletedForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting analyses: %w", err)
	}
	return &models.UserStats{
		BalanceMinutes:    u.BalanceMinutes,
		UsedMinutes:       int(seconds / 60),
		AnalysesCompleted: completed,
		FilesUploaded:     files,
	}, nil
}

func (s *BillingService) Tariffs(ctx context.Context) ([]*models.Tariff, error) {
	list, err := s.repomanager.Tariffs(s.db).ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tariffs: %w", err)
	}
	return list, nil
}

func (s *BillingService) Payments(ctx context.Context, userID string) ([]*models.Payment, error) {
	list, err := s.repomanager.Payments(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	return list, nil
}

// CreatePayment records a pending payment for an active tariff and returns
// it with the URL the user confirms the payment at.
func (s *BillingService) CreatePayment(ctx context.Context, userID, tariffID string) (*models.Payment, string, error) {
	t, err := s.repomanager.Tariffs(s.db).GetActive(ctx, tariffID)
	if err != nil {
		return nil, "", err
	}
	p, err := s.repomanager.Payments(s.db).Create(ctx, &models.Payment{
		UserID:            userID,
		TariffID:          t.ID,
		AmountCents:       t.PriceCents,
		Currency:          t.Currency,
		MinutesAdded:      t.Minutes,
		TariffDescription: t.Description,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error creating payment: %w", err)
	}
	s.log.Info(ctx, "payment created", "payment_id", p.ID, "user_id", userID, "tariff_id", t.ID)
	return p, s.confirmationURL(p.ID), nil
}

func (s *BillingService) confirmationURL(paymentID string) string {
	if strings.HasSuffix(s.confirmationPrefix, "/") {
		return s.confirmationPrefix + paymentID
	}
	return s.confirmationPrefix + "/" + paymentID
}
