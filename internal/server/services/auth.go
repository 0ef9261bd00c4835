package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/config"
	"github.com/dmitrijs2005/vat/internal/server/identity"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/repositories/repomanager"
)

// ClientMeta is recorded with a session for auditing.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// AuthService turns verified Telegram assertions into users and sessions.
type AuthService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	verifier        identity.Verifier
	startingBalance int
	sessionValidity time.Duration
	log             logging.Logger
	now             clock
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, v identity.Verifier, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repomanager:     m,
		verifier:        v,
		startingBalance: cfg.StartingBalance,
		sessionValidity: cfg.SessionValidity,
		log:             log.With("module", "services.auth"),
		now:             time.Now,
	}
}

// LoginWidget verifies a Login Widget payload, then signs the user in.
func (s *AuthService) LoginWidget(ctx context.Context, d identity.LoginData, meta ClientMeta) (*models.User, *models.Session, error) {
	id, err := s.verifier.VerifyLogin(d)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return s.login(ctx, id, meta)
}

// LoginWebApp verifies Telegram Web App initData, then signs the user in.
func (s *AuthService) LoginWebApp(ctx context.Context, initData string, meta ClientMeta) (*models.User, *models.Session, error) {
	id, err := s.verifier.VerifyWebApp(initData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	return s.login(ctx, id, meta)
}

func (s *AuthService) login(ctx context.Context, id *identity.Identity, meta ClientMeta) (*models.User, *models.Session, error) {
	u, err := s.AuthenticateOrCreate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.OpenSession(ctx, u.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// AuthenticateOrCreate returns the user for the Telegram account, creating
// it with the starting balance on first login. Existing users only get
// their display attributes refreshed.
func (s *AuthService) AuthenticateOrCreate(ctx context.Context, id *identity.Identity) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	u, created, err := repo.Upsert(ctx, &models.User{
		TelegramID: id.TelegramID,
		Username:   id.Username,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		PhotoURL:   id.PhotoURL,
	}, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	if created {
		s.log.Info(ctx, "user registered", "user_id", u.ID, "telegram_id", u.TelegramID)
	}
	return u, nil
}

// OpenSession issues a fresh opaque token valid for the session lifetime.
func (s *AuthService) OpenSession(ctx context.Context, userID string, meta ClientMeta) (*models.Session, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	now := s.now()
	sess := &models.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		ExpiresAt: now.Add(s.sessionValidity),
		CreatedAt: now,
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return sess, nil
}

// ResolveSession returns the session owner. Unknown and expired tokens yield
// common.ErrorUnauthorized. Expiry is never extended.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	sess, err := s.repomanager.Sessions(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error finding session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, common.ErrorUnauthorized
	}

	u, err := s.repomanager.Users(s.db).GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return u, nil
}

// CloseSession deletes the session. Closing an unknown token succeeds.
func (s *AuthService) CloseSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions that are past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging sessions: %w", err)
	}
	if n > 0 {
		s.log.Debug(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}

// CompleteOnboarding marks the onboarding flow as done and returns the
// refreshed user.
func (s *AuthService) CompleteOnboarding(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	if err := repo.CompleteOnboarding(ctx, userID); err != nil {
		return nil, fmt.Errorf("error completing onboarding: %w", err)
	}
	return repo.GetByID(ctx, userID)
}
