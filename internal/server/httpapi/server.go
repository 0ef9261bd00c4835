// Package httpapi exposes the services over REST. The browser client
// authenticates with a session cookie; the external processor reports
// completions to the webhook routes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/identity"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Auth interface {
	LoginWidget(ctx context.Context, d identity.LoginData, meta services.ClientMeta) (*models.User, *models.Session, error)
	LoginWebApp(ctx context.Context, initData string, meta services.ClientMeta) (*models.User, *models.Session, error)
	ResolveSession(ctx context.Context, token string) (*models.User, error)
	CloseSession(ctx context.Context, token string) error
	CompleteOnboarding(ctx context.Context, userID string) (*models.User, error)
}

type Files interface {
	SubmitAudio(ctx context.Context, userID string, up services.Upload) (*models.AudioFile, error)
	ListFiles(ctx context.Context, userID string) ([]*models.AudioFile, error)
	GetFile(ctx context.Context, userID, fileID string) (*models.AudioFile, error)
	DeleteFile(ctx context.Context, userID, fileID string) error
	GetTranscription(ctx context.Context, userID, fileID string) (*models.Transcription, error)
}

type Analyses interface {
	Catalog() []models.AnalysisTypeInfo
	RequestAnalyses(ctx context.Context, userID, transcriptionID string, types []string) ([]*models.Analysis, error)
	ListAnalyses(ctx context.Context, userID, transcriptionID string) ([]*models.Analysis, error)
	GetAnalysis(ctx context.Context, userID, analysisID string) (*models.Analysis, error)
	DocumentURL(ctx context.Context, userID, analysisID, format string) (string, error)
}

type Webhooks interface {
	ReconcileTranscription(ctx context.Context, cb services.TranscriptionCallback) (*models.Transcription, error)
	ReconcileAnalysis(ctx context.Context, cb services.AnalysisCallback) (*models.Analysis, error)
}

type Billing interface {
	Stats(ctx context.Context, userID string) (*models.UserStats, error)
	Tariffs(ctx context.Context) ([]*models.Tariff, error)
	Payments(ctx context.Context, userID string) ([]*models.Payment, error)
	CreatePayment(ctx context.Context, userID, tariffID string) (*models.Payment, string, error)
}

// Services groups the business logic the router dispatches to.
type Services struct {
	Auth     Auth
	Files    Files
	Analyses Analyses
	Webhooks Webhooks
	Billing  Billing
}

type Options struct {
	CORSOrigins   []string
	CookieSecure  bool
	SessionMaxAge time.Duration
	// MaxUploadBytes bounds the audio payload; multipart overhead is
	// allowed on top.
	MaxUploadBytes int64
	// MaxCallbackBytes bounds webhook bodies, which may carry documents.
	MaxCallbackBytes int64
}

type Server struct {
	svc  Services
	opts Options
	log  logging.Logger
}

func NewServer(svc Services, opts Options, log logging.Logger) *Server {
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = common.MaxUploadBytes
	}
	if opts.MaxCallbackBytes == 0 {
		opts.MaxCallbackBytes = 64 << 20
	}
	return &Server{svc: svc, opts: opts, log: log.With("module", "httpapi")}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Callback-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.handleHealth)

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/telegram", s.handleTelegramLogin)
			ar.Post("/telegram-webapp", s.handleTelegramWebApp)
			ar.Post("/logout", s.handleLogout)
			ar.With(s.requireSession).Get("/me", s.handleMe)
		})

		api.Route("/user", func(ur chi.Router) {
			ur.Get("/tariffs", s.handleTariffs)
			ur.Group(func(pr chi.Router) {
				pr.Use(s.requireSession)
				pr.Get("/onboarding-status", s.handleOnboardingStatus)
				pr.Post("/complete-onboarding", s.handleCompleteOnboarding)
				pr.Get("/stats", s.handleStats)
				pr.Get("/payments", s.handlePayments)
			})
		})

		api.Route("/files", func(fr chi.Router) {
			fr.Use(s.requireSession)
			fr.Post("/upload", s.handleUpload)
			fr.Get("/", s.handleListFiles)
			fr.Get("/{fileID}", s.handleGetFile)
			fr.Delete("/{fileID}", s.handleDeleteFile)
			fr.Get("/{fileID}/transcription", s.handleGetTranscription)
		})

		api.Route("/analyses", func(nr chi.Router) {
			nr.Get("/types/available", s.handleAnalysisTypes)
			nr.Group(func(pr chi.Router) {
				pr.Use(s.requireSession)
				pr.Post("/start", s.handleStartAnalyses)
				pr.Get("/transcription/{transcriptionID}", s.handleListAnalyses)
				pr.Get("/{analysisID}", s.handleGetAnalysis)
				pr.Get("/{analysisID}/download/{format}", s.handleDownload)
			})
		})

		api.With(s.requireSession).Post("/payments/create", s.handleCreatePayment)

		api.Route("/webhooks", func(wr chi.Router) {
			wr.Post("/transcription/completed", s.handleTranscriptionCallback)
			wr.Post("/analysis/completed", s.handleAnalysisCallback)
		})
	})
	return r
}
