package httpapi

import (
	"time"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

type userResponse struct {
	UserID               string    `json:"user_id"`
	TelegramID           int64     `json:"telegram_id"`
	Username             string    `json:"username,omitempty"`
	FirstName            string    `json:"first_name,omitempty"`
	LastName             string    `json:"last_name,omitempty"`
	PhotoURL             string    `json:"photo_url,omitempty"`
	BalanceMinutes       int       `json:"balance_minutes"`
	AgreedToPersonalData bool      `json:"agreed_to_personal_data"`
	AgreedToTerms        bool      `json:"agreed_to_terms"`
	OnboardingCompleted  bool      `json:"onboarding_completed"`
	CreatedAt            time.Time `json:"created_at"`
}

func toUser(u *models.User) userResponse {
	return userResponse{
		UserID:               u.ID,
		TelegramID:           u.TelegramID,
		Username:             u.Username,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		PhotoURL:             u.PhotoURL,
		BalanceMinutes:       u.BalanceMinutes,
		AgreedToPersonalData: u.AgreedToPersonalData,
		AgreedToTerms:        u.AgreedToTerms,
		OnboardingCompleted:  u.OnboardingCompleted,
		CreatedAt:            u.CreatedAt,
	}
}

type fileResponse struct {
	FileID           string                 `json:"file_id"`
	OriginalFileName string                 `json:"original_file_name"`
	FileSizeBytes    int64                  `json:"file_size_bytes"`
	DurationSeconds  *int                   `json:"duration_seconds"`
	Status           models.AudioFileStatus `json:"status"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func toFile(f *models.AudioFile) fileResponse {
	return fileResponse{
		FileID:           f.ID,
		OriginalFileName: f.OriginalFileName,
		FileSizeBytes:    f.SizeBytes,
		DurationSeconds:  f.DurationSeconds,
		Status:           f.Status,
		ErrorMessage:     f.ErrorMessage,
		CreatedAt:        f.CreatedAt,
	}
}

type transcriptionResponse struct {
	TranscriptionID string                  `json:"transcription_id"`
	FileID          string                  `json:"file_id"`
	Status          models.ProcessingStatus `json:"status"`
	Text            string                  `json:"text,omitempty"`
	SpeakersCount   *int                    `json:"speakers_count,omitempty"`
	Language        string                  `json:"language,omitempty"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toTranscription(t *models.Transcription) transcriptionResponse {
	return transcriptionResponse{
		TranscriptionID: t.ID,
		FileID:          t.FileID,
		Status:          t.Status,
		Text:            t.Text,
		SpeakersCount:   t.SpeakersCount,
		Language:        t.Language,
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type analysisResponse struct {
	AnalysisID      string                  `json:"analysis_id"`
	TranscriptionID string                  `json:"transcription_id"`
	AnalysisType    models.AnalysisType     `json:"analysis_type"`
	Status          models.ProcessingStatus `json:"status"`
	HasDocx         bool                    `json:"has_docx"`
	HasPdf          bool                    `json:"has_pdf"`
	Summary         string                  `json:"summary,omitempty"`
	KeyPoints       []string                `json:"key_points,omitempty"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toAnalysis(a *models.Analysis) analysisResponse {
	return analysisResponse{
		AnalysisID:      a.ID,
		TranscriptionID: a.TranscriptionID,
		AnalysisType:    a.Type,
		Status:          a.Status,
		HasDocx:         a.DocxKey != "",
		HasPdf:          a.PdfKey != "",
		Summary:         a.Summary,
		KeyPoints:       a.KeyPoints,
		ErrorMessage:    a.ErrorMessage,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toAnalyses(list []*models.Analysis) []analysisResponse {
	out := make([]analysisResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAnalysis(a))
	}
	return out
}

type tariffResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Minutes     int     `json:"minutes"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	IsPopular   bool    `json:"is_popular"`
}

type paymentResponse struct {
	PaymentID         string               `json:"payment_id"`
	Amount            float64              `json:"amount"`
	Currency          string               `json:"currency"`
	MinutesAdded      int                  `json:"minutes_added"`
	TariffDescription string               `json:"tariff_description,omitempty"`
	Status            models.PaymentStatus `json:"status"`
	CreatedAt         time.Time            `json:"created_at"`
}

type statsResponse struct {
	BalanceMinutes    int `json:"balance_minutes"`
	UsedMinutes       int `json:"used_minutes"`
	AnalysesCompleted int `json:"analyses_completed"`
	FilesUploaded     int `json:"files_uploaded"`
}

type onboardingResponse struct {
	OnboardingCompleted  bool `json:"onboarding_completed"`
	AgreedToTerms        bool `json:"agreed_to_terms"`
	AgreedToPersonalData bool `json:"agreed_to_personal_data"`
}

type analysisTypeResponse struct {
	Type        models.AnalysisType `json:"type"`
	DisplayName string              `json:"display_name"`
}

type webAppLoginRequest struct {
	InitData string `json:"init_data"`
}

type startAnalysesRequest struct {
	TranscriptionID string   `json:"transcription_id"`
	AnalysisTypes   []string `json:"analysis_types"`
}

type createPaymentRequest struct {
	TariffID string `json:"tariff_id"`
}

type createPaymentResponse struct {
	PaymentID       string `json:"payment_id"`
	ConfirmationURL string `json:"confirmation_url"`
}

type transcriptionCallbackRequest struct {
	FileID            string `json:"file_id"`
	TranscriptionID   string `json:"transcription_id,omitempty"`
	Status            string `json:"status"`
	DurationSeconds   *int   `json:"duration_seconds,omitempty"`
	TranscriptionText string `json:"transcription_text,omitempty"`
	SpeakersCount     *int   `json:"speakers_count,omitempty"`
	LanguageDetected  string `json:"language_detected,omitempty"`
	ErrorMessage      string `json:"error_message,omitempty"`
	CallbackToken     string `json:"callback_token,omitempty"`
}

type analysisCallbackRequest struct {
	AnalysisID      string `json:"analysis_id"`
	Status          string `json:"status"`
	DocxContent     string `json:"docx_content,omitempty"`
	PdfContent      string `json:"pdf_content,omitempty"`
	AnalysisText    string `json:"analysis_text,omitempty"`
	AnalysisSummary string `json:"analysis_summary,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	CallbackToken   string `json:"callback_token,omitempty"`
}

// cents renders minor units as a decimal amount.
func cents(v int64) float64 {
	return float64(v) / 100
}
