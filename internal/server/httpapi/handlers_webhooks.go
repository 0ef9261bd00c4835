package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/vat/internal/server/services"
)

// CallbackTokenHeader carries the callback token; a callback_token body
// field is accepted as well.
const CallbackTokenHeader = "X-Callback-Token"

func callbackToken(r *http.Request, body string) string {
	if h := r.Header.Get(CallbackTokenHeader); h != "" {
		return h
	}
	return body
}

func (s *Server) handleTranscriptionCallback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxCallbackBytes)
	var req transcriptionCallbackRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, err := s.svc.Webhooks.ReconcileTranscription(r.Context(), services.TranscriptionCallback{
		FileID:          req.FileID,
		TranscriptionID: req.TranscriptionID,
		Status:          req.Status,
		DurationSeconds: req.DurationSeconds,
		Text:            req.TranscriptionText,
		SpeakersCount:   req.SpeakersCount,
		Language:        req.LanguageDetected,
		ErrorMessage:    req.ErrorMessage,
		Token:           callbackToken(r, req.CallbackToken),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "transcription status updated"})
}

func (s *Server) handleAnalysisCallback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxCallbackBytes)
	var req analysisCallbackRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, err := s.svc.Webhooks.ReconcileAnalysis(r.Context(), services.AnalysisCallback{
		AnalysisID:   req.AnalysisID,
		Status:       req.Status,
		DocxContent:  req.DocxContent,
		PdfContent:   req.PdfContent,
		Text:         req.AnalysisText,
		Summary:      req.AnalysisSummary,
		ErrorMessage: req.ErrorMessage,
		Token:        callbackToken(r, req.CallbackToken),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "analysis status updated"})
}
