package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAnalysisTypes(w http.ResponseWriter, r *http.Request) {
	catalog := s.svc.Analyses.Catalog()
	out := make([]analysisTypeResponse, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, analysisTypeResponse{Type: info.Type, DisplayName: info.DisplayName})
	}
	_ = writeJSON(w, http.StatusOK, map[string]any{"analysis_types": out})
}

func (s *Server) handleStartAnalyses(w http.ResponseWriter, r *http.Request) {
	var req startAnalysesRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Analyses.RequestAnalyses(r.Context(), currentUser(r).ID, req.TranscriptionID, req.AnalysisTypes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toAnalyses(list))
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Analyses.ListAnalyses(r.Context(), currentUser(r).ID, chi.URLParam(r, "transcriptionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toAnalyses(list))
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Analyses.GetAnalysis(r.Context(), currentUser(r).ID, chi.URLParam(r, "analysisID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toAnalysis(a))
}

// handleDownload redirects to a presigned link for the stored document.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	url, err := s.svc.Analyses.DocumentURL(r.Context(), currentUser(r).ID,
		chi.URLParam(r, "analysisID"), chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
