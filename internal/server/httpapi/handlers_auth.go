package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/server/identity"
	"github.com/dmitrijs2005/vat/internal/server/services"
)

const serviceVersion = "1.0.0"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "VAT API is running",
		"version": serviceVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func clientMeta(r *http.Request) services.ClientMeta {
	// RealIP has already replaced RemoteAddr with the forwarded address.
	return services.ClientMeta{UserAgent: r.UserAgent(), IPAddress: r.RemoteAddr}
}

func (s *Server) handleTelegramLogin(w http.ResponseWriter, r *http.Request) {
	var d identity.LoginData
	if err := parseJSON(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, sess, err := s.svc.Auth.LoginWidget(r.Context(), d, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	_ = writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) handleTelegramWebApp(w http.ResponseWriter, r *http.Request) {
	var req webAppLoginRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, sess, err := s.svc.Auth.LoginWebApp(r.Context(), req.InitData, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	_ = writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		if err := s.svc.Auth.CloseSession(r.Context(), c.Value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	_ = writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, toUser(currentUser(r)))
}

func (s *Server) handleOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	_ = writeJSON(w, http.StatusOK, onboardingResponse{
		OnboardingCompleted:  u.OnboardingCompleted,
		AgreedToTerms:        u.AgreedToTerms,
		AgreedToPersonalData: u.AgreedToPersonalData,
	})
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Auth.CompleteOnboarding(r.Context(), currentUser(r).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "onboarding completed"})
}
