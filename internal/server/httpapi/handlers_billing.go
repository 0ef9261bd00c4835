package httpapi

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Billing.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, statsResponse{
		BalanceMinutes:    st.BalanceMinutes,
		UsedMinutes:       st.UsedMinutes,
		AnalysesCompleted: st.AnalysesCompleted,
		FilesUploaded:     st.FilesUploaded,
	})
}

func (s *Server) handleTariffs(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Billing.Tariffs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]tariffResponse, 0, len(list))
	for _, t := range list {
		out = append(out, tariffResponse{
			ID:          t.ID,
			Name:        t.Name,
			Minutes:     t.Minutes,
			Price:       cents(t.PriceCents),
			Currency:    t.Currency,
			Description: t.Description,
			IsPopular:   t.IsPopular,
		})
	}
	_ = writeJSON(w, http.StatusOK, map[string]any{"tariffs": out})
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Billing.Payments(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, paymentResponse{
			PaymentID:         p.ID,
			Amount:            cents(p.AmountCents),
			Currency:          p.Currency,
			MinutesAdded:      p.MinutesAdded,
			TariffDescription: p.TariffDescription,
			Status:            p.Status,
			CreatedAt:         p.CreatedAt,
		})
	}
	_ = writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, confirmation, err := s.svc.Billing.CreatePayment(r.Context(), currentUser(r).ID, req.TariffID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, createPaymentResponse{PaymentID: p.ID, ConfirmationURL: confirmation})
}
