package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/srssieam/DreamDwell-server/offer"
)

// queryEmail reads an email filter and defaults it to the caller.
func queryEmail(r *http.Request, key string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return principal(r).Email
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req offer.CreateOfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.offers.Create(r.Context(), principal(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferResponse(created))
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.offers.ListForBuyer(r.Context(), principal(r), queryEmail(r, "buyerEmail"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(offers, toOfferResponse)})
}

func (s *Server) handleReceivedOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.offers.ListReceived(r.Context(), principal(r), queryEmail(r, "agentEmail"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(offers, toOfferResponse)})
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offers.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(o))
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offers.Accept(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(o))
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offers.Reject(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(o))
}

type markPaidRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (s *Server) handleMarkOfferPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.offers.MarkPaid(r.Context(), principal(r), chi.URLParam(r, "id"), req.PaymentIntentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(o))
}

type paymentIntentRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	secret, err := s.payments.CreateIntent(r.Context(), principal(r), req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}
