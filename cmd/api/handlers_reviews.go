package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/srssieam/DreamDwell-server/review"
)

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reviews, err := s.reviews.List(r.Context(), review.Filter{
		PropertyTitle: q.Get("propertyTitle"),
		ReviewerEmail: q.Get("reviewerEmail"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(reviews, toReviewResponse)})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req review.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.reviews.Create(r.Context(), principal(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(created))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.reviews.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
