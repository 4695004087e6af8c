package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/srssieam/DreamDwell-server/wishlist"
)

func (s *Server) handleAddWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlist.AddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.wishlist.Add(r.Context(), principal(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWishlistResponse(entry))
}

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.wishlist.List(r.Context(), principal(r), queryEmail(r, "buyerEmail"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(entries, toWishlistResponse)})
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	entry, err := s.wishlist.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWishlistResponse(entry))
}

func (s *Server) handleRemoveWishlist(w http.ResponseWriter, r *http.Request) {
	if err := s.wishlist.Remove(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
