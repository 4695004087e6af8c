package main

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/property"
)

func (s *Server) handleBrowseListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listings.Browse(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(listings, toListingResponse)})
}

func (s *Server) handleVerifiedListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listings.Verified(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(listings, toListingResponse)})
}

func (s *Server) handleAgentListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listings.ByAgent(r.Context(), principal(r), chi.URLParam(r, "email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(listings, toListingResponse)})
}

func (s *Server) handlePurgeAgent(w http.ResponseWriter, r *http.Request) {
	report, err := s.cascade.PurgeAgent(r.Context(), principal(r), chi.URLParam(r, "email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeReport(w, report.OK(), toReportResponse(report))
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req property.CreateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	listing, err := s.listings.Create(r.Context(), principal(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listings.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	var req property.UpdateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	listing, err := s.listings.Update(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := s.listings.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleVerifyListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listings.Verify(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (s *Server) handleRejectListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listings.Reject(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, apperr.Invalid("multipart field file is required: %v", err))
		return
	}
	defer file.Close()

	listing, err := s.listings.AttachPhoto(r.Context(), principal(r), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// handleGetPhoto buffers the photo so a failed download can still produce a
// JSON error instead of a truncated body.
func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.listings.StreamPhoto(r.Context(), principal(r), chi.URLParam(r, "id"), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(buf.Bytes()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log().WarnContext(r.Context(), "photo write interrupted", slog.Any("error", err))
	}
}

type advertiseRequest struct {
	PropertyID string `json:"propertyId"`
}

func (s *Server) handleCreateAdvertisement(w http.ResponseWriter, r *http.Request) {
	var req advertiseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ad, err := s.listings.Advertise(r.Context(), principal(r), req.PropertyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdvertisementResponse(ad))
}

func (s *Server) handleListAdvertisements(w http.ResponseWriter, r *http.Request) {
	ads, err := s.listings.Advertisements(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": mapSlice(ads, toAdvertisementResponse)})
}

func (s *Server) handleDeleteAdvertisement(w http.ResponseWriter, r *http.Request) {
	if err := s.listings.RemoveAdvertisement(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
