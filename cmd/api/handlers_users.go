package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.identities.Login(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, s.sessionCookie(result.Token, result.Claim.ExpiresAt))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     result.Token,
		"expiresAt": formatTime(result.Claim.ExpiresAt),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie := s.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// sessionCookie mirrors the browser client's expectations: HttpOnly and
// cross-site when served over TLS.
func (s *Server) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cookieSecure {
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity, created, err := s.identities.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toIdentityResponse(identity))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	identities, err := s.identities.List(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": mapSlice(identities, toIdentityResponse),
		"total": len(identities),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

func (s *Server) handleAdminCheck(w http.ResponseWriter, r *http.Request) {
	admin, err := s.identities.IsAdmin(r.Context(), principal(r), chi.URLParam(r, "email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"admin": admin})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// handleSetRole promotes an identity, or runs the fraud cascade when the
// requested role is fraud.
func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if role == access.RoleFraud {
		report, err := s.cascade.MarkFraud(r.Context(), principal(r), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeReport(w, report.OK(), toReportResponse(report))
		return
	}

	identity, err := s.identities.SetRole(r.Context(), principal(r), id, role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// writeReport returns a cascade report; a partially failed cascade is a 500
// that still carries every step outcome.
func (s *Server) writeReport(w http.ResponseWriter, ok bool, report reportResponse) {
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, report)
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.writeError(w, r, apperr.Invalid("identity id is required"))
		return
	}
	if err := s.identities.Remove(r.Context(), principal(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
