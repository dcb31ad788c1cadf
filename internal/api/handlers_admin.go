package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/service"
)

// handleAdminLogin handles POST /admin-login. The token is returned in the
// body and set as an HTTP-only cookie.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(s.auth.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, result)
}

// handleGetSettings handles GET /admin/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings handles PATCH /admin/settings
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsPaused         *bool        `json:"is_paused"`
		MaxPrintRequests *json.Number `json:"max_print_requests"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	input := service.UpdateSettingsInput{IsPaused: req.IsPaused}
	if req.MaxPrintRequests != nil {
		limit, err := req.MaxPrintRequests.Int64()
		if err != nil || limit > int64(^uint32(0)>>1) {
			respondError(w, r, apperrors.NewValidationError("max_print_requests must be a number greater than or equal to 1"))
			return
		}
		n := int(limit)
		input.MaxPrintRequests = &n
	}

	settings, err := s.settings.Update(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// handleBoothStatus handles GET /booth-status
func (s *Server) handleBoothStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.settings.BoothStatus(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
