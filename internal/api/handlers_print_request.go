package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/types"
)

// handleCreatePrintRequest handles POST /print-request
func (s *Server) handleCreatePrintRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string           `json:"wallet_address"`
		AssetID       types.AssetID    `json:"asset_id"`
		TShirtSize    types.TShirtSize `json:"tshirt_size"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	pr, err := s.printRequests.Create(r.Context(), service.CreatePrintRequestInput{
		WalletAddress: req.WalletAddress,
		AssetID:       req.AssetID,
		TShirtSize:    req.TShirtSize,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, pr)
}

// handleCheckPrintRequest handles GET /check-print-request/{wallet_address}
func (s *Server) handleCheckPrintRequest(w http.ResponseWriter, r *http.Request) {
	pr, err := s.printRequests.GetByWallet(r.Context(), mux.Vars(r)["wallet_address"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pr)
}

// handleListPrintRequests handles GET /print-request - public list, newest first
func (s *Server) handleListPrintRequests(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageParams(r)

	result, err := s.printRequests.ListPublic(r.Context(), page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleAdminListPrintRequests handles GET /admin/print-request - oldest first, optional status filter
func (s *Server) handleAdminListPrintRequests(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageParams(r)

	result, err := s.printRequests.ListAdmin(r.Context(), page, limit, r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleUpdatePrintRequestStatus handles PATCH /print-request/{id}
func (s *Server) handleUpdatePrintRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Status) == "" {
		respondError(w, r, apperrors.NewValidationError("status is required"))
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, r, apperrors.NewValidationError("Invalid ID format"))
		return
	}

	pr, err := s.printRequests.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pr)
}

// parsePageParams reads page and limit query parameters. Missing or
// non-numeric values read as zero, which the service treats as "use default".
func parsePageParams(r *http.Request) (page, limit int) {
	query := r.URL.Query()
	page, _ = strconv.Atoi(query.Get("page"))
	limit, _ = strconv.Atoi(query.Get("limit"))
	return page, limit
}
