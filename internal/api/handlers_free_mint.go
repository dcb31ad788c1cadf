package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// handleFreeMintStatus handles GET /free-mint-status/{wallet_address}
func (s *Server) handleFreeMintStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.freeMint.GetStatus(r.Context(), mux.Vars(r)["wallet_address"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// handleFreeMintPoolTxn handles POST /free-mint-pool-txn
func (s *Server) handleFreeMintPoolTxn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Txn string `json:"txn"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	group, err := s.freeMint.BuildSponsoredGroup(r.Context(), req.Txn)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// handleFreeMintSubmit handles POST /free-mint-submit
func (s *Server) handleFreeMintSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Group []string `json:"group"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ctx := r.Context()
	if s.config.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SubmitTimeout)
		defer cancel()
	}

	result, err := s.freeMint.SubmitGroup(ctx, req.Group)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
