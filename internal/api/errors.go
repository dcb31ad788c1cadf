package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/logging"
)

// respondError sends the JSON error body for err. The body always carries a
// human-readable "error" and a machine "code"; client errors also carry their
// details (e.g. the existing record on a conflict). Causes are logged only.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)

	if apperrors.IsSystemError(catErr) {
		logging.FromContext(r.Context()).WithFields(map[string]interface{}{
			"code":     catErr.Code,
			"category": catErr.Category,
		}).WithError(err).Error("Request failed")
	}

	body := map[string]interface{}{
		"error": apperrors.PublicMessage(catErr),
		"code":  catErr.Code,
	}
	if apperrors.IsUserError(catErr) {
		for k, v := range catErr.Details {
			if _, reserved := body[k]; !reserved {
				body[k] = v
			}
		}
	}

	respondJSON(w, catErr.StatusCode, body)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data) // nolint:errcheck // headers already sent
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperrors.NewValidationError("Invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}
	return nil
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, apperrors.NewNotFoundError("Not found"))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "Method not allowed",
		"code":  "METHOD_NOT_ALLOWED",
	})
}
