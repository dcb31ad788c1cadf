package api

import (
	"net/http"
	"strings"

	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/logging"
)

// AdminCookieName is the cookie the admin token is delivered in
const AdminCookieName = "admin_token"

// requireAdmin rejects requests without a valid admin token. The token is
// read from an "Authorization: Bearer" header, or from the admin cookie when
// no Authorization header is sent.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := adminToken(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		claims, err := s.auth.Authenticate(token)
		if err != nil {
			respondError(w, r, err)
			return
		}

		ctx := logging.WithLogger(r.Context(), logging.FromContext(r.Context()).WithField("role", claims.Role))
		next(w, r.WithContext(ctx))
	}
}

func adminToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return "", apperrors.NewUnauthorizedError("Unauthorized: No token provided")
		}
		return strings.TrimSpace(header[len(prefix):]), nil
	}

	if cookie, err := r.Cookie(AdminCookieName); err == nil {
		return cookie.Value, nil
	}

	return "", nil
}
