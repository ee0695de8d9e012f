package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UserHeader carries the caller's user id, set by the authenticating proxy in
// front of the API.
const UserHeader = "X-User-ID"

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserHeader))
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserHeader)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid "+UserHeader)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), userID)))
	})
}
