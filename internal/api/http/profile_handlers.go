package httpapi

import (
	"net/http"

	"github.com/homegame/homegame/internal/domain/profile"
)

type ensureProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Handle      *string `json:"handle"`
	Public      *bool   `json:"public"`
}

// ensureProfile creates the caller's profile on first sign-in.
func (s *Server) ensureProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req ensureProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	p, err := s.profileSvc.Ensure(r.Context(), caller, req.Name, req.Email)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	p, err := s.profileSvc.Get(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if caller, _ := callerFromContext(r.Context()); caller != userID {
		p.Email = nil
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	var req updateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	p, err := s.profileSvc.Update(r.Context(), caller, userID, profile.Update{
		DisplayName: req.DisplayName,
		Handle:      req.Handle,
		Public:      req.Public,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) getProfileSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	points, err := s.profileSvc.Series(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": points})
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.profileSvc.Leaderboard(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": entries})
}
