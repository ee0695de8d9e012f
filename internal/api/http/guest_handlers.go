package httpapi

import (
	"net/http"

	"github.com/homegame/homegame/internal/application/ledger"
)

func (s *Server) listGuests(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	guests, err := s.ledgerSvc.ListGuests(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": guests})
}

func (s *Server) addGuest(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	var req ledger.GuestInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	g, err := s.ledgerSvc.AddGuest(r.Context(), gameID, caller, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) updateGuest(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	guestID, err := parseUUIDParam(r, "guestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid guestId")
		return
	}
	var req ledger.GuestInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	g, err := s.ledgerSvc.UpdateGuest(r.Context(), gameID, guestID, caller, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) removeGuest(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	guestID, err := parseUUIDParam(r, "guestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid guestId")
		return
	}
	if err := s.ledgerSvc.RemoveGuest(r.Context(), gameID, guestID, caller); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
