package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/game"
)

type amountsRequest struct {
	CashIn  *float64 `json:"cashIn"`
	CashOut *float64 `json:"cashOut"`
}

func (req amountsRequest) values() (float64, float64, bool) {
	if req.CashIn == nil || req.CashOut == nil {
		return 0, 0, false
	}
	return *req.CashIn, *req.CashOut, true
}

func (s *Server) listParticipants(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	participants, err := s.ledgerSvc.ListParticipants(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": participants})
}

func (s *Server) setRequested(w http.ResponseWriter, r *http.Request) {
	s.setAmounts(w, r, s.ledgerSvc.SetRequestedAmounts)
}

func (s *Server) setConfirmed(w http.ResponseWriter, r *http.Request) {
	s.setAmounts(w, r, s.ledgerSvc.SetConfirmedAmounts)
}

type amountsFunc func(ctx context.Context, gameID, userID, caller uuid.UUID, cashIn, cashOut float64) (*game.Participant, error)

func (s *Server) setAmounts(w http.ResponseWriter, r *http.Request, apply amountsFunc) {
	caller, gameID, userID, ok := participantParams(w, r)
	if !ok {
		return
	}
	var req amountsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	cashIn, cashOut, ok := req.values()
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "cashIn and cashOut required")
		return
	}
	p, err := apply(r.Context(), gameID, userID, caller, cashIn, cashOut)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type participantFunc func(ctx context.Context, gameID, userID, caller uuid.UUID) (*game.Participant, error)

func (s *Server) participantAction(apply participantFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, gameID, userID, ok := participantParams(w, r)
		if !ok {
			return
		}
		p, err := apply(r.Context(), gameID, userID, caller)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

func (s *Server) approveParticipant(w http.ResponseWriter, r *http.Request) {
	s.participantAction(s.ledgerSvc.Approve)(w, r)
}

func (s *Server) denyParticipant(w http.ResponseWriter, r *http.Request) {
	s.participantAction(s.ledgerSvc.Deny)(w, r)
}

func (s *Server) kickParticipant(w http.ResponseWriter, r *http.Request) {
	s.participantAction(s.ledgerSvc.Kick)(w, r)
}

func (s *Server) rejoinParticipant(w http.ResponseWriter, r *http.Request) {
	s.participantAction(s.ledgerSvc.RequestRejoin)(w, r)
}

type deltaFunc func(ctx context.Context, gameID, userID uuid.UUID, field game.Field, caller uuid.UUID) (*game.Participant, error)

func (s *Server) applyDelta(w http.ResponseWriter, r *http.Request, apply deltaFunc) {
	caller, gameID, userID, ok := participantParams(w, r)
	if !ok {
		return
	}
	field, err := game.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	p, err := apply(r.Context(), gameID, userID, field, caller)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) approveDelta(w http.ResponseWriter, r *http.Request) {
	s.applyDelta(w, r, s.ledgerSvc.ApproveRequestedDelta)
}

func (s *Server) rejectDelta(w http.ResponseWriter, r *http.Request) {
	s.applyDelta(w, r, s.ledgerSvc.RejectRequestedDelta)
}
