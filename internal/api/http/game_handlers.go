package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/domain/game"
)

type createGameRequest struct {
	Description string `json:"description"`
}

type joinByCodeRequest struct {
	Code string `json:"code"`
}

type transferHostRequest struct {
	UserID uuid.UUID `json:"userId"`
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req createGameRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
	}
	g, err := s.sessionSvc.CreateGame(r.Context(), caller, req.Description)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	games, err := s.sessionSvc.ListGamesForUser(r.Context(), caller)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": games})
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	g, err := s.sessionSvc.GetGame(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// getGameState returns the game, its participants and guests in one read.
func (s *Server) getGameState(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	state, err := s.loader.Load(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) joinByCode(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return
	}
	var req joinByCodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	p, err := s.ledgerSvc.RequestJoinByCode(r.Context(), req.Code, caller)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) joinGame(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	p, err := s.ledgerSvc.RequestJoin(r.Context(), gameID, caller)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) closeGame(w http.ResponseWriter, r *http.Request) {
	s.transitionGame(w, r, s.sessionSvc.Close)
}

func (s *Server) reopenGame(w http.ResponseWriter, r *http.Request) {
	s.transitionGame(w, r, s.sessionSvc.Reopen)
}

func (s *Server) transitionGame(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, gameID, caller uuid.UUID) (*game.Game, error)) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	g, err := apply(r.Context(), gameID, caller)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) endGame(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	result, err := s.sessionSvc.End(r.Context(), gameID, caller)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) transferHost(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	var req transferHostRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}
	g, err := s.sessionSvc.TransferHost(r.Context(), gameID, caller, req.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) getPayout(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	p, err := s.payoutSvc.Payout(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	sessions, err := s.payoutSvc.History(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": sessions})
}

func (s *Server) getStandings(w http.ResponseWriter, r *http.Request) {
	_, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	standings, err := s.payoutSvc.Standings(r.Context(), gameID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": standings})
}

func (s *Server) getGameSeries(w http.ResponseWriter, r *http.Request) {
	_, gameID, userID, ok := participantParams(w, r)
	if !ok {
		return
	}
	series, err := s.payoutSvc.UserSeries(r.Context(), gameID, userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}
