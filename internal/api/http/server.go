package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/application/ledger"
	"github.com/homegame/homegame/internal/application/payout"
	appProfile "github.com/homegame/homegame/internal/application/profile"
	"github.com/homegame/homegame/internal/application/session"
	"github.com/homegame/homegame/internal/application/watch"
	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/notification"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessionSvc *session.Service
	ledgerSvc  *ledger.Service
	payoutSvc  *payout.Service
	profileSvc *appProfile.Service
	loader     watch.Loader
	subscriber notification.Subscriber
	pollEvery  time.Duration
	logger     zerolog.Logger
}

func NewServer(
	sessionSvc *session.Service,
	ledgerSvc *ledger.Service,
	payoutSvc *payout.Service,
	profileSvc *appProfile.Service,
	loader watch.Loader,
	subscriber notification.Subscriber,
	pollEvery time.Duration,
	logger zerolog.Logger,
) *Server {
	return &Server{
		sessionSvc: sessionSvc,
		ledgerSvc:  ledgerSvc,
		payoutSvc:  payoutSvc,
		profileSvc: profileSvc,
		loader:     loader,
		subscriber: subscriber,
		pollEvery:  pollEvery,
		logger:     logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireUser)

		// The event stream is long-lived and must not inherit the request timeout.
		r.Get("/games/{gameId}/events", s.gameEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Route("/games", func(r chi.Router) {
				r.Post("/", s.createGame)
				r.Get("/", s.listGames)
				r.Post("/join", s.joinByCode)

				r.Route("/{gameId}", func(r chi.Router) {
					r.Get("/", s.getGame)
					r.Get("/state", s.getGameState)
					r.Post("/join", s.joinGame)
					r.Post("/close", s.closeGame)
					r.Post("/reopen", s.reopenGame)
					r.Post("/end", s.endGame)
					r.Post("/transfer-host", s.transferHost)

					r.Get("/payout", s.getPayout)
					r.Get("/history", s.getHistory)
					r.Get("/standings", s.getStandings)
					r.Get("/series/{userId}", s.getGameSeries)

					r.Route("/participants", func(r chi.Router) {
						r.Get("/", s.listParticipants)
						r.Route("/{userId}", func(r chi.Router) {
							r.Put("/requested", s.setRequested)
							r.Put("/confirmed", s.setConfirmed)
							r.Post("/approve", s.approveParticipant)
							r.Post("/deny", s.denyParticipant)
							r.Post("/kick", s.kickParticipant)
							r.Post("/rejoin", s.rejoinParticipant)
							r.Post("/requested/{field}/approve", s.approveDelta)
							r.Post("/requested/{field}/reject", s.rejectDelta)
						})
					})

					r.Route("/guests", func(r chi.Router) {
						r.Get("/", s.listGuests)
						r.Post("/", s.addGuest)
						r.Put("/{guestId}", s.updateGuest)
						r.Delete("/{guestId}", s.removeGuest)
					})
				})
			})

			r.Get("/leaderboard", s.getLeaderboard)

			r.Route("/profiles", func(r chi.Router) {
				r.Post("/", s.ensureProfile)
				r.Get("/{userId}", s.getProfile)
				r.Put("/{userId}", s.updateProfile)
				r.Get("/{userId}/series", s.getProfileSeries)
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps a service error kind onto its HTTP status.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, game.ErrNotAuthorized):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, game.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, game.ErrInvalidState):
		respondError(w, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, game.ErrConflict):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, game.ErrInsufficientParticipants):
		respondError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_PARTICIPANTS", err.Error())
	case errors.Is(err, game.ErrMappingFailure):
		respondError(w, http.StatusUnprocessableEntity, "MAPPING_FAILURE", err.Error())
	default:
		s.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// gameParams reads the caller and the gameId path parameter, writing the
// error response itself when either is missing.
func gameParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller")
		return uuid.Nil, uuid.Nil, false
	}
	gameID, err := parseUUIDParam(r, "gameId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid gameId")
		return uuid.Nil, uuid.Nil, false
	}
	return caller, gameID, true
}

// participantParams extends gameParams with the userId path parameter.
func participantParams(w http.ResponseWriter, r *http.Request) (caller, gameID, userID uuid.UUID, ok bool) {
	caller, gameID, ok = gameParams(w, r)
	if !ok {
		return
	}
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return caller, gameID, uuid.Nil, false
	}
	return caller, gameID, userID, true
}
