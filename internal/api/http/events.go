package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/homegame/homegame/internal/application/watch"
)

const eventState = "game.state"

// gameEvents streams a game to one watcher. Change events from the hub are
// forwarded as they arrive and also wake a poller that re-reads the game; the
// poller's snapshots go out as state events. The interval refresh covers
// events lost between instances.
func (s *Server) gameEvents(w http.ResponseWriter, r *http.Request) {
	caller, gameID, ok := gameParams(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	if _, err := s.sessionSvc.GetGame(r.Context(), gameID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	userID := caller.String()
	client := s.subscriber.Subscribe(gameID, clientID, &userID)
	defer s.subscriber.Unsubscribe(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	wake := make(chan struct{}, 1)
	states := make(chan *watch.State, 1)
	poller := watch.NewPoller(s.loader, s.pollEvery, s.logger)
	go func() {
		_ = poller.Run(ctx, gameID, wake, watch.NewReducer(), func(st *watch.State) {
			// Only the newest snapshot matters to a slow reader.
			select {
			case <-states:
			default:
			}
			states <- st
		})
	}()

	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			writeEvent(w, msg.ID, msg.Event, msg.Data)
			flusher.Flush()
			select {
			case wake <- struct{}{}:
			default:
			}
		case st := <-states:
			data, err := json.Marshal(st)
			if err != nil {
				s.logger.Warn().Err(err).Str("game_id", gameID.String()).Msg("encode game state failed")
				continue
			}
			writeEvent(w, uuid.NewString(), eventState, data)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, id, event string, data []byte) {
	_, _ = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", id, event, data)
}
