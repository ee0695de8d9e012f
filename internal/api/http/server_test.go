package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homegame/homegame/internal/application/ledger"
	"github.com/homegame/homegame/internal/application/payout"
	appProfile "github.com/homegame/homegame/internal/application/profile"
	"github.com/homegame/homegame/internal/application/session"
	"github.com/homegame/homegame/internal/application/watch"
	"github.com/homegame/homegame/internal/domain/game"
	"github.com/homegame/homegame/internal/domain/profile"
	"github.com/homegame/homegame/internal/infrastructure/sqlite"
	"github.com/homegame/homegame/internal/infrastructure/sse"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	hub := sse.NewHub(logger)
	t.Cleanup(hub.Stop)
	resolver := profile.NewRepositoryResolver(store.Profiles())

	srv := NewServer(
		session.NewService(store, resolver, hub, session.NewRecorder(logger), 6, logger),
		ledger.NewService(store, resolver, hub, logger),
		payout.NewService(store, resolver, logger),
		appProfile.NewService(store, nil, logger),
		watch.NewStoreLoader(store, resolver),
		hub,
		time.Hour,
		logger,
	)
	return srv.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, caller uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != uuid.Nil {
		req.Header.Set(UserHeader, caller.String())
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_GameLifecycle(t *testing.T) {
	h := newTestServer(t)
	host, alice := uuid.New(), uuid.New()

	rec := doJSON(t, h, http.MethodPost, "/v1/games", host, map[string]string{"description": "Friday"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := decode[game.Game](t, rec)
	base := "/v1/games/" + g.ID.String()

	rec = doJSON(t, h, http.MethodPost, "/v1/games/join", alice, map[string]string{"code": strings.ToUpper(g.ShortCode)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, game.ParticipantPending, decode[game.Participant](t, rec).Status)

	rec = doJSON(t, h, http.MethodPut, base+"/participants/"+alice.String()+"/requested", alice, map[string]float64{"cashIn": 20, "cashOut": 50})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, base+"/participants/"+alice.String()+"/approve", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/participants/"+alice.String()+"/approve", host, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[game.Participant](t, rec)
	assert.Equal(t, 50.0, approved.CashOut())

	rec = doJSON(t, h, http.MethodPut, base+"/participants/"+host.String()+"/confirmed", host, map[string]float64{"cashIn": 30, "cashOut": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, base+"/guests", host, map[string]interface{}{"name": "Sam", "cashIn": 10, "cashOut": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, base+"/payout", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var payoutBody struct {
		Slippage float64 `json:"slippage"`
		Players  []struct {
			Name string  `json:"name"`
			Net  float64 `json:"net"`
		} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payoutBody))
	assert.Len(t, payoutBody.Players, 3)
	assert.InDelta(t, 0, payoutBody.Slippage, 1e-9)

	rec = doJSON(t, h, http.MethodPost, base+"/close", host, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = doJSON(t, h, http.MethodPut, base+"/participants/"+alice.String()+"/requested", alice, map[string]float64{"cashIn": 1, "cashOut": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/end", host, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, base+"/history", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Items []json.RawMessage `json:"items"`
	}](t, rec)
	assert.Len(t, history.Items, 1)

	rec = doJSON(t, h, http.MethodGet, "/v1/profiles/"+alice.String(), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 30.0, decode[profile.Profile](t, rec).NetProfit)

	rec = doJSON(t, h, http.MethodGet, "/v1/leaderboard", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[struct {
		Items []appProfile.LeaderboardEntry `json:"items"`
	}](t, rec)
	require.Len(t, board.Items, 2)
	assert.Equal(t, alice, board.Items[0].UserID)

	rec = doJSON(t, h, http.MethodGet, base+"/standings", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, base+"/state", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[watch.State](t, rec)
	assert.Equal(t, game.StatusEnded, state.Game.Status)
	assert.Len(t, state.Participants, 2)
}

func TestServer_ErrorMapping(t *testing.T) {
	h := newTestServer(t)
	host := uuid.New()

	rec := doJSON(t, h, http.MethodGet, "/v1/games", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.Header.Set(UserHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/games/"+uuid.NewString(), host, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/games/nope", host, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/games", host, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := decode[game.Game](t, rec)
	base := "/v1/games/" + g.ID.String()

	rec = doJSON(t, h, http.MethodPost, base+"/end", host, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/reopen", host, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/participants/"+host.String()+"/requested/rake/approve", host, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPut, base+"/participants/"+host.String()+"/confirmed", host, map[string]float64{"cashIn": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/transfer-host", host, map[string]string{"userId": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/v1/profiles/"+uuid.NewString(), host, map[string]string{"displayName": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/healthz", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_GameEventsStream(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t))
	t.Cleanup(ts.Close)
	host := uuid.New()

	createReq, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/games", strings.NewReader(`{}`))
	require.NoError(t, err)
	createReq.Header.Set(UserHeader, host.String())
	resp, err := http.DefaultClient.Do(createReq)
	require.NoError(t, err)
	var g game.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/games/"+g.ID.String()+"/events", nil)
	require.NoError(t, err)
	streamReq.Header.Set(UserHeader, host.String())
	stream, err := http.DefaultClient.Do(streamReq)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	waitFor := func(event string) {
		t.Helper()
		for lines.Scan() {
			if lines.Text() == "event: "+event {
				return
			}
		}
		t.Fatalf("stream ended before %s: %v", event, lines.Err())
	}
	waitFor(eventState)

	closeReq, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/games/"+g.ID.String()+"/close", nil)
	require.NoError(t, err)
	closeReq.Header.Set(UserHeader, host.String())
	resp, err = http.DefaultClient.Do(closeReq)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	waitFor("game.changed")
	waitFor(eventState)
}
