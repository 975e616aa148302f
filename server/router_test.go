package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reppoker/server/chat"
	"reppoker/server/game"
)

type stubStore struct {
	mu    sync.Mutex
	games map[string]*game.Game
}

func newStubStore() *stubStore { return &stubStore{games: map[string]*game.Game{}} }

func (s *stubStore) WithGame(ctx context.Context, gameID string, fn func(*game.Game) (*game.Game, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := fn(s.games[gameID])
	if err != nil {
		return err
	}
	if out != nil {
		s.games[gameID] = out
	}
	return nil
}

type stubMessenger struct {
	mu    sync.Mutex
	posts []chat.Message
}

func (m *stubMessenger) PostMessage(ctx context.Context, msg chat.Message) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, msg)
	return msg.Channel, "1700000000.000001", nil
}

func (m *stubMessenger) PostEphemeral(ctx context.Context, msg chat.Message) error { return nil }

func newTestRouter() (*stubStore, *stubMessenger, http.Handler) {
	st := newStubStore()
	fm := &stubMessenger{}
	eng := game.NewEngine(st, fm, "poker.example.com", false)
	eng.Seed = 1
	return st, fm, Router(nil, eng, fm)
}

func TestHealthEndpoint(t *testing.T) {
	_, _, r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestEventsURLVerification(t *testing.T) {
	_, _, r := newTestRouter()
	body := `{"type":"url_verification","challenge":"abc123"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat/events", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "abc123")
}

func TestCommandRejectsUnknownLeaguePrivately(t *testing.T) {
	st, fm, r := newTestRouter()
	form := url.Values{"user_id": {"u1"}, "channel_id": {"C1"}, "text": {"basket-weaving"}}
	req := httptest.NewRequest(http.MethodPost, "/chat/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"response_type":"ephemeral"`)
	assert.Contains(t, w.Body.String(), "Pick a league")
	assert.Empty(t, fm.posts, "nothing announced")
	assert.Empty(t, st.games, "no state change")
}

func TestCommandStartsGame(t *testing.T) {
	st, fm, r := newTestRouter()
	form := url.Values{"user_id": {"u1"}, "channel_id": {"C1"}, "text": {"push-ups high-stakes"}}
	req := httptest.NewRequest(http.MethodPost, "/chat/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, fm.posts, 1)
	assert.Contains(t, fm.posts[0].Text, "high-stakes")

	require.Len(t, st.games, 1)
	for _, g := range st.games {
		assert.Equal(t, game.StatusPending, g.Status)
		assert.Equal(t, 20, g.Buyin)
		assert.Equal(t, "u1", g.Host)
	}
}

func TestReactionJoinsThroughEvents(t *testing.T) {
	st, fm, r := newTestRouter()

	// Start a game, then react to its announcement.
	form := url.Values{"user_id": {"u1"}, "channel_id": {"C1"}, "text": {"sit-ups"}}
	req := httptest.NewRequest(http.MethodPost, "/chat/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Len(t, fm.posts, 1)

	ev := map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type": "reaction_added",
			"user": "u2",
			"item": map[string]any{"channel": "C1", "ts": "1700000000.000001"},
		},
	}
	raw, _ := json.Marshal(ev)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat/events", strings.NewReader(string(raw))))
	require.Equal(t, http.StatusOK, w.Code)

	g := st.games[game.GameID("C1", "1700000000.000001")]
	require.NotNil(t, g)
	assert.Equal(t, []string{"u2"}, g.Players)
}

func TestInteractIgnoresStaleActions(t *testing.T) {
	_, _, r := newTestRouter()
	payload := map[string]any{
		"type": "block_actions",
		"user": map[string]any{"id": "u9", "name": "frank"},
		"actions": []map[string]any{
			{"action_id": "fold", "value": chat.ActionPayload{GameID: "C1-nope", Player: "u9"}.Encode()},
			{"action_id": "mystery", "value": "{}"},
			{"action_id": "check", "value": "not json"},
		},
	}
	raw, _ := json.Marshal(payload)
	form := url.Values{"payload": {string(raw)}}
	req := httptest.NewRequest(http.MethodPost, "/chat/interact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "stale and malformed actions are swallowed")
}

func TestInteractRejectsBadPayload(t *testing.T) {
	_, _, r := newTestRouter()
	form := url.Values{"payload": {"not json at all"}}
	req := httptest.NewRequest(http.MethodPost, "/chat/interact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
