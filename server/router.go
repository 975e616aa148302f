package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reppoker/server/chat"
	"reppoker/server/game"
	"reppoker/server/store"
)

func Router(db *store.DB, eng *game.Engine, messenger chat.Messenger) http.Handler {
	r := chi.NewRouter()
	// A panic is a programming fault in a single operation; everything
	// committed before it stays committed.
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Get("/api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		g, err := db.LoadGame(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no such game", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, g)
	})

	// Slash command: `/poker <league> [high-stakes]` or `/poker stats [n]`.
	r.Post("/chat/command", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		userID := r.FormValue("user_id")
		channel := r.FormValue("channel_id")
		fields := strings.Fields(r.FormValue("text"))

		if len(fields) == 0 {
			respondEphemeral(w, startHint())
			return
		}

		if strings.EqualFold(fields[0], "stats") {
			n := 10
			if len(fields) > 1 {
				n = atoiDef(fields[1], 0)
				if n <= 0 {
					respondEphemeral(w, "Usage: stats <number of games>")
					return
				}
			}
			games, err := db.RecentCompleted(ctx, n)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if _, _, err := messenger.PostMessage(ctx, chat.Message{Channel: channel, Text: buildStatsReport(games)}); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		league := fields[0]
		highStakes := false
		for _, f := range fields[1:] {
			if strings.EqualFold(f, "high-stakes") {
				highStakes = true
			}
		}

		if _, err := eng.StartGame(ctx, userID, channel, league, highStakes); err != nil {
			if errors.Is(err, game.ErrUnknownLeague) {
				respondEphemeral(w, startHint())
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Event callbacks: reacting to the announcement joins the table.
	r.Post("/chat/events", func(w http.ResponseWriter, r *http.Request) {
		var ev struct {
			Type      string `json:"type"`
			Challenge string `json:"challenge"`
			Event     struct {
				Type string `json:"type"`
				User string `json:"user"`
				Item struct {
					Channel string `json:"channel"`
					TS      string `json:"ts"`
				} `json:"item"`
			} `json:"event"`
		}
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "bad event", http.StatusBadRequest)
			return
		}
		switch ev.Type {
		case "url_verification":
			writeJSON(w, map[string]string{"challenge": ev.Challenge})
			return
		case "event_callback":
			if ev.Event.Type == "reaction_added" {
				id := game.GameID(ev.Event.Item.Channel, ev.Event.Item.TS)
				if err := eng.HandleJoin(r.Context(), id, ev.Event.User); err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Interactive block actions: the five bet buttons plus resend.
	r.Post("/chat/interact", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		var cb struct {
			Type string `json:"type"`
			User struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"user"`
			Actions []struct {
				ActionID string `json:"action_id"`
				Value    string `json:"value"`
			} `json:"actions"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &cb); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		name := cb.User.Name
		if name == "" {
			name = cb.User.ID
		}
		for _, a := range cb.Actions {
			p, err := chat.DecodeActionPayload(a.Value)
			if err != nil {
				log.Printf("interact: undecodable value for %s: %v", a.ActionID, err)
				continue
			}
			var actErr error
			switch a.ActionID {
			case "check":
				actErr = eng.HandleCheck(r.Context(), name, p)
			case "raise":
				actErr = eng.HandleRaise(r.Context(), name, p, 1)
			case "double":
				actErr = eng.HandleRaise(r.Context(), name, p, 2)
			case "triple":
				actErr = eng.HandleRaise(r.Context(), name, p, 3)
			case "fold":
				actErr = eng.HandleFold(r.Context(), name, p)
			case "resend":
				actErr = eng.HandleResend(r.Context(), cb.User.ID, p)
			default:
				log.Printf("interact: unknown action id %q", a.ActionID)
			}
			if actErr != nil {
				http.Error(w, actErr.Error(), http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func startHint() string {
	return fmt.Sprintf(
		"Pick a league to start a game: %s (or `random`). Add `high-stakes` to double the buy-in, or `stats <n>` for recent results.",
		strings.Join(game.LeagueNames(), ", "))
}

// respondEphemeral answers a slash command privately, with no state change.
func respondEphemeral(w http.ResponseWriter, text string) {
	writeJSON(w, map[string]string{"response_type": "ephemeral", "text": text})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}
