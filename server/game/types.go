package game

import (
	"fmt"
	"strings"

	"reppoker/server/engine"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// Phase is one betting round. Phases run strictly in this order; endgame is
// reached when river completes (or earlier, when a fold leaves one player).
type Phase string

const (
	PhaseOpening Phase = "opening"
	PhaseFlop    Phase = "flop"
	PhaseTurn    Phase = "turn"
	PhaseRiver   Phase = "river"
)

var phaseOrder = [...]Phase{PhaseOpening, PhaseFlop, PhaseTurn, PhaseRiver}

// Game is the persisted record for one hand, stored as a single JSON
// document keyed by game id. Field names are the document's wire names.
type Game struct {
	Status   Status            `json:"status"`
	Channel  string            `json:"channel"`
	ThreadTS string            `json:"thread_ts"`
	Host     string            `json:"host"`
	Players  []string          `json:"players"`
	Handles  map[string]string `json:"handles"`
	Labels   map[string]string `json:"player_labels"`
	League   string            `json:"league"`
	Buyin    int               `json:"buyin"`
	DevMode  bool              `json:"dev_mode"`

	Hands map[string][]engine.Card `json:"hands"`
	Flop  []engine.Card            `json:"flop"`
	Turn  engine.Card              `json:"turn"`
	River engine.Card              `json:"river"`

	Bets       map[string]int `json:"bets"`
	CurrentBet int            `json:"current_bet"`
	Folded     []string       `json:"folded"`

	OpeningComplete  bool `json:"opening_complete"`
	OpeningIdx       int  `json:"opening_idx"`
	OpeningRoundTrip bool `json:"opening_round_trip"`
	FlopComplete     bool `json:"flop_complete"`
	FlopIdx          int  `json:"flop_idx"`
	FlopRoundTrip    bool `json:"flop_round_trip"`
	TurnComplete     bool `json:"turn_complete"`
	TurnIdx          int  `json:"turn_idx"`
	TurnRoundTrip    bool `json:"turn_round_trip"`
	RiverComplete    bool `json:"river_complete"`
	RiverIdx         int  `json:"river_idx"`
	RiverRoundTrip   bool `json:"river_round_trip"`

	CurrentPlayer string   `json:"current_player"`
	Winners       []string `json:"winners"`
}

// progress exposes one phase's tracking triple. Unknown phases are a
// programming fault.
type progress struct {
	Complete  *bool
	Idx       *int
	RoundTrip *bool
}

func (g *Game) progressFor(p Phase) progress {
	switch p {
	case PhaseOpening:
		return progress{&g.OpeningComplete, &g.OpeningIdx, &g.OpeningRoundTrip}
	case PhaseFlop:
		return progress{&g.FlopComplete, &g.FlopIdx, &g.FlopRoundTrip}
	case PhaseTurn:
		return progress{&g.TurnComplete, &g.TurnIdx, &g.TurnRoundTrip}
	case PhaseRiver:
		return progress{&g.RiverComplete, &g.RiverIdx, &g.RiverRoundTrip}
	}
	panic(fmt.Sprintf("unknown phase %q", p))
}

// currentPhase picks the first incomplete phase, or false once all four are
// settled (the endgame).
func (g *Game) currentPhase() (Phase, bool) {
	for _, p := range phaseOrder {
		if !*g.progressFor(p).Complete {
			return p, true
		}
	}
	return "", false
}

func (g *Game) IsFolded(player string) bool {
	for _, p := range g.Folded {
		if p == player {
			return true
		}
	}
	return false
}

// ActivePlayers returns the unfolded players in seating order.
func (g *Game) ActivePlayers() []string {
	var out []string
	for _, p := range g.Players {
		if !g.IsFolded(p) {
			out = append(out, p)
		}
	}
	return out
}

func (g *Game) HasPlayer(player string) bool {
	for _, p := range g.Players {
		if p == player {
			return true
		}
	}
	return false
}

// LabelFor is the display name recorded on the player's first action,
// falling back to the player id.
func (g *Game) LabelFor(player string) string {
	if l, ok := g.Labels[player]; ok {
		return l
	}
	return player
}

// HoleCardText renders a player's hole cards for chat.
func (g *Game) HoleCardText(player string) string {
	parts := make([]string, 0, 2)
	for _, c := range g.Hands[player] {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, "  ")
}

// VisibleCommunity lists community cards revealed so far, in reveal order.
func (g *Game) VisibleCommunity() []engine.Card {
	var out []engine.Card
	if g.OpeningComplete {
		out = append(out, g.Flop...)
	}
	if g.FlopComplete {
		out = append(out, g.Turn)
	}
	if g.TurnComplete {
		out = append(out, g.River)
	}
	return out
}

// SevenFor is the player's full 7-card hand for showdown scoring.
func (g *Game) SevenFor(player string) []engine.Card {
	out := make([]engine.Card, 0, 7)
	out = append(out, g.Hands[player]...)
	out = append(out, g.Flop...)
	out = append(out, g.Turn, g.River)
	return out
}

func cardText(cs []engine.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, "  ")
}
