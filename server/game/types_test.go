package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reppoker/server/engine"
)

func TestGameDocumentFieldNames(t *testing.T) {
	g := Game{Status: StatusPending, OpeningIdx: -1, FlopIdx: -1, TurnIdx: -1, RiverIdx: -1}
	doc, err := json.Marshal(&g)
	require.NoError(t, err)

	for _, field := range []string{
		`"status":"pending"`,
		`"current_bet"`,
		`"player_labels"`,
		`"thread_ts"`,
		`"opening_complete"`,
		`"opening_idx":-1`,
		`"opening_round_trip"`,
		`"flop_idx":-1`,
		`"turn_idx":-1`,
		`"river_idx":-1`,
		`"current_player"`,
	} {
		assert.Contains(t, string(doc), field)
	}

	var back Game
	require.NoError(t, json.Unmarshal(doc, &back))
	assert.Equal(t, g, back)
}

func TestCurrentPhaseFollowsStrictOrder(t *testing.T) {
	g := &Game{}
	p, ok := g.currentPhase()
	require.True(t, ok)
	assert.Equal(t, PhaseOpening, p)

	g.OpeningComplete = true
	p, _ = g.currentPhase()
	assert.Equal(t, PhaseFlop, p)

	g.FlopComplete = true
	g.TurnComplete = true
	p, _ = g.currentPhase()
	assert.Equal(t, PhaseRiver, p)

	g.RiverComplete = true
	_, ok = g.currentPhase()
	assert.False(t, ok, "all phases settled means endgame")
}

func TestProgressForMutatesTheRightTriple(t *testing.T) {
	g := &Game{OpeningIdx: -1, FlopIdx: -1, TurnIdx: -1, RiverIdx: -1}
	pr := g.progressFor(PhaseTurn)
	*pr.Idx = 2
	*pr.RoundTrip = true
	*pr.Complete = true
	assert.Equal(t, 2, g.TurnIdx)
	assert.True(t, g.TurnRoundTrip)
	assert.True(t, g.TurnComplete)
	assert.Equal(t, -1, g.FlopIdx, "other phases untouched")
	assert.Panics(t, func() { g.progressFor(Phase("preflop")) })
}

func TestVisibleCommunityTracksSettledPhases(t *testing.T) {
	g := &Game{
		Flop:  []engine.Card{0, 1, 2},
		Turn:  3,
		River: 4,
	}
	assert.Empty(t, g.VisibleCommunity())

	g.OpeningComplete = true
	assert.Len(t, g.VisibleCommunity(), 3)

	g.FlopComplete = true
	assert.Len(t, g.VisibleCommunity(), 4)

	g.TurnComplete = true
	assert.Equal(t, []engine.Card{0, 1, 2, 3, 4}, g.VisibleCommunity())
}

func TestActivePlayersPreservesSeatingOrder(t *testing.T) {
	g := &Game{
		Players: []string{"a", "b", "c", "d"},
		Folded:  []string{"b", "d"},
	}
	assert.Equal(t, []string{"a", "c"}, g.ActivePlayers())
	assert.True(t, g.IsFolded("b"))
	assert.False(t, g.IsFolded("a"))
}

func TestLabelFallsBackToPlayerID(t *testing.T) {
	g := &Game{Labels: map[string]string{"u1": "Alice"}}
	assert.Equal(t, "Alice", g.LabelFor("u1"))
	assert.Equal(t, "u2", g.LabelFor("u2"))

	g.recordLabel("u2", "Bob")
	g.recordLabel("u2", "Robert")
	assert.Equal(t, "Bob", g.LabelFor("u2"), "first action wins the label")
}
