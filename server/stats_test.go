package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reppoker/server/game"
)

func completedGame(winners []string, bets map[string]int) game.Game {
	players := []string{"alice", "bob", "carol", "dave"}
	handles := map[string]string{}
	for _, p := range players {
		handles[p] = p
	}
	return game.Game{
		Status:  game.StatusComplete,
		Players: players,
		Handles: handles,
		League:  "push-ups",
		Buyin:   10,
		Bets:    bets,
		Winners: winners,
	}
}

func TestBuildStatsReportEmpty(t *testing.T) {
	assert.Equal(t, "No completed games yet.", buildStatsReport(nil))
}

func TestBuildStatsReportAggregates(t *testing.T) {
	games := []game.Game{
		// Newest first, as the store returns them.
		completedGame([]string{"alice", "bob"}, map[string]int{"alice": 10, "bob": 10, "carol": 10, "dave": 10}),
		completedGame([]string{"alice"}, map[string]int{"alice": 10, "bob": 20, "carol": 10, "dave": 10}),
	}

	report := buildStatsReport(games)
	assert.Contains(t, report, "Results from the last 2 games:")
	for _, p := range []string{"alice", "bob", "carol", "dave"} {
		assert.Contains(t, report, p)
	}

	// Two wins put alice above the never-winners.
	aliceAt := strings.Index(report, "alice")
	carolAt := strings.Index(report, "carol")
	require.Positive(t, aliceAt)
	require.Positive(t, carolAt)
	assert.Less(t, aliceAt, carolAt, "ratings sort winners first")
}

func TestEloPairwiseUpdate(t *testing.T) {
	e := newElo(1000, 32)
	assert.Equal(t, 1000.0, e.rating("anyone"))

	e.update("winner", "loser")
	assert.Greater(t, e.rating("winner"), 1000.0)
	assert.Less(t, e.rating("loser"), 1000.0)
	assert.InDelta(t, 2000.0, e.rating("winner")+e.rating("loser"), 1e-9, "points are zero-sum")

	// An upset moves more points than beating a weaker player again.
	before := e.rating("loser")
	e.update("loser", "winner")
	upset := e.rating("loser") - before
	assert.Greater(t, upset, 16.0)
}
