package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLeagueAliases(t *testing.T) {
	for alias, want := range map[string]string{
		"pushup":   "push-ups",
		"Push-Up":  "push-ups",
		" sit-ups": "sit-ups",
		"situp":    "sit-ups",
		"burpee":   "burpees",
		"BURPEES":  "burpees",
	} {
		name, league, ok := ResolveLeague(alias)
		require.True(t, ok, "alias %q", alias)
		assert.Equal(t, want, name)
		assert.Equal(t, 10, league.Buyin)
		assert.True(t, league.Fitness)
	}
}

func TestResolveLeagueRejectsUnknown(t *testing.T) {
	for _, bad := range []string{"", "poker", "chips", "random"} {
		_, _, ok := ResolveLeague(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestLeagueUnitNames(t *testing.T) {
	_, league, ok := ResolveLeague("push-ups")
	require.True(t, ok)
	assert.Equal(t, "push-ups", league.Units)
	assert.Equal(t, "push-up", league.Singular)
}

func TestRandomLeagueIsDeterministicPerSource(t *testing.T) {
	a, _ := RandomLeague(rand.New(rand.NewSource(5)))
	b, _ := RandomLeague(rand.New(rand.NewSource(5)))
	assert.Equal(t, a, b)
	_, ok := Leagues[a]
	assert.True(t, ok)
}

func TestLeagueNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"burpees", "push-ups", "sit-ups"}, LeagueNames())
}
