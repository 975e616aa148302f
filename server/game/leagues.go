package game

import (
	"math/rand"
	"sort"
	"strings"
)

// League is a named betting configuration: the unit players bet in and the
// base stake that raise sizes are multiples of.
type League struct {
	Units    string
	Singular string
	Buyin    int
	Fitness  bool
}

var Leagues = map[string]League{
	"push-ups": {Units: "push-ups", Singular: "push-up", Buyin: 10, Fitness: true},
	"sit-ups":  {Units: "sit-ups", Singular: "sit-up", Buyin: 10, Fitness: true},
	"burpees":  {Units: "burpees", Singular: "burpee", Buyin: 10, Fitness: true},
}

var leagueAliases = map[string]string{
	"push-up":  "push-ups",
	"pushup":   "push-ups",
	"pushups":  "push-ups",
	"push-ups": "push-ups",
	"situp":    "sit-ups",
	"sit-up":   "sit-ups",
	"situps":   "sit-ups",
	"sit-ups":  "sit-ups",
	"burpee":   "burpees",
	"burpees":  "burpees",
}

// ResolveLeague maps user input (any common spelling) to a canonical league.
func ResolveLeague(name string) (string, League, bool) {
	canonical, ok := leagueAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", League{}, false
	}
	return canonical, Leagues[canonical], true
}

// RandomLeague picks a league; sorted key order keeps the pick a pure
// function of r.
func RandomLeague(r *rand.Rand) (string, League) {
	names := make([]string, 0, len(Leagues))
	for name := range Leagues {
		names = append(names, name)
	}
	sort.Strings(names)
	name := names[r.Intn(len(names))]
	return name, Leagues[name]
}

// LeagueNames lists canonical names for the corrective hint on a bad start
// command.
func LeagueNames() []string {
	names := make([]string, 0, len(Leagues))
	for name := range Leagues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
