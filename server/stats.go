package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"reppoker/server/game"
)

// playerRecord aggregates one player's history across completed games.
// Units are league-local (a push-up and a burpee both count as 1), which
// matches how debts are reported.
type playerRecord struct {
	name      string
	hands     int
	wins      int
	unitsWon  int
	unitsOwed int
}

// buildStatsReport renders the historical report for the `stats N`
// sub-command. Games arrive newest first; ratings are computed in
// chronological order.
func buildStatsReport(games []game.Game) string {
	if len(games) == 0 {
		return "No completed games yet."
	}

	ratings := newElo(1000, 32)
	recs := map[string]*playerRecord{}
	rec := func(g *game.Game, p string) *playerRecord {
		key := g.Handles[p]
		if key == "" {
			key = p
		}
		r, ok := recs[key]
		if !ok {
			r = &playerRecord{name: key}
			recs[key] = r
		}
		return r
	}

	for i := len(games) - 1; i >= 0; i-- {
		g := games[i]

		losersTotal := 0
		for _, p := range g.Players {
			if !isAmong(g.Winners, p) {
				losersTotal += g.Bets[p]
			}
		}
		share := 0
		if len(g.Winners) > 0 {
			share = losersTotal / len(g.Winners)
		}

		for _, p := range g.Players {
			r := rec(&g, p)
			r.hands++
			if isAmong(g.Winners, p) {
				r.wins++
				r.unitsWon += share
			} else {
				r.unitsOwed += g.Bets[p]
			}
		}
		for _, w := range g.Winners {
			for _, p := range g.Players {
				if !isAmong(g.Winners, p) {
					ratings.update(rec(&g, w).name, rec(&g, p).name)
				}
			}
		}
	}

	names := make([]string, 0, len(recs))
	for name := range recs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := ratings.rating(names[i]), ratings.rating(names[j])
		if ri != rj {
			return ri > rj
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Results from the last %d games:\n", len(games))
	fmt.Fprintf(&b, "%-16s %6s %5s %8s %8s %8s\n", "player", "hands", "wins", "won", "owed", "rating")
	for _, name := range names {
		r := recs[name]
		fmt.Fprintf(&b, "%-16s %6d %5d %8d %8d %8.1f\n",
			r.name, r.hands, r.wins, r.unitsWon, r.unitsOwed, ratings.rating(name))
	}
	return b.String()
}

func isAmong(set []string, p string) bool {
	for _, s := range set {
		if s == p {
			return true
		}
	}
	return false
}

// elo tracks a simple rating per player, updated pairwise winner-vs-loser
// for each completed hand. Ties update each winner against each loser, so
// tied winners never trade points with one another.
type elo struct {
	ratings map[string]float64
	start   float64
	k       float64
}

func newElo(start, k float64) *elo {
	return &elo{ratings: map[string]float64{}, start: start, k: k}
}

func (e *elo) rating(p string) float64 {
	if r, ok := e.ratings[p]; ok {
		return r
	}
	return e.start
}

func (e *elo) update(winner, loser string) {
	expected := 1.0 / (1.0 + math.Pow(10, (e.rating(loser)-e.rating(winner))/400.0))
	delta := e.k * (1.0 - expected)
	e.ratings[winner] = e.rating(winner) + delta
	e.ratings[loser] = e.rating(loser) - delta
}
