package engine

import "sort"

// Category of a 5-card hand, weakest to strongest. The numeric values are
// persisted inside settlement history, so the order is fixed.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = [...]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

func (c Category) String() string { return categoryNames[c] }

// Score ranks a hand: category first, then the category-specific tiebreak
// ranks compared lexicographically.
//
// House rules, kept deliberately non-standard: an Ace is always ordinal 14,
// so A-2-3-4-5 is not a straight, and a straight flush also satisfies the
// flush check (it is only reported as Straight Flush because categories are
// tested strongest first).
type Score struct {
	Category Category
	Tiebreak []int
}

// Compare returns <0, 0 or >0. Tiebreak lengths are equal within a
// category, so lexicographic comparison is exact equality on ties.
func (s Score) Compare(o Score) int {
	if s.Category != o.Category {
		return int(s.Category) - int(o.Category)
	}
	for i := range s.Tiebreak {
		if i >= len(o.Tiebreak) {
			return 1
		}
		if s.Tiebreak[i] != o.Tiebreak[i] {
			return s.Tiebreak[i] - o.Tiebreak[i]
		}
	}
	if len(o.Tiebreak) > len(s.Tiebreak) {
		return -1
	}
	return 0
}

func (s Score) Beats(o Score) bool { return s.Compare(o) > 0 }

type check struct {
	cat Category
	fn  func([]Card) ([]int, bool)
}

// Strongest first. A hand can satisfy several checks structurally (every
// straight flush is also a flush and a straight), so the first match wins.
var checks = []check{
	{RoyalFlush, royalFlush},
	{StraightFlush, straightFlush},
	{FourOfAKind, fourOfAKind},
	{FullHouse, fullHouse},
	{Flush, flushCheck},
	{Straight, straightCheck},
	{ThreeOfAKind, threeOfAKind},
	{TwoPair, twoPair},
	{Pair, pairCheck},
	{HighCard, highCard},
}

// Best classifies a 5-card hand. Panics on any other size: callers own the
// 5-card invariant.
func Best(hand []Card) Score {
	if len(hand) != 5 {
		panic("Best requires exactly 5 cards")
	}
	for _, ch := range checks {
		if tb, ok := ch.fn(hand); ok {
			return Score{Category: ch.cat, Tiebreak: tb}
		}
	}
	panic("unreachable: high card matches every hand")
}

// BestOfSeven finds the strongest 5-card subset of a 7-card hand, scoring
// all C(7,5)=21 subsets and keeping the maximum.
func BestOfSeven(cards []Card) Score {
	if len(cards) != 7 {
		panic("BestOfSeven requires exactly 7 cards")
	}
	var best Score
	first := true
	var choose [5]int
	five := make([]Card, 5)
	var rec func(start, k int)
	rec = func(start, k int) {
		if k == 5 {
			for i := 0; i < 5; i++ {
				five[i] = cards[choose[i]]
			}
			s := Best(five)
			if first || s.Beats(best) {
				best = s
				first = false
			}
			return
		}
		for i := start; i <= len(cards)-(5-k); i++ {
			choose[k] = i
			rec(i+1, k+1)
		}
	}
	rec(0, 0)
	return best
}

// ----- helpers -----

func ordinals(hand []Card) []int {
	out := make([]int, len(hand))
	for i, c := range hand {
		out[i] = c.Ordinal()
	}
	return out
}

func descOrdinals(hand []Card) []int {
	out := ordinals(hand)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func isFlush(hand []Card) bool {
	for _, c := range hand[1:] {
		if c.Suit() != hand[0].Suit() {
			return false
		}
	}
	return true
}

// isStraight: the sorted ordinals form a contiguous run. No wraparound and
// no ace-low alias.
func isStraight(hand []Card) bool {
	ords := ordinals(hand)
	sort.Ints(ords)
	for i := 1; i < len(ords); i++ {
		if ords[i] != ords[i-1]+1 {
			return false
		}
	}
	return true
}

func ordinalCounts(hand []Card) map[int]int {
	counts := make(map[int]int, len(hand))
	for _, c := range hand {
		counts[c.Ordinal()]++
	}
	return counts
}

func ofAKind(hand []Card, x int) (int, bool) {
	for ord, n := range ordinalCounts(hand) {
		if n == x {
			return ord, true
		}
	}
	return 0, false
}

func without(hand []Card, ord int) []Card {
	var out []Card
	for _, c := range hand {
		if c.Ordinal() != ord {
			out = append(out, c)
		}
	}
	return out
}

func maxOrdinal(hand []Card) int {
	m := hand[0].Ordinal()
	for _, c := range hand[1:] {
		if o := c.Ordinal(); o > m {
			m = o
		}
	}
	return m
}

// ----- category checks -----

func royalFlush(hand []Card) ([]int, bool) {
	if !isFlush(hand) || !isStraight(hand) {
		return nil, false
	}
	if maxOrdinal(hand) != 14 {
		return nil, false
	}
	return []int{}, true
}

func straightFlush(hand []Card) ([]int, bool) {
	if isFlush(hand) && isStraight(hand) {
		return []int{maxOrdinal(hand)}, true
	}
	return nil, false
}

func fourOfAKind(hand []Card) ([]int, bool) {
	quad, ok := ofAKind(hand, 4)
	if !ok {
		return nil, false
	}
	kicker := without(hand, quad)
	return []int{quad, kicker[0].Ordinal()}, true
}

func fullHouse(hand []Card) ([]int, bool) {
	trip, ok := ofAKind(hand, 3)
	if !ok {
		return nil, false
	}
	pair, ok := ofAKind(without(hand, trip), 2)
	if !ok {
		return nil, false
	}
	return []int{trip, pair}, true
}

func flushCheck(hand []Card) ([]int, bool) {
	if isFlush(hand) {
		return descOrdinals(hand), true
	}
	return nil, false
}

func straightCheck(hand []Card) ([]int, bool) {
	if isStraight(hand) {
		return []int{maxOrdinal(hand)}, true
	}
	return nil, false
}

func threeOfAKind(hand []Card) ([]int, bool) {
	trip, ok := ofAKind(hand, 3)
	if !ok {
		return nil, false
	}
	kickers := descOrdinals(without(hand, trip))
	return []int{trip, kickers[0], kickers[1]}, true
}

func twoPair(hand []Card) ([]int, bool) {
	p1, ok := ofAKind(hand, 2)
	if !ok {
		return nil, false
	}
	rest := without(hand, p1)
	p2, ok := ofAKind(rest, 2)
	if !ok {
		return nil, false
	}
	kicker := without(rest, p2)
	hi, lo := p1, p2
	if lo > hi {
		hi, lo = lo, hi
	}
	return []int{hi, lo, kicker[0].Ordinal()}, true
}

func pairCheck(hand []Card) ([]int, bool) {
	p, ok := ofAKind(hand, 2)
	if !ok {
		return nil, false
	}
	return append([]int{p}, descOrdinals(without(hand, p))...), true
}

func highCard(hand []Card) ([]int, bool) {
	return descOrdinals(hand), true
}
