package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Card is an index into the 52-card identity space. The index order is
// suit-major (Spades, Diamonds, Hearts, Clubs), rank 2..Ace within each
// suit. Card ids are persisted in game documents and baked into card image
// names, so this mapping must never change.
type Card int

type Suit int

const (
	Spades Suit = iota
	Diamonds
	Hearts
	Clubs
)

var suitNames = [...]string{"Spades", "Diamonds", "Hearts", "Clubs"}
var suitSymbols = [...]string{"♠", "♦", "♥", "♣"}

func (s Suit) String() string { return suitNames[s] }

func (c Card) Suit() Suit { return Suit(c / 13) }

// Ordinal is the card's rank, 2 through 14 with Ace fixed at 14.
func (c Card) Ordinal() int { return int(c%13) + 2 }

func (c Card) Name() string {
	switch o := c.Ordinal(); o {
	case 11:
		return "Jack"
	case 12:
		return "Queen"
	case 13:
		return "King"
	case 14:
		return "Ace"
	default:
		return fmt.Sprintf("%d", o)
	}
}

func (c Card) String() string {
	name := c.Name()
	if len(name) > 2 {
		name = name[:1]
	}
	return name + suitSymbols[c.Suit()]
}

// ImageName is the static asset filename for this card, e.g.
// "ace_of_spades.png".
func (c Card) ImageName() string {
	return fmt.Sprintf("%s_of_%s.png",
		strings.ToLower(c.Name()), strings.ToLower(c.Suit().String()))
}

// Deck is an ordered permutation of all 52 cards. Cards are dealt from the
// front; a fresh deck is shuffled per hand.
type Deck []Card

func NewDeck(seed int64) Deck {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return ShuffledDeck(rand.New(rand.NewSource(seed)))
}

func ShuffledDeck(r *rand.Rand) Deck {
	deck := make(Deck, 52)
	for i := range deck {
		deck[i] = Card(i)
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// Draw removes and returns the top card.
func (d *Deck) Draw() Card {
	c := (*d)[0]
	*d = (*d)[1:]
	return c
}

// Burn discards the top card.
func (d *Deck) Burn() { *d = (*d)[1:] }
