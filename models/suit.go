package models

import "strings"

type Suit string

const (
	SuitNone     Suit = ""
	SuitHearts   Suit = "Hearts"
	SuitDiamonds Suit = "Diamonds"
	SuitClubs    Suit = "Clubs"
	SuitSpades   Suit = "Spades"
	SuitNoTrumps Suit = "No Trumps"
)

// Suits lists the recognised trump suits in display order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades, SuitNoTrumps}

var suitSpellings = map[string]Suit{
	"hearts":    SuitHearts,
	"heart":     SuitHearts,
	"h":         SuitHearts,
	"♥":         SuitHearts,
	"diamonds":  SuitDiamonds,
	"diamond":   SuitDiamonds,
	"d":         SuitDiamonds,
	"♦":         SuitDiamonds,
	"clubs":     SuitClubs,
	"club":      SuitClubs,
	"c":         SuitClubs,
	"♣":         SuitClubs,
	"spades":    SuitSpades,
	"spade":     SuitSpades,
	"s":         SuitSpades,
	"♠":         SuitSpades,
	"no trumps": SuitNoTrumps,
	"no trump":  SuitNoTrumps,
	"notrumps":  SuitNoTrumps,
	"notrump":   SuitNoTrumps,
	"nt":        SuitNoTrumps,
	"none":      SuitNoTrumps,
}

// ParseSuit accepts the spellings seen on scorecards. An empty value is
// SuitNone; anything unrecognised reports false.
func ParseSuit(s string) (Suit, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if key == "" {
		return SuitNone, true
	}
	suit, ok := suitSpellings[key]
	return suit, ok
}
