package models

import (
	"fmt"
	"strings"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
)

// TricksPerRound is the number of tricks two partnerships share in one round.
const TricksPerRound = 13

// TournamentInfo is one row of the tournament metadata sheet with its year
// resolved.
type TournamentInfo struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Year     int    `json:"year" yaml:"year"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	Comments string `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Partnership is one side of a table in one round. Each position may be held
// by several players sharing the hand.
type Partnership struct {
	Position1 identity.SeatOccupants `json:"position1" yaml:"position1"`
	Position2 identity.SeatOccupants `json:"position2" yaml:"position2"`
	// SeatTricks are the tricks as reported for each position.
	SeatTricks [2]float64 `json:"seatTricks" yaml:"seat tricks,flow"`
	// Tricks is the partnership total used for the 13-trick check.
	Tricks          float64                      `json:"tricks" yaml:"tricks"`
	Trump           Suit                         `json:"trump,omitempty" yaml:"trump,omitempty"`
	TieBreaks       [2]*float64                  `json:"tieBreaks,omitempty" yaml:"-"`
	Inconsistencies map[identity.PlayerID]string `json:"inconsistencies,omitempty" yaml:"inconsistencies,omitempty"`
}

// Positions returns both positions in seat order.
func (p Partnership) Positions() [2]identity.SeatOccupants {
	return [2]identity.SeatOccupants{p.Position1, p.Position2}
}

// Members lists every player at the partnership, in seat order.
func (p Partnership) Members() []identity.PlayerID {
	return append(p.Position1.IDs(), p.Position2.IDs()...)
}

// HasSharedHand reports whether either position is shared.
func (p Partnership) HasSharedHand() bool {
	return p.Position1.Shared() || p.Position2.Shared()
}

// Game is one table in one round: two partnerships facing each other.
type Game struct {
	Tournament   TournamentInfo
	Round        int
	Table        int
	Trump        Suit
	Partnerships [2]Partnership
	Note         string
	Source       issues.Location
}

// Ref names the game for issue reports.
func (g Game) Ref() string {
	return GameRef(g.Tournament.ID, g.Round, g.Table)
}

func GameRef(tournament string, round, table int) string {
	return fmt.Sprintf("%s R%d T%d", tournament, round, table)
}

type Table struct {
	Number       int           `json:"number" yaml:"number"`
	Partnerships []Partnership `json:"partnerships" yaml:"partnerships"`
	Note         string        `json:"note,omitempty" yaml:"note,omitempty"`
}

type Round struct {
	Number int `json:"number" yaml:"number"`
	// Trump is the most common trump among the round's partnerships. It is for
	// display only; each partnership carries its own trump.
	Trump  Suit    `json:"trump,omitempty" yaml:"trump,omitempty"`
	Tables []Table `json:"tables" yaml:"tables"`
}

// StandingEntry is one entrant's result in a tournament. A shared-hand entrant
// is the combination of players who held one seat together.
type StandingEntry struct {
	Key      string              `json:"key" yaml:"key"`
	Name     string              `json:"name" yaml:"name"`
	Members  []identity.PlayerID `json:"members" yaml:"members,flow"`
	Shared   bool                `json:"shared" yaml:"shared"`
	Tricks   float64             `json:"tricks" yaml:"tricks"`
	Rounds   float64             `json:"rounds" yaml:"rounds"`
	Position int                 `json:"position" yaml:"position"`
	TieBreak *float64            `json:"tieBreak,omitempty" yaml:"tie break,omitempty"`
}

// Participation is a player's personal share of a tournament. Shared rounds
// credit tricks and rounds split evenly across the seat's members.
type Participation struct {
	Tricks       float64 `json:"tricks" yaml:"tricks"`
	Rounds       float64 `json:"rounds" yaml:"rounds"`
	SharedRounds int     `json:"sharedRounds" yaml:"shared rounds"`
}

type Tournament struct {
	TournamentInfo `yaml:",inline"`
	Rounds         []Round                             `json:"rounds" yaml:"rounds"`
	Standings      []StandingEntry                     `json:"standings" yaml:"standings"`
	Participation  map[identity.PlayerID]Participation `json:"participation" yaml:"participation"`
	Winner         string                              `json:"winner,omitempty" yaml:"winner,omitempty"`
	RunnerUp       string                              `json:"runnerUp,omitempty" yaml:"runner up,omitempty"`
}

// Entry returns the standing with the given entrant key.
func (t *Tournament) Entry(key string) (StandingEntry, bool) {
	for _, e := range t.Standings {
		if e.Key == key {
			return e, true
		}
	}
	return StandingEntry{}, false
}

// EntriesFor returns the standings that include the player, solo first.
func (t *Tournament) EntriesFor(id identity.PlayerID) []StandingEntry {
	var solo, shared []StandingEntry
	for _, e := range t.Standings {
		for _, m := range e.Members {
			if m != id {
				continue
			}
			if e.Shared {
				shared = append(shared, e)
			} else {
				solo = append(solo, e)
			}
			break
		}
	}
	return append(solo, shared...)
}

// Partnerships iterates every partnership in round and table order.
func (t *Tournament) Partnerships(fn func(round, table int, p Partnership)) {
	for _, r := range t.Rounds {
		for _, tbl := range r.Tables {
			for _, p := range tbl.Partnerships {
				fn(r.Number, tbl.Number, p)
			}
		}
	}
}

// IsSharedName reports whether an entrant name joins several people.
func IsSharedName(name string) bool {
	return strings.Contains(name, identity.DisplayJoin) || identity.IsSharedToken(name)
}
