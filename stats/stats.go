// Package stats builds career records for players and partnerships from
// finished tournaments.
package stats

import (
	"cmp"
	"slices"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/models"
)

// RoundWinTricks is the number of tricks a seat needs to have won its round.
const RoundWinTricks = 7

// Totals are the counters kept for a player's career.
type Totals struct {
	Tournaments int     `json:"tournaments" yaml:"tournaments"`
	Tricks      float64 `json:"tricks" yaml:"tricks"`
	Rounds      float64 `json:"rounds" yaml:"rounds"`
	Wins        int     `json:"wins" yaml:"wins"`
	TopThrees   int     `json:"topThrees" yaml:"top threes"`
	BoobyPrizes int     `json:"boobyPrizes" yaml:"booby prizes"`
	RoundsWon   float64 `json:"roundsWon" yaml:"rounds won"`
}

// TricksPerRound is the average tricks per round played, or 0.
func (t Totals) TricksPerRound() float64 {
	if t.Rounds == 0 {
		return 0
	}
	return t.Tricks / t.Rounds
}

// WinRate is the share of tournaments won, or 0.
func (t Totals) WinRate() float64 {
	if t.Tournaments == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Tournaments)
}

// Appearance is one tournament in a player's history.
type Appearance struct {
	Tournament string  `json:"tournament" yaml:"tournament"`
	Year       int     `json:"year" yaml:"year"`
	Entrant    string  `json:"entrant" yaml:"entrant"`
	Shared     bool    `json:"shared" yaml:"shared"`
	Position   int     `json:"position" yaml:"position"`
	Tricks     float64 `json:"tricks" yaml:"tricks"`
	Rounds     float64 `json:"rounds" yaml:"rounds"`
}

// SuitRecord is how a player did in rounds played under one trump suit.
type SuitRecord struct {
	Tricks    float64 `json:"tricks" yaml:"tricks"`
	Rounds    float64 `json:"rounds" yaml:"rounds"`
	RoundsWon float64 `json:"roundsWon" yaml:"rounds won"`
}

// PlayerRecord is a player's career. Combined includes tournaments
// played in shared hands at a split share; Individual counts only tournaments
// the player played entirely alone.
type PlayerRecord struct {
	ID         identity.PlayerID           `json:"id" yaml:"id"`
	Combined   Totals                      `json:"combined" yaml:"combined"`
	Individual Totals                      `json:"individual" yaml:"individual"`
	History    []Appearance                `json:"history" yaml:"history"`
	Trumps     map[models.Suit]*SuitRecord `json:"trumpPerformance,omitempty" yaml:"trump performance,omitempty"`
}

// PairRecord is how two players did as partners. Shared hands are left out.
type PairRecord struct {
	Players     [2]identity.PlayerID `json:"players" yaml:"players,flow"`
	Tricks      float64              `json:"tricks" yaml:"tricks"`
	Rounds      int                  `json:"rounds" yaml:"rounds"`
	Tournaments []string             `json:"tournaments" yaml:"tournaments,flow"`
	Average     float64              `json:"average" yaml:"average"`
}

// Occurrences is the number of distinct tournaments the pair played in.
func (p *PairRecord) Occurrences() int { return len(p.Tournaments) }

// PairKey orders two players so a partnership has one key either way round.
func PairKey(a, b identity.PlayerID) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "&" + string(b)
}

// Result holds every record built in one pass.
type Result struct {
	Players map[identity.PlayerID]*PlayerRecord
	Pairs   map[string]*PairRecord
}

// PlayerIDs returns the players with a record, sorted.
func (r Result) PlayerIDs() []identity.PlayerID {
	ids := make([]identity.PlayerID, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// PairKeys returns the pair keys, sorted.
func (r Result) PairKeys() []string {
	keys := make([]string, 0, len(r.Pairs))
	for k := range r.Pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Aggregate builds records from tournaments whose standings are filled in.
// Tournaments are read oldest first so each history is in date order.
func Aggregate(tournaments []*models.Tournament) Result {
	res := Result{
		Players: map[identity.PlayerID]*PlayerRecord{},
		Pairs:   map[string]*PairRecord{},
	}
	for _, t := range models.Chronological(tournaments) {
		res.addStandings(t)
		res.addRounds(t)
	}
	for _, p := range res.Pairs {
		if p.Rounds > 0 {
			p.Average = p.Tricks / float64(p.Rounds)
		}
	}
	return res
}

func (r Result) player(id identity.PlayerID) *PlayerRecord {
	rec, ok := r.Players[id]
	if !ok {
		rec = &PlayerRecord{ID: id, Trumps: map[models.Suit]*SuitRecord{}}
		r.Players[id] = rec
	}
	return rec
}

// addStandings credits each entrant's members. A shared entrant's tricks and
// rounds are split across its members; its position is not. A player with
// several entries in one tournament is placed once, on their best position.
func (r Result) addStandings(t *models.Tournament) {
	if len(t.Standings) == 0 {
		return
	}
	booby := boobyTricks(t.Standings)
	isBooby := func(e models.StandingEntry) bool {
		return len(t.Standings) > 1 && e.Tricks == booby
	}

	best := map[identity.PlayerID]models.StandingEntry{}
	var order []identity.PlayerID
	for _, e := range t.Standings {
		share := 1 / float64(len(e.Members))
		for _, id := range e.Members {
			rec := r.player(id)
			prev, seen := best[id]
			if !seen {
				rec.Combined.Tournaments++
				order = append(order, id)
			}
			if !seen || e.Position < prev.Position {
				best[id] = e
			}
			accumulate(&rec.Combined, e, share)

			if !e.Shared && t.Participation[id].SharedRounds == 0 {
				rec.Individual.Tournaments++
				accumulate(&rec.Individual, e, 1)
				place(&rec.Individual, e.Position, isBooby(e))
			}

			rec.History = append(rec.History, Appearance{
				Tournament: t.ID,
				Year:       t.Year,
				Entrant:    e.Name,
				Shared:     e.Shared,
				Position:   e.Position,
				Tricks:     e.Tricks * share,
				Rounds:     e.Rounds * share,
			})
		}
	}
	for _, id := range order {
		e := best[id]
		place(&r.player(id).Combined, e.Position, isBooby(e))
	}
}

func accumulate(tot *Totals, e models.StandingEntry, share float64) {
	tot.Tricks += e.Tricks * share
	tot.Rounds += e.Rounds * share
}

func place(tot *Totals, position int, booby bool) {
	if position == 1 {
		tot.Wins++
	}
	if position >= 1 && position <= 3 {
		tot.TopThrees++
	}
	if booby {
		tot.BoobyPrizes++
	}
}

// boobyTricks is the lowest total in the standings; every entrant on it takes
// the booby prize.
func boobyTricks(standings []models.StandingEntry) float64 {
	low := standings[0].Tricks
	for _, e := range standings[1:] {
		low = min(low, e.Tricks)
	}
	return low
}

// addRounds scans every partnership for rounds won, trump performance, and
// partner records.
func (r Result) addRounds(t *models.Tournament) {
	t.Partnerships(func(_, _ int, p models.Partnership) {
		for i, seat := range p.Positions() {
			if seat.Empty() {
				continue
			}
			tricks := p.SeatTricks[i]
			won := tricks >= RoundWinTricks
			share := 1 / float64(seat.Len())
			for _, id := range seat.IDs() {
				rec := r.player(id)
				if won {
					rec.Combined.RoundsWon += share
					if !seat.Shared() {
						rec.Individual.RoundsWon++
					}
				}
				if p.Trump == models.SuitNone {
					continue
				}
				suit, ok := rec.Trumps[p.Trump]
				if !ok {
					suit = &SuitRecord{}
					rec.Trumps[p.Trump] = suit
				}
				suit.Tricks += tricks * share
				suit.Rounds += share
				if won {
					suit.RoundsWon += share
				}
			}
		}
		r.addPair(t.ID, p)
	})
}

func (r Result) addPair(tournament string, p models.Partnership) {
	if p.HasSharedHand() || p.Position1.Empty() || p.Position2.Empty() {
		return
	}
	a, b := p.Position1.First(), p.Position2.First()
	if a == b {
		return
	}
	key := PairKey(a, b)
	pair, ok := r.Pairs[key]
	if !ok {
		if b < a {
			a, b = b, a
		}
		pair = &PairRecord{Players: [2]identity.PlayerID{a, b}}
		r.Pairs[key] = pair
	}
	pair.Tricks += p.Tricks
	pair.Rounds++
	if !slices.Contains(pair.Tournaments, tournament) {
		pair.Tournaments = append(pair.Tournaments, tournament)
	}
}

// TopPairs returns pairs that played at least minRounds together, best
// average first.
func (r Result) TopPairs(minRounds int) []*PairRecord {
	var out []*PairRecord
	for _, key := range r.PairKeys() {
		if p := r.Pairs[key]; p.Rounds >= minRounds {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b *PairRecord) int {
		return cmp.Compare(b.Average, a.Average)
	})
	return out
}
