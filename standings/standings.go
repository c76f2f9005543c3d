package standings

import (
	"math"
	"slices"
	"strings"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/metadata"
	"github.com/Nydauron/whistledger/models"
)

// noTieBreak sorts entrants without a tie break after every entrant with one.
var noTieBreak = math.Inf(1)

type bucket struct {
	seat     identity.SeatOccupants
	tricks   float64
	rounds   float64
	tieBreak *float64
}

// Calculate fills in each tournament's standings, participation, winner, and
// runner-up.
//
// A solo seat credits its player directly. A shared seat credits the
// combination of its members as one entrant, and separately gives each member a
// split share in Participation; those shares never enter the standings.
func Calculate(tournaments []*models.Tournament, tieBreaks metadata.TieBreakIndex) {
	for _, t := range tournaments {
		calculate(t, tieBreaks)
	}
}

func calculate(t *models.Tournament, tieBreaks metadata.TieBreakIndex) {
	buckets := map[string]*bucket{}
	var order []string
	participation := map[identity.PlayerID]models.Participation{}

	t.Partnerships(func(_, _ int, p models.Partnership) {
		for i, seat := range p.Positions() {
			if seat.Empty() {
				continue
			}
			tricks := p.SeatTricks[i]
			b, ok := buckets[seat.Key()]
			if !ok {
				b = &bucket{seat: seat}
				buckets[seat.Key()] = b
				order = append(order, seat.Key())
			}
			b.tricks += tricks
			b.rounds++
			if tb := p.TieBreaks[i]; tb != nil && (b.tieBreak == nil || *tb < *b.tieBreak) {
				v := *tb
				b.tieBreak = &v
			}

			share := 1 / float64(seat.Len())
			for _, id := range seat.IDs() {
				part := participation[id]
				part.Tricks += tricks * share
				part.Rounds += share
				if seat.Shared() {
					part.SharedRounds++
				}
				participation[id] = part
			}
		}
	})

	entries := make([]models.StandingEntry, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		entry := models.StandingEntry{
			Key:      key,
			Name:     b.seat.Name(),
			Members:  b.seat.IDs(),
			Shared:   b.seat.Shared(),
			Tricks:   b.tricks,
			Rounds:   b.rounds,
			TieBreak: b.tieBreak,
		}
		if v, ok := tieBreaks.Lookup(t.ID, key); ok {
			entry.TieBreak = &v
		}
		entries = append(entries, entry)
	}
	Rank(entries)

	t.Standings = entries
	t.Participation = participation
	t.Winner, t.RunnerUp = "", ""
	if len(entries) > 0 {
		t.Winner = entries[0].Name
	}
	if len(entries) > 1 {
		t.RunnerUp = entries[1].Name
	}
}

// Rank sorts entries by tricks (most first), then tie break (lowest first,
// missing last), then name, and numbers them 1..N.
func Rank(entries []models.StandingEntry) {
	slices.SortStableFunc(entries, compareEntries)
	for i := range entries {
		entries[i].Position = i + 1
	}
}

func compareEntries(a, b models.StandingEntry) int {
	if a.Tricks > b.Tricks {
		return -1
	}
	if a.Tricks < b.Tricks {
		return 1
	}
	ta, tb := tieBreakValue(a), tieBreakValue(b)
	if ta < tb {
		return -1
	}
	if ta > tb {
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

func tieBreakValue(e models.StandingEntry) float64 {
	if e.TieBreak == nil {
		return noTieBreak
	}
	return *e.TieBreak
}

// EntrantKey resolves a tie breaker sheet token to the standings key the
// entrant will have.
func EntrantKey(resolver *identity.Resolver) func(token string) string {
	return func(token string) string {
		return resolver.ParseSeat(token).Key()
	}
}
