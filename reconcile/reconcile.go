// Package reconcile turns validated scorecard rows into games of two
// partnerships.
//
// Individual sheets record one row per seat, so the pairing at each table is
// not in the data. Seats are paired by sorting the four rows on canonical
// player id: the first two form one partnership and the last two the other.
// This is an approximation of the real seating and is reported as such.
package reconcile

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/scorecards"
)

// SeatsPerTable is the number of individual rows a table must have.
const SeatsPerTable = 4

// Games converts rows of either layout. Partnership rows become one game each;
// individual rows are grouped per tournament, round, and table first. Games are
// returned in input order of their first row.
func Games(rows []scorecards.Row, sink issues.Sink) []models.Game {
	if sink == nil {
		sink = issues.Discard{}
	}
	var games []models.Game
	var individual []scorecards.Row
	for _, row := range rows {
		switch row.Schema {
		case scorecards.SchemaPartnership:
			games = append(games, FromPartnershipRow(row))
		case scorecards.SchemaIndividual:
			individual = append(individual, row)
		}
	}
	return append(games, FromIndividualRows(individual, sink)...)
}

// FromPartnershipRow mirrors a partnership row into the reporting side and the
// opposing side.
func FromPartnershipRow(row scorecards.Row) models.Game {
	notes := map[identity.PlayerID]string{}
	if row.Inconsistency != "" {
		for _, seat := range row.Seats() {
			for _, id := range seat.IDs() {
				notes[id] = row.Inconsistency
			}
		}
	}
	reporting := models.Partnership{
		Position1:       row.Seat1,
		Position2:       row.Seat2,
		SeatTricks:      [2]float64{float64(row.Tricks), float64(row.Tricks)},
		Tricks:          float64(row.Tricks),
		Trump:           row.Trump,
		TieBreaks:       [2]*float64{row.TieBreak, nil},
		Inconsistencies: notesFor(notes, row.Seat1, row.Seat2),
	}
	opposing := models.Partnership{
		Position1:       row.Opponent1,
		Position2:       row.Opponent2,
		SeatTricks:      [2]float64{float64(row.OpponentTricks), float64(row.OpponentTricks)},
		Tricks:          float64(row.OpponentTricks),
		Trump:           row.Trump,
		Inconsistencies: notesFor(notes, row.Opponent1, row.Opponent2),
	}
	return models.Game{
		Tournament:   row.Tournament,
		Round:        row.Round,
		Table:        row.Table,
		Trump:        row.Trump,
		Partnerships: [2]models.Partnership{reporting, opposing},
		Note:         row.Inconsistency,
		Source:       row.Source,
	}
}

type tableKey struct {
	tournament string
	round      int
	table      int
}

// FromIndividualRows groups seat rows into tables and pairs each table. Tables
// without exactly four rows are reported and skipped whole.
func FromIndividualRows(rows []scorecards.Row, sink issues.Sink) []models.Game {
	groups := map[tableKey][]scorecards.Row{}
	var order []tableKey
	for _, row := range rows {
		key := tableKey{row.Tournament.ID, row.Round, row.Table}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	games := make([]models.Game, 0, len(order))
	for _, key := range order {
		group := groups[key]
		loc := issues.Location{Sheet: group[0].Source.Sheet, Tournament: key.tournament, Round: key.round, Table: key.table}
		ref := models.GameRef(key.tournament, key.round, key.table)
		if len(group) != SeatsPerTable {
			issue := issues.Error(issues.TypeTablePlayerCountMismatch, loc,
				"table has %d player rows, want %d; table skipped", len(group), SeatsPerTable)
			issue.Game = ref
			sink.Record(issue)
			continue
		}
		games = append(games, pairTable(group, loc, ref, sink))
	}
	return games
}

func pairTable(group []scorecards.Row, loc issues.Location, ref string, sink issues.Sink) models.Game {
	seats := slices.Clone(group)
	slices.SortStableFunc(seats, func(a, b scorecards.Row) int {
		return cmp.Compare(a.Seat1.Name(), b.Seat1.Name())
	})

	tableNote, notes := mergeNotes(seats)

	var partnerships [2]models.Partnership
	for i := range partnerships {
		a, b := seats[2*i], seats[2*i+1]
		p := models.Partnership{
			Position1:       a.Seat1,
			Position2:       b.Seat1,
			SeatTricks:      [2]float64{float64(a.Tricks), float64(b.Tricks)},
			Tricks:          float64(a.Tricks + b.Tricks),
			Trump:           a.Trump,
			TieBreaks:       [2]*float64{a.TieBreak, b.TieBreak},
			Inconsistencies: notesFor(notes, a.Seat1, b.Seat1),
		}
		if p.Tricks != models.TricksPerRound && !a.ImbalanceOK && !b.ImbalanceOK {
			issue := issues.Warning(issues.TypeReverseEngineerTrickMismatch, loc,
				"paired seats %s (%d) and %s (%d) total %d tricks, want %d",
				a.Seat1.Name(), a.Tricks, b.Seat1.Name(), b.Tricks, a.Tricks+b.Tricks, models.TricksPerRound)
			issue.Game = ref
			issue.Player = a.Seat1.Name() + identity.DisplayJoin + b.Seat1.Name()
			sink.Record(issue)
		}
		partnerships[i] = p
	}

	return models.Game{
		Tournament:   seats[0].Tournament,
		Round:        seats[0].Round,
		Table:        seats[0].Table,
		Trump:        seats[0].Trump,
		Partnerships: partnerships,
		Note:         tableNote,
		Source:       loc,
	}
}

// mergeNotes joins the distinct inconsistency notes of a table and maps each
// player to the distinct notes on their own rows.
func mergeNotes(rows []scorecards.Row) (string, map[identity.PlayerID]string) {
	var table []string
	perPlayer := map[identity.PlayerID][]string{}
	for _, row := range rows {
		note := strings.TrimSpace(row.Inconsistency)
		if note == "" {
			continue
		}
		if !slices.Contains(table, note) {
			table = append(table, note)
		}
		for _, id := range row.Seat1.IDs() {
			if !slices.Contains(perPlayer[id], note) {
				perPlayer[id] = append(perPlayer[id], note)
			}
		}
	}
	out := make(map[identity.PlayerID]string, len(perPlayer))
	for id, list := range perPlayer {
		out[id] = strings.Join(list, "; ")
	}
	return strings.Join(table, "; "), out
}

func notesFor(notes map[identity.PlayerID]string, seats ...identity.SeatOccupants) map[identity.PlayerID]string {
	var out map[identity.PlayerID]string
	for _, seat := range seats {
		for _, id := range seat.IDs() {
			if note, ok := notes[id]; ok {
				if out == nil {
					out = map[identity.PlayerID]string{}
				}
				out[id] = note
			}
		}
	}
	return out
}
