package scorecards

import (
	"math"
	"strconv"
	"strings"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/metadata"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/parsers"
)

var truthyValues = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "x": true, "✓": true, "✔": true, "ok": true,
}

// Loader turns scorecard records into Rows, recording an issue for every row
// it drops or flags.
type Loader struct {
	Players     *identity.Resolver
	Tournaments *metadata.Resolver
	Sink        issues.Sink
}

// LoadSheet validates every record of one sheet. The layout is detected from
// the first record's columns; an unknown layout drops the whole sheet.
func (l *Loader) LoadSheet(name string, records []parsers.Record) []Row {
	if len(records) == 0 {
		return nil
	}
	schema, err := DetectSchema(records[0].Has)
	if err != nil {
		l.Sink.Record(issues.Error(issues.TypeUnknownSchema, issues.Location{Sheet: name}, "%v", err))
		return nil
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		loc := issues.Location{Sheet: name, Row: rec.Line}
		row, ok := l.load(rec, schema, loc)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func blankRecord(rec parsers.Record) bool {
	for _, v := range rec.Fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (l *Loader) load(rec parsers.Record, schema Schema, loc issues.Location) (Row, bool) {
	tournament, ok := l.Tournaments.ResolveRow(rec.Get(ColTournament), rec.Get(ColYear), loc)
	if !ok {
		return Row{}, false
	}
	loc.Tournament = tournament.ID

	row, err := l.validate(rec, schema)
	if err != nil {
		issue := issues.Error(err.Type, loc, "row dropped: %v", err)
		issue.Game = models.GameRef(tournament.ID, row.Round, row.Table)
		l.Sink.Record(issue)
		return Row{}, false
	}
	row.Tournament = tournament
	loc.Round, loc.Table = row.Round, row.Table
	row.Source = loc

	if raw := rec.Get(ColTieBreak); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			row.TieBreak = &v
		} else {
			issue := issues.Warning(issues.TypeInvalidTieBreak, loc, "tie break %q is not a number; ignored", raw)
			issue.Game = row.Ref()
			l.Sink.Record(issue)
		}
	}

	l.flag(row)
	return row, true
}

func (l *Loader) validate(rec parsers.Record, schema Schema) (Row, *RowError) {
	row := Row{
		Schema:        schema,
		Date:          rec.Get(ColDate),
		ImbalanceOK:   truthyValues[strings.ToLower(rec.Get(ColImbalanceOK))],
		Inconsistency: rec.Get(ColInconsistency),
	}

	var err *RowError
	if row.Round, err = positiveInt(rec, ColRound, issues.TypeInvalidRound); err != nil {
		return row, err
	}
	if row.Table, err = positiveInt(rec, ColTable, issues.TypeInvalidTable); err != nil {
		return row, err
	}

	rawTrump := rec.Get(ColTrumpSuit)
	trump, ok := models.ParseSuit(rawTrump)
	if !ok {
		return row, &RowError{Type: issues.TypeInvalidTrumpSuit, Column: ColTrumpSuit, Value: rawTrump, Detail: "unknown trump suit"}
	}
	row.Trump = trump

	if row.Tricks, err = tricks(rec, ColTricksWon); err != nil {
		return row, err
	}

	switch schema {
	case SchemaIndividual:
		if row.Seat1, err = l.seat(rec, ColPlayer); err != nil {
			return row, err
		}
	case SchemaPartnership:
		if row.OpponentTricks, err = tricks(rec, ColOpponentTricks); err != nil {
			return row, err
		}
		seats := []*identity.SeatOccupants{&row.Seat1, &row.Seat2, &row.Opponent1, &row.Opponent2}
		for i, col := range []string{ColPlayer1, ColPlayer2, ColOpponent1, ColOpponent2} {
			if *seats[i], err = l.seat(rec, col); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}

func (l *Loader) seat(rec parsers.Record, column string) (identity.SeatOccupants, *RowError) {
	token := rec.Get(column)
	seat := l.Players.ParseSeat(token)
	if seat.Empty() {
		return seat, &RowError{Type: issues.TypeMissingPlayerID, Column: column, Value: token, Detail: "no player named"}
	}
	return seat, nil
}

// flag records the warnings for a row that is kept.
func (l *Loader) flag(row Row) {
	seats := row.Seats()
	for i := range seats {
		for j := i + 1; j < len(seats); j++ {
			if seats[i].Overlaps(seats[j]) {
				issue := issues.Warning(issues.TypeDuplicateSeat, row.Source,
					"%s and %s share a player in one game", seats[i].Name(), seats[j].Name())
				issue.Game = row.Ref()
				l.Sink.Record(issue)
			}
		}
	}

	if row.Schema == SchemaPartnership && !row.ImbalanceOK && row.Tricks+row.OpponentTricks != models.TricksPerRound {
		issue := issues.Warning(issues.TypeTrickSumMismatch, row.Source,
			"tricks %d + %d do not make %d", row.Tricks, row.OpponentTricks, models.TricksPerRound)
		issue.Game = row.Ref()
		l.Sink.Record(issue)
	}

	if row.Inconsistency != "" {
		issue := issues.Warning(issues.TypeInconsistencyNote, row.Source, "%s", row.Inconsistency)
		issue.Game = row.Ref()
		issue.Player = row.Seat1.Name()
		l.Sink.Record(issue)
	}
}

func positiveInt(rec parsers.Record, column, kind string) (int, *RowError) {
	raw := rec.Get(column)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &RowError{Type: kind, Column: column, Value: raw, Detail: "must be a positive whole number"}
	}
	return n, nil
}

// tricks accepts whole numbers written as "7" or "7.0" in the range 0..13.
func tricks(rec parsers.Record, column string) (int, *RowError) {
	raw := rec.Get(column)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) {
		return 0, &RowError{Type: issues.TypeInvalidTricks, Column: column, Value: raw, Detail: "not a whole number of tricks"}
	}
	if v < 0 || v > models.TricksPerRound {
		return 0, &RowError{Type: issues.TypeInvalidTricks, Column: column, Value: raw, Detail: "outside 0..13"}
	}
	return int(v), nil
}
