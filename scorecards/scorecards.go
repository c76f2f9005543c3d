// Package scorecards validates scorecard sheet rows and resolves their
// tournament and players.
//
// Two sheet layouts are accepted. Partnership sheets report one row per table
// with both partnerships; individual sheets report one row per seat and need
// reconciling into partnerships afterwards.
package scorecards

import (
	"errors"
	"fmt"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/parsers"
)

// Scorecard columns shared by both layouts.
const (
	ColID            = "Id"
	ColDate          = "Date"
	ColTournament    = "Tournament"
	ColYear          = "Year"
	ColRound         = "Round"
	ColTrumpSuit     = "Trump_Suit"
	ColTable         = "Table"
	ColTricksWon     = "Tricks_Won"
	ColTieBreak      = "Tie_Break"
	ColImbalanceOK   = "Imbalance_OK"
	ColInconsistency = "Inconsistency"
)

// Partnership layout columns.
const (
	ColPlayer1        = "Player1"
	ColPlayer2        = "Player2"
	ColOpponent1      = "Opponent1"
	ColOpponent2      = "Opponent2"
	ColOpponentTricks = "Opponent_Tricks"
)

// Individual layout column.
const ColPlayer = "Player"

type Schema string

const (
	SchemaPartnership Schema = "partnership"
	SchemaIndividual  Schema = "individual"
)

var ErrUnknownSchema = errors.New("sheet is neither a partnership nor an individual scorecard layout")

// DetectSchema picks the layout from the columns present.
func DetectSchema(has func(column string) bool) (Schema, error) {
	switch {
	case has(ColPlayer1) && has(ColOpponent1):
		return SchemaPartnership, nil
	case has(ColPlayer) && has(ColTricksWon):
		return SchemaIndividual, nil
	}
	return "", ErrUnknownSchema
}

// Row is a validated scorecard row with its tournament and seats resolved.
// Partnership rows fill both sides; individual rows fill Seat1 and Tricks only.
type Row struct {
	Schema     Schema
	Source     issues.Location
	Tournament models.TournamentInfo
	Date       string
	Round      int
	Table      int
	Trump      models.Suit

	Seat1  identity.SeatOccupants
	Seat2  identity.SeatOccupants
	Tricks int

	Opponent1      identity.SeatOccupants
	Opponent2      identity.SeatOccupants
	OpponentTricks int

	TieBreak      *float64
	ImbalanceOK   bool
	Inconsistency string
}

// Ref names the row's game for issue reports.
func (r Row) Ref() string {
	return models.GameRef(r.Tournament.ID, r.Round, r.Table)
}

// Seats returns the row's non-empty seats in column order.
func (r Row) Seats() []identity.SeatOccupants {
	all := []identity.SeatOccupants{r.Seat1, r.Seat2, r.Opponent1, r.Opponent2}
	out := make([]identity.SeatOccupants, 0, len(all))
	for _, s := range all {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// RowError explains why a row was dropped. Type is the issue type recorded.
type RowError struct {
	Type   string
	Column string
	Value  string
	Detail string
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s %q: %s", e.Column, e.Value, e.Detail)
}

// Sheet is one scorecard sheet as read from its source.
type Sheet struct {
	Name  string
	Table *parsers.Table
}
