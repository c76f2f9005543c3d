package metadata

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/parsers"
)

// Tie breaker sheet columns.
const (
	ColTieTournament = "Tournament"
	ColTiePlayer     = "Player"
	ColTieValue      = "Tie_Break"
)

// TieBreak is one row of the tie breaker sheet. Player is the raw seat token as
// written in the sheet; it is resolved to an entrant key during a pass.
type TieBreak struct {
	Tournament string  `json:"tournament"`
	Player     string  `json:"player"`
	Value      float64 `json:"value"`
}

// Key identifies the row for cache entry lists.
func (t TieBreak) Key() string {
	return t.Tournament + "::" + t.Player
}

// TieBreaksFromTable reads the tie breaker sheet. Rows with an unreadable value
// are reported and skipped.
func TieBreaksFromTable(sheet string, t *parsers.Table, sink issues.Sink) []TieBreak {
	if t == nil {
		return nil
	}
	if sink == nil {
		sink = issues.Discard{}
	}
	out := make([]TieBreak, 0, len(t.Records))
	for _, rec := range t.Records {
		tournament, player := rec.Get(ColTieTournament), rec.Get(ColTiePlayer)
		raw := rec.Get(ColTieValue)
		if tournament == "" || player == "" || raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			sink.Record(issues.Warning(issues.TypeInvalidTieBreak,
				issues.Location{Sheet: sheet, Row: rec.Line, Tournament: tournament},
				"tie break %q for %s is not a number", raw, player))
			continue
		}
		out = append(out, TieBreak{Tournament: tournament, Player: player, Value: value})
	}
	slices.SortStableFunc(out, func(a, b TieBreak) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

// TieBreakIndex maps tournament id and entrant key to an explicit tie break.
type TieBreakIndex map[string]map[string]float64

// IndexTieBreaks resolves each row's player token with keyOf. When a key is
// listed twice the lower value is kept.
func IndexTieBreaks(rows []TieBreak, keyOf func(token string) string) TieBreakIndex {
	idx := TieBreakIndex{}
	for _, row := range rows {
		key := keyOf(row.Player)
		if key == "" {
			continue
		}
		byKey, ok := idx[row.Tournament]
		if !ok {
			byKey = map[string]float64{}
			idx[row.Tournament] = byKey
		}
		if prev, seen := byKey[key]; !seen || row.Value < prev {
			byKey[key] = row.Value
		}
	}
	return idx
}

// Lookup returns the tie break for an entrant, if the sheet lists one.
func (idx TieBreakIndex) Lookup(tournament, key string) (float64, bool) {
	v, ok := idx[tournament][key]
	return v, ok
}
