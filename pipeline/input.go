package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Nydauron/whistledger/cache"
	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/metadata"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/parsers"
	"github.com/Nydauron/whistledger/scorecards"
)

// Input is every sheet a pass reads, already parsed into tables. Fetching and
// parsing them is left to the caller.
type Input struct {
	SheetID     string
	Players     *parsers.Table
	Aliases     identity.AliasTable
	Tournaments *parsers.Table
	// TieBreakerSheet names the tie breaker sheet in issue locations.
	TieBreakerSheet string
	TieBreakers     *parsers.Table
	Scorecards      []scorecards.Sheet
}

// Collect turns the input sheets into the raw dataset that is cached and
// hashed. Lookup tables are sorted by key; scorecard records keep sheet order.
func Collect(in Input, sink issues.Sink) (cache.RawDataset, error) {
	if sink == nil {
		sink = issues.Discard{}
	}
	var raw cache.RawDataset

	players := dedupePlayers(identity.PlayersFromTable(in.Players), sink)
	players, err := in.Aliases.Apply(players)
	if err != nil {
		return cache.RawDataset{}, fmt.Errorf("apply aliases: %w", err)
	}
	slices.SortFunc(players, func(a, b identity.Player) int { return strings.Compare(string(a.ID), string(b.ID)) })
	for _, p := range players {
		raw.Players = append(raw.Players, cache.Entry[identity.PlayerID, identity.Player]{Key: p.ID, Value: p})
	}

	tournaments := metadata.EntriesFromTable(in.Tournaments)
	slices.SortFunc(tournaments, func(a, b models.TournamentInfo) int { return strings.Compare(a.ID, b.ID) })
	for _, t := range tournaments {
		raw.Tournaments = append(raw.Tournaments, cache.Entry[string, models.TournamentInfo]{Key: t.ID, Value: t})
	}

	sheet := in.TieBreakerSheet
	if sheet == "" {
		sheet = "tie breakers"
	}
	for _, tb := range metadata.TieBreaksFromTable(sheet, in.TieBreakers, sink) {
		raw.TieBreakers = append(raw.TieBreakers, cache.Entry[string, metadata.TieBreak]{Key: tb.Key(), Value: tb})
	}

	// Each sheet keeps its own name so its layout is detected on its own.
	seen := map[string]int{}
	for _, s := range in.Scorecards {
		if s.Table == nil {
			continue
		}
		name := s.Name
		seen[s.Name]++
		if n := seen[s.Name]; n > 1 {
			name = fmt.Sprintf("%s#%d", s.Name, n)
		}
		for _, rec := range s.Table.Records {
			raw.Scorecards = append(raw.Scorecards, cache.RawScorecard{Sheet: name, Row: rec.Line, Fields: rec.Fields})
		}
	}
	return raw, nil
}

// collectedIssue reports whether issues of this type are found by Collect
// rather than by Build.
func collectedIssue(kind string) bool {
	switch kind {
	case issues.TypeDuplicatePlayer, issues.TypeInvalidTieBreak:
		return true
	}
	return false
}

// dedupePlayers keeps the first row for each id.
func dedupePlayers(players []identity.Player, sink issues.Sink) []identity.Player {
	seen := map[identity.PlayerID]bool{}
	out := players[:0:0]
	for _, p := range players {
		if seen[p.ID] {
			issue := issues.Warning(issues.TypeDuplicatePlayer, issues.Location{Sheet: "players"},
				"player %s is listed more than once; the first row is used", p.ID)
			issue.Player = string(p.ID)
			sink.Record(issue)
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// scorecardSheets regroups raw scorecards into per-sheet records, in the order
// sheets first appear.
func scorecardSheets(raw []cache.RawScorecard) ([]string, map[string][]parsers.Record) {
	var names []string
	bySheet := map[string][]parsers.Record{}
	for _, sc := range raw {
		if _, ok := bySheet[sc.Sheet]; !ok {
			names = append(names, sc.Sheet)
		}
		bySheet[sc.Sheet] = append(bySheet[sc.Sheet], parsers.Record{Line: sc.Row, Fields: sc.Fields})
	}
	return names, bySheet
}
