package standings

import (
	"cmp"
	"slices"

	"github.com/Nydauron/whistledger/models"
)

// Structure groups games into tournaments of rounds of tables. Rounds and
// tables are in ascending number order; a table reported twice keeps both
// games' partnerships. Standings are not filled in.
func Structure(games []models.Game) []*models.Tournament {
	type roundKey struct {
		tournament string
		round      int
	}
	byID := map[string]*models.Tournament{}
	var order []string
	tables := map[roundKey]map[int]*models.Table{}

	for _, g := range games {
		t, ok := byID[g.Tournament.ID]
		if !ok {
			t = &models.Tournament{TournamentInfo: g.Tournament}
			byID[g.Tournament.ID] = t
			order = append(order, g.Tournament.ID)
		}
		rk := roundKey{g.Tournament.ID, g.Round}
		if tables[rk] == nil {
			tables[rk] = map[int]*models.Table{}
		}
		tbl, ok := tables[rk][g.Table]
		if !ok {
			tbl = &models.Table{Number: g.Table}
			tables[rk][g.Table] = tbl
		}
		tbl.Partnerships = append(tbl.Partnerships, g.Partnerships[0], g.Partnerships[1])
		if g.Note != "" {
			if tbl.Note != "" {
				tbl.Note += "; "
			}
			tbl.Note += g.Note
		}
	}

	rounds := map[string][]models.Round{}
	for rk, byTable := range tables {
		r := models.Round{Number: rk.round}
		for _, tbl := range byTable {
			r.Tables = append(r.Tables, *tbl)
		}
		slices.SortFunc(r.Tables, func(a, b models.Table) int { return cmp.Compare(a.Number, b.Number) })
		r.Trump = roundTrump(r.Tables)
		rounds[rk.tournament] = append(rounds[rk.tournament], r)
	}

	out := make([]*models.Tournament, 0, len(order))
	for _, id := range order {
		t := byID[id]
		t.Rounds = rounds[id]
		slices.SortFunc(t.Rounds, func(a, b models.Round) int { return cmp.Compare(a.Number, b.Number) })
		out = append(out, t)
	}
	return out
}

// roundTrump is the most common trump among a round's partnerships, scanning
// tables in order; the first suit to reach the top count wins a tie.
func roundTrump(tables []models.Table) models.Suit {
	counts := map[models.Suit]int{}
	best, bestCount := models.SuitNone, 0
	for _, tbl := range tables {
		for _, p := range tbl.Partnerships {
			if p.Trump == models.SuitNone {
				continue
			}
			counts[p.Trump]++
			if counts[p.Trump] > bestCount {
				best, bestCount = p.Trump, counts[p.Trump]
			}
		}
	}
	return best
}
