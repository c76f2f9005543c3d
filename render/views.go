package render

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/seeding"
	"github.com/Nydauron/whistledger/stats"
)

// Names maps a canonical id to the name shown to people.
type Names func(identity.PlayerID) string

func memberNames(names Names, members []identity.PlayerID) string {
	out := ""
	for i, id := range members {
		if i > 0 {
			out += identity.DisplayJoin
		}
		out += names(id)
	}
	return out
}

// Tournaments lists every tournament with its winner.
func Tournaments(w io.Writer, tournaments []*models.Tournament, names Names) error {
	rows := make([][]string, 0, len(tournaments))
	for _, t := range tournaments {
		winner, runnerUp := "", ""
		if len(t.Standings) > 0 {
			winner = memberNames(names, t.Standings[0].Members)
		}
		if len(t.Standings) > 1 {
			runnerUp = memberNames(names, t.Standings[1].Members)
		}
		rows = append(rows, []string{t.ID, t.Title, strconv.Itoa(t.Year), strconv.Itoa(len(t.Rounds)), strconv.Itoa(len(t.Standings)), winner, runnerUp})
	}
	return writeString(w, renderTable(
		[]string{"Id", "Title", "Year", "Rounds", "Entrants", "Winner", "Runner-up"},
		rows,
		[]align{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	))
}

// Standings prints one tournament's final standings.
func Standings(w io.Writer, t *models.Tournament, names Names) error {
	title := t.Title
	if title == "" {
		title = t.ID
	}
	if _, err := fmt.Fprintf(w, "%s (%d)\n", title, t.Year); err != nil {
		return err
	}
	rows := make([][]string, 0, len(t.Standings))
	for _, e := range t.Standings {
		shared := ""
		if e.Shared {
			shared = "shared"
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Position),
			memberNames(names, e.Members),
			number(e.Tricks),
			number(e.Rounds),
			optionalNumber(e.TieBreak),
			shared,
		})
	}
	return writeString(w, renderTable(
		[]string{"Pos", "Entrant", "Tricks", "Rounds", "Tie break", ""},
		rows,
		[]align{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

// Rankings prints the seed rankings.
func Rankings(w io.Writer, entries []seeding.Entry, names Names) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			names(e.Player),
			number(e.Points),
			strconv.Itoa(e.TournamentsPlayed),
			strconv.Itoa(e.RecentTournaments),
			strconv.Itoa(e.Championships),
			strconv.Itoa(e.Podiums),
			number(e.AverageFinish),
		})
	}
	return writeString(w, renderTable(
		[]string{"Rank", "Player", "Points", "Played", "Recent", "Wins", "Podiums", "Avg finish"},
		rows,
		[]align{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

// PlayerView is everything shown for one player.
type PlayerView struct {
	ID     identity.PlayerID   `json:"id" yaml:"id"`
	Name   string              `json:"name" yaml:"name"`
	Record *stats.PlayerRecord `json:"record" yaml:"record"`
	Seed   seeding.PlayerData  `json:"seed" yaml:"seed"`
	Pairs  []*stats.PairRecord `json:"partners,omitempty" yaml:"partners,omitempty"`
}

// Player prints a player's career and tournament history.
func Player(w io.Writer, v PlayerView, names Names) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", v.Name, v.ID); err != nil {
		return err
	}
	if v.Record == nil {
		return writeString(w, "no recorded tournaments")
	}
	totals := [][]string{
		totalsRow("Combined", v.Record.Combined),
		totalsRow("Individual", v.Record.Individual),
	}
	if err := writeString(w, renderTable(
		[]string{"", "Tournaments", "Tricks", "Rounds", "Per round", "Wins", "Top 3", "Booby", "Rounds won"},
		totals,
		[]align{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)); err != nil {
		return err
	}

	history := make([][]string, 0, len(v.Record.History))
	for _, a := range v.Record.History {
		history = append(history, []string{a.Tournament, strconv.Itoa(a.Year), a.Entrant, strconv.Itoa(a.Position), number(a.Tricks), number(a.Rounds)})
	}
	if err := writeString(w, renderTable(
		[]string{"Tournament", "Year", "Entrant", "Pos", "Tricks", "Rounds"},
		history,
		[]align{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
	)); err != nil {
		return err
	}

	if len(v.Record.Trumps) > 0 {
		var trumps [][]string
		for _, suit := range models.Suits {
			if rec, ok := v.Record.Trumps[suit]; ok {
				trumps = append(trumps, []string{string(suit), number(rec.Tricks), number(rec.Rounds), number(rec.RoundsWon)})
			}
		}
		if err := writeString(w, renderTable(
			[]string{"Trump", "Tricks", "Rounds", "Rounds won"},
			trumps,
			[]align{alignLeft, alignRight, alignRight, alignRight},
		)); err != nil {
			return err
		}
	}

	if len(v.Pairs) > 0 {
		pairs := make([][]string, 0, len(v.Pairs))
		for _, p := range v.Pairs {
			partner := p.Players[0]
			if partner == v.ID {
				partner = p.Players[1]
			}
			pairs = append(pairs, []string{names(partner), strconv.Itoa(p.Rounds), strconv.Itoa(p.Occurrences()), number(p.Average)})
		}
		return writeString(w, renderTable(
			[]string{"Partner", "Rounds", "Tournaments", "Average"},
			pairs,
			[]align{alignLeft, alignRight, alignRight, alignRight},
		))
	}
	return nil
}

func totalsRow(label string, t stats.Totals) []string {
	return []string{
		label,
		strconv.Itoa(t.Tournaments),
		number(t.Tricks),
		number(t.Rounds),
		number(t.TricksPerRound()),
		strconv.Itoa(t.Wins),
		strconv.Itoa(t.TopThrees),
		strconv.Itoa(t.BoobyPrizes),
		number(t.RoundsWon),
	}
}

// PartnersOf returns the pairs a player appears in, most rounds first.
func PartnersOf(result stats.Result, id identity.PlayerID) []*stats.PairRecord {
	var out []*stats.PairRecord
	for _, key := range result.PairKeys() {
		p := result.Pairs[key]
		if p.Players[0] == id || p.Players[1] == id {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b *stats.PairRecord) int { return b.Rounds - a.Rounds })
	return out
}

// Issues prints the data issues of a pass.
func Issues(w io.Writer, list []issues.Issue) error {
	rows := make([][]string, 0, len(list))
	for _, issue := range list {
		rows = append(rows, []string{string(issue.Severity), issue.Type, issue.Location.String(), issue.Game, issue.Message})
	}
	return writeString(w, renderTable(
		[]string{"Severity", "Type", "Location", "Game", "Message"},
		rows,
		nil,
	))
}
