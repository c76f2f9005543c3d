// Package metadata resolves the tournament named on a scorecard row to its
// canonical record from the tournament sheet.
package metadata

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/parsers"
)

// Tournament sheet columns.
const (
	ColID       = "Id"
	ColTitle    = "Title"
	ColYear     = "Year"
	ColDate     = "Date"
	ColComments = "Comments"
)

var yearRegex = regexp.MustCompile(`(?:^|\D)((?:18|19|20)\d{2})(?:\D|$)`)

// Entry is a tournament sheet row. Year is 0 when the sheet leaves it blank.
type Entry = models.TournamentInfo

// EntriesFromTable reads the tournament sheet, keeping the first row per id.
func EntriesFromTable(t *parsers.Table) []Entry {
	if t == nil {
		return nil
	}
	seen := map[string]struct{}{}
	entries := make([]Entry, 0, len(t.Records))
	for _, rec := range t.Records {
		id := rec.Get(ColID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		year, _ := strconv.Atoi(rec.Get(ColYear))
		entries = append(entries, Entry{
			ID:       id,
			Title:    rec.Get(ColTitle),
			Year:     year,
			Date:     rec.Get(ColDate),
			Comments: rec.Get(ColComments),
		})
	}
	return entries
}

type Resolver struct {
	entries map[string]Entry
	sink    issues.Sink
}

func NewResolver(entries []Entry, sink issues.Sink) *Resolver {
	if sink == nil {
		sink = issues.Discard{}
	}
	r := &Resolver{entries: make(map[string]Entry, len(entries)), sink: sink}
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			continue
		}
		if _, dup := r.entries[id]; !dup {
			e.ID = id
			r.entries[id] = e
		}
	}
	return r
}

// Resolve returns the sheet entry for id with no year fallback applied.
func (r *Resolver) Resolve(id string) (Entry, bool) {
	e, ok := r.entries[strings.TrimSpace(id)]
	return e, ok
}

// Entries returns every entry ordered by id.
func (r *Resolver) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// ResolveRow applies the row-level rules: a row needs a tournament id, the id
// must be in the sheet, and a year must come from the sheet, the id itself, or
// the row, in that order. Failures are recorded as errors and the row is dropped.
func (r *Resolver) ResolveRow(rawID, rowYear string, loc issues.Location) (Entry, bool) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		r.sink.Record(issues.Error(issues.TypeMissingTournamentID, loc, "row has no tournament id"))
		return Entry{}, false
	}
	loc.Tournament = id
	entry, ok := r.entries[id]
	if !ok {
		r.sink.Record(issues.Error(issues.TypeMissingTournamentMetadata, loc, "tournament %q is not in the tournament sheet", id))
		return Entry{}, false
	}
	if entry.Year == 0 {
		entry.Year = YearFromID(id)
	}
	if entry.Year == 0 {
		if y, err := strconv.Atoi(strings.TrimSpace(rowYear)); err == nil && y > 0 {
			entry.Year = y
		}
	}
	if entry.Year == 0 {
		r.sink.Record(issues.Error(issues.TypeMissingTournamentYear, loc, "no year for tournament %q", id))
		return Entry{}, false
	}
	return entry, true
}

// YearFromID returns a four digit year embedded in a tournament id, or 0.
func YearFromID(id string) int {
	m := yearRegex.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}
