package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/parsers"
)

func sheet(t *testing.T, text string) *parsers.Table {
	t.Helper()
	table, err := parsers.ParseCSV(strings.NewReader(text))
	require.NoError(t, err)
	return table
}

func TestResolveRowYearFallbacks(t *testing.T) {
	entries := EntriesFromTable(sheet(t, "Id,Title,Year\n"+
		"Spring,Spring Drive,2021\n"+
		"Autumn2019,Autumn Drive,\n"+
		"Summer,Summer Drive,\n"+
		"Spring,Duplicate Row,1999\n"))
	require.Len(t, entries, 3)

	tracker := issues.NewTracker(nil)
	r := NewResolver(entries, tracker)

	e, ok := r.ResolveRow("Spring", "", issues.Location{})
	require.True(t, ok)
	assert.Equal(t, 2021, e.Year)
	assert.Equal(t, "Spring Drive", e.Title)

	e, ok = r.ResolveRow(" Autumn2019 ", "2020", issues.Location{})
	require.True(t, ok)
	assert.Equal(t, 2019, e.Year)

	e, ok = r.ResolveRow("Summer", "2022", issues.Location{})
	require.True(t, ok)
	assert.Equal(t, 2022, e.Year)

	assert.Empty(t, tracker.Issues())
}

func TestResolveRowFailures(t *testing.T) {
	tracker := issues.NewTracker(nil)
	r := NewResolver([]Entry{{ID: "Summer"}}, tracker)

	_, ok := r.ResolveRow("", "", issues.Location{Sheet: "rounds", Row: 3})
	assert.False(t, ok)
	_, ok = r.ResolveRow("Winter", "2020", issues.Location{})
	assert.False(t, ok)
	_, ok = r.ResolveRow("Summer", "n/a", issues.Location{})
	assert.False(t, ok)

	got := tracker.Issues()
	require.Len(t, got, 3)
	assert.Equal(t, issues.TypeMissingTournamentID, got[0].Type)
	assert.Equal(t, 3, got[0].Location.Row)
	assert.Equal(t, issues.TypeMissingTournamentMetadata, got[1].Type)
	assert.Equal(t, "Winter", got[1].Location.Tournament)
	assert.Equal(t, issues.TypeMissingTournamentYear, got[2].Type)
	for _, issue := range got {
		assert.Equal(t, issues.SeverityError, issue.Severity)
	}
}

func TestYearFromID(t *testing.T) {
	assert.Equal(t, 2019, YearFromID("Whist2019Spring"))
	assert.Equal(t, 1998, YearFromID("1998"))
	assert.Equal(t, 0, YearFromID("T12019"))
	assert.Equal(t, 0, YearFromID("Spring"))
}

func TestTieBreaks(t *testing.T) {
	tracker := issues.NewTracker(nil)
	rows := TieBreaksFromTable("tiebreakers", sheet(t, "Tournament,Player,Tie Break\n"+
		"Spring,Steve,2\n"+
		"Spring,Dan+Pat,1.5\n"+
		"Spring,Stephen,1\n"+
		"Spring,Kim,abc\n"+
		"Spring,,3\n"), tracker)
	require.Len(t, rows, 3)

	got := tracker.Issues()
	require.Len(t, got, 1)
	assert.Equal(t, issues.TypeInvalidTieBreak, got[0].Type)
	assert.Equal(t, 4, got[0].Location.Row)

	keyOf := func(token string) string {
		if token == "Stephen" {
			return "steve"
		}
		return strings.ToLower(token)
	}
	idx := IndexTieBreaks(rows, keyOf)

	v, ok := idx.Lookup("Spring", "steve")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = idx.Lookup("Spring", "dan+pat")
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = idx.Lookup("Autumn", "steve")
	assert.False(t, ok)
}
