package issues

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationString(t *testing.T) {
	loc := Location{Sheet: "rounds.csv", Row: 4, Tournament: "Spring2023", Round: 2, Table: 3}
	assert.Equal(t, "rounds.csv / row 4 / Spring2023 / round 2 / table 3", loc.String())
	assert.Equal(t, "players", Location{Sheet: "players"}.String())
	assert.Empty(t, Location{}.String())
}

func TestTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(slog.New(slog.NewTextHandler(&buf, nil)))

	tracker.Record(Warning(TypeInvalidTricks, Location{Row: 1}, "tricks %q", "x"))
	assert.True(t, tracker.RecordOnce("unknown:zed", Warning(TypeMissingPlayerID, Location{}, "unknown Zed")))
	assert.False(t, tracker.RecordOnce("unknown:zed", Warning(TypeMissingPlayerID, Location{}, "unknown Zed")))
	tracker.Record(Error(TypeUnknownSchema, Location{Sheet: "odd.csv"}, "no schema"))

	got := tracker.Issues()
	assert.Len(t, got, 3)
	assert.Equal(t, `tricks "x"`, got[0].Message)
	assert.Equal(t, map[Severity]int{SeverityWarning: 2, SeverityError: 1}, tracker.Counts())
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "issue_type=unknown_schema")

	got[0].Message = "changed"
	assert.Equal(t, `tricks "x"`, tracker.Issues()[0].Message)

	tracker.Reset()
	assert.Empty(t, tracker.Issues())
	assert.True(t, tracker.RecordOnce("unknown:zed", Warning(TypeMissingPlayerID, Location{}, "unknown Zed")))
}

func TestDiscard(t *testing.T) {
	var sink Sink = Discard{}
	sink.Record(Issue{})
	assert.False(t, sink.RecordOnce("k", Issue{}))
}
