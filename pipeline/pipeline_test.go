package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Nydauron/whistledger/cache"
	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/parsers"
	"github.com/Nydauron/whistledger/scorecards"
)

const (
	playersSheet = "Id,FirstName,LastName\n" +
		"SteveBlake,Steve,Blake\n" +
		"DanSmith,Dan,Smith\n" +
		"PatJones,Pat,Jones\n" +
		"KimLee,Kim,Lee\n" +
		"LeeChan,Lee,Chan\n"

	tournamentSheet = "Id,Title,Year,Date\n" +
		"Spring2023,Spring Drive,2023,2023-04-01\n" +
		"Autumn2022,Autumn Drive,2022,2022-10-01\n"

	partnershipSheet = "Tournament,Round,Table,Trump Suit,Player1,Player2,Opponent1,Opponent2,Tricks Won,Opponent Tricks\n" +
		"Spring2023,1,1,S,Steve,Dan+Pat,Kim,Lee,8,5\n" +
		"Spring2023,2,1,H,Steve,Kim,Dan+Pat,Lee,6,7\n"

	individualSheet = "Tournament,Round,Table,Trump Suit,Player,Tricks Won\n" +
		"Autumn2022,1,1,C,Steve,4\n" +
		"Autumn2022,1,1,C,Kim,4\n" +
		"Autumn2022,1,1,C,Dan,9\n" +
		"Autumn2022,1,1,C,Lee,9\n"

	tieBreakerSheet = "Tournament,Player,Tie Break\n" +
		"Autumn2022,Lee Chan,1\n"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func table(t *testing.T, text string) *parsers.Table {
	t.Helper()
	tbl, err := parsers.ParseCSV(strings.NewReader(text))
	require.NoError(t, err)
	return tbl
}

func testInput(t *testing.T) Input {
	t.Helper()
	return Input{
		SheetID:         "local",
		Players:         table(t, playersSheet),
		Aliases:         identity.AliasTable{"SteveBlake": {"Stephen"}},
		Tournaments:     table(t, tournamentSheet),
		TieBreakerSheet: "tiebreakers.csv",
		TieBreakers:     table(t, tieBreakerSheet),
		Scorecards: []scorecards.Sheet{
			{Name: "partnerships.csv", Table: table(t, partnershipSheet)},
			{Name: "individual.csv", Table: table(t, individualSheet)},
		},
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
}

func TestProcess(t *testing.T) {
	e := NewEngine(nil, WithClock(fixedClock))
	assert.Nil(t, e.Current())

	gen, err := e.Process(context.Background(), testInput(t))
	require.NoError(t, err)
	assert.Same(t, gen, e.Current())
	assert.NotEmpty(t, gen.RunID)
	assert.Regexp(t, `^h32-[0-9a-f]{8}$`, gen.RawHash)

	require.Len(t, gen.Tournaments, 2)
	assert.Equal(t, "Autumn2022", gen.Tournaments[0].ID)
	assert.Equal(t, "Spring2023", gen.Tournaments[1].ID)

	spring, ok := gen.Tournament("Spring2023")
	require.True(t, ok)
	assert.Equal(t, "DanSmith/PatJones", spring.Winner)

	// Dan partners Kim and Lee partners Steve. Dan and Lee tie on 9 tricks;
	// Lee has the only tie break.
	autumn, _ := gen.Tournament("Autumn2022")
	assert.Equal(t, "LeeChan", autumn.Winner)
	assert.Equal(t, "DanSmith", autumn.RunnerUp)

	id, rec, ok := gen.Player("Stephen")
	require.True(t, ok)
	assert.Equal(t, identity.PlayerID("SteveBlake"), id)
	assert.Equal(t, 2, rec.Combined.Tournaments)
	assert.Equal(t, "Steve Blake", gen.DisplayName(id))

	rankings := gen.SeedRankings()
	require.NotEmpty(t, rankings)
	for _, entry := range rankings {
		assert.NotContains(t, string(entry.Player), "/")
	}
	assert.Len(t, gen.PlayerData("PatJones").Appearances, 1)
	assert.Empty(t, gen.Issues)
}

func TestProcessRecordsIssues(t *testing.T) {
	in := testInput(t)
	in.Players = table(t, playersSheet+"DanSmith,Daniel,Smith\n")
	in.Scorecards = append(in.Scorecards, scorecards.Sheet{
		Name:  "extra.csv",
		Table: table(t, "Tournament,Round,Table,Trump Suit,Player,Tricks Won\nSpring2023,3,1,H,Zed,7\n"),
	})

	gen, err := NewEngine(nil).Process(context.Background(), in)
	require.NoError(t, err)

	types := issueTypes(gen.Issues)
	assert.Contains(t, types, issues.TypeDuplicatePlayer)
	assert.Contains(t, types, issues.TypeMissingPlayerID)
	assert.Contains(t, types, issues.TypeTablePlayerCountMismatch)
}

func TestCollectKeepsSameNamedSheetsApart(t *testing.T) {
	in := testInput(t)
	for i := range in.Scorecards {
		in.Scorecards[i].Name = "pub"
	}

	raw, err := Collect(in, nil)
	require.NoError(t, err)
	names, _ := scorecardSheets(raw.Scorecards)
	assert.Equal(t, []string{"pub", "pub#2"}, names)

	gen, err := NewEngine(nil).Process(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, gen.Issues)
	autumn, ok := gen.Tournament("Autumn2022")
	require.True(t, ok)
	assert.Equal(t, "LeeChan", autumn.Winner)
}

func TestExportStatsIsIdempotent(t *testing.T) {
	in := testInput(t)

	var first, second bytes.Buffer
	a := NewEngine(nil, WithClock(fixedClock))
	_, err := a.Process(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, a.ExportStats(&first))

	b := NewEngine(nil, WithClock(fixedClock))
	_, err = b.Process(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, b.ExportStats(&second))

	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), `"statsAlgorithmVersion": "`+cache.StatsAlgorithmVersion+`"`)
}

func issueTypes(list []issues.Issue) []string {
	var out []string
	for _, issue := range list {
		out = append(out, issue.Type)
	}
	return out
}

func TestRawRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := testInput(t)
	in.Players = table(t, playersSheet+"DanSmith,Daniel,Smith\n")

	e := NewEngine(nil, WithClock(fixedClock))
	gen, err := e.Process(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []string{issues.TypeDuplicatePlayer}, issueTypes(gen.Issues))

	var raw bytes.Buffer
	require.NoError(t, e.ExportRaw(&raw))

	var before bytes.Buffer
	require.NoError(t, e.ExportStats(&before))

	restored := NewEngine(nil, WithClock(fixedClock))
	again, err := restored.ImportRaw(ctx, &raw)
	require.NoError(t, err)
	assert.Equal(t, gen.RawHash, again.RawHash)
	assert.Equal(t, "local", again.SheetID)
	assert.Equal(t, gen.Issues, again.Issues)

	var after bytes.Buffer
	require.NoError(t, restored.ExportStats(&after))
	assert.Equal(t, before.String(), after.String())
}

func TestImportStats(t *testing.T) {
	e := NewEngine(nil, WithClock(fixedClock))
	gen, err := e.Process(context.Background(), testInput(t))
	require.NoError(t, err)

	var doc bytes.Buffer
	require.NoError(t, e.ExportStats(&doc))

	restored := NewEngine(nil, WithClock(fixedClock))
	got, err := restored.ImportStats("local", &doc)
	require.NoError(t, err)
	assert.True(t, got.FromCache)
	assert.Equal(t, gen.RawHash, got.RawHash)
	assert.Equal(t, gen.SeedRankings(), got.SeedRankings())

	assert.ErrorIs(t, restored.ExportRaw(&bytes.Buffer{}), ErrNoRawData)
}

func TestLoadUsesStore(t *testing.T) {
	ctx := context.Background()
	store, err := cache.Open(ctx, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	first, hit, err := NewEngine(nil, WithClock(fixedClock)).Load(ctx, testInput(t), store)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, first.FromCache)

	rawDoc, err := store.GetRaw(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, first.RawHash, rawDoc.RawHash)

	second, hit, err := NewEngine(nil, WithClock(fixedClock)).Load(ctx, testInput(t), store)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.SeedRankings(), second.SeedRankings())

	var a, b bytes.Buffer
	require.NoError(t, engineWith(first).ExportRaw(&a))
	require.NoError(t, engineWith(second).ExportRaw(&b))
	assert.Equal(t, a.String(), b.String())
}

func TestLoadPublishesWhenCacheBusy(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	other, err := cache.Open(ctx, path)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Lock())

	e := NewEngine(nil, WithClock(fixedClock))
	gen, hit, err := e.Load(ctx, testInput(t), store)
	assert.ErrorIs(t, err, cache.ErrLocked)
	assert.False(t, hit)
	require.NotNil(t, gen)
	assert.Same(t, gen, e.Current())

	_, err = store.GetRaw(ctx, "local")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

// engineWith returns an engine already holding gen.
func engineWith(gen *Generation) *Engine {
	e := NewEngine(nil, WithClock(fixedClock))
	e.current.Store(gen)
	return e
}

func TestPassInProgress(t *testing.T) {
	e := NewEngine(nil)
	e.pass.Lock()
	_, err := e.Process(context.Background(), testInput(t))
	e.pass.Unlock()
	assert.ErrorIs(t, err, ErrPassInProgress)
	assert.Nil(t, e.Current())
}

func TestBuildHonoursCancellation(t *testing.T) {
	in := testInput(t)
	raw, err := Collect(in, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, "local", raw, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
