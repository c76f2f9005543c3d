package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/standings"
	"github.com/Nydauron/whistledger/stats"
)

var (
	spring = models.TournamentInfo{ID: "Spring2023", Title: "Spring", Year: 2023}
	autumn = models.TournamentInfo{ID: "Autumn2022", Title: "Autumn", Year: 2022}
)

func seat(ids ...identity.PlayerID) identity.SeatOccupants {
	return identity.NewSeatOccupants(ids...)
}

func side(a, b identity.SeatOccupants, tricks float64, trump models.Suit) models.Partnership {
	return models.Partnership{
		Position1:  a,
		Position2:  b,
		SeatTricks: [2]float64{tricks, tricks},
		Tricks:     tricks,
		Trump:      trump,
	}
}

func game(info models.TournamentInfo, round int, first, second models.Partnership) models.Game {
	return models.Game{Tournament: info, Round: round, Table: 1, Partnerships: [2]models.Partnership{first, second}}
}

func aggregate(t *testing.T) stats.Result {
	t.Helper()
	tournaments := standings.Structure([]models.Game{
		game(spring, 1,
			side(seat("Steve"), seat("Dan", "Pat"), 8, models.SuitSpades),
			side(seat("Kim"), seat("Lee"), 5, models.SuitSpades)),
		game(spring, 2,
			side(seat("Steve"), seat("Kim"), 6, models.SuitHearts),
			side(seat("Dan", "Pat"), seat("Lee"), 7, models.SuitHearts)),
		game(autumn, 1,
			side(seat("Steve"), seat("Kim"), 9, models.SuitNone),
			side(seat("Dan"), seat("Lee"), 4, models.SuitNone)),
	})
	standings.Calculate(tournaments, nil)
	return stats.Aggregate(tournaments)
}

func TestAggregateSoloPlayer(t *testing.T) {
	res := aggregate(t)
	steve := res.Players["Steve"]
	require.NotNil(t, steve)

	want := stats.Totals{Tournaments: 2, Tricks: 23, Rounds: 3, TopThrees: 2, RoundsWon: 2}
	assert.Equal(t, want, steve.Combined)
	assert.Equal(t, want, steve.Individual)
	assert.InDelta(t, 23.0/3, steve.Combined.TricksPerRound(), 1e-9)
	assert.Equal(t, 0.0, steve.Combined.WinRate())
	assert.Equal(t, 0.5, res.Players["Kim"].Combined.WinRate())

	require.Len(t, steve.History, 2)
	assert.Equal(t, "Autumn2022", steve.History[0].Tournament)
	assert.Equal(t, "Spring2023", steve.History[1].Tournament)
	assert.Equal(t, 2, steve.History[1].Position)

	assert.Equal(t, &stats.SuitRecord{Tricks: 8, Rounds: 1, RoundsWon: 1}, steve.Trumps[models.SuitSpades])
	assert.Equal(t, &stats.SuitRecord{Tricks: 6, Rounds: 1}, steve.Trumps[models.SuitHearts])
	assert.NotContains(t, steve.Trumps, models.SuitNone)
}

func TestAggregateSharedHands(t *testing.T) {
	res := aggregate(t)
	dan := res.Players["Dan"]
	require.NotNil(t, dan)

	// Spring: half of Dan/Pat's 15 tricks and a win. Autumn: alone, 4 tricks.
	assert.Equal(t, 2, dan.Combined.Tournaments)
	assert.Equal(t, 11.5, dan.Combined.Tricks)
	assert.Equal(t, 2.0, dan.Combined.Rounds)
	assert.Equal(t, 1, dan.Combined.Wins)
	assert.Equal(t, 1.0, dan.Combined.RoundsWon)

	assert.Equal(t, stats.Totals{Tournaments: 1, Tricks: 4, Rounds: 1, TopThrees: 1, BoobyPrizes: 1}, dan.Individual)

	visit := dan.History[1]
	assert.Equal(t, "Dan/Pat", visit.Entrant)
	assert.True(t, visit.Shared)
	assert.Equal(t, 1, visit.Position)
	assert.Equal(t, 7.5, visit.Tricks)

	pat := res.Players["Pat"]
	assert.Equal(t, 0, pat.Individual.Tournaments)
	assert.Equal(t, 1, pat.Combined.Tournaments)
}

func TestAggregateBoobyPrize(t *testing.T) {
	res := aggregate(t)
	assert.Equal(t, 1, res.Players["Kim"].Combined.BoobyPrizes)
	assert.Equal(t, 1, res.Players["Lee"].Combined.BoobyPrizes)
	assert.Equal(t, 0, res.Players["Steve"].Combined.BoobyPrizes)
	assert.Equal(t, 1, res.Players["Dan"].Combined.BoobyPrizes)
}

func TestAggregatePlacesPlayerOncePerTournament(t *testing.T) {
	tournaments := standings.Structure([]models.Game{
		game(spring, 1,
			side(seat("Dan"), seat("Kim"), 9, models.SuitClubs),
			side(seat("Lee"), seat("Steve"), 4, models.SuitClubs)),
		game(spring, 2,
			side(seat("Dan", "Pat"), seat("Lee"), 9, models.SuitClubs),
			side(seat("Kim"), seat("Steve"), 4, models.SuitClubs)),
		game(spring, 3,
			side(seat("Dan", "Pat"), seat("Steve"), 9, models.SuitClubs),
			side(seat("Kim"), seat("Lee"), 4, models.SuitClubs)),
	})
	standings.Calculate(tournaments, nil)
	require.Len(t, tournaments, 1)
	// Dan/Pat first on 18; Kim, Lee and Steve on 17; Dan alone last on 9.
	assert.Equal(t, "Dan/Pat", tournaments[0].Winner)

	res := stats.Aggregate(tournaments)
	dan := res.Players["Dan"]
	require.NotNil(t, dan)
	assert.Equal(t, stats.Totals{Tournaments: 1, Tricks: 18, Rounds: 2, Wins: 1, TopThrees: 1, RoundsWon: 2}, dan.Combined)
	assert.Len(t, dan.History, 2)
	assert.Zero(t, dan.Individual.Tournaments)

	pat := res.Players["Pat"]
	assert.Equal(t, 1, pat.Combined.Wins)
	assert.Equal(t, 1, res.Players["Kim"].Combined.TopThrees)
}

func TestAggregatePairs(t *testing.T) {
	res := aggregate(t)
	assert.Equal(t, []string{"Dan&Lee", "Kim&Lee", "Kim&Steve"}, res.PairKeys())

	pair := res.Pairs[stats.PairKey("Steve", "Kim")]
	require.NotNil(t, pair)
	assert.Equal(t, [2]identity.PlayerID{"Kim", "Steve"}, pair.Players)
	assert.Equal(t, 15.0, pair.Tricks)
	assert.Equal(t, 2, pair.Rounds)
	assert.Equal(t, 7.5, pair.Average)
	assert.Equal(t, 2, pair.Occurrences())

	top := res.TopPairs(2)
	require.Len(t, top, 1)
	assert.Equal(t, pair, top[0])

	all := res.TopPairs(1)
	require.Len(t, all, 3)
	assert.Equal(t, "Kim&Steve", stats.PairKey(all[0].Players[0], all[0].Players[1]))
}

func TestAggregateEmpty(t *testing.T) {
	res := stats.Aggregate(nil)
	assert.Empty(t, res.Players)
	assert.Empty(t, res.PlayerIDs())
}
