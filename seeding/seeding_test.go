package seeding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/seeding"
	"github.com/Nydauron/whistledger/standings"
)

var (
	spring = models.TournamentInfo{ID: "Spring2023", Year: 2023}
	autumn = models.TournamentInfo{ID: "Autumn2022", Year: 2022}
)

func seat(ids ...identity.PlayerID) identity.SeatOccupants {
	return identity.NewSeatOccupants(ids...)
}

func side(a, b identity.SeatOccupants, tricks float64) models.Partnership {
	return models.Partnership{Position1: a, Position2: b, SeatTricks: [2]float64{tricks, tricks}, Tricks: tricks}
}

func game(info models.TournamentInfo, round int, first, second models.Partnership) models.Game {
	return models.Game{Tournament: info, Round: round, Table: 1, Partnerships: [2]models.Partnership{first, second}}
}

// Spring: Dan/Pat 15, Steve 14, Lee 12, Kim 11. Autumn: Kim 9, Steve 9, Dan 4, Lee 4.
func tournaments() []*models.Tournament {
	ts := standings.Structure([]models.Game{
		game(spring, 1, side(seat("Steve"), seat("Dan", "Pat"), 8), side(seat("Kim"), seat("Lee"), 5)),
		game(spring, 2, side(seat("Steve"), seat("Kim"), 6), side(seat("Dan", "Pat"), seat("Lee"), 7)),
		game(autumn, 1, side(seat("Steve"), seat("Kim"), 9), side(seat("Dan"), seat("Lee"), 4)),
	})
	standings.Calculate(ts, nil)
	return ts
}

func TestBasePoints(t *testing.T) {
	assert.Equal(t, 500.0, seeding.BasePoints(1))
	assert.Equal(t, 30.0, seeding.BasePoints(11))
	assert.Equal(t, 10.0, seeding.BasePoints(12))
	assert.Equal(t, 5.0, seeding.BasePoints(0))
	assert.Equal(t, 1.0, seeding.RecencyWeight(0))
	assert.Equal(t, 0.1, seeding.RecencyWeight(5))
	assert.Equal(t, 0.05, seeding.RecencyWeight(40))
}

func TestTournamentPoints(t *testing.T) {
	assert.InDelta(t, 718.75, seeding.TournamentPoints(1, 0), 1e-9)
	assert.InDelta(t, 368.0, seeding.TournamentPoints(3, 0), 1e-9)
	assert.InDelta(t, 208.0, seeding.TournamentPoints(4, 1), 1e-9)
}

func TestIndividualPlayerDataSharedHand(t *testing.T) {
	data := seeding.IndividualPlayerData(tournaments(), "Pat")
	require.Len(t, data.Appearances, 1)

	a := data.Appearances[0]
	assert.Equal(t, "Spring2023", a.Tournament.ID)
	assert.Equal(t, 0, a.Recency)
	assert.Equal(t, "Dan/Pat", a.Entrant)
	assert.True(t, a.Shared)
	assert.Equal(t, 1, a.Position)
	assert.Equal(t, 7.5, a.Tricks)
}

func TestIndividualPlayerDataParticipationOnly(t *testing.T) {
	tour := &models.Tournament{
		TournamentInfo: spring,
		Participation:  map[identity.PlayerID]models.Participation{"Ghost": {Tricks: 3, Rounds: 1}},
	}
	data := seeding.IndividualPlayerData([]*models.Tournament{tour}, "Ghost")
	require.Len(t, data.Appearances, 1)
	assert.Equal(t, 0, data.Appearances[0].Position)
	assert.Equal(t, 5.0, data.Appearances[0].Points)

	entry := seeding.Score(data)
	assert.Equal(t, 2.5, entry.Points)
	assert.Equal(t, 0.0, entry.AverageFinish)
}

func TestOfficialSeedRankings(t *testing.T) {
	ranked := seeding.OfficialSeedRankings(tournaments())

	type row struct {
		player identity.PlayerID
		points float64
	}
	want := []row{
		{"Dan", 612.95575},
		{"Kim", 505.175},
		{"Steve", 455.4},
		{"Pat", 434.84375},
		{"Lee", 316.8},
	}
	require.Len(t, ranked, len(want))
	for i, w := range want {
		assert.Equal(t, w.player, ranked[i].Player)
		assert.Equal(t, i+1, ranked[i].Rank)
		assert.InDelta(t, w.points, ranked[i].Points, 1e-6, "points for %s", w.player)
	}

	dan := ranked[0]
	assert.Equal(t, 2, dan.TournamentsPlayed)
	assert.Equal(t, 2, dan.RecentTournaments)
	assert.Equal(t, 1, dan.Championships)
	assert.Equal(t, 2, dan.Podiums)
	assert.Equal(t, 2.0, dan.AverageFinish)
}

func TestOfficialSeedRankingsSkipsSharedNames(t *testing.T) {
	tour := &models.Tournament{
		TournamentInfo: spring,
		Standings: []models.StandingEntry{
			{Key: "x/y", Name: "X/Y", Members: []identity.PlayerID{"X/Y"}, Tricks: 20, Position: 1},
			{Key: "z", Name: "Z", Members: []identity.PlayerID{"Z"}, Tricks: 10, Position: 2},
		},
	}
	ranked := seeding.OfficialSeedRankings([]*models.Tournament{tour})
	require.Len(t, ranked, 1)
	assert.Equal(t, identity.PlayerID("Z"), ranked[0].Player)
}
