// Package seeding ranks individual players across all tournaments.
//
// A player earns points per tournament from their finishing position, scaled by
// how recent the tournament is and by bonuses for winning or reaching the top
// three. The sum is then adjusted for recent consistency and past success.
package seeding

import (
	"cmp"
	"slices"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/models"
)

// Points for positions 1 through 11. Any lower position earns belowTablePoints.
var positionPoints = []float64{500, 400, 320, 260, 210, 170, 135, 105, 80, 55, 30}

const (
	belowTablePoints  = 10
	noPositionPoints  = 5
	winBonus          = 1.25
	podiumBonus       = 1.15
	recentWindow      = 6
	minRecent         = 3
	inconsistency     = 0.5
	averageFinishMark = 6
	averageBonus      = 1.10
	legacyBonus       = 1.10
)

// Recency weights by reverse chronological index; older tournaments use
// olderWeight.
var recencyWeights = []float64{1.00, 0.80, 0.60, 0.40, 0.20, 0.10}

const olderWeight = 0.05

// BasePoints returns the points for a finishing position. Position 0 means
// the player took part without a recorded finish.
func BasePoints(position int) float64 {
	switch {
	case position <= 0:
		return noPositionPoints
	case position <= len(positionPoints):
		return positionPoints[position-1]
	}
	return belowTablePoints
}

// RecencyWeight returns the weight for a tournament index, 0 being the most
// recent tournament.
func RecencyWeight(index int) float64 {
	if index < len(recencyWeights) {
		return recencyWeights[index]
	}
	return olderWeight
}

// Appearance is one tournament a player took part in, solo or in a shared
// hand.
type Appearance struct {
	Tournament models.TournamentInfo `json:"tournament" yaml:"tournament"`
	// Recency is the tournament's index among all tournaments, most recent first.
	Recency  int     `json:"recency" yaml:"recency"`
	Entrant  string  `json:"entrant" yaml:"entrant"`
	Shared   bool    `json:"shared" yaml:"shared"`
	Position int     `json:"position,omitempty" yaml:"position,omitempty"`
	Tricks   float64 `json:"tricks" yaml:"tricks"`
	Points   float64 `json:"points" yaml:"points"`
}

// PlayerData is every appearance of one player, most recent first.
type PlayerData struct {
	Player      identity.PlayerID `json:"player" yaml:"player"`
	Appearances []Appearance      `json:"appearances" yaml:"appearances"`
}

// Entry is one line of the seed rankings.
type Entry struct {
	Player            identity.PlayerID `json:"player" yaml:"player"`
	Rank              int               `json:"rank" yaml:"rank"`
	Points            float64           `json:"points" yaml:"points"`
	TournamentsPlayed int               `json:"tournamentsPlayed" yaml:"tournaments played"`
	RecentTournaments int               `json:"recentTournaments" yaml:"recent tournaments"`
	Championships     int               `json:"championships" yaml:"championships"`
	Podiums           int               `json:"podiums" yaml:"podiums"`
	AverageFinish     float64           `json:"averageFinish" yaml:"average finish"`
}

// byRecency orders tournaments most recent first.
func byRecency(tournaments []*models.Tournament) []*models.Tournament {
	out := models.Chronological(tournaments)
	slices.Reverse(out)
	return out
}

// IndividualPlayerData finds a player in every tournament, either through
// their own standing or through a shared hand they were part of. A solo
// standing is preferred when the player has both.
func IndividualPlayerData(tournaments []*models.Tournament, id identity.PlayerID) PlayerData {
	data := PlayerData{Player: id}
	for i, t := range byRecency(tournaments) {
		if a, ok := appearance(t, i, id); ok {
			data.Appearances = append(data.Appearances, a)
		}
	}
	return data
}

func appearance(t *models.Tournament, recency int, id identity.PlayerID) (Appearance, bool) {
	a := Appearance{Tournament: t.TournamentInfo, Recency: recency}
	if entries := t.EntriesFor(id); len(entries) > 0 {
		e := entries[0]
		a.Entrant, a.Shared, a.Position = e.Name, e.Shared, e.Position
		a.Tricks = e.Tricks / float64(len(e.Members))
	} else if part, ok := t.Participation[id]; ok {
		a.Entrant, a.Tricks = string(id), part.Tricks
	} else {
		return Appearance{}, false
	}
	a.Points = TournamentPoints(a.Position, recency)
	return a, true
}

// TournamentPoints scores one finish.
func TournamentPoints(position, recency int) float64 {
	points := BasePoints(position) * RecencyWeight(recency)
	if position == 1 {
		points *= winBonus
	}
	if position >= 1 && position <= 3 {
		points *= podiumBonus
	}
	return points
}

// Score totals a player's appearances and applies the career adjustments.
func Score(data PlayerData) Entry {
	e := Entry{Player: data.Player, TournamentsPlayed: len(data.Appearances)}
	var finishes, finishSum int
	for _, a := range data.Appearances {
		e.Points += a.Points
		if a.Recency < recentWindow {
			e.RecentTournaments++
		}
		if a.Position > 0 {
			finishes++
			finishSum += a.Position
		}
		if a.Position == 1 {
			e.Championships++
		}
		if a.Position >= 1 && a.Position <= 3 {
			e.Podiums++
		}
	}
	if finishes > 0 {
		e.AverageFinish = float64(finishSum) / float64(finishes)
	}

	if e.RecentTournaments < minRecent {
		e.Points *= inconsistency
	}
	if finishes > 0 && e.AverageFinish <= averageFinishMark {
		e.Points *= averageBonus
	}
	if e.Championships > 0 {
		e.Points *= legacyBonus
	}
	return e
}

// OfficialSeedRankings ranks every individual player who appears in any
// tournament. Shared-hand entrants are never ranked as such; their members are
// ranked on their own.
func OfficialSeedRankings(tournaments []*models.Tournament) []Entry {
	var players []identity.PlayerID
	seen := map[identity.PlayerID]bool{}
	add := func(id identity.PlayerID) {
		if seen[id] || models.IsSharedName(string(id)) {
			return
		}
		seen[id] = true
		players = append(players, id)
	}
	for _, t := range tournaments {
		for _, e := range t.Standings {
			for _, id := range e.Members {
				add(id)
			}
		}
		for id := range t.Participation {
			add(id)
		}
	}

	ranked := make([]Entry, 0, len(players))
	for _, id := range players {
		ranked = append(ranked, Score(IndividualPlayerData(tournaments, id)))
	}
	slices.SortFunc(ranked, func(a, b Entry) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
