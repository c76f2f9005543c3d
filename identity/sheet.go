package identity

import (
	"github.com/Nydauron/whistledger/parsers"
)

// Players sheet columns.
const (
	ColID          = "Id"
	ColDisplayName = "DisplayName"
	ColFirstName   = "FirstName"
	ColLastName    = "LastName"
	ColNickname    = "Nickname"
)

// PlayersFromTable reads the players sheet. Rows without an id are skipped.
func PlayersFromTable(t *parsers.Table) []Player {
	if t == nil {
		return nil
	}
	players := make([]Player, 0, len(t.Records))
	for _, rec := range t.Records {
		id := rec.Get(ColID)
		if id == "" {
			continue
		}
		players = append(players, Player{
			ID:          PlayerID(id),
			DisplayName: rec.Get(ColDisplayName),
			FirstName:   rec.Get(ColFirstName),
			LastName:    rec.Get(ColLastName),
			Nickname:    rec.Get(ColNickname),
		})
	}
	return players
}
