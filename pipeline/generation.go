package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/Nydauron/whistledger/cache"
	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/metadata"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/seeding"
	"github.com/Nydauron/whistledger/stats"
)

// ErrNoRawData is returned when exporting raw data from a generation that was
// restored from a stats document alone.
var ErrNoRawData = errors.New("generation has no raw data")

// Generation is the complete result of one pass. It is never modified after it
// is built; readers may hold on to one while a newer pass runs.
type Generation struct {
	RunID   string
	SheetID string
	BuiltAt time.Time
	RawHash string
	// FromCache is set when the generation was restored from a stats document
	// instead of being computed.
	FromCache bool

	Raw    cache.RawDataset
	hasRaw bool

	Resolver    *identity.Resolver
	Tournaments []*models.Tournament
	Stats       stats.Result
	Issues      []issues.Issue
}

// Tournament finds a tournament by id.
func (g *Generation) Tournament(id string) (*models.Tournament, bool) {
	for _, t := range g.Tournaments {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Player resolves a token the way scorecards are resolved and returns the
// player's career record.
func (g *Generation) Player(token string) (identity.PlayerID, *stats.PlayerRecord, bool) {
	id, ok := g.Resolver.Lookup(token)
	if !ok {
		id = identity.PlayerID(token)
	}
	rec, ok := g.Stats.Players[id]
	return id, rec, ok
}

// DisplayName returns a player's display name.
func (g *Generation) DisplayName(id identity.PlayerID) string {
	return g.Resolver.DisplayName(id)
}

// SeedRankings ranks every individual player.
func (g *Generation) SeedRankings() []seeding.Entry {
	return seeding.OfficialSeedRankings(g.Tournaments)
}

// PlayerData lists a player's appearances for seeding, including shared hands.
func (g *Generation) PlayerData(id identity.PlayerID) seeding.PlayerData {
	return seeding.IndividualPlayerData(g.Tournaments, id)
}

// RawDocument encodes the generation's input for the raw cache.
func (g *Generation) RawDocument(now time.Time) (*cache.RawDocument, error) {
	if !g.hasRaw {
		return nil, ErrNoRawData
	}
	return cache.NewRawDocument(g.SheetID, g.Raw, g.Issues, now)
}

// StatsDocument encodes everything derived in the generation.
func (g *Generation) StatsDocument(now time.Time) *cache.StatsDocument {
	doc := &cache.StatsDocument{
		SchemaVersion:         cache.SchemaVersion,
		StatsAlgorithmVersion: cache.StatsAlgorithmVersion,
		GeneratedAt:           now.UTC(),
		RawHash:               g.RawHash,
		DataIssues:            g.Issues,
	}
	if doc.DataIssues == nil {
		doc.DataIssues = []issues.Issue{}
	}
	doc.TournamentsEntries = make([]cache.Entry[string, *models.Tournament], 0, len(g.Tournaments))
	for _, t := range g.Tournaments {
		doc.TournamentsEntries = append(doc.TournamentsEntries, cache.Entry[string, *models.Tournament]{Key: t.ID, Value: t})
	}
	doc.PlayersEntries = make([]cache.Entry[identity.PlayerID, *stats.PlayerRecord], 0, len(g.Stats.Players))
	for _, id := range g.Stats.PlayerIDs() {
		doc.PlayersEntries = append(doc.PlayersEntries, cache.Entry[identity.PlayerID, *stats.PlayerRecord]{Key: id, Value: g.Stats.Players[id]})
	}
	doc.PartnershipsEntries = make([]cache.Entry[string, *stats.PairRecord], 0, len(g.Stats.Pairs))
	for _, key := range g.Stats.PairKeys() {
		doc.PartnershipsEntries = append(doc.PartnershipsEntries, cache.Entry[string, *stats.PairRecord]{Key: key, Value: g.Stats.Pairs[key]})
	}

	doc.PlayersLookupEntries = make([]cache.Entry[identity.PlayerID, identity.Player], 0)
	for _, p := range g.Resolver.Players() {
		doc.PlayersLookupEntries = append(doc.PlayersLookupEntries, cache.Entry[identity.PlayerID, identity.Player]{Key: p.ID, Value: p})
	}
	doc.TournamentMetadataEntries = nonNilEntries(g.Raw.Tournaments)
	doc.TieBreakersEntries = nonNilEntries(g.Raw.TieBreakers)
	return doc
}

// FromStats restores a generation from a stats document without recomputing
// anything. raw may be empty when only the stats document is at hand.
func FromStats(sheetID string, doc *cache.StatsDocument, raw *cache.RawDataset) (*Generation, error) {
	players := make([]identity.Player, 0, len(doc.PlayersLookupEntries))
	for _, e := range doc.PlayersLookupEntries {
		players = append(players, e.Value)
	}
	resolver, err := identity.NewResolver(players, issues.Discard{})
	if err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}

	gen := &Generation{
		SheetID:   sheetID,
		BuiltAt:   doc.GeneratedAt,
		RawHash:   doc.RawHash,
		FromCache: true,
		Resolver:  resolver,
		Issues:    doc.DataIssues,
		Stats: stats.Result{
			Players: make(map[identity.PlayerID]*stats.PlayerRecord, len(doc.PlayersEntries)),
			Pairs:   make(map[string]*stats.PairRecord, len(doc.PartnershipsEntries)),
		},
	}
	for _, e := range doc.TournamentsEntries {
		gen.Tournaments = append(gen.Tournaments, e.Value)
	}
	for _, e := range doc.PlayersEntries {
		gen.Stats.Players[e.Key] = e.Value
	}
	for _, e := range doc.PartnershipsEntries {
		gen.Stats.Pairs[e.Key] = e.Value
	}

	if raw != nil {
		gen.Raw, gen.hasRaw = *raw, true
	} else {
		gen.Raw = cache.RawDataset{
			Players:     doc.PlayersLookupEntries,
			Tournaments: doc.TournamentMetadataEntries,
			TieBreakers: doc.TieBreakersEntries,
		}
	}
	return gen, nil
}

func nonNilEntries[K comparable, V any](s []cache.Entry[K, V]) []cache.Entry[K, V] {
	if s == nil {
		return []cache.Entry[K, V]{}
	}
	return s
}

func tieBreakRows(raw cache.RawDataset) []metadata.TieBreak {
	out := make([]metadata.TieBreak, 0, len(raw.TieBreakers))
	for _, e := range raw.TieBreakers {
		out = append(out, e.Value)
	}
	return out
}
