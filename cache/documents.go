// Package cache encodes the raw and derived documents a pass reads and writes,
// fingerprints raw input, and stores documents in a local sqlite file.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/metadata"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/stats"
)

const (
	// SchemaVersion is the layout version of both documents.
	SchemaVersion = 2
	// StatsAlgorithmVersion changes whenever derived statistics would come out
	// differently for the same raw input.
	StatsAlgorithmVersion = "2024.3"
)

// Entry is a key and value encoded as a two element JSON array.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

func (e Entry[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Value})
}

func (e *Entry[K, V]) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("cache entry has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Key); err != nil {
		return fmt.Errorf("cache entry key: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Value); err != nil {
		return fmt.Errorf("cache entry value: %w", err)
	}
	return nil
}

// Source names where the raw sheets came from.
type Source struct {
	SheetID string `json:"sheetId"`
}

// RawScorecard is one scorecard record as read, before validation.
type RawScorecard struct {
	Sheet  string            `json:"sheet"`
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

// RawDataset is the input of a pass in cacheable form.
type RawDataset struct {
	Players     []Entry[identity.PlayerID, identity.Player]
	Tournaments []Entry[string, models.TournamentInfo]
	TieBreakers []Entry[string, metadata.TieBreak]
	Scorecards  []RawScorecard
}

// RawDocument is the raw cache: the input tables and the issues they raised.
type RawDocument struct {
	SchemaVersion             int                                         `json:"schemaVersion"`
	GeneratedAt               time.Time                                   `json:"generatedAt"`
	Source                    Source                                      `json:"source"`
	PlayersLookupEntries      []Entry[identity.PlayerID, identity.Player] `json:"playersLookupEntries"`
	TournamentMetadataEntries []Entry[string, models.TournamentInfo]      `json:"tournamentMetadataEntries"`
	TieBreakersEntries        []Entry[string, metadata.TieBreak]          `json:"tieBreakersEntries"`
	RawScorecards             []RawScorecard                              `json:"rawScorecards"`
	DataIssues                []issues.Issue                              `json:"dataIssues"`
	RawHash                   string                                      `json:"rawHash"`
}

// Dataset returns the raw tables held by the document.
func (d *RawDocument) Dataset() RawDataset {
	return RawDataset{
		Players:     d.PlayersLookupEntries,
		Tournaments: d.TournamentMetadataEntries,
		TieBreakers: d.TieBreakersEntries,
		Scorecards:  d.RawScorecards,
	}
}

// NewRawDocument fills a raw document and its hash.
func NewRawDocument(sheetID string, raw RawDataset, found []issues.Issue, now time.Time) (*RawDocument, error) {
	hash, err := RawHash(raw)
	if err != nil {
		return nil, err
	}
	return &RawDocument{
		SchemaVersion:             SchemaVersion,
		GeneratedAt:               now.UTC(),
		Source:                    Source{SheetID: sheetID},
		PlayersLookupEntries:      nonNil(raw.Players),
		TournamentMetadataEntries: nonNil(raw.Tournaments),
		TieBreakersEntries:        nonNil(raw.TieBreakers),
		RawScorecards:             nonNil(raw.Scorecards),
		DataIssues:                nonNil(found),
		RawHash:                   hash,
	}, nil
}

// StatsDocument is the derived cache: everything a pass computed, tied to the
// raw hash it was computed from.
type StatsDocument struct {
	SchemaVersion             int                                             `json:"schemaVersion"`
	StatsAlgorithmVersion     string                                          `json:"statsAlgorithmVersion"`
	GeneratedAt               time.Time                                       `json:"generatedAt"`
	RawHash                   string                                          `json:"rawHash"`
	TournamentsEntries        []Entry[string, *models.Tournament]             `json:"tournamentsEntries"`
	PlayersEntries            []Entry[identity.PlayerID, *stats.PlayerRecord] `json:"playersEntries"`
	PartnershipsEntries       []Entry[string, *stats.PairRecord]              `json:"partnershipsEntries"`
	PlayersLookupEntries      []Entry[identity.PlayerID, identity.Player]     `json:"playersLookupEntries"`
	TournamentMetadataEntries []Entry[string, models.TournamentInfo]          `json:"tournamentMetadataEntries"`
	TieBreakersEntries        []Entry[string, metadata.TieBreak]              `json:"tieBreakersEntries"`
	DataIssues                []issues.Issue                                  `json:"dataIssues"`
}

// ValidFor reports whether the document can stand in for recomputing from the
// raw input with the given hash.
func (d *StatsDocument) ValidFor(rawHash string) bool {
	return StatsValidFor(d, rawHash)
}

// StatsValidFor checks both the raw hash and the algorithm version.
func StatsValidFor(d *StatsDocument, rawHash string) bool {
	return d != nil &&
		d.SchemaVersion == SchemaVersion &&
		d.StatsAlgorithmVersion == StatsAlgorithmVersion &&
		d.RawHash == rawHash
}

// MarshalDocument encodes a document the same way every time, apart from
// generatedAt.
func MarshalDocument(doc any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cache document: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalRaw decodes a raw document and checks its schema version.
func UnmarshalRaw(data []byte) (*RawDocument, error) {
	var doc RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode raw cache: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: raw cache version %d, want %d", ErrSchemaVersion, doc.SchemaVersion, SchemaVersion)
	}
	return &doc, nil
}

// UnmarshalStats decodes a stats document and checks its schema version.
func UnmarshalStats(data []byte) (*StatsDocument, error) {
	var doc StatsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode stats cache: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: stats cache version %d, want %d", ErrSchemaVersion, doc.SchemaVersion, SchemaVersion)
	}
	return &doc, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
