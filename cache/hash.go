package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
)

// HashPrefix tags the hash algorithm in every raw hash.
const HashPrefix = "h32-"

// hashedInput is the part of a raw dataset the hash covers.
type hashedInput struct {
	Players     any `json:"playersLookupEntries"`
	Tournaments any `json:"tournamentMetadataEntries"`
	TieBreakers any `json:"tieBreakersEntries"`
	Scorecards  any `json:"rawScorecards"`
}

// RawHash fingerprints the raw tables. Object keys are sorted at every level
// before hashing, so field order in the source does not matter.
func RawHash(raw RawDataset) (string, error) {
	canonical, err := CanonicalJSON(hashedInput{
		Players:     nonNil(raw.Players),
		Tournaments: nonNil(raw.Tournaments),
		TieBreakers: nonNil(raw.TieBreakers),
		Scorecards:  nonNil(raw.Scorecards),
	})
	if err != nil {
		return "", fmt.Errorf("hash raw dataset: %w", err)
	}
	return HashString(string(canonical)), nil
}

// CanonicalJSON encodes v with every object's keys sorted and no insignificant
// whitespace.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// HashString is the 32-bit rolling hash h = h*31 + c over UTF-16 code units,
// with int32 wraparound.
func HashString(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return fmt.Sprintf("%s%08x", HashPrefix, uint32(h))
}
