package identity

import (
	"encoding/json"
	"slices"
	"strings"
)

// PlayerID is a canonical player identifier from the players sheet. Tokens that
// could not be resolved keep their raw text.
type PlayerID string

// Delimiters that join several people sharing one seat, in the priority order
// used to split a token.
const sharedDelimiters = "+/&"

// DisplayJoin joins the members of a shared seat for display.
const DisplayJoin = "/"

// SeatOccupants is the ordered, deduplicated set of players holding one seat.
// A seat held by more than one player is a shared hand.
type SeatOccupants struct {
	ids []PlayerID
	key string
}

// NewSeatOccupants keeps the first occurrence of each non-empty id.
func NewSeatOccupants(ids ...PlayerID) SeatOccupants {
	out := make([]PlayerID, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return SeatOccupants{ids: out, key: combinationKey(out)}
}

func combinationKey(ids []PlayerID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strings.ToLower(string(id))
	}
	slices.Sort(parts)
	return strings.Join(parts, "+")
}

// IDs returns a copy of the members in seat order.
func (s SeatOccupants) IDs() []PlayerID {
	return slices.Clone(s.ids)
}

func (s SeatOccupants) Len() int { return len(s.ids) }

func (s SeatOccupants) Empty() bool { return len(s.ids) == 0 }

func (s SeatOccupants) Shared() bool { return len(s.ids) > 1 }

// First returns the first member, or "" for an empty seat.
func (s SeatOccupants) First() PlayerID {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[0]
}

func (s SeatOccupants) Contains(id PlayerID) bool {
	return slices.Contains(s.ids, id)
}

// Key is the combination key: members lower-cased, sorted, and joined with "+".
// Two seats with the same members in any order share a key.
func (s SeatOccupants) Key() string { return s.key }

// Equal compares membership, ignoring seat order.
func (s SeatOccupants) Equal(o SeatOccupants) bool { return s.key == o.key }

// Overlaps reports whether any player holds both seats.
func (s SeatOccupants) Overlaps(o SeatOccupants) bool {
	for _, id := range s.ids {
		if o.Contains(id) {
			return true
		}
	}
	return false
}

// Name joins the canonical ids with DisplayJoin.
func (s SeatOccupants) Name() string {
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, DisplayJoin)
}

func (s SeatOccupants) String() string { return s.Name() }

func (s SeatOccupants) MarshalJSON() ([]byte, error) {
	ids := s.ids
	if ids == nil {
		ids = []PlayerID{}
	}
	return json.Marshal(ids)
}

func (s *SeatOccupants) UnmarshalJSON(data []byte) error {
	var ids []PlayerID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSeatOccupants(ids...)
	return nil
}

func (s SeatOccupants) MarshalYAML() (any, error) {
	out := make([]string, len(s.ids))
	for i, id := range s.ids {
		out[i] = string(id)
	}
	return out, nil
}

// IsSharedToken reports whether a raw seat token names more than one person.
func IsSharedToken(token string) bool {
	return strings.ContainsAny(token, sharedDelimiters)
}

// SplitShared splits a seat token on the first delimiter type present, checked
// in the order "+", "/", "&". Parts are trimmed and empty parts dropped.
func SplitShared(token string) []string {
	for _, delim := range sharedDelimiters {
		if !strings.ContainsRune(token, delim) {
			continue
		}
		raw := strings.Split(token, string(delim))
		parts := make([]string, 0, len(raw))
		for _, part := range raw {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		return parts
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		return []string{trimmed}
	}
	return nil
}
