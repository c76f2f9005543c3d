package identity

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Nydauron/whistledger/issues"
)

// Player is one row of the players sheet with its known name variants.
type Player struct {
	ID          PlayerID `json:"id" yaml:"id"`
	DisplayName string   `json:"displayName,omitempty" yaml:"display name,omitempty"`
	FirstName   string   `json:"firstName,omitempty" yaml:"first name,omitempty"`
	LastName    string   `json:"lastName,omitempty" yaml:"last name,omitempty"`
	Nickname    string   `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// FullName is "First Last", falling back to the display name.
func (p Player) FullName() string {
	full := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if full == "" {
		return strings.TrimSpace(p.DisplayName)
	}
	return full
}

// Resolver maps raw seat tokens to canonical player ids. It is built once per
// pass from the players table and never modified afterwards.
type Resolver struct {
	players map[PlayerID]Player
	order   []PlayerID

	exactID    map[PlayerID]struct{}
	foldedID   map[string]PlayerID
	fullNames  map[string]PlayerID
	aliases    map[string]PlayerID
	firstNames map[string][]PlayerID
	idPrefixes map[string][]PlayerID

	sink issues.Sink
}

// NewResolver indexes players. Alias variants that point at two different
// players are rejected.
func NewResolver(players []Player, sink issues.Sink) (*Resolver, error) {
	if sink == nil {
		sink = issues.Discard{}
	}
	r := &Resolver{
		players:    make(map[PlayerID]Player, len(players)),
		exactID:    make(map[PlayerID]struct{}, len(players)),
		foldedID:   map[string]PlayerID{},
		fullNames:  map[string]PlayerID{},
		aliases:    map[string]PlayerID{},
		firstNames: map[string][]PlayerID{},
		idPrefixes: map[string][]PlayerID{},
		sink:       sink,
	}

	for _, p := range players {
		p.ID = PlayerID(strings.TrimSpace(string(p.ID)))
		if p.ID == "" {
			continue
		}
		if _, dup := r.players[p.ID]; dup {
			return nil, fmt.Errorf("player %q listed twice", p.ID)
		}
		r.players[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	slices.Sort(r.order)

	for _, id := range r.order {
		p := r.players[id]
		r.exactID[id] = struct{}{}
		setFirst(r.foldedID, fold(string(id)), id)
		for _, name := range []string{p.FullName(), p.DisplayName} {
			if name != "" {
				setFirst(r.fullNames, fold(name), id)
			}
		}
		for _, alias := range p.Aliases {
			key := fold(alias)
			if key == "" {
				continue
			}
			if owner, ok := r.aliases[key]; ok && owner != id {
				return nil, fmt.Errorf("alias %q claimed by both %q and %q", alias, owner, id)
			}
			r.aliases[key] = id
		}
		for _, first := range []string{p.FirstName, p.Nickname} {
			if key := fold(first); key != "" && !slices.Contains(r.firstNames[key], id) {
				r.firstNames[key] = append(r.firstNames[key], id)
			}
		}
		if prefix := idFirstFragment(string(id)); prefix != "" {
			r.idPrefixes[prefix] = append(r.idPrefixes[prefix], id)
		}
	}
	return r, nil
}

func setFirst(m map[string]PlayerID, key string, id PlayerID) {
	if _, ok := m[key]; !ok && key != "" {
		m[key] = id
	}
}

// Len returns the number of known players.
func (r *Resolver) Len() int { return len(r.players) }

// Player looks up a known player by canonical id.
func (r *Resolver) Player(id PlayerID) (Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Players returns every known player ordered by id.
func (r *Resolver) Players() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Canonicalize resolves one person's token. Resolution order: exact id, full
// name, alias, unique first name or nickname (single-word tokens only), the
// leading fragment of an id, and finally the token itself.
func (r *Resolver) Canonicalize(token string) PlayerID {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if id, ok := r.lookup(token); ok {
		return id
	}
	if len(r.players) > 0 && !IsSharedToken(token) {
		lowered := strings.ToLower(token)
		r.sink.RecordOnce(issues.TypeMissingPlayerID+":"+lowered, issues.Issue{
			Type:     issues.TypeMissingPlayerID,
			Severity: issues.SeverityWarning,
			Message:  fmt.Sprintf("no player matches %q; using the name as its own id", token),
			Player:   token,
		})
	}
	return PlayerID(token)
}

// Lookup resolves a single-person token like Canonicalize but records nothing
// and reports whether a known player matched.
func (r *Resolver) Lookup(token string) (PlayerID, bool) {
	return r.lookup(strings.TrimSpace(token))
}

func (r *Resolver) lookup(token string) (PlayerID, bool) {
	if _, ok := r.exactID[PlayerID(token)]; ok {
		return PlayerID(token), true
	}
	key := fold(token)
	if id, ok := r.foldedID[key]; ok {
		return id, true
	}
	if id, ok := r.fullNames[key]; ok {
		return id, true
	}
	if id, ok := r.aliases[key]; ok {
		return id, true
	}
	if !strings.ContainsRune(token, ' ') {
		if ids := r.firstNames[key]; len(ids) == 1 {
			return ids[0], true
		}
	}
	if ids := r.idPrefixes[token]; len(ids) > 0 {
		return ids[0], true
	}
	return "", false
}

// ParseSeat resolves a seat token that may name several people sharing a hand.
func (r *Resolver) ParseSeat(token string) SeatOccupants {
	parts := SplitShared(token)
	ids := make([]PlayerID, 0, len(parts))
	for _, part := range parts {
		ids = append(ids, r.Canonicalize(part))
	}
	return NewSeatOccupants(ids...)
}

// DisplayName returns the player's display name, or the id itself when the
// player is unknown or has no names.
func (r *Resolver) DisplayName(id PlayerID) string {
	p, ok := r.players[id]
	if !ok {
		return string(id)
	}
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if name := p.FullName(); name != "" {
		return name
	}
	return string(id)
}

// SeatDisplayName joins the members' display names with "/", whatever the
// original delimiter was.
func (r *Resolver) SeatDisplayName(seat SeatOccupants) string {
	names := make([]string, 0, seat.Len())
	for _, id := range seat.IDs() {
		names = append(names, r.DisplayName(id))
	}
	return strings.Join(names, DisplayJoin)
}

// TokenDisplayName displays a raw token without recording issues for unknown
// names.
func (r *Resolver) TokenDisplayName(token string) string {
	parts := SplitShared(token)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if id, ok := r.lookup(part); ok {
			names = append(names, r.DisplayName(id))
			continue
		}
		names = append(names, part)
	}
	return strings.Join(names, DisplayJoin)
}

// fold lower-cases, strips accents, and collapses whitespace so "José  Ruiz"
// and "jose ruiz" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// idFirstFragment returns the leading word of a CamelCase id: "Steve" for
// "SteveBlake". Ids without a second capitalized word have no fragment.
func idFirstFragment(id string) string {
	for i, r := range id {
		if i > 0 && unicode.IsUpper(r) {
			return id[:i]
		}
	}
	return ""
}
