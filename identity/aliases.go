package identity

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasTable lists historical name variants per canonical player id. It is kept
// as data next to the players sheet so that one-off spelling fixes stay auditable.
//
//	aliases:
//	  SteveBlake: ["Stephen Blake", "Stephen"]
type AliasTable map[PlayerID][]string

type aliasFile struct {
	Aliases AliasTable `yaml:"aliases"`
}

// LoadAliases decodes an alias file. An empty document yields an empty table.
func LoadAliases(r io.Reader) (AliasTable, error) {
	var file aliasFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return AliasTable{}, nil
		}
		return nil, fmt.Errorf("decode alias table: %w", err)
	}
	if file.Aliases == nil {
		return AliasTable{}, nil
	}
	return file.Aliases, nil
}

// Apply attaches the table's variants to the matching players. Variants for ids
// missing from players are an error, as is a variant listed under two ids.
func (t AliasTable) Apply(players []Player) ([]Player, error) {
	owners := map[string]PlayerID{}
	index := make(map[PlayerID]int, len(players))
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = p
		out[i].Aliases = slices.Clone(p.Aliases)
		index[p.ID] = i
	}

	ids := make([]PlayerID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("alias table names unknown player %q", id)
		}
		for _, variant := range t[id] {
			variant = strings.TrimSpace(variant)
			if variant == "" {
				continue
			}
			key := fold(variant)
			if owner, seen := owners[key]; seen && owner != id {
				return nil, fmt.Errorf("alias %q listed for both %q and %q", variant, owner, id)
			}
			owners[key] = id
			if !slices.Contains(out[i].Aliases, variant) {
				out[i].Aliases = append(out[i].Aliases, variant)
			}
		}
	}
	return out, nil
}
