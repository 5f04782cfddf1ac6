package state

import (
	"encoding/json"

	"github.com/verdantpeak/cultivation-engine/pkg/cultivation"
)

// ChoiceRequirements gates a choice on the current run state. The core
// never blocks a turn on requirements; they exist so presentation can
// grey out or hide choices the player cannot take, and so authored
// fixtures can be linted.
type ChoiceRequirements struct {
	MinRealm        string         `json:"min_realm,omitempty"`
	MinStage        *int           `json:"min_stage,omitempty"`
	MinSilver       *int           `json:"min_silver,omitempty"`
	MinSpiritStones *int           `json:"min_spirit_stones,omitempty"`
	MinAttrs        map[string]int `json:"min_attrs,omitempty"`
	Flags           map[string]bool `json:"flags,omitempty"`
	Location        string         `json:"location,omitempty"`
	MinTurns        *int           `json:"min_turns,omitempty"`
	SectRank        string         `json:"sect_rank,omitempty"`
}

// ParseChoiceRequirements decodes a choice's raw requirements payload.
// An empty payload parses to nil: the choice is unconditional.
func ParseChoiceRequirements(raw json.RawMessage) (*ChoiceRequirements, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var r ChoiceRequirements
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Met reports whether every stated requirement holds against the game
// state. An empty requirements block is always met.
func (r *ChoiceRequirements) Met(gs *GameState) bool {
	if r == nil {
		return true
	}

	if r.MinRealm != "" {
		realm := cultivation.ParseRealm(r.MinRealm)
		if realm == cultivation.RealmUnknown || gs.Progress.Realm < realm {
			return false
		}
		// The stage floor only applies inside the named realm; being a
		// whole realm ahead satisfies any stage.
		if r.MinStage != nil && gs.Progress.Realm == realm && gs.Progress.RealmStage < *r.MinStage {
			return false
		}
	} else if r.MinStage != nil && gs.Progress.RealmStage < *r.MinStage {
		return false
	}

	if r.MinSilver != nil && gs.Inventory.Silver < *r.MinSilver {
		return false
	}
	if r.MinSpiritStones != nil && gs.Inventory.SpiritStones < *r.MinSpiritStones {
		return false
	}

	for name, min := range r.MinAttrs {
		if attrValue(gs, name) < min {
			return false
		}
	}

	for name, want := range r.Flags {
		if gs.Flags[name] != want {
			return false
		}
	}

	if r.Location != "" && gs.Location != r.Location {
		return false
	}

	if r.MinTurns != nil && gs.TurnCount < *r.MinTurns {
		return false
	}

	if r.SectRank != "" {
		rank := ParseSectRank(r.SectRank)
		if rank == 0 || gs.Sect == nil || gs.Sect.Rank < rank {
			return false
		}
	}

	return true
}

func attrValue(gs *GameState, name string) int {
	switch name {
	case "str":
		return gs.Attrs.Str
	case "agi":
		return gs.Attrs.Agi
	case "int":
		return gs.Attrs.Int
	case "perception":
		return gs.Attrs.Perception
	case "luck":
		return gs.Attrs.Luck
	}
	return 0
}

// AvailableChoices filters a turn's choices down to the ones whose
// requirements the run currently meets. Choices with a malformed
// requirements payload are treated as unavailable rather than erroring.
func AvailableChoices(choices []Choice, gs *GameState) []Choice {
	out := make([]Choice, 0, len(choices))
	for _, c := range choices {
		req, err := ParseChoiceRequirements(c.Requirements)
		if err != nil {
			continue
		}
		if req.Met(gs) {
			out = append(out, c)
		}
	}
	return out
}
