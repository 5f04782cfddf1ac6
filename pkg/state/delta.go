package state

import "encoding/json"

// Operation is the closed set of mutation verbs the narrative generator
// may emit. Anything else fails turn validation.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpSet      Operation = "set"
	OpMultiply Operation = "multiply"
)

// Valid reports whether the operation is recognized.
func (op Operation) Valid() bool {
	switch op {
	case OpAdd, OpSubtract, OpSet, OpMultiply:
		return true
	}
	return false
}

// Delta is a single declarative state mutation proposed by the
// narrative generator. Field is either a numeric leaf path
// ("stats.hp") or a named composite operation ("inventory.add_item").
// Value is decoded per target: numeric leaves take a number, flags a
// boolean, location/realm a string, composite operations their own
// payload struct. Keeping the raw message here and decoding at the
// point of use gives each composite op an exhaustively-handled typed
// payload instead of duck-typing an any value.
type Delta struct {
	Field     string          `json:"field"`
	Operation Operation       `json:"operation"`
	Value     json.RawMessage `json:"value,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// Composite field names.
const (
	FieldAddItem      = "inventory.add_item"
	FieldRemoveItem   = "inventory.remove_item"
	FieldEquipItem    = "inventory.equip"
	FieldUnequipItem  = "inventory.unequip"
	FieldAddTechnique = "techniques.add"
	FieldAddSkill     = "skills.add"
	FieldGainSkillExp = "skills.gain_exp"
	FieldSectJoin     = "sect.join"
	FieldSectPromote  = "sect.promote"
	FieldSectContrib  = "sect.contribution"
	FieldSectLeave    = "sect.leave"
	FieldPlace        = "location.place"
	FieldRegion       = "location.region"
	FieldRealm        = "progress.realm"
	FieldBodyRealm    = "progress.body_realm"
	FieldTimeSegment  = "time.segment"
)

// GainExpPayload targets a learned skill by id. The generator may also
// send a bare string id, which decodes with the default amount.
type GainExpPayload struct {
	ID     string `json:"id"`
	Amount int    `json:"amount,omitempty"`
}

// EquipPayload names the inventory item to wear and optionally the
// slot; an empty slot resolves from the item's type.
type EquipPayload struct {
	ItemID string        `json:"item_id"`
	Slot   EquipmentSlot `json:"slot,omitempty"`
}

// Choice is a player option offered alongside the narrative. The core
// never interprets choices; they pass through to presentation.
type Choice struct {
	ID           string          `json:"id"`
	Text         string          `json:"text"`
	Cost         map[string]int  `json:"cost,omitempty"`
	Requirements json.RawMessage `json:"requirements,omitempty"`
}

// Event is an externally-authored event attached to a turn. The core
// consumes combat_encounter; everything else passes through untouched.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventTypeCombatEncounter starts an interactive combat session. Its
// data carries an EnemySpec under "enemy".
const EventTypeCombatEncounter = "combat_encounter"

// EnemySpec is the stat block carried by a combat_encounter event.
// TemplateID, when set, names a stored template the spec's zero fields
// are filled from.
type EnemySpec struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id,omitempty"`
	Name       string `json:"name"`
	HP         int    `json:"hp"`
	HPMax      int    `json:"hp_max"`
	Atk        int    `json:"atk"`
	Def        int    `json:"def"`
	Behavior   string `json:"behavior,omitempty"`
	Dungeon    bool   `json:"dungeon,omitempty"`
}

// TurnResult is the schema-valid output of one narrative generation
// call. The engine trusts its structure only after Validate.
type TurnResult struct {
	Narrative      string   `json:"narrative"`
	Choices        []Choice `json:"choices"`
	ProposedDeltas []Delta  `json:"proposed_deltas"`
	Events         []Event  `json:"events,omitempty"`
}
