package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/verdantpeak/cultivation-engine/pkg/cultivation"
)

// Default exp grant for a narrative skills.gain_exp delta that carries
// no usable amount. Midpoint of the 15-30 band narrative grants use.
const defaultNarrativeSkillExp = 20

// DeltaWorker applies an ordered list of deltas to a game state.
// Deltas apply in array order against the already-mutated state, so a
// later delta can rely on an earlier one within the same turn. Each
// numeric mutation is clamped to its declared bounds; malformed or
// unknown deltas are skipped with a warning and never abort the turn.
type DeltaWorker struct {
	gs     *GameState
	logger *slog.Logger

	events   []DomainEvent
	warnings []Warning
}

// NewDeltaWorker creates a worker bound to one game state snapshot.
// A nil logger falls back to slog.Default().
func NewDeltaWorker(gs *GameState, logger *slog.Logger) *DeltaWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaWorker{gs: gs, logger: logger}
}

// Events returns the domain events emitted so far.
func (dw *DeltaWorker) Events() []DomainEvent { return dw.events }

// Warnings returns the per-delta warnings recorded so far.
func (dw *DeltaWorker) Warnings() []Warning { return dw.warnings }

// Apply runs every delta in order. It never returns an error: failures
// are absorbed into warnings so the rest of the turn still lands.
func (dw *DeltaWorker) Apply(deltas []Delta) {
	for _, d := range deltas {
		dw.applyDelta(d)
	}
	dw.gs.ClampVitals()
}

func (dw *DeltaWorker) applyDelta(d Delta) {
	switch d.Field {
	case FieldAddItem:
		dw.applyAddItem(d)
	case FieldRemoveItem:
		dw.applyRemoveItem(d)
	case FieldEquipItem:
		dw.applyEquip(d)
	case FieldUnequipItem:
		dw.applyUnequip(d)
	case FieldAddTechnique:
		dw.applyAddTechnique(d)
	case FieldAddSkill:
		dw.applyAddSkill(d)
	case FieldGainSkillExp:
		dw.applyGainSkillExp(d)
	case FieldSectJoin:
		dw.applySectJoin(d)
	case FieldSectPromote:
		dw.applySectPromote(d)
	case FieldSectContrib:
		dw.applySectContribution(d)
	case FieldSectLeave:
		dw.applySectLeave()
	case FieldPlace:
		dw.applyStringSet(d, &dw.gs.Location)
	case FieldRegion:
		dw.applyStringSet(d, &dw.gs.Region)
	case FieldTimeSegment:
		dw.applyStringSet(d, &dw.gs.Time.Segment)
	case FieldRealm:
		dw.applyRealmSet(d, &dw.gs.Progress.Realm)
	case FieldBodyRealm:
		dw.applyRealmSet(d, &dw.gs.Progress.BodyRealm)
	default:
		if strings.HasPrefix(d.Field, "flags.") {
			dw.applyFlag(d)
			return
		}
		dw.applyNumericLeaf(d)
	}
}

// applyNumericLeaf mutates a bounded numeric target, or records a
// warning for unknown paths and non-numeric values.
func (dw *DeltaWorker) applyNumericLeaf(d Delta) {
	ref, ok := dw.gs.leaf(d.Field)
	if !ok {
		dw.warn(d.Field, "unknown field path, delta dropped")
		return
	}

	var v float64
	if err := json.Unmarshal(d.Value, &v); err != nil {
		dw.warn(d.Field, fmt.Sprintf("numeric path given non-numeric value %s", string(d.Value)))
		return
	}

	cur := *ref.ptr
	switch d.Operation {
	case OpAdd:
		*ref.ptr = cur + int(math.Round(v))
	case OpSubtract:
		*ref.ptr = cur - int(math.Round(v))
	case OpSet:
		*ref.ptr = int(math.Round(v))
	case OpMultiply:
		*ref.ptr = int(math.Floor(float64(cur) * v))
	}
	ref.clamp()

	// Lowering a max must drag the current pool down with it.
	dw.gs.ClampVitals()
}

func (dw *DeltaWorker) applyStringSet(d Delta, target *string) {
	var v string
	if err := json.Unmarshal(d.Value, &v); err != nil || v == "" {
		dw.warn(d.Field, "expected a non-empty string value")
		return
	}
	*target = v
}

func (dw *DeltaWorker) applyRealmSet(d Delta, target *cultivation.Realm) {
	var name string
	if err := json.Unmarshal(d.Value, &name); err != nil {
		dw.warn(d.Field, "expected a realm name string")
		return
	}
	realm := cultivation.ParseRealm(name)
	if realm == cultivation.RealmUnknown {
		dw.warn(d.Field, fmt.Sprintf("unknown realm %q", name))
		return
	}
	*target = realm
}

func (dw *DeltaWorker) applyFlag(d Delta) {
	name := strings.TrimPrefix(d.Field, "flags.")
	if name == "" {
		dw.warn(d.Field, "flag name missing")
		return
	}
	var v bool
	if err := json.Unmarshal(d.Value, &v); err != nil {
		dw.warn(d.Field, "flag value must be a boolean")
		return
	}
	if dw.gs.Flags == nil {
		dw.gs.Flags = make(map[string]bool)
	}
	dw.gs.Flags[name] = v
}

func (dw *DeltaWorker) applyAddItem(d Delta) {
	var item Item
	if err := json.Unmarshal(d.Value, &item); err != nil || item.ID == "" {
		dw.warn(d.Field, "item payload missing or without id")
		return
	}
	created := dw.gs.Inventory.AddItem(item)
	dw.emit(EventItemAdded, map[string]any{
		"id":       item.ID,
		"quantity": item.Quantity,
		"merged":   !created,
	})
}

func (dw *DeltaWorker) applyRemoveItem(d Delta) {
	var item Item
	if err := json.Unmarshal(d.Value, &item); err != nil || item.ID == "" {
		dw.warn(d.Field, "item payload missing or without id")
		return
	}
	if !dw.gs.Inventory.RemoveItem(item.ID, item.Quantity) {
		dw.warn(d.Field, fmt.Sprintf("item %q not in inventory", item.ID))
		return
	}
	dw.emit(EventItemRemoved, map[string]any{"id": item.ID})
}

func (dw *DeltaWorker) applyEquip(d Delta) {
	var p EquipPayload
	if err := json.Unmarshal(d.Value, &p); err != nil || p.ItemID == "" {
		dw.warn(d.Field, "equip payload missing item_id")
		return
	}
	if !dw.gs.Equip(p.ItemID, p.Slot) {
		dw.warn(d.Field, fmt.Sprintf("cannot equip %q", p.ItemID))
		return
	}
	dw.emit(EventItemEquipped, map[string]any{"id": p.ItemID})
}

func (dw *DeltaWorker) applyUnequip(d Delta) {
	var p EquipPayload
	if err := json.Unmarshal(d.Value, &p); err != nil || !ValidSlot(p.Slot) {
		dw.warn(d.Field, "unequip payload missing a valid slot")
		return
	}
	if !dw.gs.Unequip(p.Slot) {
		dw.warn(d.Field, fmt.Sprintf("slot %q is empty", p.Slot))
		return
	}
	dw.emit(EventItemUnequipped, map[string]any{"slot": string(p.Slot)})
}

// applyAddTechnique appends a technique unless either cap is hit, in
// which case the addition is dropped with a capacity_exceeded event
// rather than failing the turn.
func (dw *DeltaWorker) applyAddTechnique(d Delta) {
	var t Technique
	if err := json.Unmarshal(d.Value, &t); err != nil || t.ID == "" {
		dw.warn(d.Field, "technique payload missing or without id")
		return
	}
	total := len(dw.gs.Techniques)
	perType := countByType(dw.gs.Techniques, func(x Technique) string { return string(x.Type) }, string(t.Type))
	if total >= MaxTechniques || perType >= MaxTechniquesPerType {
		dw.emit(EventCapacityExceeded, map[string]any{
			"collection": "techniques",
			"id":         t.ID,
			"type":       string(t.Type),
		})
		dw.logger.Warn("Technique addition dropped at capacity",
			"id", t.ID, "type", t.Type, "total", total)
		return
	}
	dw.gs.Techniques = append(dw.gs.Techniques, t)
	dw.emit(EventTechniqueLearned, map[string]any{"id": t.ID})
}

func (dw *DeltaWorker) applyAddSkill(d Delta) {
	var s Skill
	if err := json.Unmarshal(d.Value, &s); err != nil || s.ID == "" {
		dw.warn(d.Field, "skill payload missing or without id")
		return
	}
	total := len(dw.gs.Skills)
	perType := countByType(dw.gs.Skills, func(x Skill) string { return string(x.Type) }, string(s.Type))
	if total >= MaxSkills || perType >= MaxSkillsPerType {
		dw.emit(EventCapacityExceeded, map[string]any{
			"collection": "skills",
			"id":         s.ID,
			"type":       string(s.Type),
		})
		dw.logger.Warn("Skill addition dropped at capacity",
			"id", s.ID, "type", s.Type, "total", total)
		return
	}
	s.Normalize()
	dw.gs.Skills = append(dw.gs.Skills, s)
	dw.emit(EventSkillLearned, map[string]any{"id": s.ID})
}

// applyGainSkillExp routes exp to a learned skill. Ids that match no
// learned skill are ignored per contract (the generator may reference
// skills the player never accepted).
func (dw *DeltaWorker) applyGainSkillExp(d Delta) {
	var p GainExpPayload
	if err := json.Unmarshal(d.Value, &p); err != nil {
		// A bare string id is also accepted.
		var id string
		if err := json.Unmarshal(d.Value, &id); err != nil || id == "" {
			dw.warn(d.Field, "gain_exp payload must be an object or skill id string")
			return
		}
		p.ID = id
	}

	skill := dw.gs.FindSkill(p.ID)
	if skill == nil {
		dw.logger.Debug("gain_exp for unlearned skill ignored", "id", p.ID)
		return
	}
	amount := p.Amount
	if amount <= 0 {
		amount = defaultNarrativeSkillExp
	}
	if gained := GrantSkillExp(skill, amount); gained > 0 {
		dw.emit(EventSkillLeveled, map[string]any{
			"id":     skill.ID,
			"level":  skill.Level,
			"gained": gained,
		})
	}
}

func (dw *DeltaWorker) applySectJoin(d Delta) {
	var m SectMembership
	if err := json.Unmarshal(d.Value, &m); err != nil || m.Name == "" {
		dw.warn(d.Field, "sect payload missing or without name")
		return
	}
	if m.Rank == 0 {
		m.Rank = RankOuterDisciple
	}
	m.ClampBounds()
	dw.gs.Sect = &m
	dw.emit(EventSectJoined, map[string]any{"name": m.Name})
}

func (dw *DeltaWorker) applySectPromote(d Delta) {
	if dw.gs.Sect == nil {
		dw.warn(d.Field, "not a member of any sect")
		return
	}
	var name string
	if err := json.Unmarshal(d.Value, &name); err != nil {
		dw.warn(d.Field, "expected a rank name string")
		return
	}
	rank := ParseSectRank(name)
	if rank == 0 {
		dw.warn(d.Field, fmt.Sprintf("unknown sect rank %q", name))
		return
	}
	dw.gs.Sect.Rank = rank
	dw.emit(EventSectPromoted, map[string]any{"rank": rank.String()})
}

func (dw *DeltaWorker) applySectContribution(d Delta) {
	if dw.gs.Sect == nil {
		dw.warn(d.Field, "not a member of any sect")
		return
	}
	var v float64
	if err := json.Unmarshal(d.Value, &v); err != nil {
		dw.warn(d.Field, "contribution value must be numeric")
		return
	}
	dw.gs.Sect.Contribution += int(math.Round(v))
	dw.gs.Sect.ClampBounds()
}

func (dw *DeltaWorker) applySectLeave() {
	if dw.gs.Sect == nil {
		return
	}
	name := dw.gs.Sect.Name
	dw.gs.Sect = nil
	dw.emit(EventSectLeft, map[string]any{"name": name})
}

func (dw *DeltaWorker) emit(t DomainEventType, data map[string]any) {
	dw.events = append(dw.events, DomainEvent{Type: t, Data: data})
}

func (dw *DeltaWorker) warn(field, detail string) {
	dw.warnings = append(dw.warnings, Warning{Field: field, Detail: detail})
	dw.logger.Warn("Delta skipped", "field", field, "detail", detail)
}
