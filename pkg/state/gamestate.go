package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/cultivation"
)

// Stats are the player's vital pools. Currents are always kept within
// [0, max] by the delta engine; the maxes never drop below 1.
type Stats struct {
	HP         int `json:"hp"`
	HPMax      int `json:"hp_max"`
	Qi         int `json:"qi"`
	QiMax      int `json:"qi_max"`
	Stamina    int `json:"stamina"`
	StaminaMax int `json:"stamina_max"`
}

// Attributes are base attribute scores. Equipment bonuses are computed
// externally and never written back into these.
type Attributes struct {
	Str        int `json:"str"`
	Agi        int `json:"agi"`
	Int        int `json:"int"`
	Perception int `json:"perception"`
	Luck       int `json:"luck"`
}

// Progress tracks cultivation advancement, including the optional
// dual-cultivation body track.
type Progress struct {
	Realm          cultivation.Realm `json:"realm"`
	RealmStage     int               `json:"realm_stage"`
	CultivationExp int               `json:"cultivation_exp"`

	BodyRealm cultivation.Realm `json:"body_realm,omitempty"`
	BodyStage int               `json:"body_stage,omitempty"`
	BodyExp   int               `json:"body_exp,omitempty"`
	ExpSplit  int               `json:"exp_split,omitempty"` // percent routed to the body track
}

// Coord returns the realm/stage pair used by breakthrough detection.
func (p Progress) Coord() cultivation.Progress {
	return cultivation.Progress{Realm: p.Realm, Stage: p.RealmStage}
}

// GameTime is the in-world calendar.
type GameTime struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Segment string `json:"segment,omitempty"` // e.g. "morning", "dusk"
}

// Inventory holds currencies and item records. Capacity is a UI-layer
// concern; the delta engine only guarantees quantity >= 1 and id-merge.
type Inventory struct {
	Silver       int   `json:"silver"`
	SpiritStones int   `json:"spirit_stones"`
	Items        []Item `json:"items,omitempty"`
	StorageRing  *Item  `json:"storage_ring,omitempty"`
}

// GameState is the aggregate state document for one run. It is loaded,
// mutated by exactly one in-flight turn, and saved; the engine itself
// keeps no hidden state between calls.
type GameState struct {
	ID uuid.UUID `json:"id"`

	Stats    Stats      `json:"stats"`
	Attrs    Attributes `json:"attrs"`
	Progress Progress   `json:"progress"`

	Inventory     Inventory              `json:"inventory"`
	EquippedItems map[EquipmentSlot]Item `json:"equipped_items,omitempty"`

	Techniques []Technique `json:"techniques,omitempty"`
	Skills     []Skill     `json:"skills,omitempty"`

	Sect *SectMembership `json:"sect_membership,omitempty"`

	Location string   `json:"location,omitempty"`
	Region   string   `json:"region,omitempty"`
	Time     GameTime `json:"time"`

	Karma     int             `json:"karma"`
	Age       int             `json:"age"`
	TurnCount int             `json:"turn_count"`
	Flags     map[string]bool `json:"flags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Collection caps enforced by the delta engine. Over-cap additions are
// dropped with a capacity_exceeded event, never an error.
const (
	MaxTechniques        = 5
	MaxTechniquesPerType = 2
	MaxSkills            = 6
	MaxSkillsPerType     = 2
)

// NewGameState creates a fresh run at the first stage of Qi Condensation.
func NewGameState() *GameState {
	now := time.Now()
	return &GameState{
		ID: uuid.New(),
		Stats: Stats{
			HP: 100, HPMax: 100,
			Qi: 50, QiMax: 50,
			Stamina: 80, StaminaMax: 80,
		},
		Attrs: Attributes{Str: 10, Agi: 10, Int: 10, Perception: 10, Luck: 10},
		Progress: Progress{
			Realm:      cultivation.RealmQiCondensation,
			RealmStage: 1,
		},
		Inventory: Inventory{Silver: 100, SpiritStones: 0},
		Time:      GameTime{Year: 1, Month: 1, Day: 1, Segment: "morning"},
		Age:       16,
		Flags:     make(map[string]bool),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// leafRef is bounded access to one numeric delta target.
type leafRef struct {
	ptr    *int
	min    int
	hasMin bool
	max    func() int // nil means unbounded above
}

// leaf resolves a dotted field path to its numeric target. Composite
// paths (inventory.add_item, skills.gain_exp, ...) are not leaves and
// resolve elsewhere.
func (gs *GameState) leaf(field string) (leafRef, bool) {
	bounded := func(ptr *int, min int, max func() int) (leafRef, bool) {
		return leafRef{ptr: ptr, min: min, hasMin: true, max: max}, true
	}

	switch field {
	case "stats.hp":
		return bounded(&gs.Stats.HP, 0, func() int { return gs.Stats.HPMax })
	case "stats.hp_max":
		return bounded(&gs.Stats.HPMax, 1, nil)
	case "stats.qi":
		return bounded(&gs.Stats.Qi, 0, func() int { return gs.Stats.QiMax })
	case "stats.qi_max":
		return bounded(&gs.Stats.QiMax, 1, nil)
	case "stats.stamina":
		return bounded(&gs.Stats.Stamina, 0, func() int { return gs.Stats.StaminaMax })
	case "stats.stamina_max":
		return bounded(&gs.Stats.StaminaMax, 1, nil)
	case "attrs.str":
		return bounded(&gs.Attrs.Str, 0, nil)
	case "attrs.agi":
		return bounded(&gs.Attrs.Agi, 0, nil)
	case "attrs.int":
		return bounded(&gs.Attrs.Int, 0, nil)
	case "attrs.perception":
		return bounded(&gs.Attrs.Perception, 0, nil)
	case "attrs.luck":
		return bounded(&gs.Attrs.Luck, 0, nil)
	case "progress.cultivation_exp":
		return bounded(&gs.Progress.CultivationExp, 0, nil)
	case "progress.realm_stage":
		return bounded(&gs.Progress.RealmStage, 1, nil)
	case "progress.body_exp":
		return bounded(&gs.Progress.BodyExp, 0, nil)
	case "progress.body_stage":
		return bounded(&gs.Progress.BodyStage, 0, nil)
	case "progress.exp_split":
		return bounded(&gs.Progress.ExpSplit, 0, func() int { return 100 })
	case "inventory.silver":
		return bounded(&gs.Inventory.Silver, 0, nil)
	case "inventory.spirit_stones":
		return bounded(&gs.Inventory.SpiritStones, 0, nil)
	case "time.year":
		return bounded(&gs.Time.Year, 1, nil)
	case "time.month":
		return bounded(&gs.Time.Month, 1, func() int { return 12 })
	case "time.day":
		return bounded(&gs.Time.Day, 1, func() int { return 30 })
	case "age":
		return bounded(&gs.Age, 0, nil)
	case "karma":
		// Karma may go negative; no bounds.
		return leafRef{ptr: &gs.Karma}, true
	}
	return leafRef{}, false
}

// clamp forces the target back inside its declared bounds. Clamping is
// silent: out-of-range results are a normal consequence of LLM-authored
// deltas, not an error.
func (ref leafRef) clamp() {
	if ref.hasMin && *ref.ptr < ref.min {
		*ref.ptr = ref.min
	}
	if ref.max != nil {
		if max := ref.max(); *ref.ptr > max {
			*ref.ptr = max
		}
	}
}

// ClampVitals re-applies the current<=max invariant on all three pools.
// Called after any mutation that may have lowered a max.
func (gs *GameState) ClampVitals() {
	clampPool(&gs.Stats.HP, gs.Stats.HPMax)
	clampPool(&gs.Stats.Qi, gs.Stats.QiMax)
	clampPool(&gs.Stats.Stamina, gs.Stats.StaminaMax)
}

func clampPool(cur *int, max int) {
	if *cur > max {
		*cur = max
	}
	if *cur < 0 {
		*cur = 0
	}
}

// FindSkill returns the learned skill with the given id, or nil.
func (gs *GameState) FindSkill(id string) *Skill {
	for i := range gs.Skills {
		if gs.Skills[i].ID == id {
			return &gs.Skills[i]
		}
	}
	return nil
}

// FindItem returns the inventory item with the given id, or nil.
func (gs *GameState) FindItem(id string) *Item {
	for i := range gs.Inventory.Items {
		if gs.Inventory.Items[i].ID == id {
			return &gs.Inventory.Items[i]
		}
	}
	return nil
}

func countByType[T any](items []T, typeOf func(T) string, t string) int {
	n := 0
	for _, it := range items {
		if typeOf(it) == t {
			n++
		}
	}
	return n
}
