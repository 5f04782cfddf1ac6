package cultivation

// Progress is the cultivation coordinate compared across a turn.
type Progress struct {
	Realm Realm `json:"realm"`
	Stage int   `json:"stage"`
}

// BreakthroughEvent describes a realm or stage advancement and the
// fixed stat bonuses it grants. It is derived, never stored: the caller
// applies StatIncreases as additional state mutations and hands the
// event to presentation once.
type BreakthroughEvent struct {
	PreviousRealm Realm          `json:"previous_realm"`
	PreviousStage int            `json:"previous_stage"`
	NewRealm      Realm          `json:"new_realm"`
	NewStage      int            `json:"new_stage"`
	StatIncreases map[string]int `json:"stat_increases"`
}

// statBonus is one row of the balance tables. Keys in StatIncreases use
// delta field paths so the caller can feed them straight back through
// the delta engine.
type statBonus struct {
	hpMax, qiMax, staminaMax       int
	str, agi, intel, percept, luck int
}

// realmBonuses is keyed by the tier of the realm being left behind.
// Hard-coded game balance, intentionally not derived from attributes.
var realmBonuses = map[Tier]statBonus{
	TierLow:  {hpMax: 25, qiMax: 20, staminaMax: 10, str: 2, agi: 2, intel: 2, percept: 1, luck: 1},
	TierMid:  {hpMax: 60, qiMax: 50, staminaMax: 25, str: 4, agi: 4, intel: 4, percept: 2, luck: 2},
	TierHigh: {hpMax: 150, qiMax: 120, staminaMax: 60, str: 8, agi: 8, intel: 8, percept: 4, luck: 4},
}

// stageBonuses applies to same-realm stage advancement.
var stageBonuses = map[Tier]statBonus{
	TierLow:  {hpMax: 8, qiMax: 6, staminaMax: 4},
	TierMid:  {hpMax: 20, qiMax: 15, staminaMax: 8},
	TierHigh: {hpMax: 45, qiMax: 35, staminaMax: 18},
}

// Detect compares pre-turn and post-turn cultivation progress and
// returns a BreakthroughEvent when a threshold was crossed, or nil.
// A realm change always qualifies; within the same realm only a stage
// increase does. Detect is pure and side-effect free.
func Detect(prev, next Progress) *BreakthroughEvent {
	realmChanged := next.Realm != prev.Realm
	stageGained := next.Realm == prev.Realm && next.Stage > prev.Stage
	if !realmChanged && !stageGained {
		return nil
	}

	// Realm changes read the coarser table keyed by the realm being
	// left; stage gains read the smaller per-stage table.
	var bonus statBonus
	if realmChanged {
		bonus = realmBonuses[prev.Realm.Tier()]
	} else {
		bonus = stageBonuses[prev.Realm.Tier()]
	}

	return &BreakthroughEvent{
		PreviousRealm: prev.Realm,
		PreviousStage: prev.Stage,
		NewRealm:      next.Realm,
		NewStage:      next.Stage,
		StatIncreases: bonus.toIncreases(),
	}
}

func (b statBonus) toIncreases() map[string]int {
	out := make(map[string]int)
	add := func(path string, n int) {
		if n != 0 {
			out[path] = n
		}
	}
	add("stats.hp_max", b.hpMax)
	add("stats.qi_max", b.qiMax)
	add("stats.stamina_max", b.staminaMax)
	add("attrs.str", b.str)
	add("attrs.agi", b.agi)
	add("attrs.int", b.intel)
	add("attrs.perception", b.percept)
	add("attrs.luck", b.luck)
	return out
}
