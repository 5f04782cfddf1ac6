package state

// SkillType categorizes active combat skills. Per-type learning is
// capped at MaxSkillsPerType.
type SkillType string

const (
	SkillAttack  SkillType = "attack"
	SkillDefense SkillType = "defense"
	SkillSupport SkillType = "support"
)

// Skill is an active combat ability with its own leveling curve and
// cooldown bookkeeping. CurrentCooldown counts down at the start of
// each player combat turn.
type Skill struct {
	ID   string    `json:"id"`
	Name string    `json:"name,omitempty"`
	Type SkillType `json:"type"`

	Level    int `json:"level"`
	Exp      int `json:"exp"`
	MaxExp   int `json:"max_exp"`
	MaxLevel int `json:"max_level"`

	DamageMultiplier float64 `json:"damage_multiplier"`
	QiCost           int     `json:"qi_cost"`
	Cooldown         int     `json:"cooldown"`
	CurrentCooldown  int     `json:"current_cooldown"`

	// HealPercent is the fraction of hp_max restored when a defense or
	// support skill with a heal effect is used.
	HealPercent float64 `json:"heal_percent,omitempty"`
}

// Normalize fills zero-valued leveling fields with sane defaults so a
// skill authored by the narrative generator can enter the loop.
func (s *Skill) Normalize() {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.MaxLevel < 1 {
		s.MaxLevel = 10
	}
	if s.MaxExp < 1 {
		s.MaxExp = s.Level * 100
	}
	if s.DamageMultiplier <= 0 {
		s.DamageMultiplier = 1.0
	}
	if s.Exp < 0 {
		s.Exp = 0
	}
}

// GrantSkillExp adds exp to the skill and resolves level-ups to a fixed
// point in one call: an amount large enough to cross several levels
// advances all of them and leaves exp at the correct remainder.
// Returns the number of levels gained.
func GrantSkillExp(s *Skill, amount int) int {
	if s == nil || amount <= 0 {
		return 0
	}
	s.Normalize()
	s.Exp += amount

	gained := 0
	for s.Exp >= s.MaxExp && s.Level < s.MaxLevel {
		s.Exp -= s.MaxExp
		s.Level++
		s.MaxExp = s.Level * 100
		s.DamageMultiplier *= 1.05
		gained++
	}
	return gained
}

// TechniqueType categorizes passive cultivation techniques. Per-type
// learning is capped at MaxTechniquesPerType.
type TechniqueType string

const (
	TechniqueQi       TechniqueType = "qi"
	TechniqueBody     TechniqueType = "body"
	TechniqueMovement TechniqueType = "movement"
	TechniqueMental   TechniqueType = "mental"
)

// Technique is a passive ability that boosts cultivation speed. It has
// no combat effect and no leveling curve.
type Technique struct {
	ID          string        `json:"id"`
	Name        string        `json:"name,omitempty"`
	Type        TechniqueType `json:"type"`
	Grade       string        `json:"grade,omitempty"`
	Description string        `json:"description,omitempty"`
}
