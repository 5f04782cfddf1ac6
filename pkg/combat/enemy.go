package combat

import "github.com/verdantpeak/cultivation-engine/pkg/state"

// Enemy is the opposing stat block for one combat session.
type Enemy struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HP       int    `json:"hp"`
	HPMax    int    `json:"hp_max"`
	Atk      int    `json:"atk"`
	Def      int    `json:"def"`
	Behavior string `json:"behavior,omitempty"`
}

// NewEnemy builds an enemy from an encounter spec, optionally filling
// zero fields from a stored template. The spec's id and any non-zero
// fields win over the template.
func NewEnemy(template *Enemy, spec state.EnemySpec) Enemy {
	var e Enemy
	if template != nil {
		e = *template
	}
	if spec.ID != "" {
		e.ID = spec.ID
	}
	if spec.Name != "" {
		e.Name = spec.Name
	}
	if spec.HPMax != 0 {
		e.HPMax = spec.HPMax
	}
	if spec.HP != 0 {
		e.HP = spec.HP
	}
	if spec.Atk != 0 {
		e.Atk = spec.Atk
	}
	if spec.Def != 0 {
		e.Def = spec.Def
	}
	if spec.Behavior != "" {
		e.Behavior = spec.Behavior
	}
	if e.HPMax == 0 {
		e.HPMax = e.HP
	}
	if e.HP == 0 {
		e.HP = e.HPMax
	}
	return e
}

// TakeDamage reduces HP, clamped at 0.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.HP -= n
	if e.HP < 0 {
		e.HP = 0
	}
}

// Defeated reports whether the enemy has no HP left.
func (e *Enemy) Defeated() bool {
	return e.HP <= 0
}
