package combat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// Phase is the combat state machine position. Victory, Defeat and Fled
// are terminal; a session never leaves a terminal phase.
type Phase string

const (
	PhaseAwaitingPlayerAction  Phase = "awaiting_player_action"
	PhaseResolvingPlayerAction Phase = "resolving_player_action"
	PhaseAwaitingEnemyAction   Phase = "awaiting_enemy_action"
	PhaseResolvingEnemyAction  Phase = "resolving_enemy_action"
	PhaseVictory               Phase = "victory"
	PhaseDefeat                Phase = "defeat"
	PhaseFled                  Phase = "fled"
)

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat || p == PhaseFled
}

// ActionKind is a player combat verb.
type ActionKind string

const (
	ActionAttack   ActionKind = "attack"
	ActionQiAttack ActionKind = "qi_attack"
	ActionDefend   ActionKind = "defend"
	ActionFlee     ActionKind = "flee"
	ActionSkill    ActionKind = "skill"
)

// PlayerAction is one player input. SkillID is required for
// ActionSkill and ignored otherwise.
type PlayerAction struct {
	Kind    ActionKind `json:"kind"`
	SkillID string     `json:"skill_id,omitempty"`
}

// Declined-action errors. The session refuses the action with no state
// change and no log entry; the caller decides how to surface it.
var (
	ErrActionDeclined = errors.New("action declined")
	ErrSessionOver    = fmt.Errorf("%w: session already resolved", ErrActionDeclined)
	ErrNotPlayerTurn  = fmt.Errorf("%w: waiting on the enemy turn", ErrActionDeclined)
	ErrInsufficientQi = fmt.Errorf("%w: insufficient qi", ErrActionDeclined)
	ErrSkillOnCooldown = fmt.Errorf("%w: skill on cooldown", ErrActionDeclined)
	ErrUnknownSkill    = fmt.Errorf("%w: skill not learned", ErrActionDeclined)
	ErrUnknownAction   = fmt.Errorf("%w: unrecognized action", ErrActionDeclined)
)

// Balance constants. These are game data, not derived values.
const (
	qiAttackCost = 10

	playerCritChance = 0.15
	playerMissChance = 0.10
	attackCritMult   = 2.0
	skillCritMult    = 1.5

	enemyCritChance = 0.10
	enemyMissChance = 0.15
	enemyCritMult   = 1.5

	fleeChance = 0.5

	// Soft-fail defeat: the run continues with partial HP and a silver
	// penalty instead of ending.
	defeatRestoreFraction = 0.30
	defeatSilverPenalty   = 0.20
)

// LogEntry is one resolved combat beat, in resolution order.
type LogEntry struct {
	Actor  string `json:"actor"` // "player" or "enemy"
	Action string `json:"action"`
	Text   string `json:"text"`
	Damage int    `json:"damage,omitempty"`
	Heal   int    `json:"heal,omitempty"`
	Crit   bool   `json:"crit,omitempty"`
	Miss   bool   `json:"miss,omitempty"`
}

// Session is one interactive combat encounter. It mutates the bound
// game state's vitals and skills directly; everything else (loot, exp
// rewards, persistence) is folded in by the caller after a terminal
// phase. Sessions are ephemeral and never persisted.
type Session struct {
	ID      uuid.UUID `json:"id"`
	RunID   uuid.UUID `json:"run_id"`
	Enemy   Enemy     `json:"enemy"`
	Phase   Phase     `json:"phase"`
	Log     []LogEntry `json:"log"`
	Dungeon bool      `json:"dungeon"`

	// PlayerTurn mirrors the phase for consumers that only render.
	PlayerTurn bool `json:"player_turn"`

	gs        *state.GameState
	rng       RNG
	logger    *slog.Logger
	defending bool
	acted     bool
}

// Option configures a session.
type Option func(*Session)

// WithRNG replaces the roll source (tests script it).
func WithRNG(rng RNG) Option {
	return func(s *Session) { s.rng = rng }
}

// WithLogger attaches a logger for combat diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession opens an encounter against the given enemy. The initial
// phase awaits a player action.
func NewSession(runID uuid.UUID, gs *state.GameState, enemy Enemy, dungeon bool, opts ...Option) *Session {
	s := &Session{
		ID:         uuid.New(),
		RunID:      runID,
		Enemy:      enemy,
		Phase:      PhaseAwaitingPlayerAction,
		PlayerTurn: true,
		Dungeon:    dungeon,
		gs:         gs,
		rng:        NewRNG(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Act resolves one player action. Illegal actions return an error
// wrapping ErrActionDeclined and change nothing. On success the
// session is left either terminal or awaiting the enemy action; the
// caller drives ResolveEnemyTurn (immediately or after presentation
// pacing).
func (s *Session) Act(action PlayerAction) ([]LogEntry, error) {
	if s.Phase.Terminal() {
		return nil, ErrSessionOver
	}
	if s.Phase != PhaseAwaitingPlayerAction {
		return nil, ErrNotPlayerTurn
	}

	s.Phase = PhaseResolvingPlayerAction
	mark := len(s.Log)

	var err error
	switch action.Kind {
	case ActionAttack:
		s.resolveStrike("attack", float64(s.gs.Attrs.Str)*1.5, attackCritMult)
	case ActionQiAttack:
		err = s.resolveQiAttack()
	case ActionDefend:
		s.defending = true
		s.appendLog(LogEntry{Actor: "player", Action: "defend",
			Text: "You brace your stance, qi flowing into a defensive shroud."})
	case ActionFlee:
		s.resolveFlee()
	case ActionSkill:
		err = s.resolveSkill(action.SkillID)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		// Declined: the attempt costs nothing and the player may pick
		// another action in the same turn.
		s.Phase = PhaseAwaitingPlayerAction
		return nil, err
	}
	s.acted = true

	if s.Phase.Terminal() {
		return s.Log[mark:], nil
	}
	if s.Enemy.Defeated() {
		s.finishVictory()
		return s.Log[mark:], nil
	}

	s.Phase = PhaseAwaitingEnemyAction
	s.PlayerTurn = false
	return s.Log[mark:], nil
}

// ResolveEnemyTurn resolves the enemy's response. The caller invokes it
// after Act leaves the session awaiting the enemy; any delay between
// the two is presentation pacing, not a rules concern.
func (s *Session) ResolveEnemyTurn() ([]LogEntry, error) {
	if s.Phase.Terminal() {
		return nil, ErrSessionOver
	}
	if s.Phase != PhaseAwaitingEnemyAction {
		return nil, fmt.Errorf("%w: no enemy action pending", ErrActionDeclined)
	}
	s.Phase = PhaseResolvingEnemyAction
	mark := len(s.Log)

	base := float64(s.Enemy.Atk) * (0.8 + s.rng.Float64()*0.4)
	crit := s.rng.Float64() < enemyCritChance
	if crit {
		base *= enemyCritMult
	}
	miss := s.rng.Float64() < enemyMissChance

	dmg := int(math.Floor(base))
	if s.defending {
		dmg /= 2
	}
	if miss {
		dmg = 0
	}

	entry := LogEntry{Actor: "enemy", Action: "attack", Damage: dmg, Crit: crit && !miss, Miss: miss}
	switch {
	case miss:
		entry.Text = fmt.Sprintf("%s lunges at you and misses.", s.Enemy.Name)
	case s.defending:
		entry.Text = fmt.Sprintf("%s strikes, but your guard absorbs the blow for %d damage.", s.Enemy.Name, dmg)
	default:
		entry.Text = fmt.Sprintf("%s strikes you for %d damage.", s.Enemy.Name, dmg)
	}
	s.appendLog(entry)

	s.gs.Stats.HP -= dmg
	if s.gs.Stats.HP < 0 {
		s.gs.Stats.HP = 0
	}
	s.defending = false

	if s.gs.Stats.HP == 0 {
		s.finishDefeat()
		return s.Log[mark:], nil
	}

	s.Phase = PhaseAwaitingPlayerAction
	s.PlayerTurn = true

	// Cooldowns tick down at the start of every player turn except the
	// very first, which is never preceded by an enemy turn.
	for i := range s.gs.Skills {
		if s.gs.Skills[i].CurrentCooldown > 0 {
			s.gs.Skills[i].CurrentCooldown--
		}
	}
	return s.Log[mark:], nil
}

// resolveStrike rolls crit and miss for a player strike and applies
// damage. Final damage for a landed hit never drops below 1.
func (s *Session) resolveStrike(action string, raw float64, critMult float64) {
	crit := s.rng.Float64() < playerCritChance
	if crit {
		raw *= critMult
	}
	miss := s.rng.Float64() < playerMissChance

	dmg := 0
	if !miss {
		dmg = int(math.Floor(raw)) - s.Enemy.Def/2
		if dmg < 1 {
			dmg = 1
		}
	}
	s.Enemy.TakeDamage(dmg)

	entry := LogEntry{Actor: "player", Action: action, Damage: dmg, Crit: crit && !miss, Miss: miss}
	switch {
	case miss:
		entry.Text = fmt.Sprintf("Your %s whistles past %s.", action, s.Enemy.Name)
	case crit:
		entry.Text = fmt.Sprintf("A devastating %s tears into %s for %d damage!", action, s.Enemy.Name, dmg)
	default:
		entry.Text = fmt.Sprintf("Your %s lands on %s for %d damage.", action, s.Enemy.Name, dmg)
	}
	s.appendLog(entry)
}

func (s *Session) resolveQiAttack() error {
	if s.gs.Stats.Qi < qiAttackCost {
		return ErrInsufficientQi
	}
	s.gs.Stats.Qi -= qiAttackCost
	raw := float64(s.gs.Attrs.Int*2 + s.gs.Attrs.Str)
	s.resolveStrike("qi_attack", raw, attackCritMult)
	return nil
}

func (s *Session) resolveFlee() {
	if s.rng.Float64() < fleeChance {
		s.appendLog(LogEntry{Actor: "player", Action: "flee",
			Text: "You break away and vanish into the terrain. The encounter ends."})
		s.Phase = PhaseFled
		s.PlayerTurn = false
		return
	}
	s.appendLog(LogEntry{Actor: "player", Action: "flee",
		Text: fmt.Sprintf("You try to flee, but %s cuts off your escape.", s.Enemy.Name)})
}

func (s *Session) resolveSkill(skillID string) error {
	skill := s.gs.FindSkill(skillID)
	if skill == nil {
		return ErrUnknownSkill
	}
	if s.gs.Stats.Qi < skill.QiCost {
		return ErrInsufficientQi
	}
	// A stale cooldown from an earlier encounter does not block the
	// first action of a new session.
	if s.acted && skill.CurrentCooldown > 0 {
		return ErrSkillOnCooldown
	}

	s.gs.Stats.Qi -= skill.QiCost

	if skill.Type == state.SkillAttack {
		raw := float64(s.gs.Attrs.Str) * 1.5 * skill.DamageMultiplier
		s.resolveStrike(skill.Name, raw, skillCritMult)
	} else if skill.HealPercent > 0 {
		heal := int(math.Floor(float64(s.gs.Stats.HPMax) * skill.HealPercent))
		s.gs.Stats.HP += heal
		if s.gs.Stats.HP > s.gs.Stats.HPMax {
			s.gs.Stats.HP = s.gs.Stats.HPMax
		}
		s.appendLog(LogEntry{Actor: "player", Action: skill.Name, Heal: heal,
			Text: fmt.Sprintf("%s mends your wounds for %d HP.", skill.Name, heal)})
	} else {
		s.appendLog(LogEntry{Actor: "player", Action: skill.Name,
			Text: fmt.Sprintf("You channel %s, steadying your qi.", skill.Name)})
	}

	exp := 5 + s.rng.IntN(11)
	if gained := state.GrantSkillExp(skill, exp); gained > 0 {
		s.appendLog(LogEntry{Actor: "player", Action: "skill_level",
			Text: fmt.Sprintf("%s reaches level %d.", skill.Name, skill.Level)})
	}
	skill.CurrentCooldown = skill.Cooldown
	return nil
}

func (s *Session) finishVictory() {
	s.Phase = PhaseVictory
	s.PlayerTurn = false
	s.appendLog(LogEntry{Actor: "player", Action: "victory",
		Text: fmt.Sprintf("%s collapses. The battle is won.", s.Enemy.Name)})
	s.logger.Info("Combat resolved",
		"session_id", s.ID, "run_id", s.RunID, "outcome", "victory", "enemy", s.Enemy.ID)
}

// finishDefeat applies the soft-fail: the run continues with a partial
// HP restoration and a silver penalty instead of ending.
func (s *Session) finishDefeat() {
	s.Phase = PhaseDefeat
	s.PlayerTurn = false

	restored := int(float64(s.gs.Stats.HPMax) * defeatRestoreFraction)
	if restored < 1 {
		restored = 1
	}
	s.gs.Stats.HP = restored

	penalty := int(float64(s.gs.Inventory.Silver) * defeatSilverPenalty)
	s.gs.Inventory.Silver -= penalty
	if s.gs.Inventory.Silver < 0 {
		s.gs.Inventory.Silver = 0
	}

	s.appendLog(LogEntry{Actor: "enemy", Action: "defeat",
		Text: fmt.Sprintf("You fall. You wake later, wounds bound, %d silver lighter.", penalty)})
	s.logger.Info("Combat resolved",
		"session_id", s.ID, "run_id", s.RunID, "outcome", "defeat",
		"hp_restored", restored, "silver_penalty", penalty)
}

func (s *Session) appendLog(e LogEntry) {
	s.Log = append(s.Log, e)
}
