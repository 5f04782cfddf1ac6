package state

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/verdantpeak/cultivation-engine/pkg/cultivation"
)

// TurnOutcome is everything a resolved turn produced beyond the
// mutated state: emitted domain events, per-delta warnings, a pending
// combat encounter if one was declared, and any events the core does
// not interpret, passed through for presentation.
type TurnOutcome struct {
	Events       []DomainEvent                   `json:"events,omitempty"`
	Warnings     []Warning                       `json:"warnings,omitempty"`
	Breakthrough *cultivation.BreakthroughEvent  `json:"breakthrough,omitempty"`
	Encounter    *EnemySpec                      `json:"encounter,omitempty"`
	Passthrough  []Event                         `json:"passthrough_events,omitempty"`
}

// ResolveTurn validates a TurnResult and applies it to the game state.
// On a SchemaError the state is returned untouched. Otherwise the
// deltas are applied with per-delta failure tolerance, a breakthrough
// is detected against the pre-turn progress and its stat bonuses
// applied, the turn counter advances by exactly one, and any
// combat_encounter event is surfaced for the caller to open a session.
func ResolveTurn(gs *GameState, tr *TurnResult, logger *slog.Logger) (*TurnOutcome, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	prev := gs.Progress.Coord()

	dw := NewDeltaWorker(gs, logger)
	dw.Apply(tr.ProposedDeltas)

	outcome := &TurnOutcome{
		Events:   dw.Events(),
		Warnings: dw.Warnings(),
	}

	// The detector is pure; applying its stat bonuses is the engine's
	// job, routed through the same bounded mutation path as any delta.
	if bt := cultivation.Detect(prev, gs.Progress.Coord()); bt != nil {
		applyStatIncreases(gs, bt.StatIncreases)
		outcome.Breakthrough = bt
		outcome.Events = append(outcome.Events, DomainEvent{
			Type: EventBreakthrough,
			Data: map[string]any{
				"previous_realm": bt.PreviousRealm.String(),
				"new_realm":      bt.NewRealm.String(),
				"new_stage":      bt.NewStage,
			},
		})
		logger.Info("Breakthrough",
			"from_realm", bt.PreviousRealm.String(),
			"from_stage", bt.PreviousStage,
			"to_realm", bt.NewRealm.String(),
			"to_stage", bt.NewStage)
	}

	for _, ev := range tr.Events {
		if ev.Type != EventTypeCombatEncounter {
			outcome.Passthrough = append(outcome.Passthrough, ev)
			continue
		}
		spec, err := decodeEncounter(ev.Data)
		if err != nil {
			logger.Warn("Malformed combat_encounter event dropped", "error", err)
			outcome.Warnings = append(outcome.Warnings, Warning{
				Field:  "events.combat_encounter",
				Detail: err.Error(),
			})
			continue
		}
		outcome.Encounter = spec
	}

	gs.TurnCount++
	gs.UpdatedAt = time.Now()
	return outcome, nil
}

func applyStatIncreases(gs *GameState, increases map[string]int) {
	for path, n := range increases {
		if ref, ok := gs.leaf(path); ok {
			*ref.ptr += n
			ref.clamp()
		}
	}
	// Breakthroughs restore the pools to their new maxes.
	gs.Stats.HP = gs.Stats.HPMax
	gs.Stats.Qi = gs.Stats.QiMax
	gs.Stats.Stamina = gs.Stats.StaminaMax
}

func decodeEncounter(data json.RawMessage) (*EnemySpec, error) {
	var payload struct {
		Enemy *EnemySpec `json:"enemy"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Enemy == nil {
		return nil, &SchemaError{Field: "events.combat_encounter.data.enemy", Detail: "missing enemy stat block"}
	}
	if payload.Enemy.HPMax == 0 {
		payload.Enemy.HPMax = payload.Enemy.HP
	}
	if payload.Enemy.HP == 0 {
		payload.Enemy.HP = payload.Enemy.HPMax
	}
	return payload.Enemy, nil
}
