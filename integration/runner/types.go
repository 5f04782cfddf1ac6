package runner

import (
	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// Wire mirrors of the API's response shapes.

// TurnResponse is the synchronous turn application response.
type TurnResponse struct {
	GameState       *state.GameState   `json:"game_state"`
	Outcome         *state.TurnOutcome `json:"outcome"`
	CombatSessionID string             `json:"combat_session_id,omitempty"`
}

// AsyncTurnResponse acknowledges an enqueued turn request.
type AsyncTurnResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// CombatResponse is the combat session snapshot.
type CombatResponse struct {
	SessionID  string            `json:"session_id"`
	Phase      combat.Phase      `json:"phase"`
	PlayerTurn bool              `json:"player_turn"`
	PlayerHP   int               `json:"player_hp"`
	PlayerQi   int               `json:"player_qi"`
	Enemy      combat.Enemy      `json:"enemy"`
	Log        []combat.LogEntry `json:"log,omitempty"`
	Reward     *combat.Reward    `json:"reward,omitempty"`
}

// ErrorResponse is the API's error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
