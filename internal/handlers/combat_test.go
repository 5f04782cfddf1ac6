package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantpeak/cultivation-engine/internal/storage"
	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// openSessionForTest stores a run and opens a combat encounter through
// the turn endpoint, returning the handler and the run state ID.
func openSessionForTest(t *testing.T, mock *storage.MockStorage) (*RunHandler, *state.GameState) {
	t.Helper()
	handler := newTestRunHandler(mock)

	gs := state.NewGameState()
	require.NoError(t, mock.SaveGameState(t.Context(), gs.ID, gs))

	tr := &state.TurnResult{
		Narrative: "A ravine wolf pads out of the undergrowth, hackles raised and eyes on you.",
		Choices: []state.Choice{
			{Text: "Fight"},
			{Text: "Retreat"},
		},
		Events: []state.Event{
			{
				Type: state.EventTypeCombatEncounter,
				Data: []byte(`{"enemy":{"id":"ravine_wolf","name":"Ravine Wolf","hp":30,"atk":8,"def":4}}`),
			},
		},
	}

	rr := postTurn(t, handler, gs.ID.String(), tr)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return handler, gs
}

func postAction(t *testing.T, handler *RunHandler, runID string, action CombatActionRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(action)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/runs/"+runID+"/combat/action", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCombatHandler_NoSession(t *testing.T) {
	handler := newTestRunHandler(storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/b3b31a2e-7f93-4a50-9a1f-0ed6a4f6f6a1/combat", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCombatHandler_UnknownActionDeclined(t *testing.T) {
	handler, gs := openSessionForTest(t, storage.NewMockStorage())

	rr := postAction(t, handler, gs.ID.String(), CombatActionRequest{Action: "somersault"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Declined actions leave the session awaiting the same player turn
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+gs.ID.String()+"/combat", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var cs CombatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cs))
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, cs.Phase)
}

func TestCombatHandler_DefendRound(t *testing.T) {
	mock := storage.NewMockStorage()
	handler, gs := openSessionForTest(t, mock)

	rr := postAction(t, handler, gs.ID.String(), CombatActionRequest{Action: "defend"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var cs CombatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cs))

	// One full round resolved: the defend beat and the enemy answer
	require.GreaterOrEqual(t, len(cs.Log), 2)
	assert.Equal(t, "player", cs.Log[0].Actor)
	assert.Equal(t, "defend", cs.Log[0].Action)
	assert.Equal(t, "enemy", cs.Log[1].Actor)

	// Defending halves incoming damage: atk 8 with variance tops out at
	// floor(8*1.2*1.5)=14 on a crit, so a halved hit is at most 7.
	assert.LessOrEqual(t, cs.Log[1].Damage, 7)
	assert.GreaterOrEqual(t, cs.PlayerHP, 93)
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, cs.Phase)
	assert.True(t, cs.PlayerTurn)
}

func TestCombatHandler_FightToVictory(t *testing.T) {
	mock := storage.NewMockStorage()
	handler, gs := openSessionForTest(t, mock)

	// STR 10 attacks deal at least 13 per landed hit against def 4;
	// a 30 HP wolf cannot outlast repeated attacks against 100 HP.
	for i := 0; i < 50; i++ {
		rr := postAction(t, handler, gs.ID.String(), CombatActionRequest{Action: "attack"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var cs CombatResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&cs))

		if cs.Phase.Terminal() {
			require.Equal(t, combat.PhaseVictory, cs.Phase)
			require.NotNil(t, cs.Reward)
			assert.Positive(t, cs.Reward.Silver)

			// Terminal sessions are torn down and the run persisted
			req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+gs.ID.String()+"/combat", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusNotFound, rr.Code)

			saved, err := mock.LoadGameState(t.Context(), gs.ID)
			require.NoError(t, err)
			assert.Equal(t, 100+cs.Reward.Silver, saved.Inventory.Silver)
			return
		}
	}
	t.Fatal("Combat did not reach victory within 50 rounds")
}

func TestCombatHandler_TurnsRejectedWhileSessionOpen(t *testing.T) {
	mock := storage.NewMockStorage()
	handler, gs := openSessionForTest(t, mock)

	// The opening turn's lock stays held for the session's lifetime, so
	// no worker can slip a turn in between combat actions.
	held, err := mock.AcquireTurnLock(t.Context(), gs.ID, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, held)

	midFight := &state.TurnResult{
		Narrative: "You press on along the ridge while the wolf circles, waiting for an opening.",
		Choices:   []state.Choice{{Text: "Hold your ground"}, {Text: "Back away"}},
		ProposedDeltas: []state.Delta{
			{Field: "inventory.silver", Operation: state.OpSet, Value: json.RawMessage(`600`)},
		},
	}
	rr := postTurn(t, handler, gs.ID.String(), midFight)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	// The rejected turn left the stored run exactly as the opening turn
	// saved it.
	saved, err := mock.LoadGameState(t.Context(), gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TurnCount)
	assert.Equal(t, 100, saved.Inventory.Silver)

	var reward int
	for i := 0; i < 50; i++ {
		rr := postAction(t, handler, gs.ID.String(), CombatActionRequest{Action: "attack"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var cs CombatResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&cs))
		if cs.Phase.Terminal() {
			require.Equal(t, combat.PhaseVictory, cs.Phase)
			require.NotNil(t, cs.Reward)
			reward = cs.Reward.Silver
			break
		}
	}
	require.Positive(t, reward, "Combat did not reach victory within 50 rounds")

	// The terminal save released the lock and turns resume; no combat
	// result is lost to the later turn.
	held, err = mock.AcquireTurnLock(t.Context(), gs.ID, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, held)
	require.NoError(t, mock.ReleaseTurnLock(t.Context(), gs.ID, "worker-b"))

	rr = postTurn(t, handler, gs.ID.String(), midFight)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	saved, err = mock.LoadGameState(t.Context(), gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.TurnCount)
	assert.Equal(t, 600, saved.Inventory.Silver)
}
