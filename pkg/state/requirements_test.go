package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantpeak/cultivation-engine/pkg/cultivation"
)

func intPtr(n int) *int { return &n }

func TestChoiceRequirements_Met(t *testing.T) {
	gs := NewGameState() // qi_condensation stage 1, 100 silver, attrs 10
	gs.Location = "azure_peak"
	gs.Flags["met_elder_wen"] = true
	gs.TurnCount = 5

	tests := []struct {
		name string
		req  *ChoiceRequirements
		want bool
	}{
		{"nil requirements always met", nil, true},
		{"empty requirements always met", &ChoiceRequirements{}, true},
		{"realm met at floor", &ChoiceRequirements{MinRealm: "qi_condensation"}, true},
		{"realm not reached", &ChoiceRequirements{MinRealm: "core_formation"}, false},
		{"unknown realm never met", &ChoiceRequirements{MinRealm: "heaven_realm"}, false},
		{"stage floor inside named realm", &ChoiceRequirements{MinRealm: "qi_condensation", MinStage: intPtr(3)}, false},
		{"bare stage floor", &ChoiceRequirements{MinStage: intPtr(1)}, true},
		{"silver met", &ChoiceRequirements{MinSilver: intPtr(100)}, true},
		{"silver short", &ChoiceRequirements{MinSilver: intPtr(101)}, false},
		{"spirit stones short", &ChoiceRequirements{MinSpiritStones: intPtr(1)}, false},
		{"attribute met", &ChoiceRequirements{MinAttrs: map[string]int{"str": 10}}, true},
		{"attribute short", &ChoiceRequirements{MinAttrs: map[string]int{"perception": 12}}, false},
		{"unknown attribute never met", &ChoiceRequirements{MinAttrs: map[string]int{"charisma": 1}}, false},
		{"flag set", &ChoiceRequirements{Flags: map[string]bool{"met_elder_wen": true}}, true},
		{"flag required absent", &ChoiceRequirements{Flags: map[string]bool{"sect_exam_passed": true}}, false},
		{"flag required false", &ChoiceRequirements{Flags: map[string]bool{"sect_exam_passed": false}}, true},
		{"location match", &ChoiceRequirements{Location: "azure_peak"}, true},
		{"location mismatch", &ChoiceRequirements{Location: "eastern_wastes"}, false},
		{"turn floor met", &ChoiceRequirements{MinTurns: intPtr(5)}, true},
		{"turn floor short", &ChoiceRequirements{MinTurns: intPtr(6)}, false},
		{"sect rank without membership", &ChoiceRequirements{SectRank: "outer_disciple"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Met(gs))
		})
	}
}

func TestChoiceRequirements_RealmAheadSatisfiesStage(t *testing.T) {
	gs := NewGameState()
	gs.Progress.Realm = cultivation.RealmFoundationEstablishment
	gs.Progress.RealmStage = 1

	req := &ChoiceRequirements{MinRealm: "qi_condensation", MinStage: intPtr(7)}
	assert.True(t, req.Met(gs))
}

func TestChoiceRequirements_SectRank(t *testing.T) {
	gs := NewGameState()
	gs.Sect = &SectMembership{Name: "Verdant Peak Sect", Rank: RankInnerDisciple}

	assert.True(t, (&ChoiceRequirements{SectRank: "outer_disciple"}).Met(gs))
	assert.True(t, (&ChoiceRequirements{SectRank: "inner_disciple"}).Met(gs))
	assert.False(t, (&ChoiceRequirements{SectRank: "elder"}).Met(gs))
	assert.False(t, (&ChoiceRequirements{SectRank: "archon"}).Met(gs))
}

func TestParseChoiceRequirements(t *testing.T) {
	req, err := ParseChoiceRequirements(nil)
	require.NoError(t, err)
	assert.Nil(t, req)

	req, err = ParseChoiceRequirements(json.RawMessage(`{"min_silver":50,"flags":{"key_found":true}}`))
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, 50, *req.MinSilver)

	_, err = ParseChoiceRequirements(json.RawMessage(`"fifty silver"`))
	require.Error(t, err)
}

func TestAvailableChoices(t *testing.T) {
	gs := NewGameState()

	choices := []Choice{
		{ID: "walk", Text: "Walk into town"},
		{ID: "buy", Text: "Buy the elixir", Requirements: json.RawMessage(`{"min_silver":500}`)},
		{ID: "recall", Text: "Recall the map", Requirements: json.RawMessage(`{"min_attrs":{"int":5}}`)},
		{ID: "broken", Text: "Broken gate", Requirements: json.RawMessage(`[1,2]`)},
	}

	got := AvailableChoices(choices, gs)
	require.Len(t, got, 2)
	assert.Equal(t, "walk", got[0].ID)
	assert.Equal(t, "recall", got[1].ID)
}
