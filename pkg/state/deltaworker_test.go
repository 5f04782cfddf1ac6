package state

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func delta(field string, op Operation, value string) Delta {
	return Delta{Field: field, Operation: op, Value: json.RawMessage(value), Reason: "test"}
}

func TestDeltaWorker_NumericOperations(t *testing.T) {
	tests := []struct {
		name   string
		deltas []Delta
		check  func(t *testing.T, gs *GameState)
	}{
		{
			name:   "add",
			deltas: []Delta{delta("progress.cultivation_exp", OpAdd, `25`)},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 25, gs.Progress.CultivationExp)
			},
		},
		{
			name:   "subtract",
			deltas: []Delta{delta("inventory.silver", OpSubtract, `30`)},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 70, gs.Inventory.Silver)
			},
		},
		{
			name:   "set",
			deltas: []Delta{delta("attrs.str", OpSet, `14`)},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 14, gs.Attrs.Str)
			},
		},
		{
			name:   "multiply floors the result",
			deltas: []Delta{delta("inventory.silver", OpMultiply, `1.5`)},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 150, gs.Inventory.Silver)
			},
		},
		{
			name:   "fractional add rounds",
			deltas: []Delta{delta("stats.qi", OpSubtract, `9.6`)},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 40, gs.Stats.Qi)
			},
		},
		{
			name: "later deltas see earlier mutations",
			deltas: []Delta{
				delta("stats.qi_max", OpSet, `200`),
				delta("stats.qi", OpSet, `180`),
			},
			check: func(t *testing.T, gs *GameState) {
				assert.Equal(t, 200, gs.Stats.QiMax)
				assert.Equal(t, 180, gs.Stats.Qi)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGameState()
			dw := NewDeltaWorker(gs, testLogger())
			dw.Apply(tt.deltas)
			assert.Empty(t, dw.Warnings())
			tt.check(t, gs)
		})
	}
}

func TestDeltaWorker_Clamping(t *testing.T) {
	t.Run("pool overshoot clamps to max", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("stats.qi", OpAdd, `500`)})
		assert.Equal(t, gs.Stats.QiMax, gs.Stats.Qi)
		assert.Empty(t, dw.Warnings())
	})

	t.Run("pool undershoot clamps to zero", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("stats.hp", OpSubtract, `999`)})
		assert.Equal(t, 0, gs.Stats.HP)
	})

	t.Run("lowering a max drags the pool down", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("stats.hp_max", OpSet, `60`)})
		assert.Equal(t, 60, gs.Stats.HPMax)
		assert.Equal(t, 60, gs.Stats.HP)
	})

	t.Run("max never drops below one", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("stats.hp_max", OpSet, `-10`)})
		assert.Equal(t, 1, gs.Stats.HPMax)
	})

	t.Run("karma may go negative", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("karma", OpSubtract, `40`)})
		assert.Equal(t, -40, gs.Karma)
	})

	t.Run("exp split caps at one hundred", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("progress.exp_split", OpSet, `140`)})
		assert.Equal(t, 100, gs.Progress.ExpSplit)
	})
}

func TestDeltaWorker_RandomizedClamping(t *testing.T) {
	// Arbitrary delta sequences must never push a leaf outside its
	// declared bounds, no matter the order or magnitude.
	leaves := []string{
		"stats.hp", "stats.hp_max", "stats.qi", "stats.qi_max",
		"stats.stamina", "stats.stamina_max",
		"attrs.str", "attrs.agi", "attrs.int", "attrs.perception", "attrs.luck",
		"progress.cultivation_exp", "progress.realm_stage",
		"progress.body_exp", "progress.body_stage", "progress.exp_split",
		"inventory.silver", "inventory.spirit_stones",
		"time.year", "time.month", "time.day",
		"age", "karma",
	}
	ops := []Operation{OpAdd, OpSubtract, OpSet, OpMultiply}

	rng := rand.New(rand.NewPCG(7, 42))
	gs := NewGameState()

	for round := 0; round < 200; round++ {
		batch := make([]Delta, 0, 8)
		for i := 0; i < 8; i++ {
			value := strconv.Itoa(rng.IntN(2001) - 1000)
			if rng.IntN(4) == 0 {
				value = strconv.FormatFloat(rng.Float64()*4-2, 'f', 2, 64)
			}
			batch = append(batch, delta(leaves[rng.IntN(len(leaves))], ops[rng.IntN(len(ops))], value))
		}

		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply(batch)
		require.Empty(t, dw.Warnings(), "round %d: %v", round, batch)

		require.GreaterOrEqual(t, gs.Stats.HP, 0, "round %d", round)
		require.LessOrEqual(t, gs.Stats.HP, gs.Stats.HPMax, "round %d", round)
		require.GreaterOrEqual(t, gs.Stats.HPMax, 1, "round %d", round)
		require.GreaterOrEqual(t, gs.Stats.Qi, 0, "round %d", round)
		require.LessOrEqual(t, gs.Stats.Qi, gs.Stats.QiMax, "round %d", round)
		require.GreaterOrEqual(t, gs.Stats.QiMax, 1, "round %d", round)
		require.GreaterOrEqual(t, gs.Stats.Stamina, 0, "round %d", round)
		require.LessOrEqual(t, gs.Stats.Stamina, gs.Stats.StaminaMax, "round %d", round)
		require.GreaterOrEqual(t, gs.Stats.StaminaMax, 1, "round %d", round)

		for _, attr := range []int{gs.Attrs.Str, gs.Attrs.Agi, gs.Attrs.Int, gs.Attrs.Perception, gs.Attrs.Luck} {
			require.GreaterOrEqual(t, attr, 0, "round %d", round)
		}

		require.GreaterOrEqual(t, gs.Progress.CultivationExp, 0, "round %d", round)
		require.GreaterOrEqual(t, gs.Progress.RealmStage, 1, "round %d", round)
		require.GreaterOrEqual(t, gs.Progress.BodyExp, 0, "round %d", round)
		require.GreaterOrEqual(t, gs.Progress.BodyStage, 0, "round %d", round)
		require.GreaterOrEqual(t, gs.Progress.ExpSplit, 0, "round %d", round)
		require.LessOrEqual(t, gs.Progress.ExpSplit, 100, "round %d", round)

		require.GreaterOrEqual(t, gs.Inventory.Silver, 0, "round %d", round)
		require.GreaterOrEqual(t, gs.Inventory.SpiritStones, 0, "round %d", round)

		require.GreaterOrEqual(t, gs.Time.Year, 1, "round %d", round)
		require.GreaterOrEqual(t, gs.Time.Month, 1, "round %d", round)
		require.LessOrEqual(t, gs.Time.Month, 12, "round %d", round)
		require.GreaterOrEqual(t, gs.Time.Day, 1, "round %d", round)
		require.LessOrEqual(t, gs.Time.Day, 30, "round %d", round)
		require.GreaterOrEqual(t, gs.Age, 0, "round %d", round)
	}
}

func TestDeltaWorker_NilLoggerDefaults(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, nil)

	// Both warning paths log: the generic skip path and the composite
	// capacity drop that logs directly.
	dw.Apply([]Delta{
		delta("stats.mana", OpAdd, `10`),
		delta(FieldAddTechnique, OpAdd, `{"id":"azure_breath","type":"qi"}`),
		delta(FieldAddTechnique, OpAdd, `{"id":"jade_circulation","type":"qi"}`),
		delta(FieldAddTechnique, OpAdd, `{"id":"third_qi_art","type":"qi"}`),
	})

	assert.Len(t, dw.Warnings(), 1)
	assert.Len(t, gs.Techniques, 2)
}

func TestDeltaWorker_MalformedDeltas(t *testing.T) {
	t.Run("unknown path is skipped with a warning", func(t *testing.T) {
		gs := NewGameState()
		before := *gs
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("stats.mana", OpAdd, `10`)})

		require.Len(t, dw.Warnings(), 1)
		assert.Equal(t, "stats.mana", dw.Warnings()[0].Field)
		assert.Equal(t, before.Stats, gs.Stats)
	})

	t.Run("non-numeric value on a numeric path warns", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{delta("stats.hp", OpAdd, `"many"`)})

		require.Len(t, dw.Warnings(), 1)
		assert.Equal(t, 100, gs.Stats.HP)
	})

	t.Run("valid deltas around a bad one still apply", func(t *testing.T) {
		gs := NewGameState()
		dw := NewDeltaWorker(gs, testLogger())
		dw.Apply([]Delta{
			delta("inventory.silver", OpAdd, `10`),
			delta("stats.chakra", OpAdd, `5`),
			delta("inventory.spirit_stones", OpAdd, `3`),
		})

		assert.Len(t, dw.Warnings(), 1)
		assert.Equal(t, 110, gs.Inventory.Silver)
		assert.Equal(t, 3, gs.Inventory.SpiritStones)
	})
}

func TestDeltaWorker_StringsAndFlags(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{
		delta("location.place", OpSet, `"azure_peak"`),
		delta("location.region", OpSet, `"eastern_wastes"`),
		delta("time.segment", OpSet, `"dusk"`),
		delta("flags.met_elder_wen", OpSet, `true`),
		delta("flags.sect_exam_passed", OpSet, `false`),
	})

	assert.Empty(t, dw.Warnings())
	assert.Equal(t, "azure_peak", gs.Location)
	assert.Equal(t, "eastern_wastes", gs.Region)
	assert.Equal(t, "dusk", gs.Time.Segment)
	assert.True(t, gs.Flags["met_elder_wen"])
	assert.False(t, gs.Flags["sect_exam_passed"])

	dw2 := NewDeltaWorker(gs, testLogger())
	dw2.Apply([]Delta{
		delta("location.place", OpSet, `""`),
		delta("flags.bad", OpSet, `"yes"`),
	})
	assert.Len(t, dw2.Warnings(), 2)
	assert.Equal(t, "azure_peak", gs.Location)
}

func TestDeltaWorker_RealmSet(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{delta("progress.realm", OpSet, `"foundation_establishment"`)})

	assert.Empty(t, dw.Warnings())
	assert.Equal(t, "foundation_establishment", gs.Progress.Realm.String())

	dw2 := NewDeltaWorker(gs, testLogger())
	dw2.Apply([]Delta{delta("progress.realm", OpSet, `"heaven_realm"`)})
	require.Len(t, dw2.Warnings(), 1)
	assert.Equal(t, "foundation_establishment", gs.Progress.Realm.String())
}

func TestDeltaWorker_Items(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{
		delta(FieldAddItem, OpAdd, `{"id":"qi_pill","name":"Qi Gathering Pill","type":"consumable","quantity":3}`),
		delta(FieldAddItem, OpAdd, `{"id":"qi_pill","quantity":2}`),
	})

	require.Len(t, gs.Inventory.Items, 1)
	assert.Equal(t, 5, gs.Inventory.Items[0].Quantity)

	events := dw.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventItemAdded, events[0].Type)
	assert.Equal(t, false, events[0].Data["merged"])
	assert.Equal(t, true, events[1].Data["merged"])

	dw2 := NewDeltaWorker(gs, testLogger())
	dw2.Apply([]Delta{
		delta(FieldRemoveItem, OpSubtract, `{"id":"qi_pill","quantity":5}`),
		delta(FieldRemoveItem, OpSubtract, `{"id":"phantom_blade"}`),
	})
	assert.Empty(t, gs.Inventory.Items)
	require.Len(t, dw2.Warnings(), 1)
	assert.Contains(t, dw2.Warnings()[0].Detail, "phantom_blade")
}

func TestDeltaWorker_EquipAndUnequip(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{
		delta(FieldAddItem, OpAdd, `{"id":"iron_saber","type":"saber","quantity":1}`),
		delta(FieldEquipItem, OpSet, `{"item_id":"iron_saber"}`),
	})

	assert.Empty(t, dw.Warnings())
	require.Contains(t, gs.EquippedItems, SlotWeapon)
	assert.Equal(t, "iron_saber", gs.EquippedItems[SlotWeapon].ID)
	assert.Empty(t, gs.Inventory.Items)

	// Equipping a second weapon returns the first to the inventory.
	dw2 := NewDeltaWorker(gs, testLogger())
	dw2.Apply([]Delta{
		delta(FieldAddItem, OpAdd, `{"id":"spirit_sword","type":"sword","quantity":1}`),
		delta(FieldEquipItem, OpSet, `{"item_id":"spirit_sword"}`),
	})
	assert.Equal(t, "spirit_sword", gs.EquippedItems[SlotWeapon].ID)
	require.Len(t, gs.Inventory.Items, 1)
	assert.Equal(t, "iron_saber", gs.Inventory.Items[0].ID)

	dw3 := NewDeltaWorker(gs, testLogger())
	dw3.Apply([]Delta{delta(FieldUnequipItem, OpSet, `{"slot":"weapon"}`)})
	assert.NotContains(t, gs.EquippedItems, SlotWeapon)
	assert.Len(t, gs.Inventory.Items, 2)
}

func TestDeltaWorker_TechniqueCaps(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{
		delta(FieldAddTechnique, OpAdd, `{"id":"azure_breath","type":"qi"}`),
		delta(FieldAddTechnique, OpAdd, `{"id":"jade_circulation","type":"qi"}`),
		delta(FieldAddTechnique, OpAdd, `{"id":"third_qi_art","type":"qi"}`),
	})

	// The per-type cap drops the third addition with an event, no warning.
	assert.Len(t, gs.Techniques, 2)
	assert.Empty(t, dw.Warnings())

	var capacityEvents int
	for _, ev := range dw.Events() {
		if ev.Type == EventCapacityExceeded {
			capacityEvents++
			assert.Equal(t, "techniques", ev.Data["collection"])
			assert.Equal(t, "third_qi_art", ev.Data["id"])
		}
	}
	assert.Equal(t, 1, capacityEvents)
}

func TestDeltaWorker_SkillCapsAndExp(t *testing.T) {
	gs := NewGameState()
	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{
		delta(FieldAddSkill, OpAdd, `{"id":"palm_strike","name":"Palm Strike","type":"attack"}`),
	})
	require.Len(t, gs.Skills, 1)
	assert.Equal(t, 1, gs.Skills[0].Level)
	assert.Equal(t, 100, gs.Skills[0].MaxExp)

	// 250 exp crosses level 1 (100) and level 2 (200) in one grant and
	// leaves the remainder at the new curve.
	dw2 := NewDeltaWorker(gs, testLogger())
	dw2.Apply([]Delta{
		delta(FieldGainSkillExp, OpAdd, `{"id":"palm_strike","amount":250}`),
	})
	skill := gs.FindSkill("palm_strike")
	require.NotNil(t, skill)
	assert.Equal(t, 2, skill.Level)
	assert.Equal(t, 150, skill.Exp)
	assert.Equal(t, 200, skill.MaxExp)

	var leveled bool
	for _, ev := range dw2.Events() {
		if ev.Type == EventSkillLeveled {
			leveled = true
			assert.Equal(t, 2, ev.Data["level"])
			assert.Equal(t, 1, ev.Data["gained"])
		}
	}
	assert.True(t, leveled)

	// Exp for an unlearned skill is ignored without a warning.
	dw3 := NewDeltaWorker(gs, testLogger())
	dw3.Apply([]Delta{delta(FieldGainSkillExp, OpAdd, `"sword_rain"`)})
	assert.Empty(t, dw3.Warnings())

	// A bare string id works with the default amount.
	dw4 := NewDeltaWorker(gs, testLogger())
	dw4.Apply([]Delta{delta(FieldGainSkillExp, OpAdd, `"palm_strike"`)})
	assert.Equal(t, 150+defaultNarrativeSkillExp, skill.Exp)
}

func TestDeltaWorker_Sect(t *testing.T) {
	gs := NewGameState()

	dw := NewDeltaWorker(gs, testLogger())
	dw.Apply([]Delta{delta(FieldSectPromote, OpSet, `"inner_disciple"`)})
	require.Len(t, dw.Warnings(), 1)

	dw2 := NewDeltaWorker(gs, testLogger())
	dw2.Apply([]Delta{
		delta(FieldSectJoin, OpSet, `{"name":"Verdant Peak Sect"}`),
		delta(FieldSectContrib, OpAdd, `50`),
		delta(FieldSectPromote, OpSet, `"inner_disciple"`),
	})
	require.NotNil(t, gs.Sect)
	assert.Equal(t, "Verdant Peak Sect", gs.Sect.Name)
	assert.Equal(t, RankInnerDisciple, gs.Sect.Rank)
	assert.Equal(t, 50, gs.Sect.Contribution)

	dw3 := NewDeltaWorker(gs, testLogger())
	dw3.Apply([]Delta{
		delta(FieldSectContrib, OpSet, `-10`),
		delta(FieldSectLeave, OpSet, `true`),
	})
	assert.Nil(t, gs.Sect)

	var left bool
	for _, ev := range dw3.Events() {
		if ev.Type == EventSectLeft {
			left = true
			assert.Equal(t, "Verdant Peak Sect", ev.Data["name"])
		}
	}
	assert.True(t, left)
}
