package combat

// Reward is the spoils of a victorious encounter. Computing it is a
// pure function of the enemy; applying it to the game state is the
// caller's job, outside the state machine.
type Reward struct {
	Silver       int `json:"silver"`
	SpiritStones int `json:"spirit_stones"`
}

// VictoryReward scales loot with the enemy's stat block. Encounters
// inside a dungeon pay double.
func VictoryReward(e Enemy, dungeon bool) Reward {
	r := Reward{
		Silver:       e.HPMax/2 + e.Atk*2,
		SpiritStones: e.Def / 4,
	}
	if dungeon {
		r.Silver *= 2
		r.SpiritStones *= 2
	}
	return r
}
