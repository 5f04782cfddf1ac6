package state

import "strings"

// SectRank is the five-step progression ladder inside a sect.
type SectRank int

const (
	RankOuterDisciple SectRank = iota + 1
	RankInnerDisciple
	RankCoreDisciple
	RankElder
	RankGrandElder
)

var sectRankNames = map[SectRank]string{
	RankOuterDisciple: "outer_disciple",
	RankInnerDisciple: "inner_disciple",
	RankCoreDisciple:  "core_disciple",
	RankElder:         "elder",
	RankGrandElder:    "grand_elder",
}

func (r SectRank) String() string {
	if name, ok := sectRankNames[r]; ok {
		return name
	}
	return "unknown"
}

// MarshalText serializes the rank as its snake_case name.
func (r SectRank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a rank from its snake_case name. Unknown names
// parse as zero so a malformed save does not fail to load.
func (r *SectRank) UnmarshalText(data []byte) error {
	*r = ParseSectRank(string(data))
	return nil
}

// ParseSectRank resolves a rank name; returns 0 for unknown names.
func ParseSectRank(s string) SectRank {
	needle := strings.ToLower(strings.TrimSpace(s))
	needle = strings.ReplaceAll(needle, " ", "_")
	for rank, name := range sectRankNames {
		if name == needle {
			return rank
		}
	}
	return 0
}

// SectMembership is the player's optional guild affiliation.
// Reputation stays within [0, 100]; contribution never goes negative.
type SectMembership struct {
	Name         string   `json:"name"`
	Rank         SectRank `json:"rank"`
	Contribution int      `json:"contribution"`
	Reputation   int      `json:"reputation"`
	Benefits     []string `json:"benefits,omitempty"`
}

// ClampBounds enforces the contribution and reputation invariants.
func (m *SectMembership) ClampBounds() {
	if m.Contribution < 0 {
		m.Contribution = 0
	}
	if m.Reputation < 0 {
		m.Reputation = 0
	}
	if m.Reputation > 100 {
		m.Reputation = 100
	}
}
