package cultivation

import "strings"

// Realm is an ordered cultivation tier. Progression is realm-major,
// stage-minor: advancing a realm resets the stage count.
type Realm int

const (
	RealmUnknown Realm = iota
	RealmQiCondensation
	RealmFoundationEstablishment
	RealmCoreFormation
	RealmNascentSoul
	RealmSpiritSevering
	RealmVoidRefinement
	RealmDaoSeeking
	RealmImmortalAscension
)

// Tier groups realms into the three balance bands used by the
// breakthrough bonus tables.
type Tier int

const (
	TierLow Tier = iota
	TierMid
	TierHigh
)

var realmNames = map[Realm]string{
	RealmQiCondensation:          "qi_condensation",
	RealmFoundationEstablishment: "foundation_establishment",
	RealmCoreFormation:           "core_formation",
	RealmNascentSoul:             "nascent_soul",
	RealmSpiritSevering:          "spirit_severing",
	RealmVoidRefinement:          "void_refinement",
	RealmDaoSeeking:              "dao_seeking",
	RealmImmortalAscension:       "immortal_ascension",
}

var realmTitles = map[Realm]string{
	RealmQiCondensation:          "Qi Condensation",
	RealmFoundationEstablishment: "Foundation Establishment",
	RealmCoreFormation:           "Core Formation",
	RealmNascentSoul:             "Nascent Soul",
	RealmSpiritSevering:          "Spirit Severing",
	RealmVoidRefinement:          "Void Refinement",
	RealmDaoSeeking:              "Dao Seeking",
	RealmImmortalAscension:       "Immortal Ascension",
}

func (r Realm) String() string {
	if name, ok := realmNames[r]; ok {
		return name
	}
	return "unknown"
}

// Title returns the display name of the realm.
func (r Realm) Title() string {
	if title, ok := realmTitles[r]; ok {
		return title
	}
	return "Unknown"
}

// Tier returns the balance band of the realm.
func (r Realm) Tier() Tier {
	switch {
	case r <= RealmCoreFormation:
		return TierLow
	case r <= RealmVoidRefinement:
		return TierMid
	default:
		return TierHigh
	}
}

// MarshalText serializes the realm as its snake_case name.
func (r Realm) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a realm from its snake_case name. Unknown names
// parse as RealmUnknown rather than erroring, so that a stale save can
// still be loaded and repaired.
func (r *Realm) UnmarshalText(data []byte) error {
	*r = ParseRealm(string(data))
	return nil
}

// ParseRealm resolves a realm from a snake_case name or display title.
// Returns RealmUnknown when the name does not match any realm.
func ParseRealm(s string) Realm {
	needle := strings.ToLower(strings.TrimSpace(s))
	needle = strings.ReplaceAll(needle, " ", "_")
	for realm, name := range realmNames {
		if name == needle {
			return realm
		}
	}
	return RealmUnknown
}
