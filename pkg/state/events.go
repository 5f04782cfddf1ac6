package state

// DomainEventType identifies a state change the delta engine emits for
// downstream consumers (presentation, combat, notifications).
type DomainEventType string

const (
	EventItemAdded        DomainEventType = "item_added"
	EventItemRemoved      DomainEventType = "item_removed"
	EventItemEquipped     DomainEventType = "item_equipped"
	EventItemUnequipped   DomainEventType = "item_unequipped"
	EventTechniqueLearned DomainEventType = "technique_learned"
	EventSkillLearned     DomainEventType = "skill_learned"
	EventSkillLeveled     DomainEventType = "skill_leveled"
	EventCapacityExceeded DomainEventType = "capacity_exceeded"
	EventBreakthrough     DomainEventType = "breakthrough"
	EventSectJoined       DomainEventType = "sect_joined"
	EventSectPromoted     DomainEventType = "sect_promoted"
	EventSectLeft         DomainEventType = "sect_left"
)

// DomainEvent is emitted by delta application. Unlike warnings, events
// describe successful or intentionally-degraded outcomes.
type DomainEvent struct {
	Type DomainEventType `json:"type"`
	Data map[string]any  `json:"data,omitempty"`
}

// Warning records a delta that was skipped or degraded. Warnings are
// diagnostics, never fatal: the upstream generator is an LLM and a
// single malformed entry must not corrupt an otherwise-valid turn.
type Warning struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}
