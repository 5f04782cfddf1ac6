package state

import "fmt"

// Validation limits for a TurnResult.
const (
	MinNarrativeLength = 50
	MinChoices         = 2
	MaxChoices         = 5
)

// SchemaError marks a TurnResult as structurally invalid. It is fatal
// to the turn: the caller discards the turn and leaves the game state
// untouched. Semantic problems inside individual deltas (unknown
// fields, type mismatches) are deliberately not schema errors; those
// degrade to per-delta warnings during application.
type SchemaError struct {
	Field  string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("turn schema invalid: %s: %s", e.Field, e.Detail)
}

// Validate checks the structural contract of a TurnResult: narrative
// length, choice count, and that every delta uses a recognized
// operation. It never inspects field paths; forward-incompatible field
// names from a newer generator must not crash a turn.
func (tr *TurnResult) Validate() error {
	if len(tr.Narrative) < MinNarrativeLength {
		return &SchemaError{
			Field:  "narrative",
			Detail: fmt.Sprintf("length %d below minimum %d", len(tr.Narrative), MinNarrativeLength),
		}
	}
	if len(tr.Choices) < MinChoices || len(tr.Choices) > MaxChoices {
		return &SchemaError{
			Field:  "choices",
			Detail: fmt.Sprintf("count %d outside [%d, %d]", len(tr.Choices), MinChoices, MaxChoices),
		}
	}
	for i, d := range tr.ProposedDeltas {
		if !d.Operation.Valid() {
			return &SchemaError{
				Field:  fmt.Sprintf("proposed_deltas[%d].operation", i),
				Detail: fmt.Sprintf("unrecognized operation %q", d.Operation),
			}
		}
	}
	return nil
}
