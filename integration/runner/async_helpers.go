package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

const (
	// PollInterval is how often the run state is re-read while waiting.
	PollInterval = 500 * time.Millisecond
	// TurnTimeout is the max wait for a queued turn to land.
	TurnTimeout = 30 * time.Second
)

// WaitForTurnCount polls the run until its turn counter reaches want.
// Returns the state that satisfied the wait.
func (r *Runner) WaitForTurnCount(ctx context.Context, runID uuid.UUID, want int) (*state.GameState, error) {
	timeout := time.After(TurnTimeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("timeout waiting for turn %d on run %s (waited %v)", want, runID, TurnTimeout)
		case <-ticker.C:
			gs, err := r.GetRun(ctx, runID)
			if err != nil {
				// Transient read failures are retried until the deadline.
				r.Logger("poll error: %v", err)
				continue
			}
			if gs.TurnCount >= want {
				return gs, nil
			}
		}
	}
}
