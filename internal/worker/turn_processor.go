package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verdantpeak/cultivation-engine/internal/storage"
	queuePkg "github.com/verdantpeak/cultivation-engine/pkg/queue"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// TurnProcessor resolves queued turn requests against stored run state
type TurnProcessor struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(s storage.Storage, logger *slog.Logger) *TurnProcessor {
	return &TurnProcessor{
		storage: s,
		logger:  logger,
	}
}

// ProcessTurn loads the run, applies the turn result, and saves the
// mutated state. On a validation failure the stored state is untouched.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req *queuePkg.Request) (*state.GameState, *state.TurnOutcome, error) {
	if req.TurnResult == nil {
		return nil, nil, fmt.Errorf("turn request %s has no turn result", req.RequestID)
	}

	gs, err := p.storage.LoadGameState(ctx, req.RunID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load run state: %w", err)
	}
	if gs == nil {
		return nil, nil, fmt.Errorf("run not found: %s", req.RunID)
	}

	outcome, err := state.ResolveTurn(gs, req.TurnResult, p.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve turn: %w", err)
	}

	if err := p.storage.SaveGameState(ctx, req.RunID, gs); err != nil {
		return nil, nil, fmt.Errorf("failed to save run state: %w", err)
	}

	return gs, outcome, nil
}
