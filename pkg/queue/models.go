package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeTurn is a narrative turn awaiting resolution
	RequestTypeTurn RequestType = "turn"
)

// Request represents a unified request in the queue
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	RunID     uuid.UUID   `json:"run_id"`

	// Turn-specific fields
	TurnResult *state.TurnResult `json:"turn_result,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTurnRequest wraps a turn result for asynchronous resolution.
func NewTurnRequest(runID uuid.UUID, tr *state.TurnResult) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		Type:       RequestTypeTurn,
		RunID:      runID,
		TurnResult: tr,
		EnqueuedAt: time.Now().UTC(),
	}
}

// MarshalJSON serializes the request to JSON for Redis storage
func (r *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(&struct {
		RunID string `json:"run_id"`
		*Alias
	}{
		RunID: r.RunID.String(),
		Alias: (*Alias)(r),
	})
}

// UnmarshalJSON deserializes the request from JSON in Redis
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := &struct {
		RunID string `json:"run_id"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	runID, err := uuid.Parse(aux.RunID)
	if err != nil {
		return err
	}

	r.RunID = runID
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
