package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// ErrRunNotFound is returned when the API answers 404 for a run.
var ErrRunNotFound = errors.New("run not found")

// Runner drives a live cultivation-engine API for integration tests.
type Runner struct {
	BaseURL string
	Client  *http.Client
	Logger  func(format string, args ...interface{})
}

func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 60 * time.Second},
		Logger:  func(string, ...interface{}) {},
	}
}

// Health reports whether the API answers its health endpoint.
func (r *Runner) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// CreateRun starts a fresh run, optionally placed at a location.
func (r *Runner) CreateRun(ctx context.Context, location, region string) (*state.GameState, error) {
	body, err := json.Marshal(map[string]string{"location": location, "region": region})
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, http.MethodPost, "/v1/runs", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError("create run", resp)
	}

	var gs state.GameState
	if err := json.NewDecoder(resp.Body).Decode(&gs); err != nil {
		return nil, fmt.Errorf("failed to decode created run: %w", err)
	}
	return &gs, nil
}

// GetRun reads the run's current state. A 404 maps to ErrRunNotFound.
func (r *Runner) GetRun(ctx context.Context, runID uuid.UUID) (*state.GameState, error) {
	resp, err := r.do(ctx, http.MethodGet, "/v1/runs/"+runID.String(), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRunNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get run", resp)
	}

	var gs state.GameState
	if err := json.NewDecoder(resp.Body).Decode(&gs); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &gs, nil
}

// DeleteRun removes the run from storage.
func (r *Runner) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	resp, err := r.do(ctx, http.MethodDelete, "/v1/runs/"+runID.String(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return statusError("delete run", resp)
	}
	return nil
}

// PostTurn applies a turn result synchronously. The HTTP status is
// returned alongside the decoded body so tests can assert rejections.
func (r *Runner) PostTurn(ctx context.Context, runID uuid.UUID, tr *state.TurnResult) (*TurnResponse, int, error) {
	body, err := json.Marshal(tr)
	if err != nil {
		return nil, 0, err
	}

	resp, err := r.do(ctx, http.MethodPost, "/v1/runs/"+runID.String()+"/turn", body)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var tres TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&tres); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode turn response: %w", err)
	}
	return &tres, resp.StatusCode, nil
}

// PostTurnAsync enqueues a turn for a worker and returns the request id.
func (r *Runner) PostTurnAsync(ctx context.Context, runID uuid.UUID, tr *state.TurnResult) (string, error) {
	body, err := json.Marshal(tr)
	if err != nil {
		return "", err
	}

	resp, err := r.do(ctx, http.MethodPost, "/v1/runs/"+runID.String()+"/turn?async=true", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		return "", statusError("async turn", resp)
	}

	var ack AsyncTurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("failed to decode async ack: %w", err)
	}
	return ack.RequestID, nil
}

// PostCombatAction submits one combat action for the run's open session.
func (r *Runner) PostCombatAction(ctx context.Context, runID uuid.UUID, action, skillID string) (*CombatResponse, error) {
	body, err := json.Marshal(map[string]string{"action": action, "skill_id": skillID})
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, http.MethodPost, "/v1/runs/"+runID.String()+"/combat/action", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("combat action", resp)
	}

	var cres CombatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cres); err != nil {
		return nil, fmt.Errorf("failed to decode combat response: %w", err)
	}
	return &cres, nil
}

// GetCombatState reads the run's open combat session snapshot.
func (r *Runner) GetCombatState(ctx context.Context, runID uuid.UUID) (*CombatResponse, error) {
	resp, err := r.do(ctx, http.MethodGet, "/v1/runs/"+runID.String()+"/combat", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("combat state", resp)
	}

	var cres CombatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cres); err != nil {
		return nil, fmt.Errorf("failed to decode combat snapshot: %w", err)
	}
	return &cres, nil
}

func (r *Runner) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s returned %d: %s", op, resp.StatusCode, string(body))
}
