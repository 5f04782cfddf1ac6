package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/verdantpeak/cultivation-engine/pkg/narrative"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// Validates a turn-result JSON file: strict decoding, schema
// validation, and a dry-run application against a fresh run state to
// surface per-delta warnings. Used for authoring narrative fixtures.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <turn_result.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &TurnResultValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Turn result file is valid!")
}

type TurnResultValidator struct {
	errors []string
}

func (v *TurnResultValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("turn result file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidFilename(nameWithoutExt) {
		return fmt.Errorf("filename '%s' must be lowercase snake_case (e.g., spirit_spring.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var tr state.TurnResult
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&tr); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if err := tr.Validate(); err != nil {
		v.addError(err.Error())
	}

	v.validateDeltas(&tr)
	v.validateChoices(&tr)
	v.lintNarrative(&tr)
	v.dryRun(&tr)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *TurnResultValidator) validateDeltas(tr *state.TurnResult) {
	for i, d := range tr.ProposedDeltas {
		if d.Field == "" {
			v.addError(fmt.Sprintf("delta %d has an empty field", i))
		}
		if !d.Operation.Valid() {
			v.addError(fmt.Sprintf("delta %d has unknown operation '%s'", i, d.Operation))
		}
		if len(d.Value) == 0 {
			v.addError(fmt.Sprintf("delta %d (%s) has no value", i, d.Field))
		}
		if d.Reason == "" {
			v.addError(fmt.Sprintf("delta %d (%s) has no reason", i, d.Field))
		}
	}
}

// validateChoices parses each choice's requirements payload. At apply
// time a malformed payload just hides the choice, so authoring is the
// only place this gets caught.
func (v *TurnResultValidator) validateChoices(tr *state.TurnResult) {
	for i, c := range tr.Choices {
		if _, err := state.ParseChoiceRequirements(c.Requirements); err != nil {
			v.addError(fmt.Sprintf("choice %d (%s) has malformed requirements: %v", i, c.ID, err))
		}
	}
}

// lintNarrative screens the fixture's prose. Profanity is an error;
// anachronisms are advisory since only an author can judge tone.
func (v *TurnResultValidator) lintNarrative(tr *state.TurnResult) {
	filter := narrative.NewFilter()

	if filter.ContainsProfanity(tr.Narrative) {
		v.addError("narrative contains profanity; run it through the filter or rewrite")
	}
	for _, word := range filter.Anachronisms(tr.Narrative) {
		fmt.Printf("  note: narrative uses modern idiom %q\n", word)
	}

	for i, c := range tr.Choices {
		if filter.ContainsProfanity(c.Text) {
			v.addError(fmt.Sprintf("choice %d (%s) text contains profanity", i, c.ID))
		}
	}
}

// dryRun applies the deltas to a fresh run state. Nothing is persisted;
// the point is the warnings the engine would emit.
func (v *TurnResultValidator) dryRun(tr *state.TurnResult) {
	gs := state.NewGameState()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	dw := state.NewDeltaWorker(gs, logger)
	dw.Apply(tr.ProposedDeltas)

	for _, w := range dw.Warnings() {
		v.addError(fmt.Sprintf("dry run: %s: %s", w.Field, w.Detail))
	}
}

func (v *TurnResultValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidFilename(name string) bool {
	// Allow 'x.' prefix for experimental fixtures
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
