package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dynafunc/internal/domain"
	"dynafunc/internal/dynfunc"
)

// Runner executes a question set against a backend and persists the outcome.
// Prompt questions go straight to the backend; function questions go through
// the dynamic function layer when one is attached.
type Runner struct {
	backend  domain.Backend
	layer    *dynfunc.Layer
	store    *SQLiteStore
	provider string
	model    string
	logger   *slog.Logger
}

// NewRunner wires a backend and a store into a benchmark runner.
func NewRunner(backend domain.Backend, store *SQLiteStore, provider, model string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		backend:  backend,
		store:    store,
		provider: provider,
		model:    model,
		logger:   logger.With("component", "bench"),
	}
}

// SetLayer attaches a dynamic function layer for function questions.
func (r *Runner) SetLayer(layer *dynfunc.Layer) {
	r.layer = layer
}

// Run asks every question in a fresh conversation, grades by case-insensitive
// substring match, and saves the run. Backend errors fail the question, not
// the run.
func (r *Runner) Run(ctx context.Context, questions []Question) (Run, []Result, error) {
	run := Run{
		ID:        uuid.NewString(),
		Provider:  r.provider,
		Model:     r.model,
		Questions: len(questions),
		StartedAt: time.Now(),
	}

	results := make([]Result, 0, len(questions))
	start := time.Now()
	for i, q := range questions {
		r.backend.ClearHistory()

		qStart := time.Now()
		answer, err := r.ask(ctx, q)
		elapsed := time.Since(qStart).Milliseconds()

		res := Result{
			RunID:     run.ID,
			Question:  questionLabel(q),
			Expected:  q.Expected,
			Answer:    answer,
			ElapsedMs: elapsed,
		}
		if err != nil {
			res.Err = err.Error()
			r.logger.Warn("question failed", "index", i, "error", err)
		} else {
			res.Correct = grade(answer, q.Expected)
		}
		if res.Correct {
			run.Correct++
		}
		results = append(results, res)
	}
	run.ElapsedMs = time.Since(start).Milliseconds()

	if r.store != nil {
		if err := r.store.SaveRun(ctx, run, results); err != nil {
			return run, results, err
		}
	}
	r.logger.Info("benchmark finished",
		"run", run.ID, "correct", run.Correct, "total", run.Questions, "elapsed_ms", run.ElapsedMs)
	return run, results, nil
}

func (r *Runner) ask(ctx context.Context, q Question) (string, error) {
	if q.Function != "" {
		if r.layer == nil {
			return "", fmt.Errorf("question needs dynamic function %s but no layer is attached", q.Function)
		}
		value, err := r.layer.Call(ctx, q.Function, q.Params...)
		if err != nil {
			return "", err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return r.backend.Query(ctx, q.Prompt)
}

func questionLabel(q Question) string {
	if q.Function != "" {
		return "fn:" + q.Function
	}
	return q.Prompt
}

// grade accepts an answer containing the expected text, ignoring case and
// surrounding whitespace. An empty expectation only matches a non-empty answer.
func grade(answer, expected string) bool {
	answer = strings.TrimSpace(answer)
	if expected == "" {
		return answer != ""
	}
	return strings.Contains(strings.ToLower(answer), strings.ToLower(strings.TrimSpace(expected)))
}
