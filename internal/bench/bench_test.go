package bench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"dynafunc/internal/domain"
	"dynafunc/internal/dynfunc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bench.db"), testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type scriptedBackend struct {
	replies []string
	next    int
	errAt   int
	clears  int
}

func (b *scriptedBackend) Query(context.Context, string) (string, error) {
	if b.errAt > 0 && b.next == b.errAt-1 {
		b.next++
		return "", errors.New("backend unavailable")
	}
	if b.next >= len(b.replies) {
		return "", errors.New("no scripted reply left")
	}
	r := b.replies[b.next]
	b.next++
	return r, nil
}

func (b *scriptedBackend) ClearHistory()          { b.clears++ }
func (b *scriptedBackend) SetSystemMessage(string) {}
func (b *scriptedBackend) AddMessage(string, string) {}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	content := `name: arithmetic
questions:
  - prompt: "What is 2+2?"
    expected: "4"
  - prompt: "Capital of France?"
    expected: "paris"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	name, qs, err := LoadQuestions(path)
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if name != "arithmetic" || len(qs) != 2 || qs[1].Expected != "paris" {
		t.Fatalf("got %q, %+v", name, qs)
	}
}

func TestLoadQuestionsErrors(t *testing.T) {
	if _, _, err := LoadQuestions(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: nothing\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadQuestions(empty); err == nil {
		t.Fatal("empty question set accepted")
	}
}

func TestRunnerGradesAndPersists(t *testing.T) {
	store := testStore(t)
	backend := &scriptedBackend{replies: []string{"The answer is 4.", "London"}}
	runner := NewRunner(backend, store, "ollama", "llama3", testLogger())

	questions := []Question{
		{Prompt: "What is 2+2?", Expected: "4"},
		{Prompt: "Capital of France?", Expected: "Paris"},
	}
	run, results, err := runner.Run(context.Background(), questions)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Correct != 1 || run.Questions != 2 {
		t.Fatalf("run = %+v", run)
	}
	if !results[0].Correct || results[1].Correct {
		t.Fatalf("results = %+v", results)
	}
	if backend.clears != 2 {
		t.Fatalf("history cleared %d times, want one per question", backend.clears)
	}

	runs, err := store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Correct != 1 {
		t.Fatalf("persisted runs = %+v", runs)
	}

	saved, err := store.Results(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(saved) != 2 || saved[0].Answer != "The answer is 4." {
		t.Fatalf("persisted results = %+v", saved)
	}
}

func TestRunnerBackendErrorFailsQuestionNotRun(t *testing.T) {
	backend := &scriptedBackend{replies: []string{"", "4"}, errAt: 1}
	runner := NewRunner(backend, nil, "ollama", "llama3", testLogger())

	run, results, err := runner.Run(context.Background(), []Question{
		{Prompt: "broken?", Expected: "x"},
		{Prompt: "2+2?", Expected: "4"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Err == "" || results[0].Correct {
		t.Fatalf("failed question not recorded: %+v", results[0])
	}
	if run.Correct != 1 {
		t.Fatalf("run = %+v", run)
	}
}

func TestRunnerFunctionQuestion(t *testing.T) {
	backend := &scriptedBackend{replies: []string{`{"response": 10}`}}
	layer := dynfunc.NewLayer(backend, testLogger())
	layer.AddFunction("double", "Double the first parameter.")

	runner := NewRunner(backend, nil, "ollama", "llama3", testLogger())
	runner.SetLayer(layer)

	run, results, err := runner.Run(context.Background(), []Question{
		{Function: "double", Params: []any{5}, Expected: "10"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Correct != 1 || !results[0].Correct {
		t.Fatalf("run = %+v, results = %+v", run, results)
	}
	if results[0].Question != "fn:double" {
		t.Fatalf("question label = %q", results[0].Question)
	}
}

func TestRunnerFunctionQuestionWithoutLayer(t *testing.T) {
	runner := NewRunner(&scriptedBackend{}, nil, "ollama", "llama3", testLogger())
	_, results, err := runner.Run(context.Background(), []Question{
		{Function: "double", Expected: "10"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Err == "" || results[0].Correct {
		t.Fatalf("missing layer not reported: %+v", results[0])
	}
}

func TestStoreAuditTrail(t *testing.T) {
	store := testStore(t)
	store.RecordToolCall(context.Background(), domain.ToolCallRecord{
		ID: "a1", Tool: "shell", Arguments: `{"command":"ls"}`, OK: true, ElapsedMs: 12,
	})
	store.RecordToolCall(context.Background(), domain.ToolCallRecord{
		ID: "a2", Tool: "web_search", OK: false, Error: "timeout", ElapsedMs: 5000,
	})

	recs, err := store.AuditTrail(context.Background(), 10)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d rows", len(recs))
	}
	for _, r := range recs {
		if r.Tool == "web_search" && (r.OK || r.Error != "timeout") {
			t.Fatalf("audit row = %+v", r)
		}
	}
}

func TestGrade(t *testing.T) {
	cases := []struct {
		answer, expected string
		want             bool
	}{
		{"The answer is 4.", "4", true},
		{"PARIS", "paris", true},
		{"London", "Paris", false},
		{"anything", "", true},
		{"  ", "", false},
	}
	for _, c := range cases {
		if got := grade(c.answer, c.expected); got != c.want {
			t.Errorf("grade(%q, %q) = %v, want %v", c.answer, c.expected, got, c.want)
		}
	}
}
