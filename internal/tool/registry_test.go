package tool

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"dynafunc/internal/domain"
)

// stubTool is a minimal tool for testing the registry and manager.
type stubTool struct {
	name    string
	result  any
	err     error
	invalid bool // when true, Validate rejects everything
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub: " + s.name }
func (s *stubTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (s *stubTool) Validate(args map[string]any) bool { return !s.invalid }
func (s *stubTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	return s.result, s.err
}

var _ domain.Tool = (*stubTool)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(&stubTool{name: "test_tool", result: "ok"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, ok := reg.Get("test_tool")
	if !ok {
		t.Fatal("expected to find registered tool")
	}
	if got.Name() != "test_tool" {
		t.Fatalf("expected 'test_tool', got %q", got.Name())
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry(testLogger())
	if _, ok := reg.Get("nonexistent"); ok {
		t.Fatal("expected miss for unknown tool")
	}
}

func TestRegistry_EmptyNameRejected(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(&stubTool{name: ""}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestRegistry_DisableExcludesFromDefinitions(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "a"})
	reg.Register(&stubTool{name: "b"})

	if err := reg.Disable("a"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	defs := reg.Definitions()
	if len(defs) != 1 || defs[0].Name != "b" {
		t.Fatalf("expected only 'b' listed, got %+v", defs)
	}

	// Disabled tool is retained, just hidden.
	if _, ok := reg.Get("a"); !ok {
		t.Fatal("disabled tool should still be registered")
	}

	if err := reg.Enable("a"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	defs = reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected both tools listed after re-enable, got %+v", defs)
	}
}

func TestRegistry_EnableUnknownFails(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Enable("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := reg.Disable("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ReRegisterResetsEnablement(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "t", result: "v1"})
	reg.Disable("t")

	reg.Register(&stubTool{name: "t", result: "v2"})

	enabled, err := reg.IsEnabled("t")
	if err != nil {
		t.Fatalf("isEnabled: %v", err)
	}
	if !enabled {
		t.Fatal("re-registration must reset enablement to true")
	}
}

func TestRegistry_DefinitionsPreserveOrder(t *testing.T) {
	reg := NewRegistry(testLogger())
	for _, name := range []string{"c", "a", "b"} {
		reg.Register(&stubTool{name: name})
	}
	defs := reg.Definitions()
	want := []string{"c", "a", "b"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Fatalf("expected order %v, got %+v", want, defs)
		}
	}
}

func TestRegistry_RemoveDropsEnablementState(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "t"})
	reg.Disable("t")
	reg.Remove("t")

	if _, err := reg.IsEnabled("t"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	// Re-registering after removal starts enabled again.
	reg.Register(&stubTool{name: "t"})
	enabled, _ := reg.IsEnabled("t")
	if !enabled {
		t.Fatal("tool registered after removal should be enabled")
	}
}

func TestRegistry_Clear(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "x"})
	reg.Register(&stubTool{name: "y"})
	reg.Clear()

	if got := reg.Names(); len(got) != 0 {
		t.Fatalf("expected empty registry, got %v", got)
	}
	if got := reg.Definitions(); len(got) != 0 {
		t.Fatalf("expected no definitions, got %+v", got)
	}
}

func TestHasRequired(t *testing.T) {
	schema := ToolParameters(
		map[string]Param{
			"path":    {Type: "string"},
			"content": {Type: "string"},
		},
		[]string{"path", "content"},
	)

	if HasRequired(schema, map[string]any{"path": "a"}) {
		t.Fatal("missing required key must fail")
	}
	if !HasRequired(schema, map[string]any{"path": "a", "content": "b"}) {
		t.Fatal("all required keys present must pass")
	}

	// A schema round-tripped through JSON carries required as []any.
	decoded := map[string]any{"required": []any{"query"}}
	if HasRequired(decoded, map[string]any{}) {
		t.Fatal("missing required key in decoded schema must fail")
	}
	if !HasRequired(decoded, map[string]any{"query": "go"}) {
		t.Fatal("decoded schema with key present must pass")
	}

	if !HasRequired(map[string]any{}, nil) {
		t.Fatal("schema without required list accepts anything")
	}
}
