package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"dynafunc/internal/domain"
	"dynafunc/internal/tool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubTool struct {
	name    string
	result  any
	err     error
	invalid bool
	panics  bool
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub " + s.name }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Validate(map[string]any) bool {
	return !s.invalid
}
func (s *stubTool) Execute(context.Context, map[string]any, map[string]any) (any, error) {
	if s.panics {
		panic("stub exploded")
	}
	return s.result, s.err
}

func newTestAdapter(t *testing.T, tools ...domain.Tool) *Adapter {
	t.Helper()
	reg := tool.NewRegistry(testLogger())
	for _, tl := range tools {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("register %s: %v", tl.Name(), err)
		}
	}
	mgr := tool.NewManager(reg, testLogger())
	a := NewAdapter(mgr, nil, nil, testLogger())
	a.Initialize(context.Background())
	return a
}

func TestCanHandle(t *testing.T) {
	a := newTestAdapter(t)
	for method, want := range map[string]bool{
		"tools/list":   true,
		"tools/call":   true,
		"initialize":   false,
		"tools/delete": false,
		"":             false,
	} {
		if got := a.CanHandle(method); got != want {
			t.Errorf("CanHandle(%q) = %v, want %v", method, got, want)
		}
	}
}

func TestToolsListIgnoresCursor(t *testing.T) {
	a := newTestAdapter(t, &stubTool{name: "alpha"}, &stubTool{name: "beta"})

	result, rpcErr, err := a.Handle(context.Background(), "tools/list", json.RawMessage(`{"cursor":"page-2"}`))
	if err != nil || rpcErr != nil {
		t.Fatalf("Handle: %v / %v", err, rpcErr)
	}
	list := result.(*ToolsListResult)
	if len(list.Tools) != 2 || list.Tools[0].Name != "alpha" || list.Tools[1].Name != "beta" {
		t.Fatalf("tools = %+v", list.Tools)
	}
	if list.NextCursor != nil {
		t.Fatalf("nextCursor = %v, want nil", *list.NextCursor)
	}

	raw, _ := json.Marshal(list)
	if !strings.Contains(string(raw), `"nextCursor":null`) {
		t.Fatalf("nextCursor not serialized as null: %s", raw)
	}
}

func TestToolsListExcludesDisabled(t *testing.T) {
	a := newTestAdapter(t, &stubTool{name: "alpha"}, &stubTool{name: "beta"})
	if err := a.manager.Disable("alpha"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	result, _, err := a.Handle(context.Background(), "tools/list", nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	list := result.(*ToolsListResult)
	if len(list.Tools) != 1 || list.Tools[0].Name != "beta" {
		t.Fatalf("tools = %+v", list.Tools)
	}
}

func TestToolsCallSuccess(t *testing.T) {
	a := newTestAdapter(t, &stubTool{name: "alpha", result: map[string]any{"ok": true}})

	result, rpcErr, err := a.Handle(context.Background(), "tools/call",
		json.RawMessage(`{"name":"alpha","arguments":{}}`))
	if err != nil || rpcErr != nil {
		t.Fatalf("Handle: %v / %v", err, rpcErr)
	}
	call := result.(*ToolsCallResult)
	if len(call.Content) != 1 || call.Content[0].Type != "text" {
		t.Fatalf("content = %+v", call.Content)
	}
	if !strings.Contains(call.Content[0].Text, `"ok": true`) {
		t.Fatalf("text not pretty-printed JSON: %q", call.Content[0].Text)
	}
}

func TestToolsCallExecutionFailure(t *testing.T) {
	a := newTestAdapter(t, &stubTool{name: "alpha", err: errors.New("disk full")})

	_, rpcErr, err := a.Handle(context.Background(), "tools/call",
		json.RawMessage(`{"name":"alpha","arguments":{}}`))
	if err != nil {
		t.Fatalf("execution failure raised instead of converted: %v", err)
	}
	if rpcErr == nil || rpcErr.Code != CodeInternalError {
		t.Fatalf("rpcErr = %+v, want code %d", rpcErr, CodeInternalError)
	}
	if !strings.HasPrefix(rpcErr.Message, "Tool execution failed: ") ||
		!strings.Contains(rpcErr.Message, "disk full") {
		t.Fatalf("message = %q", rpcErr.Message)
	}
}

func TestToolsCallUnknownTool(t *testing.T) {
	a := newTestAdapter(t)
	_, rpcErr, err := a.Handle(context.Background(), "tools/call",
		json.RawMessage(`{"name":"ghost","arguments":{}}`))
	if err != nil {
		t.Fatalf("unknown tool raised instead of converted: %v", err)
	}
	if rpcErr == nil || rpcErr.Code != CodeInternalError {
		t.Fatalf("rpcErr = %+v", rpcErr)
	}
}

func TestToolsCallRecoversPanic(t *testing.T) {
	a := newTestAdapter(t, &stubTool{name: "boom", panics: true})

	_, rpcErr, err := a.Handle(context.Background(), "tools/call",
		json.RawMessage(`{"name":"boom","arguments":{}}`))
	if err != nil {
		t.Fatalf("panic raised instead of converted: %v", err)
	}
	if rpcErr == nil || rpcErr.Code != CodeInternalError || !strings.Contains(rpcErr.Message, "stub exploded") {
		t.Fatalf("rpcErr = %+v", rpcErr)
	}
}

func TestToolsCallEnvelopeValidation(t *testing.T) {
	a := newTestAdapter(t, &stubTool{name: "alpha"})

	cases := map[string]string{
		"missing name":       `{"arguments":{}}`,
		"missing arguments":  `{"name":"alpha"}`,
		"arguments is null":  `{"name":"alpha","arguments":null}`,
		"arguments not map":  `{"name":"alpha","arguments":[1,2]}`,
		"params not decoded": `"just a string"`,
	}
	for label, params := range cases {
		_, rpcErr, err := a.Handle(context.Background(), "tools/call", json.RawMessage(params))
		if !errors.Is(err, ErrInvalidEnvelope) {
			t.Errorf("%s: err = %v, want ErrInvalidEnvelope", label, err)
		}
		if rpcErr != nil {
			t.Errorf("%s: envelope problem converted instead of raised: %+v", label, rpcErr)
		}
	}
}

func TestHandleUnsupportedMethod(t *testing.T) {
	a := newTestAdapter(t)
	_, _, err := a.Handle(context.Background(), "resources/list", nil)
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("err = %v, want ErrInvalidEnvelope", err)
	}
}
