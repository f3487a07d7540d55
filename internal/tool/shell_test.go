package tool

import (
	"context"
	"strings"
	"testing"
)

func TestShellTool_Execute(t *testing.T) {
	sh := NewShellTool(ShellConfig{TimeoutSeconds: 5})
	out, err := sh.Execute(context.Background(), map[string]any{"command": "echo hi"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "hi" {
		t.Fatalf("expected 'hi', got %v", out)
	}
}

func TestShellTool_ValidateRequiresCommand(t *testing.T) {
	sh := NewShellTool(ShellConfig{})
	if sh.Validate(map[string]any{}) {
		t.Fatal("missing command must fail validation")
	}
	if sh.Validate(map[string]any{"command": "   "}) {
		t.Fatal("blank command must fail validation")
	}
	if !sh.Validate(map[string]any{"command": "ls"}) {
		t.Fatal("valid command rejected")
	}
}

func TestShellTool_OutputTruncation(t *testing.T) {
	sh := NewShellTool(ShellConfig{TimeoutSeconds: 5, MaxOutputBytes: 16})
	out, err := sh.Execute(context.Background(), map[string]any{"command": "yes x | head -100"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	s, _ := out.(string)
	if !strings.Contains(s, "truncated") {
		t.Fatalf("expected truncation marker, got %q", s)
	}
}
