package tool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultShellTimeout   = 30
	defaultMaxOutputBytes = 65536
)

// ShellTool executes a shell command and returns combined stdout/stderr.
type ShellTool struct {
	workingDir     string
	timeoutSeconds int
	maxOutputBytes int
}

type ShellConfig struct {
	WorkingDir     string
	TimeoutSeconds int
	MaxOutputBytes int
}

func NewShellTool(cfg ShellConfig) *ShellTool {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultShellTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &ShellTool{
		workingDir:     cfg.WorkingDir,
		timeoutSeconds: cfg.TimeoutSeconds,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

func (s *ShellTool) Name() string { return "shell" }

func (s *ShellTool) Description() string {
	return "Execute a shell command. Use for running terminal commands, scripts, or any CLI tool. Returns stdout and stderr."
}

func (s *ShellTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"command": {Type: "string", Description: "The shell command to execute (e.g. 'ls -la', 'git status')"},
		},
		[]string{"command"},
	)
}

func (s *ShellTool) Validate(args map[string]any) bool {
	cmd, ok := args["command"].(string)
	return ok && strings.TrimSpace(cmd) != ""
}

func (s *ShellTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	command := ArgsString(args, "command")

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeoutSeconds)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if s.workingDir != "" {
		cmd.Dir = s.workingDir
	}

	out, err := cmd.CombinedOutput()
	output := string(out)
	if len(output) > s.maxOutputBytes {
		output = output[:s.maxOutputBytes] + "\n... (output truncated)"
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("command timed out after %ds", s.timeoutSeconds)
	}
	if err != nil {
		// Non-zero exit is still useful output for the caller.
		return fmt.Sprintf("exit error: %v\n%s", err, output), nil
	}
	return strings.TrimSpace(output), nil
}
