package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolvePath resolves a file path relative to the workspace and prevents traversal.
func resolvePath(workspace, path string) (string, error) {
	path = strings.TrimSpace(path)
	if !filepath.IsAbs(path) && workspace != "" {
		path = filepath.Join(workspace, path)
	}
	resolved, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if workspace != "" {
		wsAbs, err := filepath.Abs(workspace)
		if err != nil {
			return "", fmt.Errorf("resolve workspace: %w", err)
		}
		if !strings.HasPrefix(resolved, wsAbs+string(filepath.Separator)) && resolved != wsAbs {
			return "", fmt.Errorf("path %q is outside workspace %q", resolved, wsAbs)
		}
	}
	return resolved, nil
}

// ReadFileTool reads the contents of a file inside the workspace.
type ReadFileTool struct {
	workspace string
}

func NewReadFileTool(workspace string) *ReadFileTool {
	return &ReadFileTool{workspace: workspace}
}

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Provide the file path relative to workspace or absolute."
}

func (t *ReadFileTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"path": {Type: "string", Description: "File path to read (relative to workspace or absolute)"},
		},
		[]string{"path"},
	)
}

func (t *ReadFileTool) Validate(args map[string]any) bool {
	p, ok := args["path"].(string)
	return ok && strings.TrimSpace(p) != ""
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	resolved, err := resolvePath(t.workspace, ArgsString(args, "path"))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

// WriteFileTool writes content to a file, creating parent directories as needed.
type WriteFileTool struct {
	workspace string
}

func NewWriteFileTool(workspace string) *WriteFileTool {
	return &WriteFileTool{workspace: workspace}
}

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Write content to a file. Creates the file if it does not exist; overwrites if it exists."
}

func (t *WriteFileTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"path":    {Type: "string", Description: "File path to write (relative to workspace or absolute)"},
			"content": {Type: "string", Description: "Content to write to the file"},
		},
		[]string{"path", "content"},
	)
}

func (t *WriteFileTool) Validate(args map[string]any) bool {
	p, ok := args["path"].(string)
	if !ok || strings.TrimSpace(p) == "" {
		return false
	}
	_, hasContent := args["content"]
	return hasContent
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	resolved, err := resolvePath(t.workspace, ArgsString(args, "path"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}
	content := ArgsString(args, "content")
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}
	return map[string]any{"path": resolved, "bytes": len(content)}, nil
}
