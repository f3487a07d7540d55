package tool

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dynafunc/internal/domain"
)

// Manifest describes a command-backed tool declared in a YAML file.
type Manifest struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Command     string        `yaml:"command"`
	Args        []string      `yaml:"args"`
	TimeoutSecs int           `yaml:"timeout"`
	Params      ManifestParam `yaml:"params"`
}

type ManifestParam struct {
	Properties map[string]ManifestProp `yaml:"properties"`
	Required   []string                `yaml:"required"`
}

type ManifestProp struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// LoadFromDirectory reads tool manifests (*.yaml, *.yml) from a directory and
// returns a command tool per manifest. A missing directory yields no tools and
// no error; a malformed file is logged and skipped so one bad manifest never
// blocks the rest.
func LoadFromDirectory(dir string, logger *slog.Logger) ([]domain.Tool, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("tool directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tool dir: %w", err)
	}

	var tools []domain.Tool
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read tool manifest", "path", path, "err", err)
			continue
		}

		var mf Manifest
		if err := yaml.Unmarshal(data, &mf); err != nil {
			logger.Warn("cannot parse tool manifest", "path", path, "err", err)
			continue
		}
		if mf.Name == "" {
			mf.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if mf.Command == "" {
			logger.Warn("tool manifest has no command", "path", path)
			continue
		}

		logger.Info("loaded tool manifest", "name", mf.Name, "path", path)
		tools = append(tools, NewCommandTool(mf))
	}

	return tools, nil
}

const defaultCommandTimeout = 30

// CommandTool executes an external binary declared by a manifest. Argument
// values substitute {name} placeholders in the declared arg list; parameters
// not referenced by a placeholder are passed on stdin as "name=value" lines.
type CommandTool struct {
	manifest Manifest
}

func NewCommandTool(mf Manifest) *CommandTool {
	if mf.TimeoutSecs <= 0 {
		mf.TimeoutSecs = defaultCommandTimeout
	}
	return &CommandTool{manifest: mf}
}

func (t *CommandTool) Name() string        { return t.manifest.Name }
func (t *CommandTool) Description() string { return t.manifest.Description }

func (t *CommandTool) Parameters() map[string]any {
	props := make(map[string]Param, len(t.manifest.Params.Properties))
	for name, p := range t.manifest.Params.Properties {
		props[name] = Param{Type: p.Type, Description: p.Description}
	}
	return ToolParameters(props, t.manifest.Params.Required)
}

func (t *CommandTool) Validate(args map[string]any) bool {
	return HasRequired(t.Parameters(), args)
}

func (t *CommandTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(t.manifest.TimeoutSecs)*time.Second)
	defer cancel()

	argv := make([]string, 0, len(t.manifest.Args))
	used := make(map[string]bool)
	for _, a := range t.manifest.Args {
		expanded := a
		for name := range args {
			placeholder := "{" + name + "}"
			if strings.Contains(expanded, placeholder) {
				expanded = strings.ReplaceAll(expanded, placeholder, ArgsString(args, name))
				used[name] = true
			}
		}
		argv = append(argv, expanded)
	}

	var stdin bytes.Buffer
	for name := range args {
		if !used[name] {
			fmt.Fprintf(&stdin, "%s=%s\n", name, ArgsString(args, name))
		}
	}

	cmd := exec.CommandContext(ctx, t.manifest.Command, argv...)
	if stdin.Len() > 0 {
		cmd.Stdin = &stdin
	}

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("command %s timed out after %ds", t.manifest.Command, t.manifest.TimeoutSecs)
	}
	if err != nil {
		return nil, fmt.Errorf("command %s: %w: %s", t.manifest.Command, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
