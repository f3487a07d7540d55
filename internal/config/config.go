package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Providers map[string]ProviderConfig `json:"providers"`
	Tools     ToolsConfig               `json:"tools"`
	Functions FunctionsConfig           `json:"functions"`
	Bench     BenchConfig               `json:"bench"`
	Metrics   MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	Workspace       string   `json:"workspace"`
	LogLevel        string   `json:"logLevel"`
	LogFile         string   `json:"logFile,omitempty"` // optional log file path
	DefaultProvider string   `json:"defaultProvider"`
	FailoverChain   []string `json:"failoverChain,omitempty"` // provider failover order
	MaxTokens       int      `json:"maxTokens,omitempty"`
	Temperature     float64  `json:"temperature,omitempty"`
}

type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

type ToolsConfig struct {
	Shell  ShellToolConfig  `json:"shell"`
	Render RenderToolConfig `json:"render"`
	Dirs   []string         `json:"dirs,omitempty"` // tool manifest directories, scanned in order
}

type ShellToolConfig struct {
	Timeout        int `json:"timeout"`
	MaxOutputBytes int `json:"maxOutputBytes"`
}

type RenderToolConfig struct {
	Enabled    bool   `json:"enabled"`
	ProfileDir string `json:"profileDir,omitempty"`
	Headless   bool   `json:"headless"`
}

// FunctionsConfig configures the dynamic function layer.
type FunctionsConfig struct {
	Path      string `json:"path,omitempty"` // YAML file of name -> template definitions
	ChainMode bool   `json:"chainMode"`
	Debug     bool   `json:"debug"`
}

type BenchConfig struct {
	DBPath    string `json:"dbPath"`
	Questions string `json:"questions,omitempty"` // default question set path
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.dynafunc).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dynafunc"
	}
	return filepath.Join(home, ".dynafunc")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.Workspace = ExpandPath(cfg.General.Workspace)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Functions.Path = ExpandPath(cfg.Functions.Path)
	cfg.Bench.DBPath = ExpandPath(cfg.Bench.DBPath)
	cfg.Bench.Questions = ExpandPath(cfg.Bench.Questions)
	for i, dir := range cfg.Tools.Dirs {
		cfg.Tools.Dirs[i] = ExpandPath(dir)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.Tools.Shell.Timeout < 1 {
		errs = append(errs, "tools.shell.timeout must be >= 1")
	}
	if cfg.General.MaxTokens < 0 {
		errs = append(errs, "general.maxTokens must be >= 0")
	}
	if cfg.General.Temperature < 0 || cfg.General.Temperature > 2 {
		errs = append(errs, "general.temperature must be between 0 and 2")
	}

	// Validate failover chain references exist in providers.
	for _, provName := range cfg.General.FailoverChain {
		if _, ok := cfg.Providers[provName]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown provider: %s", provName))
		}
	}

	// Validate provider configs.
	for name, pc := range cfg.Providers {
		if pc.Enabled && pc.APIBase == "" && pc.APIKey == "" {
			// Ollama has a usable local default base.
			if name != "ollama" {
				errs = append(errs, fmt.Sprintf("providers.%s: apiBase or apiKey is required", name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
