package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"general": {"logLevel": "debug"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.LogLevel != "debug" {
		t.Fatalf("logLevel = %q", cfg.General.LogLevel)
	}
	if cfg.General.DefaultProvider != "ollama" {
		t.Fatalf("defaultProvider = %q, want default applied", cfg.General.DefaultProvider)
	}
	if cfg.Tools.Shell.Timeout != 30 {
		t.Fatalf("shell timeout = %d, want default 30", cfg.Tools.Shell.Timeout)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("DYNAFUNC_TEST_KEY", "sk-secret")
	path := writeConfig(t, `{
		"providers": {
			"openai": {"enabled": true, "apiKey": "${DYNAFUNC_TEST_KEY}", "apiBase": "https://api.openai.com/v1"},
			"backup": {"enabled": false, "apiBase": "${DYNAFUNC_TEST_MISSING:-http://fallback:8080}"}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers["openai"].APIKey != "sk-secret" {
		t.Fatalf("apiKey = %q", cfg.Providers["openai"].APIKey)
	}
	if cfg.Providers["backup"].APIBase != "http://fallback:8080" {
		t.Fatalf("default not applied: %q", cfg.Providers["backup"].APIBase)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"bad log level":    `{"general": {"logLevel": "verbose"}}`,
		"zero timeout":     `{"tools": {"shell": {"timeout": 0}}}`,
		"unknown failover": `{"general": {"failoverChain": ["ghost"]}}`,
	}
	for label, content := range cases {
		path := writeConfig(t, content)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: accepted", label)
		}
	}
}

func TestValidateProviderNeedsEndpoint(t *testing.T) {
	cfg := Defaults()
	cfg.Providers["custom"] = ProviderConfig{Enabled: true}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "providers.custom") {
		t.Fatalf("err = %v", err)
	}

	// Ollama is exempt: it has a local default base.
	cfg = Defaults()
	cfg.Providers["ollama"] = ProviderConfig{Enabled: true}
	if err := Validate(cfg); err != nil {
		t.Fatalf("ollama without apiBase rejected: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DYNAFUNC_SET", "value")
	cases := []struct {
		in, want string
	}{
		{"${DYNAFUNC_SET}", "value"},
		{"${DYNAFUNC_UNSET:-fallback}", "fallback"},
		{"${DYNAFUNC_UNSET}", "${DYNAFUNC_UNSET}"},
		{"prefix-${DYNAFUNC_SET}-suffix", "prefix-value-suffix"},
	}
	for _, c := range cases {
		if got := ExpandEnvVars(c.in); got != c.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGetSetByPath(t *testing.T) {
	cfg := Defaults()

	got, err := GetByPath(cfg, "general.defaultProvider")
	if err != nil || got != "ollama" {
		t.Fatalf("GetByPath: %v, %v", got, err)
	}

	if err := SetByPath(cfg, "general.logLevel", "warn"); err != nil {
		t.Fatalf("SetByPath: %v", err)
	}
	if cfg.General.LogLevel != "warn" {
		t.Fatalf("logLevel = %q after SetByPath", cfg.General.LogLevel)
	}

	if err := SetByPath(cfg, "tools.shell.timeout", "60"); err != nil {
		t.Fatalf("SetByPath numeric: %v", err)
	}
	if cfg.Tools.Shell.Timeout != 60 {
		t.Fatalf("timeout = %d", cfg.Tools.Shell.Timeout)
	}

	if _, err := GetByPath(cfg, "general.nonexistent"); err == nil {
		t.Fatal("missing key accepted")
	}
}

func TestSanitizeMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Providers["openai"] = ProviderConfig{APIKey: "sk-1234567890abcdef"}

	clean := Sanitize(cfg)
	masked := clean.Providers["openai"].APIKey
	if masked == cfg.Providers["openai"].APIKey || !strings.Contains(masked, "****") {
		t.Fatalf("apiKey not masked: %q", masked)
	}
}
