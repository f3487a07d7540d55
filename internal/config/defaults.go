package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Workspace:       "~/.dynafunc/workspace",
			LogLevel:        "info",
			DefaultProvider: "ollama",
			MaxTokens:       1024,
			Temperature:     0.2,
		},
		Providers: map[string]ProviderConfig{
			"ollama": {
				Enabled:      true,
				APIBase:      "http://localhost:11434",
				DefaultModel: "llama3.1:8b",
			},
		},
		Tools: ToolsConfig{
			Shell: ShellToolConfig{
				Timeout:        30,
				MaxOutputBytes: 65536,
			},
			Render: RenderToolConfig{
				Enabled:  false,
				Headless: true,
			},
			Dirs: []string{"~/.dynafunc/tools"},
		},
		Functions: FunctionsConfig{
			Path:      "~/.dynafunc/functions.yaml",
			ChainMode: false,
			Debug:     false,
		},
		Bench: BenchConfig{
			DBPath: "~/.dynafunc/bench.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9091",
		},
	}
}
