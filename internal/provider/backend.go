package provider

import (
	"context"
	"log/slog"

	"dynafunc/internal/domain"
	"dynafunc/internal/metrics"
	"dynafunc/internal/roles"
)

// ChatBackend combines a provider with an ordered transcript, exposing the
// query(text) -> text surface the dynamic function layer depends on. Each
// Query appends the prompt, sends the full transcript, and appends the reply,
// so chained calls naturally retain prior-turn context until ClearHistory.
type ChatBackend struct {
	provider    domain.Provider
	roles       *roles.Manager
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

type BackendConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *slog.Logger
}

func NewChatBackend(p domain.Provider, rm *roles.Manager, cfg BackendConfig) *ChatBackend {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ChatBackend{
		provider:    p,
		roles:       rm,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

var _ domain.Backend = (*ChatBackend)(nil)

func (b *ChatBackend) Query(ctx context.Context, prompt string) (string, error) {
	b.roles.AddMessage("user", prompt)

	resp, err := b.provider.Chat(ctx, domain.ChatRequest{
		Messages:    b.roles.Messages(),
		Model:       b.model,
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	})
	if err != nil {
		return "", err
	}

	metrics.ObserveBackendLatency(b.provider.Name(), resp.LatencyMs)
	b.logger.Debug("backend query",
		"provider", b.provider.Name(),
		"latency_ms", resp.LatencyMs,
		"tokens", resp.Usage.TotalTokens,
	)

	b.roles.AddMessage("assistant", resp.Content)
	return resp.Content, nil
}

func (b *ChatBackend) ClearHistory() {
	b.roles.Clear()
}

func (b *ChatBackend) SetSystemMessage(text string) {
	b.roles.SetSystemMessage(text)
}

func (b *ChatBackend) AddMessage(role, text string) {
	b.roles.AddMessage(role, text)
}
