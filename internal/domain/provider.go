package domain

import "context"

// Provider is the interface all LLM providers must implement.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
	Models() []string
	Healthy(ctx context.Context) error
}

type ChatRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

type ChatResponse struct {
	Content      string
	FinishReason string // stop | length
	Usage        Usage
	LatencyMs    int64 // time taken for this LLM call in milliseconds
}

type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Backend is the query collaborator the dynamic function layer talks to: a
// provider plus an ordered transcript. Query is the only blocking round trip;
// the transcript mutators are cheap local operations.
type Backend interface {
	Query(ctx context.Context, prompt string) (string, error)
	ClearHistory()
	SetSystemMessage(text string)
	AddMessage(role, text string)
}
