package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"dynafunc/internal/config"
	"dynafunc/internal/domain"
	"dynafunc/internal/roles"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOllamaChat(t *testing.T) {
	var gotBody ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]string{"role": "assistant", "content": "hello"},
			"done":              true,
			"done_reason":       "stop",
			"prompt_eval_count": 7,
			"eval_count":        3,
		})
	}))
	defer srv.Close()

	o := NewOllama(OllamaConfig{APIBase: srv.URL, Logger: testLogger()})
	resp, err := o.Chat(context.Background(), domain.ChatRequest{
		Messages:  []domain.Message{{Role: "user", Content: "hi"}},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "hello" || resp.FinishReason != "stop" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if gotBody.Model != ollamaDefaultModel || gotBody.Stream {
		t.Fatalf("request body = %+v", gotBody)
	}
}

func TestDoWithRetryRecoversFrom429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "ok"},
		})
	}))
	defer srv.Close()

	o := NewOllama(OllamaConfig{APIBase: srv.URL, Logger: testLogger()})
	resp, err := o.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "ok" || calls.Load() != 2 {
		t.Fatalf("content = %q, calls = %d", resp.Content, calls.Load())
	}
}

// fakeProvider returns canned responses for backend and failover tests.
type fakeProvider struct {
	name    string
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ChatResponse{Content: f.content, FinishReason: "stop", LatencyMs: 1}, nil
}
func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) Models() []string                 { return []string{"fake"} }
func (f *fakeProvider) Healthy(context.Context) error    { return f.err }

func TestChatBackendTranscript(t *testing.T) {
	fake := &fakeProvider{name: "fake", content: "reply"}
	rm := roles.NewManager()
	backend := NewChatBackend(fake, rm, BackendConfig{Logger: testLogger()})

	backend.SetSystemMessage("be terse")
	got, err := backend.Query(context.Background(), "question")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got != "reply" {
		t.Fatalf("got %q", got)
	}

	msgs := rm.Messages()
	if len(msgs) != 3 {
		t.Fatalf("transcript = %+v", msgs)
	}
	if msgs[0].Role != "system" || msgs[1].Role != "user" || msgs[2].Role != "assistant" {
		t.Fatalf("roles = %s/%s/%s", msgs[0].Role, msgs[1].Role, msgs[2].Role)
	}

	backend.ClearHistory()
	msgs = rm.Messages()
	if len(msgs) != 1 || msgs[0].Role != "system" {
		t.Fatalf("system message lost on clear: %+v", msgs)
	}
}

func TestFailoverTriesNextProvider(t *testing.T) {
	bad := &fakeProvider{name: "bad", err: errors.New("down")}
	good := &fakeProvider{name: "good", content: "ok"}
	fp := NewFailoverProvider([]domain.Provider{bad, good}, testLogger())

	resp, err := fp.Chat(context.Background(), domain.ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "ok" || bad.calls != 1 || good.calls != 1 {
		t.Fatalf("content = %q, calls = %d/%d", resp.Content, bad.calls, good.calls)
	}
}

func TestFactoryCachesAndFallsBack(t *testing.T) {
	cfg := config.Defaults()
	cfg.Providers["custom"] = config.ProviderConfig{
		Enabled: true,
		APIBase: "http://localhost:9999/v1",
		APIKey:  "sk-test",
	}
	f := NewFactory(cfg, testLogger())

	p1, err := f.Get("ollama")
	if err != nil {
		t.Fatalf("Get(ollama): %v", err)
	}
	p2, err := f.Get("ollama")
	if err != nil || p1 != p2 {
		t.Fatal("provider not cached")
	}

	// Unknown name with API base/key becomes an OpenAI-compatible client.
	custom, err := f.Get("custom")
	if err != nil {
		t.Fatalf("Get(custom): %v", err)
	}
	if custom.Name() != "openai" {
		t.Fatalf("fallback provider = %q", custom.Name())
	}

	if _, err := f.Get("ghost"); err == nil {
		t.Fatal("unknown provider accepted")
	}
}
