package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	searchTimeout   = 15 * time.Second
	userAgentString = "dynafunc/0.1"
)

// WebSearchTool searches the web using the DuckDuckGo Instant Answer API.
type WebSearchTool struct {
	client *http.Client
}

func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		client: &http.Client{Timeout: searchTimeout},
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }
func (t *WebSearchTool) Description() string {
	return "Search the web for information. Returns a summary of search results. Use for current events or facts."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"query": {Type: "string", Description: "Search query to look up on the web"},
		},
		[]string{"query"},
	)
}

func (t *WebSearchTool) Validate(args map[string]any) bool {
	q, ok := args["query"].(string)
	return ok && strings.TrimSpace(q) != ""
}

type ddgResponse struct {
	Heading       string `json:"Heading"`
	Abstract      string `json:"Abstract"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	query := ArgsString(args, "query")

	endpoint := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1&skip_disambig=1",
		url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var ddg ddgResponse
	if err := json.Unmarshal(body, &ddg); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	var results []string
	if ddg.Answer != "" {
		results = append(results, ddg.Answer)
	}
	if ddg.Abstract != "" {
		results = append(results, fmt.Sprintf("## %s\n%s\nSource: %s", ddg.Heading, ddg.Abstract, ddg.AbstractURL))
	}
	for i, topic := range ddg.RelatedTopics {
		if i >= 5 {
			break
		}
		if topic.Text != "" {
			results = append(results, fmt.Sprintf("- %s (%s)", topic.Text, topic.FirstURL))
		}
	}

	if len(results) == 0 {
		return fmt.Sprintf("No instant answer found for %q.", query), nil
	}
	return strings.Join(results, "\n\n"), nil
}
