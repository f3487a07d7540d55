package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dynafunc/internal/browser"
)

const renderMaxOutput = 20000

// RenderTool fetches a web page through headless Chrome and returns its
// visible text. Heavier than web_search but handles JavaScript-rendered pages.
type RenderTool struct {
	bridge *browser.Bridge
}

func NewRenderTool(bridge *browser.Bridge) *RenderTool {
	return &RenderTool{bridge: bridge}
}

func (t *RenderTool) Name() string { return "web_render" }
func (t *RenderTool) Description() string {
	return "Render a web page in a headless browser and return its visible text. Use for pages that require JavaScript."
}

func (t *RenderTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"url":      {Type: "string", Description: "Page URL to render"},
			"selector": {Type: "string", Description: "Optional CSS selector to extract (default: body)"},
		},
		[]string{"url"},
	)
}

func (t *RenderTool) Validate(args map[string]any) bool {
	u, ok := args["url"].(string)
	if !ok {
		return false
	}
	u = strings.TrimSpace(u)
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func (t *RenderTool) Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error) {
	url := ArgsString(args, "url")
	selector := ArgsString(args, "selector")

	text, err := t.bridge.FetchText(ctx, url, selector, 45*time.Second)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	text = strings.TrimSpace(text)
	if len(text) > renderMaxOutput {
		text = text[:renderMaxOutput] + "\n... (truncated)"
	}
	return text, nil
}
