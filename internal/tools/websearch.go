package tools

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

const searchEndpoint = "https://api.duckduckgo.com/"

// WebSearchTool answers quick factual lookups (library docs, CVE numbers,
// API semantics) via the DuckDuckGo instant-answer API. No API key needed.
type WebSearchTool struct {
	client *http.Client
}

func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{client: &http.Client{Timeout: 15 * time.Second}}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Look up a short factual answer on the web, e.g. library documentation or a CVE. Returns an abstract and related topics, not full pages."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []string{"query"},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, args string) (string, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return err.Error(), nil
	}
	if strings.TrimSpace(req.Query) == "" {
		return "error: query is empty", nil
	}

	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("format", "json")
	q.Set("no_html", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("error building search request: %v", err), nil
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Sprintf("search failed: %v", err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return fmt.Sprintf("search failed: %v", err), nil
	}

	var answer struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Answer        string `json:"Answer"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Sprintf("search returned unparseable response: %v", err), nil
	}

	var b strings.Builder
	if answer.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n", answer.Answer)
	}
	if answer.AbstractText != "" {
		fmt.Fprintf(&b, "%s\n(%s)\n", answer.AbstractText, answer.AbstractURL)
	}
	count := 0
	for _, topic := range answer.RelatedTopics {
		if topic.Text == "" || count >= 5 {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)\n", topic.Text, topic.FirstURL)
		count++
	}
	if b.Len() == 0 {
		return "no results", nil
	}
	return b.String(), nil
}
