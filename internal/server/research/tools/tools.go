// Package tools implements the lookups the research assistant may call:
// an encyclopedia search, a preprint search and a web search. Each tool
// returns a short plain-text snippet suitable for feeding back to the
// model.
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// MaxSnippet is the number of characters a tool returns at most.
const MaxSnippet = 250

const maxBody = 4 << 20

// Tool is a single named lookup.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, query string) (string, error)
}

// NoResults is returned as tool output when a lookup finds nothing.
const NoResults = "No good results found."

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "podmate/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
