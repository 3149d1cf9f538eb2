package llm

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/tidwall/gjson"
)

// ProviderError is a failed provider call. It matches common.ErrRateLimited
// for HTTP 429 and common.ErrProvider for everything else.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("%s: %s", common.ErrRateLimited, e.Message)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", common.ErrProvider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", common.ErrProvider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return common.ErrRateLimited
	}
	return common.ErrProvider
}

const maxMessageRunes = 500

// errorFromResponse builds a ProviderError from a non-2xx response body,
// preferring the OpenAI-style {"error":{"message":...}} field.
func errorFromResponse(status int, body []byte) *ProviderError {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "error").String()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if utf8.RuneCountInString(msg) > maxMessageRunes {
		msg = string([]rune(msg)[:maxMessageRunes])
	}
	return &ProviderError{StatusCode: status, Message: msg}
}
