package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "gsk_test_0123456789"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestChat_Success(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`)
	})

	resp, err := c.Chat(context.Background(), testKey, ChatRequest{
		Model:    "m",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Message.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "m", got.Model)
	assert.Empty(t, got.Tools)
}

func TestChat_ToolCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":null,
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"wikipedia","arguments":"{\"query\":\"Go\"}"}}]},
			"finish_reason":"tool_calls"}]}`)
	})

	resp, err := c.Chat(context.Background(), testKey, ChatRequest{Model: "m"})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "wikipedia", resp.Message.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"Go"}`, resp.Message.ToolCalls[0].Function.Arguments)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantIs     error
		wantInText string
	}{
		{name: "rate limited", status: 429, body: `{"error":{"message":"Rate limit reached for model"}}`, wantIs: common.ErrRateLimited, wantInText: "Rate limit reached for model"},
		{name: "server error", status: 500, body: `{"error":{"message":"internal"}}`, wantIs: common.ErrProvider, wantInText: "(500): internal"},
		{name: "plain text error", status: 502, body: "bad gateway", wantIs: common.ErrProvider, wantInText: "bad gateway"},
		{name: "no choices", status: 200, body: `{"choices":[]}`, wantIs: common.ErrProvider, wantInText: "no choices"},
		{name: "malformed", status: 200, body: `{"choices":`, wantIs: common.ErrProvider, wantInText: "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Chat(context.Background(), testKey, ChatRequest{Model: "m"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Contains(t, err.Error(), tt.wantInText)
		})
	}
}

func TestChat_RateLimitIsNotProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Chat(context.Background(), testKey, ChatRequest{Model: "m"})
	assert.ErrorIs(t, err, common.ErrRateLimited)
	assert.NotErrorIs(t, err, common.ErrProvider)
}

func TestChat_NoRetry(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Chat(context.Background(), testKey, ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestChat_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, time.Second)

	_, err := c.Chat(context.Background(), testKey, ChatRequest{Model: "m"})
	assert.ErrorIs(t, err, common.ErrProvider)
}

func TestChat_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Chat(ctx, testKey, ChatRequest{Model: "m"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "summarize this", req.Messages[0].Content)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":""}}]}`)
	})

	out, err := c.Complete(context.Background(), testKey, "m", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "", out, "empty output is passed through")
}

func TestSpeech(t *testing.T) {
	audio := []byte("RIFF\x24\x00\x00\x00WAVE")

	t.Run("returns payload and header type", func(t *testing.T) {
		var got SpeechRequest
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/audio/speech", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(audio)
		})

		data, ct, err := c.Speech(context.Background(), testKey, SpeechRequest{Model: "playai-tts", Voice: "Celeste-PlayAI", Input: "script", ResponseFormat: "wav"})
		require.NoError(t, err)
		assert.Equal(t, audio, data)
		assert.Equal(t, "audio/wav", ct)
		assert.Equal(t, SpeechRequest{Model: "playai-tts", Voice: "Celeste-PlayAI", Input: "script", ResponseFormat: "wav"}, got)
	})

	t.Run("derives type from format", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(audio)
		})
		_, ct, err := c.Speech(context.Background(), testKey, SpeechRequest{ResponseFormat: "mp3"})
		require.NoError(t, err)
		assert.Equal(t, "audio/mpeg", ct)
	})

	t.Run("provider error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"input too long"}}`)
		})
		_, _, err := c.Speech(context.Background(), testKey, SpeechRequest{})
		assert.ErrorIs(t, err, common.ErrProvider)
		assert.Contains(t, err.Error(), "input too long")
	})
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		status int
		want   error
		calls  int
	}{
		{name: "valid", key: testKey, status: 200, want: nil, calls: 1},
		{name: "too short skips network", key: "abc", status: 200, want: common.ErrInvalidAPIKey, calls: 0},
		{name: "unauthorized", key: testKey, status: 401, want: common.ErrInvalidAPIKey, calls: 1},
		{name: "forbidden", key: testKey, status: 403, want: common.ErrInvalidAPIKey, calls: 1},
		{name: "rate limited", key: testKey, status: 429, want: common.ErrRateLimited, calls: 1},
		{name: "outage", key: testKey, status: 503, want: common.ErrProvider, calls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/models", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"Invalid API Key"}}`)
			})

			err := c.Probe(context.Background(), tt.key)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestAudioContentType(t *testing.T) {
	assert.Equal(t, "audio/wav", AudioContentType("wav"))
	assert.Equal(t, "audio/wav", AudioContentType(""))
	assert.Equal(t, "audio/mpeg", AudioContentType("MP3"))
	assert.Equal(t, "audio/flac", AudioContentType("flac"))
	assert.Equal(t, "audio/ogg", AudioContentType("opus"))
}
