// Package research runs the chat assistant. Each question is answered by a
// tool-calling loop: the model may ask for encyclopedia, preprint or web
// lookups, sees their output, and eventually replies in prose.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/llm"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/research/tools"
)

// Greeting is shown before the first question of a session.
const Greeting = "Hello! I'm your AI research assistant 🤖."

const systemPrompt = "You are a helpful research assistant. Use the available tools to look up facts " +
	"on Wikipedia, arXiv or the web when they help, then answer the user's question clearly in Markdown."

// Chatter is the provider call the assistant depends on.
type Chatter interface {
	Chat(ctx context.Context, apiKey string, req llm.ChatRequest) (*llm.ChatResponse, error)
}

type Assistant struct {
	llm      Chatter
	model    string
	maxSteps int
	tools    map[string]tools.Tool
	defs     []llm.Tool
	logger   logging.Logger
	now      func() time.Time
}

func NewAssistant(c Chatter, model string, maxSteps int, logger logging.Logger, ts ...tools.Tool) *Assistant {
	if maxSteps < 1 {
		maxSteps = 1
	}
	a := &Assistant{
		llm:      c,
		model:    model,
		maxSteps: maxSteps,
		tools:    make(map[string]tools.Tool, len(ts)),
		logger:   logger.With("module", "research"),
		now:      time.Now,
	}
	for _, t := range ts {
		a.tools[t.Name()] = t
		a.defs = append(a.defs, llm.Tool{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{"type": "string", "description": "search query"},
					},
					"required": []string{"query"},
				},
			},
		})
	}
	return a
}

// Ask answers query given the earlier turns of the conversation and
// returns the new turn. It does not modify history.
func (a *Assistant) Ask(ctx context.Context, apiKey string, history []models.Turn, query string) (models.Turn, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Turn{}, fmt.Errorf("%w: query is empty", common.ErrorValidation)
	}

	msgs := make([]llm.Message, 0, 2+2*len(history))
	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})
	for _, t := range history {
		msgs = append(msgs,
			llm.Message{Role: "user", Content: t.Query},
			llm.Message{Role: "assistant", Content: t.Response},
		)
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: query})

	for step := 0; step < a.maxSteps; step++ {
		req := llm.ChatRequest{Model: a.model, Messages: msgs}
		// the last round must produce an answer
		if step < a.maxSteps-1 {
			req.Tools = a.defs
		}

		resp, err := a.llm.Chat(ctx, apiKey, req)
		if err != nil {
			return models.Turn{}, err
		}

		if len(resp.Message.ToolCalls) == 0 {
			return models.Turn{Query: query, Response: resp.Message.Content, CreatedAt: a.now()}, nil
		}

		msgs = append(msgs, resp.Message)
		for _, call := range resp.Message.ToolCalls {
			msgs = append(msgs, llm.Message{
				Role:       "tool",
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    a.runTool(ctx, call),
			})
		}
	}

	return models.Turn{}, &llm.ProviderError{Message: fmt.Sprintf("no answer after %d steps", a.maxSteps)}
}

// runTool executes call and renders its result, or its failure, as text
// for the model.
func (a *Assistant) runTool(ctx context.Context, call llm.ToolCall) string {
	t, ok := a.tools[call.Function.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.Query == "" {
		// some models send the bare query instead of an object
		args.Query = strings.Trim(call.Function.Arguments, "\" ")
	}
	if args.Query == "" {
		return "error: missing query"
	}

	out, err := t.Run(ctx, args.Query)
	if err != nil {
		a.logger.Warn(ctx, "tool failed", "tool", t.Name(), "error", err)
		return "error: " + err.Error()
	}
	a.logger.Debug(ctx, "tool ran", "tool", t.Name(), "query", args.Query)
	return out
}
