// Package summarize condenses a document into a narration script.
//
// Short documents are summarized with a single prompt. Documents of
// MapReduceThreshold words or more are split into chunks, each chunk is
// summarized on its own (with bounded concurrency) and the partial
// summaries are combined in a final prompt.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/podmate/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	MapReduceThreshold = 5000
	mapConcurrency     = 4
)

const summaryPrompt = "Write a concise summary of the following:\n\n\n\"%s\"\n\n\nCONCISE SUMMARY:"

// Completer sends a single-prompt completion to the provider.
type Completer interface {
	Complete(ctx context.Context, apiKey, model, prompt string) (string, error)
}

type Summarizer struct {
	llm      Completer
	model    string
	splitter *Splitter
	logger   logging.Logger
}

func NewSummarizer(llm Completer, model string, logger logging.Logger) *Summarizer {
	return &Summarizer{
		llm:      llm,
		model:    model,
		splitter: NewSplitter(),
		logger:   logger.With("module", "summarize"),
	}
}

// Summarize returns the script for text. Provider errors are returned
// unchanged; nothing is retried.
func (s *Summarizer) Summarize(ctx context.Context, apiKey, text string) (string, error) {
	words := len(strings.Fields(text))

	if words < MapReduceThreshold {
		s.logger.Debug(ctx, "summarizing", "strategy", "stuff", "words", words)
		return s.llm.Complete(ctx, apiKey, s.model, fmt.Sprintf(summaryPrompt, text))
	}

	chunks := s.splitter.Split(text)
	s.logger.Debug(ctx, "summarizing", "strategy", "map_reduce", "words", words, "chunks", len(chunks))

	partials := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mapConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := s.llm.Complete(gctx, apiKey, s.model, fmt.Sprintf(summaryPrompt, chunk))
			if err != nil {
				return err
			}
			partials[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return s.llm.Complete(ctx, apiKey, s.model, fmt.Sprintf(summaryPrompt, strings.Join(partials, "\n\n")))
}
