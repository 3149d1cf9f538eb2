// Package speech converts a narration script to audio with the provider's
// TTS endpoint. Every call goes to the provider; nothing is cached.
package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/llm"
)

type Audio struct {
	Data        []byte
	ContentType string
	Format      string
}

// TTS is the provider call the synthesizer depends on.
type TTS interface {
	Speech(ctx context.Context, apiKey string, req llm.SpeechRequest) ([]byte, string, error)
}

type Synthesizer struct {
	tts    TTS
	model  string
	voice  string
	format string
	logger logging.Logger
}

func NewSynthesizer(tts TTS, model, voice, format string, logger logging.Logger) *Synthesizer {
	return &Synthesizer{
		tts:    tts,
		model:  model,
		voice:  voice,
		format: format,
		logger: logger.With("module", "speech"),
	}
}

func (s *Synthesizer) Format() string { return s.format }

// Synthesize sends script to the provider as-is. Whatever the provider
// returns, including an empty payload, becomes the Audio.
func (s *Synthesizer) Synthesize(ctx context.Context, apiKey, script string) (*Audio, error) {
	data, contentType, err := s.tts.Speech(ctx, apiKey, llm.SpeechRequest{
		Model:          s.model,
		Voice:          s.voice,
		Input:          script,
		ResponseFormat: s.format,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "speech synthesized", "bytes", len(data), "content_type", contentType)
	return &Audio{Data: data, ContentType: contentType, Format: s.format}, nil
}

// Ext returns the file extension for the audio, including the dot.
func (a *Audio) Ext() string {
	if a.Format == "" {
		return ".bin"
	}
	return fmt.Sprintf(".%s", strings.ToLower(a.Format))
}
