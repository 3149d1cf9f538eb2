// Package podcast turns an uploaded document into a podcast artifact for
// one session: extract text, summarize it, synthesize speech, and record
// the result.
package podcast

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/blobstore"
	"github.com/dmitrijs2005/podmate/internal/server/ingest"
	"github.com/dmitrijs2005/podmate/internal/server/models"
	"github.com/dmitrijs2005/podmate/internal/server/session"
	"github.com/dmitrijs2005/podmate/internal/server/speech"
	"github.com/google/uuid"
)

const fileTimeLayout = "20060102_150405"

type Summarizer interface {
	Summarize(ctx context.Context, apiKey, text string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, apiKey, script string) (*speech.Audio, error)
}

type Generator struct {
	summarizer  Summarizer
	synthesizer Synthesizer
	store       blobstore.Store
	logger      logging.Logger
	now         func() time.Time
}

// NewGenerator builds a generator. store may be nil, in which case audio
// lives only in the session.
func NewGenerator(sum Summarizer, syn Synthesizer, store blobstore.Store, logger logging.Logger) *Generator {
	return &Generator{
		summarizer:  sum,
		synthesizer: syn,
		store:       store,
		logger:      logger.With("module", "podcast"),
		now:         time.Now,
	}
}

// Generate runs the pipeline for one upload and appends exactly one
// artifact to s on success. On any failure s is left unchanged. The API
// key is resolved first so an invalid key never reaches the summarizer or
// the synthesizer.
func (g *Generator) Generate(ctx context.Context, s *session.Session, filename string, r io.Reader) (models.Artifact, error) {
	apiKey, err := s.APIKey(ctx)
	if err != nil {
		return models.Artifact{}, err
	}

	doc, err := ingest.Ingest(filename, r)
	if err != nil {
		return models.Artifact{}, err
	}

	script, err := g.summarizer.Summarize(ctx, apiKey, doc.Text)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("summarize %s: %w", filename, err)
	}

	audio, err := g.synthesizer.Synthesize(ctx, apiKey, script)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("synthesize %s: %w", filename, err)
	}

	now := g.now()
	user, _ := s.User()
	a := models.Artifact{
		ID:          uuid.NewString(),
		SourceName:  doc.Name,
		Script:      script,
		Audio:       audio.Data,
		ContentType: audio.ContentType,
		FileName:    fmt.Sprintf("%s_%s%s", user.UserName, now.Format(fileTimeLayout), audio.Ext()),
		CreatedAt:   now,
	}

	if g.store != nil {
		key := blobstore.SessionKey(s.ID(), a.ID, audio.Ext())
		if err := g.store.Put(ctx, key, a.Audio, a.ContentType); err != nil {
			g.logger.Warn(ctx, "mirroring audio failed", "key", key, "error", err)
		} else {
			a.StorageKey = key
		}
	}

	s.AppendArtifact(a)
	g.logger.Info(ctx, "podcast generated",
		"session_id", s.ID(), "source", doc.Name, "script_chars", len(script), "audio_bytes", len(a.Audio))
	return a, nil
}

// CleanupHook deletes a closing session's mirrored audio from store.
func CleanupHook(store blobstore.Store, logger logging.Logger) session.CloseHook {
	return func(ctx context.Context, s *session.Session) {
		for _, a := range s.Artifacts() {
			if a.StorageKey == "" {
				continue
			}
			if err := store.Delete(ctx, a.StorageKey); err != nil {
				logger.Warn(ctx, "deleting mirrored audio failed", "key", a.StorageKey, "error", err)
			}
		}
	}
}
