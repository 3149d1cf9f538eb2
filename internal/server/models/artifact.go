// Package models holds the entities shared between the storage, session and
// web layers.
package models

import "time"

// Artifact is one generated podcast: the source document name, the narration
// script and the synthesized audio. It lives only in the session that made it.
type Artifact struct {
	ID          string
	SourceName  string
	Script      string
	Audio       []byte
	ContentType string
	FileName    string
	CreatedAt   time.Time

	// StorageKey is set when the audio was mirrored to object storage.
	StorageKey string
}

// Turn is one research assistant exchange.
type Turn struct {
	Query     string
	Response  string
	CreatedAt time.Time
}
