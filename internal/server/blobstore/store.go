// Package blobstore mirrors generated audio to object storage. The S3
// implementation works against AWS or any S3-compatible server (MinIO)
// through presigned URLs.
package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/podmate/internal/common"
)

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a time-limited download link for key.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SessionKey is the object key for an artifact's audio.
func SessionKey(sessionID, artifactID, ext string) string {
	return fmt.Sprintf("sessions/%s/%s%s", sessionID, artifactID, ext)
}

type object struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory. URL returns a memory://
// link that is only meaningful to tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]object)}
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{data: cp, contentType: contentType}
	return nil
}

func (m *MemoryStore) URL(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", common.ErrorNotFound
	}
	return "memory://" + key, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Get returns a copy of the object stored under key.
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	cp := make([]byte, len(o.data))
	copy(cp, o.data)
	return cp, o.contentType, true
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
