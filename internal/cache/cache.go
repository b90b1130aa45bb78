// Package cache mirrors the latest state of every relay room so it survives
// a relay restart and can be inspected.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("room snapshot not found")

// Store keeps one state snapshot per room code.
type Store interface {
	Save(ctx context.Context, roomID string, state json.RawMessage) error
	Load(ctx context.Context, roomID string) (json.RawMessage, error)
	Delete(ctx context.Context, roomID string) error
}

// MemoryStore is the in-process Store used when no Redis is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Save(_ context.Context, roomID string, state json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = append(json.RawMessage(nil), state...)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, roomID string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), state...), nil
}

func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}
