// Package session holds the transient key/value slots the application reads at
// launch (`encounter`, `formFilePath`, `testIterationsRemaining`) and the
// launch URL query parameters that take precedence over them.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
)

// Well-known session keys and query parameter names.
const (
	KeyEncounter               = "encounter"
	KeyFormFilePath            = "formFilePath"
	KeyTestIterationsRemaining = "testIterationsRemaining"
)

// Store is a string key/value store scoped to one application session. A
// missing key reads as the empty string.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Take reads key and clears it so the slot can only be consumed once.
func Take(ctx context.Context, store Store, key string) (string, error) {
	if store == nil {
		return "", errors.New("session: store is nil")
	}
	value, err := store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if err := store.Set(ctx, key, ""); err != nil {
		return value, err
	}
	return value, nil
}

// PositiveInt reads key as an integer and reports whether it is above zero.
// Unparseable values count as not positive.
func PositiveInt(ctx context.Context, store Store, key string) (int, bool, error) {
	if store == nil {
		return 0, false, errors.New("session: store is nil")
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, nil
	}
	return n, n > 0, nil
}

// MemoryStore is an in-process Store. The zero value is ready to use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a MemoryStore seeded with values.
func NewMemoryStore(values map[string]string) *MemoryStore {
	s := &MemoryStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
