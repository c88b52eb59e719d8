package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Kind names one cached directory list.
type Kind string

const (
	KindPersons    Kind = "persons"
	KindPatients   Kind = "patients"
	KindMedics     Kind = "medics"
	KindAttendants Kind = "attendants"
)

const keyPrefix = "directory:"

// Store persists marshaled directory lists. Entries have no TTL; they are
// invalidated manually when a registry mutation goes through.
type Store interface {
	Get(ctx context.Context, kind Kind) ([]byte, bool, error)
	Set(ctx context.Context, kind Kind, data []byte) error
	Invalidate(ctx context.Context, kind Kind) error
}

// MemoryStore is a process-local Store for tests and single-instance dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Kind][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Kind][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, kind Kind) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[kind]
	return data, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, kind Kind, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[kind] = data
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, kind)
	return nil
}

// RedisStore shares the directory across front-of-house instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("directory: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, kind Kind) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("directory: get %s: %w", kind, err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, kind Kind, data []byte) error {
	if err := s.client.Set(ctx, key(kind), data, 0).Err(); err != nil {
		return fmt.Errorf("directory: set %s: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, kind Kind) error {
	if err := s.client.Del(ctx, key(kind)).Err(); err != nil {
		return fmt.Errorf("directory: invalidate %s: %w", kind, err)
	}
	return nil
}

func key(kind Kind) string {
	return keyPrefix + string(kind)
}
