package session

import (
	"context"
	"errors"
	"os"
	"sync"
)

// DurableKeyValue is the durable medium the session record is mirrored to,
// a single fixed slot per backend. Any backend works: a file, plain memory,
// redis, or nothing at all for headless runs.
type DurableKeyValue interface {
	// Get returns the stored record, or (nil, nil) when nothing is stored.
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, value []byte) error
	Clear(ctx context.Context) error
}

// FileStorage keeps the session record in a single file on disk.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: path,
	}
}

func (s *FileStorage) Get(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *FileStorage) Set(_ context.Context, value []byte) error {
	return os.WriteFile(s.path, value, 0o600)
}

func (s *FileStorage) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStorage holds the record in memory only, handy for tests and for
// setups where restart survival is not wanted.
type MemoryStorage struct {
	mutex sync.Mutex
	value []byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Get(_ context.Context) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.value == nil {
		return nil, nil
	}
	valueCopy := make([]byte, len(s.value))
	copy(valueCopy, s.value)
	return valueCopy, nil
}

func (s *MemoryStorage) Set(_ context.Context, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.value = make([]byte, len(value))
	copy(s.value, value)
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.value = nil
	return nil
}

// NoopStorage never stores anything. Substituted when no durable medium
// exists, so that store construction never fails for lack of storage.
type NoopStorage struct{}

func NewNoopStorage() NoopStorage { return NoopStorage{} }

func (NoopStorage) Get(_ context.Context) ([]byte, error) { return nil, nil }
func (NoopStorage) Set(_ context.Context, _ []byte) error { return nil }
func (NoopStorage) Clear(_ context.Context) error { return nil }
