package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in one JSON object on disk. The file is read
// once and rewritten on every change.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	data     map[string]json.RawMessage
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}
}

func (s *FileStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			s.loadErr = fmt.Errorf("kvstore: read %s: %w", s.path, err)
			return
		}
		if len(b) == 0 {
			return
		}
		var rows map[string]json.RawMessage
		if err := json.Unmarshal(b, &rows); err != nil {
			s.loadErr = fmt.Errorf("kvstore: decode %s: %w", s.path, err)
			return
		}
		s.mu.Lock()
		s.data = rows
		s.mu.Unlock()
	})
	return s.loadErr
}

// flush must be called with s.mu held.
func (s *FileStore) flush() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Save(_ context.Context, key string, value []byte) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("kvstore: value for %s is not JSON", key)
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append(json.RawMessage(nil), value...)
	return s.flush()
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	key, err := checkKey(key)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

func (s *FileStore) Close() error { return nil }
