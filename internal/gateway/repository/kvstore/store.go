// Package kvstore persists JSON documents by key. Sessions, the session
// index and the system library are all stored this way.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store is a key to JSON document store.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	// Load returns ErrNotFound for a key that was never saved.
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrNotFound = errors.New("kvstore: key not found")

func checkKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("kvstore: key is required")
	}
	return key, nil
}

// SaveJSON marshals v and saves it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: marshal %s: %w", key, err)
	}
	return s.Save(ctx, key, raw)
}

// LoadJSON loads key into v. It reports false, with no error, when the key
// does not exist.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("kvstore: decode %s: %w", key, err)
	}
	return true, nil
}
