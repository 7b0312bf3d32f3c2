// Package library owns the system library: charters, command prompts,
// standards and templates shared by every session.
package library

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"speckit/internal/artifact"
	"speckit/internal/gateway/repository/kvstore"
	"speckit/internal/seed"
)

// StorageKey is the key-value key holding the library tree.
const StorageKey = "specKit_systemFiles"

type Service struct {
	store kvstore.Store

	mu     sync.RWMutex
	tree   artifact.Tree
	loaded bool
}

func New(store kvstore.Store) *Service {
	return &Service{store: store}
}

// Load reads the stored library and adds any seed node it lacks. A missing
// library is initialised from the seed. The result is kept for System.
func (s *Service) Load(ctx context.Context) (artifact.Tree, error) {
	var stored artifact.Tree
	found, err := kvstore.LoadJSON(ctx, s.store, StorageKey, &stored)
	if err != nil {
		return nil, fmt.Errorf("library: load: %w", err)
	}
	tree := seed.System()
	if found && len(stored) > 0 {
		tree = artifact.PatchMissing(stored, tree)
	} else {
		log.Printf("library: no stored library, using seed")
	}

	s.mu.Lock()
	s.tree = tree
	s.loaded = true
	s.mu.Unlock()
	return tree, nil
}

// System returns the current library, loading it on first use.
func (s *Service) System(ctx context.Context) (artifact.Tree, error) {
	s.mu.RLock()
	tree, loaded := s.tree, s.loaded
	s.mu.RUnlock()
	if loaded {
		return tree, nil
	}
	return s.Load(ctx)
}

// Edit applies a manual change and persists the library.
func (s *Service) Edit(ctx context.Context, e artifact.Edit) (artifact.Tree, error) {
	if _, err := s.System(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, _, err := artifact.ApplyEdit(s.tree, e)
	if err != nil {
		return nil, err
	}
	if err := kvstore.SaveJSON(ctx, s.store, StorageKey, next); err != nil {
		return nil, fmt.Errorf("library: save: %w", err)
	}
	s.tree = next
	return next, nil
}

// Replace stores tree as the whole library.
func (s *Service) Replace(ctx context.Context, tree artifact.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := kvstore.SaveJSON(ctx, s.store, StorageKey, tree); err != nil {
		return fmt.Errorf("library: save: %w", err)
	}
	s.tree = tree
	s.loaded = true
	return nil
}

// Reset discards the stored library in favour of the seed.
func (s *Service) Reset(ctx context.Context) (artifact.Tree, error) {
	tree := seed.System()
	if err := s.Replace(ctx, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Import replaces the library with a YAML document.
func (s *Service) Import(ctx context.Context, r io.Reader) (artifact.Tree, error) {
	tree, err := seed.LoadYAML(r)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(ctx, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Export writes the current library as YAML.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	tree, err := s.System(ctx)
	if err != nil {
		return err
	}
	return seed.DumpYAML(w, tree)
}
