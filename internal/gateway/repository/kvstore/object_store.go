package kvstore

import (
	"context"
	"errors"

	"speckit/internal/gateway/repository/blob"
)

const objectNamespace = "kv"

// ObjectStore keeps each key as one JSON object in a blob store.
type ObjectStore struct {
	objects blob.Store
}

func NewObjectStore(objects blob.Store) *ObjectStore {
	return &ObjectStore{objects: objects}
}

func objectPath(key string) string { return key + ".json" }

func (s *ObjectStore) Save(ctx context.Context, key string, value []byte) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	return s.objects.Put(ctx, objectNamespace, objectPath(key), value, "application/json")
}

func (s *ObjectStore) Load(ctx context.Context, key string) ([]byte, error) {
	key, err := checkKey(key)
	if err != nil {
		return nil, err
	}
	raw, err := s.objects.Get(ctx, objectNamespace, objectPath(key))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	return s.objects.Delete(ctx, objectNamespace, objectPath(key))
}

func (s *ObjectStore) Close() error { return nil }
