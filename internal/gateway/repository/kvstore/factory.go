package kvstore

import (
	"context"
	"fmt"
	"log"
	"strings"

	"speckit/internal/gateway/config"
	"speckit/internal/gateway/repository/blob"
)

// New opens the backend named by cfg.Kind. objects backs the "s3" kind and
// may be nil otherwise. Every backend except memory is wrapped in an LRU
// cache of cfg.CacheSize entries.
func New(ctx context.Context, cfg config.StoreConfig, objects blob.Store) (Store, error) {
	var (
		origin Store
		err    error
	)
	switch kind := strings.ToLower(strings.TrimSpace(cfg.Kind)); kind {
	case "memory":
		log.Printf("kvstore: using memory backend")
		return NewMemoryStore(), nil
	case "", "file":
		log.Printf("kvstore: using file backend path=%s", cfg.Path)
		origin = NewFileStore(cfg.Path)
	case "postgres":
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("kvstore: KV_STORE_PG_DSN is required for the postgres backend")
		}
		log.Printf("kvstore: using postgres backend")
		origin, err = OpenPostgres(ctx, cfg.PostgresDSN)
	case "sqlite":
		log.Printf("kvstore: using sqlite backend path=%s", cfg.SQLitePath)
		origin, err = OpenSQLite(cfg.SQLitePath)
	case "s3":
		if objects == nil {
			return nil, fmt.Errorf("kvstore: object storage is not configured for the s3 backend")
		}
		log.Printf("kvstore: using object storage backend")
		origin = NewObjectStore(objects)
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize <= 0 {
		return origin, nil
	}
	return NewCachedStore(origin, cfg.CacheSize)
}
