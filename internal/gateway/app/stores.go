package app

import (
	"context"
	"fmt"
	"log"

	"speckit/internal/gateway/config"
	"speckit/internal/gateway/repository/blob"
	"speckit/internal/gateway/repository/kvstore"
)

func initStores(ctx context.Context, cfg *config.Config) (kvstore.Store, blob.Store, error) {
	objects, err := initObjects(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := kvstore.New(ctx, cfg.Store, objects)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open key-value store: %w", err)
	}
	return store, objects, nil
}

func initObjects(cfg *config.Config) (blob.Store, error) {
	if !cfg.Artifact.CanUseS3() {
		if cfg.Artifact.Enabled {
			log.Printf("object store: using in-memory fallback (s3 config incomplete)")
		}
		return blob.NewMemoryStore(), nil
	}
	s3Cfg := blob.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	}
	s3Store, err := blob.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object s3 store: %w", err)
	}
	log.Printf("object store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	return s3Store, nil
}
