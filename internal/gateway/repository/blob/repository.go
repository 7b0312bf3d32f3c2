// Package blob stores opaque objects grouped by a namespace (a session id,
// or "kv" for the key-value backend).
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists objects under namespace/path.
type Store interface {
	Put(ctx context.Context, namespace, path string, content []byte, contentType string) error
	Get(ctx context.Context, namespace, path string) ([]byte, error)
	Delete(ctx context.Context, namespace, path string) error
	List(ctx context.Context, namespace string) ([]string, error)
	// GetURL returns a time-limited download link, or "" when the backend
	// cannot serve links.
	GetURL(ctx context.Context, namespace, path string) (string, error)
}

var ErrNotFound = errors.New("object not found")

func objectKey(namespace, path string) (string, error) {
	namespace = strings.TrimSpace(namespace)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if namespace == "" {
		return "", fmt.Errorf("namespace is required")
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	return namespace + "/" + path, nil
}

func namespacePrefix(namespace string) (string, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return "", fmt.Errorf("namespace is required")
	}
	return strings.TrimSuffix(namespace, "/") + "/", nil
}
