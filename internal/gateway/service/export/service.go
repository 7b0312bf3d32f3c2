// Package export copies a session's generated documents to object storage.
package export

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"speckit/internal/artifact"
	"speckit/internal/gateway/repository/blob"
)

// File is one exported document.
type File struct {
	Path  string `json:"path"`
	URL   string `json:"url,omitempty"`
	Bytes int    `json:"bytes"`
}

type Service struct {
	objects blob.Store
}

func New(objects blob.Store) *Service {
	return &Service{objects: objects}
}

// Export writes every file of files to <sessionID>/<path> and returns the
// stored paths with download links where the store provides them. Paths
// are relative to the output root folder.
func (s *Service) Export(ctx context.Context, sessionID string, files artifact.Tree) ([]File, error) {
	if s == nil || s.objects == nil {
		return nil, fmt.Errorf("export: object storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("export: session id is required")
	}

	var out []File
	for _, e := range walk(files) {
		data := []byte(e.node.Content)
		if err := s.objects.Put(ctx, sessionID, e.path, data, contentType(e.path)); err != nil {
			return nil, fmt.Errorf("export: put %s: %w", e.path, err)
		}
		url, err := s.objects.GetURL(ctx, sessionID, e.path)
		if err != nil {
			log.Printf("export: presign failed session=%s path=%s: %v", sessionID, e.path, err)
		}
		out = append(out, File{Path: e.path, URL: url, Bytes: len(data)})
	}
	log.Printf("export: session=%s files=%d", sessionID, len(out))
	return out, nil
}

type entry struct {
	path string
	node *artifact.Node
}

func walk(files artifact.Tree) []entry {
	var out []entry
	var visit func(prefix string, n *artifact.Node)
	visit = func(prefix string, n *artifact.Node) {
		if n == nil {
			return
		}
		p := path.Join(prefix, n.Name)
		if n.IsFile() {
			out = append(out, entry{path: p, node: n})
			return
		}
		for _, c := range n.Children {
			visit(p, c)
		}
	}
	for _, root := range files {
		if root.IsFolder() {
			for _, c := range root.Children {
				visit("", c)
			}
			continue
		}
		visit("", root)
	}
	return out
}

func contentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
