package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/artifact"
	"speckit/internal/gateway/repository/blob"
)

func TestExportWritesFilesUnderSession(t *testing.T) {
	ctx := context.Background()
	objects := blob.NewMemoryStore()
	files := artifact.Tree{
		artifact.Folder("root", "specs",
			artifact.Folder("f1", "specs", artifact.File("spec.md", "spec.md", "# spec")),
			artifact.Folder("f2", "tech-design", artifact.File("t", "tech-web.md", "# web")),
		),
	}

	out, err := New(objects).Export(ctx, "s-1", files)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "specs/spec.md", out[0].Path)
	assert.Equal(t, 6, out[0].Bytes)
	assert.Equal(t, "tech-design/tech-web.md", out[1].Path)

	got, err := objects.Get(ctx, "s-1", "tech-design/tech-web.md")
	require.NoError(t, err)
	assert.Equal(t, "# web", string(got))
}

func TestExportRequiresStoreAndSession(t *testing.T) {
	_, err := New(nil).Export(context.Background(), "s", nil)
	assert.Error(t, err)
	_, err = New(blob.NewMemoryStore()).Export(context.Background(), " ", nil)
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("a/B.MD"))
	assert.Equal(t, "application/json", contentType("x.json"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("notes"))
}
