package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "s1", "/specs/spec.md", []byte("# spec"), "text/markdown"))
	require.NoError(t, s.Put(ctx, "s1", "tech-design/web.md", []byte("# web"), ""))
	require.NoError(t, s.Put(ctx, "s2", "other.md", []byte("x"), ""))

	got, err := s.Get(ctx, "s1", "specs/spec.md")
	require.NoError(t, err)
	assert.Equal(t, "# spec", string(got))

	paths, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"specs/spec.md", "tech-design/web.md"}, paths)

	require.NoError(t, s.Delete(ctx, "s1", "specs/spec.md"))
	_, err = s.Get(ctx, "s1", "specs/spec.md")
	assert.ErrorIs(t, err, ErrNotFound)

	url, err := s.GetURL(ctx, "s1", "tech-design/web.md")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestMemoryStoreValidatesKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	assert.Error(t, s.Put(ctx, " ", "a", nil, ""))
	assert.Error(t, s.Put(ctx, "s1", "/", nil, ""))
	_, err := s.List(ctx, "")
	assert.Error(t, err)
}

func TestMemoryStoreCopiesContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "n", "p", buf, ""))
	buf[0] = 'z'
	got, err := s.Get(ctx, "n", "p")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
