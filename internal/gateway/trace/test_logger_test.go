package trace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/llm"
)

func TestAppendAndRead(t *testing.T) {
	l := NewLogger(t.TempDir())
	l.Append("s-1", "turn", "send", map[string]any{"text": "hi"})
	l.Append("s-1", "frontend", "click", nil)
	l.Append("", "turn", "ignored", nil)

	events, err := l.Read("s-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "send", events[0].Stage)
	assert.Equal(t, "hi", events[0].Fields["text"])
	assert.Nil(t, events[1].Fields)

	none, err := l.Read("never")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionIDIsSanitized(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)
	l.Append("../../etc/passwd", "turn", "x", nil)

	_, err := os.Stat(filepath.Join(dir, ".._.._etc_passwd.jsonl"))
	assert.NoError(t, err)
}

func TestReadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)
	l.Append("s", "turn", "ok", nil)
	f, err := os.OpenFile(filepath.Join(dir, "s.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString("{broken\n\n")
	require.NoError(t, f.Close())

	events, err := l.Read("s")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestHookRecordsCallsWithMediaRedacted(t *testing.T) {
	l := NewLogger(t.TempDir())
	hook := l.Hook("s")
	ctx := context.Background()

	hook.Before(ctx, "specify", llm.Request{
		System: "sys",
		Prompt: "data:image/png;base64,iVBORw0KGgo=",
		Images: []llm.Image{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	})
	hook.After(ctx, "specify", "", errors.New("quota"))

	events, err := l.Read("s")
	require.NoError(t, err)
	require.Len(t, events, 2)

	req := events[0]
	assert.Equal(t, "llm", req.Source)
	assert.Equal(t, "specify.request", req.Stage)
	assert.Equal(t, "[REDACTED media]", req.Fields["prompt"])
	images, ok := req.Fields["images"].([]any)
	require.True(t, ok)
	img := images[0].(map[string]any)
	assert.Equal(t, "[REDACTED media]", img["data"])
	assert.EqualValues(t, 3, img["bytes"])

	resp := events[1]
	assert.Equal(t, "specify.response", resp.Stage)
	assert.Equal(t, "quota", resp.Fields["error"])
	assert.Contains(t, resp.Fields, "duration_ms")
}
