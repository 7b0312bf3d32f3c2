package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingClient never answers until its context ends.
type blockingClient struct {
	started chan struct{}
}

func (b *blockingClient) Name() string { return "blocking" }
func (b *blockingClient) Close() error { return nil }
func (b *blockingClient) Generate(ctx context.Context, req Request) (string, error) {
	if b.started != nil {
		close(b.started)
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCompleteCleansTables(t *testing.T) {
	fake := NewFakeClient(map[string]string{"document": "# **Title**\n| **a** | __b__ |\n**bold** line"})
	a := NewAdapter(fake)

	out, err := a.Complete(context.Background(), "p", "sys", []Image{{MIMEType: "image/png", Data: []byte{1}}})
	require.NoError(t, err)
	assert.Equal(t, "# **Title**\n| a | b |\n**bold** line", out)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sys", calls[0].Request.System)
	assert.Len(t, calls[0].Request.Images, 1)
	require.NotNil(t, calls[0].Request.Temperature)
	assert.InDelta(t, 0.7, *calls[0].Request.Temperature, 1e-6)
}

func TestCompleteFailureIsCallError(t *testing.T) {
	fake := NewFakeClient(nil)
	fake.Errors["document"] = errors.New("quota")
	_, err := NewAdapter(fake).Complete(context.Background(), "p", "s", nil)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.NotErrorIs(t, err, ErrCanceled)
}

func TestCompleteWithoutBackend(t *testing.T) {
	a := NewAdapter(nil)
	assert.False(t, a.Available())
	_, err := a.Complete(context.Background(), "p", "s", nil)
	var callErr *CallError
	assert.ErrorAs(t, err, &callErr)
}

func TestCompleteStructuredDecodes(t *testing.T) {
	fake := NewFakeClient(map[string]string{
		"clarify": "```json\n{\"question\":\"Q?\",\"options\":[\"A\",\"B\"],\"recommendation\":\"A\",\"isEnough\":false}\n```",
	})
	c, err := NewAdapter(fake).CompleteStructured(context.Background(), "ctx", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, Clarification{Question: "Q?", Options: []string{"A", "B"}, Recommendation: "A"}, c)
	assert.Contains(t, fake.Calls()[0].Request.Prompt, "Current Round: 2/5")
	assert.True(t, fake.Calls()[0].Request.JSON)
}

func TestCompleteStructuredFallsBack(t *testing.T) {
	fake := NewFakeClient(map[string]string{"clarify": "not json"})
	c, err := NewAdapter(fake).CompleteStructured(context.Background(), "ctx", 0, nil)
	require.NoError(t, err)
	assert.True(t, c.IsEnough)
	assert.Equal(t, FallbackClarification.Question, c.Question)

	fake = NewFakeClient(nil)
	fake.Errors["clarify"] = errors.New("down")
	c, err = NewAdapter(fake).CompleteStructured(context.Background(), "ctx", 0, nil)
	require.NoError(t, err)
	assert.True(t, c.IsEnough)
}

func TestCompleteMultiDocumentKeepsOrder(t *testing.T) {
	fake := NewFakeClient(map[string]string{
		"multi_document": `{"web.md":"# Web\n| **x** |","backend.md":"# Backend","app.md":"# App"}`,
	})
	docs, err := NewAdapter(fake).CompleteMultiDocument(context.Background(), "p", "SYS")
	require.NoError(t, err)
	assert.Equal(t, []Document{
		{Name: "web.md", Content: "# Web\n| x |"},
		{Name: "backend.md", Content: "# Backend"},
		{Name: "app.md", Content: "# App"},
	}, docs)
	assert.Contains(t, fake.Calls()[0].Request.System, "SYS")
	assert.Contains(t, fake.Calls()[0].Request.System, "CRITICAL OUTPUT RULE")
}

func TestCompleteMultiDocumentFallsBack(t *testing.T) {
	for _, raw := range []string{"[]", "{}", "oops"} {
		fake := NewFakeClient(map[string]string{"multi_document": raw})
		docs, err := NewAdapter(fake).CompleteMultiDocument(context.Background(), "p", "s")
		require.NoError(t, err, raw)
		require.Len(t, docs, 1, raw)
		assert.Equal(t, ErrorLogName, docs[0].Name)
		assert.Contains(t, docs[0].Content, "Generation Failed")
	}
}

func TestClassifyTrims(t *testing.T) {
	fake := NewFakeClient(map[string]string{"classify": "  run_tech\n"})
	out, err := NewAdapter(fake).Classify(context.Background(), "sys", "技术方案")
	require.NoError(t, err)
	assert.Equal(t, "run_tech", out)
}

func TestCancellationIsDistinct(t *testing.T) {
	b := &blockingClient{started: make(chan struct{})}
	a := NewAdapter(b)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-b.started
		cancel()
	}()

	_, err := a.CompleteStructured(ctx, "ctx", 0, nil)
	assert.ErrorIs(t, err, ErrCanceled)

	_, err = a.CompleteMultiDocument(ctx, "p", "s")
	assert.ErrorIs(t, err, ErrCanceled)

	_, err = a.Complete(ctx, "p", "s", nil)
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestDeadlineIsFailureNotCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewAdapter(&blockingClient{}).Complete(ctx, "p", "s", nil)
	assert.NotErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImageFromDataURL(t *testing.T) {
	img, err := ImageFromDataURL("", "data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, Image{MIMEType: "image/png", Data: []byte("hi")}, img)

	img, err = ImageFromDataURL("image/jpeg", "aGk=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)

	_, err = ImageFromDataURL("image/png", "data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestRedactMedia(t *testing.T) {
	in := map[string]any{
		"prompt": "hello",
		"att":    []any{"data:image/png;base64,aGVsbG8="},
		"images": []Image{{MIMEType: "image/png", Data: []byte("abc")}},
	}
	out := RedactMedia(in).(map[string]any)
	assert.Equal(t, "hello", out["prompt"])
	assert.Equal(t, []any{redacted}, out["att"])
	imgs := out["images"].([]any)
	assert.Equal(t, 3, imgs[0].(map[string]any)["bytes"])
}
