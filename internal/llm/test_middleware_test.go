package llm

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyClient fails the first n calls with err.
type flakyClient struct {
	mu    sync.Mutex
	fails int
	err   error
	calls int
}

func (f *flakyClient) Name() string { return "flaky" }
func (f *flakyClient) Close() error { return nil }
func (f *flakyClient) Generate(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fails {
		return "", f.err
	}
	return "ok", nil
}

type recordingHook struct {
	before []string
	after  []string
}

func (h *recordingHook) Before(ctx context.Context, phase string, req Request) {
	h.before = append(h.before, phase+":"+req.Prompt)
}
func (h *recordingHook) After(ctx context.Context, phase string, raw string, err error) {
	h.after = append(h.after, phase+":"+raw)
}

func tag(label string, order *[]string) Middleware {
	return func(next LLMClient) LLMClient {
		return &tagged{next: next, label: label, order: order}
	}
}

type tagged struct {
	next  LLMClient
	label string
	order *[]string
}

func (t *tagged) Name() string { return t.next.Name() }
func (t *tagged) Close() error { return t.next.Close() }
func (t *tagged) Generate(ctx context.Context, req Request) (string, error) {
	*t.order = append(*t.order, t.label)
	return t.next.Generate(ctx, req)
}

func TestWrapAppliesLeftToRight(t *testing.T) {
	var order []string
	cli := Wrap(NewFakeClient(nil), tag("A", &order), tag("B", &order))
	_, err := cli.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &flakyClient{fails: 2, err: errors.New("503")}
	cli := Retry(3, time.Millisecond)(inner)

	out, err := cli.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyClient{fails: 10, err: errors.New("503")}
	cli := Retry(2, time.Millisecond)(inner)

	_, err := cli.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	inner := &flakyClient{fails: 10, err: NewPermanentError(errors.New("401"))}
	cli := Retry(5, time.Millisecond)(inner)

	_, err := cli.Generate(context.Background(), Request{})
	var pErr *PermanentError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryStopsWhenContextCanceled(t *testing.T) {
	inner := &flakyClient{fails: 10, err: errors.New("503")}
	cli := Retry(5, time.Hour)(inner)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := cli.Generate(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitBurstThenThrottle(t *testing.T) {
	cli := RateLimit(2, 2)(NewFakeClient(nil))
	t.Cleanup(func() { _ = cli.Close() })
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := cli.Generate(ctx, Request{})
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	start = time.Now()
	_, err := cli.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestRateLimitHonoursContext(t *testing.T) {
	cli := RateLimit(0.001, 1)(NewFakeClient(nil))
	t.Cleanup(func() { _ = cli.Close() })

	_, err := cli.Generate(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = cli.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitDisabled(t *testing.T) {
	cli := RateLimit(0, 0)(NewFakeClient(nil))
	for i := 0; i < 20; i++ {
		_, err := cli.Generate(context.Background(), Request{})
		require.NoError(t, err)
	}
	require.NoError(t, cli.Close())
}

func TestWithHooksUsesContextHookAndPhase(t *testing.T) {
	hook := &recordingHook{}
	fake := NewFakeClient(map[string]string{"tech": "done"})
	cli := Wrap(fake, WithLogging(log.New(io.Discard, "", 0)), WithHooks())

	ctx := WithHook(WithPhase(context.Background(), "tech"), hook)
	out, err := cli.Generate(ctx, Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"tech:p"}, hook.before)
	assert.Equal(t, []string{"tech:done"}, hook.after)

	_, err = cli.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Len(t, hook.before, 1)
}

func TestFakeClientScripts(t *testing.T) {
	fake := NewFakeClient(map[string]string{"a": "A"})
	fake.Default = "D"
	fake.Errors["b"] = errors.New("boom")

	out, err := fake.Generate(WithPhase(context.Background(), "a"), Request{})
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	_, err = fake.Generate(WithPhase(context.Background(), "b"), Request{})
	assert.EqualError(t, err, "boom")

	out, err = fake.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "D", out)

	assert.Equal(t, []string{"a", "b", "unknown"}, fake.Phases())
}
