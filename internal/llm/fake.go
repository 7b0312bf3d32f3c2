package llm

import (
	"context"
	"sync"
)

// FakeCall records one request seen by FakeClient.
type FakeCall struct {
	Phase   string
	Request Request
}

// FakeClient returns scripted outputs per phase for offline runs and tests.
// Phases without a script return Default.
type FakeClient struct {
	Responses map[string]string
	Errors    map[string]error
	Default   string

	mu    sync.Mutex
	calls []FakeCall
}

func NewFakeClient(responses map[string]string) *FakeClient {
	if responses == nil {
		responses = map[string]string{}
	}
	return &FakeClient{Responses: responses, Errors: map[string]error{}}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, req Request) (string, error) {
	phase := PhaseFrom(ctx)
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Phase: phase, Request: req})
	err := f.Errors[phase]
	out, ok := f.Responses[phase]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err != nil {
		return "", err
	}
	if !ok {
		out = f.Default
	}
	return out, nil
}

// Calls returns a copy of the recorded requests.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// Phases returns the phase of each recorded request in call order.
func (f *FakeClient) Phases() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Phase
	}
	return out
}
