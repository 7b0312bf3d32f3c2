package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"speckit/internal/llm"
	"speckit/internal/project"
)

// ErrSuperseded reports a turn that was canceled, either by Stop or by a
// newer submission to the same session. It is the same sentinel as
// llm.ErrCanceled so callers can test for either.
var ErrSuperseded = llm.ErrCanceled

// Session serializes turns of one session with last-request-wins
// semantics: submitting a turn cancels the one in flight, and a turn's
// result is applied only if no newer turn started meanwhile.
type Session struct {
	mu     sync.Mutex
	state  project.State
	seq    uint64
	cancel context.CancelFunc
}

func NewSession(state project.State) *Session {
	return &Session{state: state}
}

// State returns the current state.
func (s *Session) State() project.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Update replaces the state through fn outside of a turn, e.g. for manual
// file edits.
func (s *Session) Update(fn func(project.State) project.State) project.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

// Stop cancels the turn in flight, if any.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.seq++
	return true
}

// SendMessage appends the user's message to the history and runs the turn.
// On success it returns the new state and the turn's result.
func (s *Session) SendMessage(ctx context.Context, env project.Env, text string, attachments []project.Attachment) (project.State, project.Result, error) {
	if len(attachments) == 0 && strings.TrimSpace(text) == "" {
		return project.State{}, project.Result{}, ErrEmptyMessage
	}
	for i := range attachments {
		if attachments[i].ID == "" {
			attachments[i].ID = uuid.NewString()
		}
		if attachments[i].MediaType == "" {
			attachments[i].MediaType = "image"
		}
	}
	msg := project.ChatMessage{
		ID:          env.MessageID("user"),
		Author:      project.AuthorUser,
		Content:     text,
		Timestamp:   env.Timestamp(),
		Attachments: attachments,
	}
	return s.run(ctx, msg, func(ctx context.Context, snapshot project.State) (project.Result, error) {
		return HandleUserMessage(ctx, env, snapshot, text, attachments)
	})
}

// ClickAction records the user's choice and runs the action's operation.
func (s *Session) ClickAction(ctx context.Context, env project.Env, action project.ChatAction) (project.State, project.Result, error) {
	msg := project.ChatMessage{
		ID:        env.MessageID("user-act"),
		Author:    project.AuthorUser,
		Content:   "✓ " + action.Label,
		Timestamp: env.Timestamp(),
	}
	return s.run(ctx, msg, func(ctx context.Context, snapshot project.State) (project.Result, error) {
		return HandleAction(ctx, env, snapshot, action.OperationID, action.Label)
	})
}

func (s *Session) run(ctx context.Context, msg project.ChatMessage, fn func(context.Context, project.State) (project.Result, error)) (project.State, project.Result, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	mine := s.seq
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	snapshot := s.state
	s.state.ChatHistory = append(append([]project.ChatMessage(nil), s.state.ChatHistory...), msg)
	s.mu.Unlock()

	res, err := fn(runCtx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.seq == mine
	if current {
		s.cancel = nil
	}
	cancel()

	if !current || errors.Is(err, llm.ErrCanceled) {
		return project.State{}, project.Result{}, ErrSuperseded
	}
	if err != nil {
		return project.State{}, project.Result{}, err
	}
	s.state = s.state.Apply(res)
	return s.state, res, nil
}
