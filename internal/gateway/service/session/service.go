// Package session manages a user's chat sessions: their persisted state,
// the live turn runner of each, and the events a turn emits.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"speckit/internal/artifact"
	"speckit/internal/gateway/events"
	"speckit/internal/gateway/repository/kvstore"
	"speckit/internal/gateway/service/library"
	"speckit/internal/gateway/trace"
	"speckit/internal/llm"
	"speckit/internal/project"
	"speckit/internal/workflow"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrInvalid  = errors.New("session: invalid request")
)

// DefaultUser owns sessions when the caller does not identify itself.
const DefaultUser = "local"

const titleLength = 15

// Summary is one entry of a user's session index.
type Summary struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	LastModified int64        `json:"lastModified"`
	Step         project.Step `json:"step"`
}

// Outcome is the host-facing result of one turn.
type Outcome struct {
	State     project.State     `json:"state"`
	Result    *project.Result   `json:"result,omitempty"`
	Changes   []artifact.Change `json:"changes,omitempty"`
	Cancelled bool              `json:"cancelled,omitempty"`
}

type Options struct {
	LLM       *llm.Adapter
	MockDelay time.Duration
	Broker    *events.Broker
	Trace     *trace.Logger
	Now       func() time.Time
}

type Service struct {
	store   kvstore.Store
	library *library.Service
	opts    Options

	indexMu sync.Mutex
	liveMu  sync.Mutex
	live    map[string]*workflow.Session
}

func New(store kvstore.Store, lib *library.Service, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:   store,
		library: lib,
		opts:    opts,
		live:    make(map[string]*workflow.Session),
	}
}

func indexKey(user string) string { return "u_" + user + "_sessions" }

func stateKey(user, id string) string { return "u_" + user + "_session_" + id }

func normalizeUser(user string) string {
	user = strings.TrimSpace(user)
	if user == "" {
		return DefaultUser
	}
	return user
}

func liveKey(user, id string) string { return user + "/" + id }

// Create starts a new session in its initial state.
func (s *Service) Create(ctx context.Context, user string) (project.State, error) {
	user = normalizeUser(user)
	st := project.New(uuid.NewString(), s.opts.Now())
	if err := s.persist(ctx, user, st); err != nil {
		return project.State{}, err
	}
	log.Printf("session: created user=%s id=%s", user, st.SessionID)
	return st, nil
}

// List returns the user's sessions, most recently modified first. A user
// without sessions gets a fresh one.
func (s *Service) List(ctx context.Context, user string) ([]Summary, error) {
	user = normalizeUser(user)
	index, err := s.loadIndex(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		if _, err := s.Create(ctx, user); err != nil {
			return nil, err
		}
		return s.loadIndex(ctx, user)
	}
	return index, nil
}

// Get returns the current state of a session.
func (s *Service) Get(ctx context.Context, user, id string) (project.State, error) {
	ws, err := s.session(ctx, normalizeUser(user), id)
	if err != nil {
		return project.State{}, err
	}
	return ws.State(), nil
}

// Delete removes a session, cancelling its turn in flight. Deleting the
// last session creates a new one. It returns the remaining index.
func (s *Service) Delete(ctx context.Context, user, id string) ([]Summary, error) {
	user = normalizeUser(user)
	id = strings.TrimSpace(id)

	s.liveMu.Lock()
	if ws, ok := s.live[liveKey(user, id)]; ok {
		ws.Stop()
		delete(s.live, liveKey(user, id))
	}
	s.liveMu.Unlock()

	if err := s.store.Delete(ctx, stateKey(user, id)); err != nil {
		return nil, fmt.Errorf("session: delete %s: %w", id, err)
	}

	s.indexMu.Lock()
	index, err := s.loadIndexLocked(ctx, user)
	if err == nil {
		kept := index[:0]
		for _, sum := range index {
			if sum.ID != id {
				kept = append(kept, sum)
			}
		}
		err = kvstore.SaveJSON(ctx, s.store, indexKey(user), kept)
	}
	s.indexMu.Unlock()
	if err != nil {
		return nil, err
	}
	log.Printf("session: deleted user=%s id=%s", user, id)
	return s.List(ctx, user)
}

// Rename sets a session's title.
func (s *Service) Rename(ctx context.Context, user, id, title string) (project.State, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return project.State{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	return s.update(ctx, normalizeUser(user), id, func(st project.State) (project.State, error) {
		st.Name = title
		return st, nil
	})
}

// Send runs a turn for a free-form message.
func (s *Service) Send(ctx context.Context, user, id, text string, attachments []project.Attachment) (Outcome, error) {
	return s.turn(ctx, normalizeUser(user), id, "send", func(ctx context.Context, env project.Env, ws *workflow.Session) (project.State, project.Result, error) {
		return ws.SendMessage(ctx, env, text, attachments)
	})
}

// Click runs the operation behind a clicked action.
func (s *Service) Click(ctx context.Context, user, id string, action project.ChatAction) (Outcome, error) {
	if strings.TrimSpace(action.OperationID) == "" {
		return Outcome{}, fmt.Errorf("%w: operation id is required", ErrInvalid)
	}
	return s.turn(ctx, normalizeUser(user), id, "action", func(ctx context.Context, env project.Env, ws *workflow.Session) (project.State, project.Result, error) {
		return ws.ClickAction(ctx, env, action)
	})
}

// Stop cancels the turn in flight. It reports whether one was running.
func (s *Service) Stop(user, id string) bool {
	s.liveMu.Lock()
	ws, ok := s.live[liveKey(normalizeUser(user), strings.TrimSpace(id))]
	s.liveMu.Unlock()
	if !ok {
		return false
	}
	return ws.Stop()
}

type runFunc func(ctx context.Context, env project.Env, ws *workflow.Session) (project.State, project.Result, error)

func (s *Service) turn(ctx context.Context, user, id, kind string, run runFunc) (Outcome, error) {
	ws, err := s.session(ctx, user, id)
	if err != nil {
		return Outcome{}, err
	}
	system, err := s.library.System(ctx)
	if err != nil {
		return Outcome{}, err
	}
	id = ws.State().SessionID

	env := project.Env{
		LLM:       s.opts.LLM,
		System:    system,
		MockDelay: s.opts.MockDelay,
		Now:       s.opts.Now,
		Progress: func(status string) {
			s.opts.Broker.Publish(events.Event{Kind: events.KindProgress, SessionID: id, Status: status})
		},
	}
	if s.opts.Trace != nil {
		ctx = llm.WithHook(ctx, s.opts.Trace.Hook(id))
	}

	before := ws.State()
	s.opts.Trace.Append(id, "turn", kind+".start", map[string]any{"step": string(before.CurrentStep)})
	st, res, err := run(ctx, env, ws)

	if errors.Is(err, workflow.ErrSuperseded) {
		current := ws.State()
		if _, perr := s.persistLive(ctx, user, ws, current); perr != nil {
			log.Printf("session: persist after cancel failed id=%s: %v", id, perr)
		}
		s.opts.Trace.Append(id, "turn", kind+".cancelled", nil)
		s.opts.Broker.Publish(events.Event{Kind: events.KindCancelled, SessionID: id})
		return Outcome{State: current, Cancelled: true}, nil
	}
	if err != nil {
		current := ws.State()
		if _, perr := s.persistLive(ctx, user, ws, current); perr != nil {
			log.Printf("session: persist after failure failed id=%s: %v", id, perr)
		}
		s.opts.Trace.Append(id, "turn", kind+".error", map[string]any{"error": err.Error()})
		s.opts.Broker.Publish(events.Event{Kind: events.KindError, SessionID: id, Message: err.Error()})
		return Outcome{}, err
	}

	st = ws.Update(func(cur project.State) project.State {
		return withTitle(cur)
	})
	saved, err := s.persistLive(ctx, user, ws, st)
	if err != nil {
		return Outcome{}, err
	}
	if !saved {
		return Outcome{}, fmt.Errorf("%w: %s was deleted", ErrNotFound, id)
	}

	changes := artifact.Diff(before.Files, st.Files)
	s.opts.Trace.Append(id, "turn", kind+".done", map[string]any{
		"step":    string(st.CurrentStep),
		"round":   st.ClarificationRound,
		"changes": len(changes),
	})
	s.opts.Broker.Publish(events.Event{Kind: events.KindTurn, SessionID: id, Step: string(st.CurrentStep), Changes: changes})
	return Outcome{State: st, Result: &res, Changes: changes}, nil
}

// withTitle names a session after its first user message once the
// conversation has gone past the greeting.
func withTitle(st project.State) project.State {
	if st.Name != project.DefaultName || len(st.ChatHistory) <= 2 {
		return st
	}
	for _, m := range st.ChatHistory {
		if m.Author != project.AuthorUser || strings.TrimSpace(m.Content) == "" {
			continue
		}
		title := []rune(strings.TrimSpace(m.Content))
		if len(title) > titleLength {
			st.Name = string(title[:titleLength]) + "..."
		} else {
			st.Name = string(title)
		}
		break
	}
	return st
}

// session returns the live runner of a session, loading it on first use.
func (s *Service) session(ctx context.Context, user, id string) (*workflow.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	key := liveKey(user, id)

	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	if ws, ok := s.live[key]; ok {
		return ws, nil
	}
	var st project.State
	found, err := kvstore.LoadJSON(ctx, s.store, stateKey(user, id), &st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.CompletedSteps = project.MergeSteps(st.CompletedSteps)
	if len(st.Files) == 0 {
		st.Files = project.DefaultFiles()
	}
	ws := workflow.NewSession(st)
	s.live[key] = ws
	return ws, nil
}

func (s *Service) update(ctx context.Context, user, id string, fn func(project.State) (project.State, error)) (project.State, error) {
	ws, err := s.session(ctx, user, id)
	if err != nil {
		return project.State{}, err
	}
	var fnErr error
	st := ws.Update(func(cur project.State) project.State {
		next, err := fn(cur)
		if err != nil {
			fnErr = err
			return cur
		}
		return next
	})
	if fnErr != nil {
		return project.State{}, fnErr
	}
	saved, err := s.persistLive(ctx, user, ws, st)
	if err != nil {
		return project.State{}, err
	}
	if !saved {
		return project.State{}, fmt.Errorf("%w: %s was deleted", ErrNotFound, id)
	}
	return st, nil
}

// persistLive saves st only while ws is still the session's live runner.
// Delete drops the runner first, so a turn that outlives its session
// reports false and writes nothing.
func (s *Service) persistLive(ctx context.Context, user string, ws *workflow.Session, st project.State) (bool, error) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	if s.live[liveKey(user, st.SessionID)] != ws {
		return false, nil
	}
	return true, s.persist(ctx, user, st)
}

func (s *Service) persist(ctx context.Context, user string, st project.State) error {
	if err := kvstore.SaveJSON(ctx, s.store, stateKey(user, st.SessionID), st); err != nil {
		return fmt.Errorf("session: save %s: %w", st.SessionID, err)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	index, err := s.loadIndexLocked(ctx, user)
	if err != nil {
		return err
	}
	sum := Summary{
		ID:           st.SessionID,
		Title:        st.Name,
		LastModified: s.opts.Now().UnixMilli(),
		Step:         st.CurrentStep,
	}
	replaced := false
	for i := range index {
		if index[i].ID == sum.ID {
			index[i] = sum
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, sum)
	}
	sortIndex(index)
	return kvstore.SaveJSON(ctx, s.store, indexKey(user), index)
}

func (s *Service) loadIndex(ctx context.Context, user string) ([]Summary, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.loadIndexLocked(ctx, user)
}

func (s *Service) loadIndexLocked(ctx context.Context, user string) ([]Summary, error) {
	var index []Summary
	if _, err := kvstore.LoadJSON(ctx, s.store, indexKey(user), &index); err != nil {
		return nil, err
	}
	sortIndex(index)
	return index, nil
}

func sortIndex(index []Summary) {
	sort.SliceStable(index, func(i, j int) bool {
		return index[i].LastModified > index[j].LastModified
	})
}
