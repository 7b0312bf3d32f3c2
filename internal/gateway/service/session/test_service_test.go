package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/artifact"
	"speckit/internal/gateway/events"
	"speckit/internal/gateway/repository/kvstore"
	"speckit/internal/gateway/service/library"
	"speckit/internal/gateway/trace"
	"speckit/internal/llm"
	"speckit/internal/project"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newService(t *testing.T, store kvstore.Store, opts Options) *Service {
	t.Helper()
	if opts.Now == nil {
		opts.Now = (&clock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}).Now
	}
	return New(store, library.New(store), opts)
}

func TestListCreatesFirstSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, kvstore.NewMemoryStore(), Options{})

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, project.DefaultName, list[0].Title)
	assert.Equal(t, project.StepInit, list[0].Step)

	st, err := svc.Get(ctx, DefaultUser, list[0].ID)
	require.NoError(t, err)
	assert.Len(t, st.ChatHistory, 2)
	assert.Equal(t, project.RootFolderID, st.Files[0].ID)

	again, err := svc.List(ctx, DefaultUser)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestGetUnknownSession(t *testing.T) {
	svc := newService(t, kvstore.NewMemoryStore(), Options{})
	_, err := svc.Get(context.Background(), "u", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Send(context.Background(), "u", "", "hi", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendPersistsAndTitles(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := newService(t, store, Options{})

	st, err := svc.Create(ctx, "alice")
	require.NoError(t, err)

	out, err := svc.Send(ctx, "alice", st.SessionID, "做一个扫码入库功能", nil)
	require.NoError(t, err)
	assert.False(t, out.Cancelled)
	require.NotNil(t, out.Result)
	assert.Equal(t, 1, out.State.ClarificationRound)
	assert.Equal(t, "做一个扫码入库功能", out.State.Name)

	reloaded, err := newService(t, store, Options{}).Get(ctx, "alice", st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, out.State.ChatHistory, reloaded.ChatHistory)
	assert.Equal(t, out.State.RequirementContext, reloaded.RequirementContext)
	assert.Equal(t, out.State.ClarificationRound, reloaded.ClarificationRound)
	assert.Equal(t, out.State.Name, reloaded.Name)

	list, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "做一个扫码入库功能", list[0].Title)
	assert.Equal(t, project.StepClarifying, list[0].Step)
}

func TestWithTitle(t *testing.T) {
	st := project.New("s", time.Now())
	assert.Equal(t, project.DefaultName, withTitle(st).Name)

	st.ChatHistory = append(st.ChatHistory, project.ChatMessage{Author: project.AuthorUser, Content: "为仓库管理员开发一个App端的扫码入库功能"})
	assert.Equal(t, "为仓库管理员开发一个App端的...", withTitle(st).Name)

	st.Name = "My project"
	assert.Equal(t, "My project", withTitle(st).Name)
}

func TestIndexIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, kvstore.NewMemoryStore(), Options{})

	a, err := svc.Create(ctx, "u")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u")
	require.NoError(t, err)
	_, err = svc.Rename(ctx, "u", a.SessionID, "renamed")
	require.NoError(t, err)

	list, err := svc.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.SessionID, list[0].ID)
	assert.Equal(t, "renamed", list[0].Title)
	assert.Equal(t, b.SessionID, list[1].ID)

	_, err = svc.Rename(ctx, "u", a.SessionID, "  ")
	assert.Error(t, err)
}

func TestDeleteLastSessionCreatesNew(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := newService(t, store, Options{})

	st, err := svc.Create(ctx, "u")
	require.NoError(t, err)
	list, err := svc.Delete(ctx, "u", st.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEqual(t, st.SessionID, list[0].ID)

	_, err = svc.Get(ctx, "u", st.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Load(ctx, stateKey("u", st.SessionID))
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestStopCancelsTurn(t *testing.T) {
	ctx := context.Background()
	broker := events.NewBroker()
	svc := newService(t, kvstore.NewMemoryStore(), Options{MockDelay: 5 * time.Second, Broker: broker})
	st, err := svc.Create(ctx, "u")
	require.NoError(t, err)
	sub, cancel := broker.Subscribe(st.SessionID, 16)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		out, err := svc.Send(ctx, "u", st.SessionID, "做一个功能", nil)
		assert.NoError(t, err)
		done <- out
	}()
	require.Eventually(t, func() bool { return svc.Stop("u", st.SessionID) }, time.Second, 5*time.Millisecond)

	var out Outcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("turn was not cancelled")
	}
	assert.True(t, out.Cancelled)
	assert.Nil(t, out.Result)
	assert.Equal(t, 0, out.State.ClarificationRound)
	assert.Equal(t, "做一个功能", out.State.ChatHistory[len(out.State.ChatHistory)-1].Content)

	var kinds []events.Kind
	for len(sub) > 0 {
		kinds = append(kinds, (<-sub).Kind)
	}
	assert.Contains(t, kinds, events.KindProgress)
	assert.Contains(t, kinds, events.KindCancelled)
	assert.False(t, svc.Stop("u", st.SessionID))
}

func TestDeleteDuringTurnStaysDeleted(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, kvstore.NewMemoryStore(), Options{MockDelay: 300 * time.Millisecond})
	a, err := svc.Create(ctx, "u")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u")
	require.NoError(t, err)

	done := make(chan Outcome, 1)
	go func() {
		out, err := svc.Send(ctx, "u", a.SessionID, "为仓库管理员开发一个App端的扫码入库功能", nil)
		assert.NoError(t, err)
		done <- out
	}()
	require.Eventually(t, func() bool {
		svc.liveMu.Lock()
		defer svc.liveMu.Unlock()
		ws, ok := svc.live[liveKey("u", a.SessionID)]
		return ok && ws.Busy()
	}, time.Second, time.Millisecond)

	left, err := svc.Delete(ctx, "u", a.SessionID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, b.SessionID, left[0].ID)

	select {
	case out := <-done:
		assert.True(t, out.Cancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("turn did not finish")
	}

	list, err := svc.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.SessionID, list[0].ID)
	_, err = svc.Get(ctx, "u", a.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTurnsPublishProgressAndChanges(t *testing.T) {
	ctx := context.Background()
	broker := events.NewBroker()
	svc := newService(t, kvstore.NewMemoryStore(), Options{Broker: broker})
	st, err := svc.Create(ctx, "u")
	require.NoError(t, err)

	out, err := svc.Send(ctx, "u", st.SessionID, "做一个扫码入库功能", nil)
	require.NoError(t, err)
	q := out.State.ChatHistory[len(out.State.ChatHistory)-1]
	out, err = svc.Click(ctx, "u", st.SessionID, q.Actions[0])
	require.NoError(t, err)
	q = out.State.ChatHistory[len(out.State.ChatHistory)-1]

	sub, cancel := broker.Subscribe(st.SessionID, 16)
	defer cancel()
	out, err = svc.Click(ctx, "u", st.SessionID, q.Actions[1])
	require.NoError(t, err)
	assert.Equal(t, project.StepSpecGenerated, out.State.CurrentStep)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, artifact.ChangeAdded, out.Changes[0].Op)
	assert.Equal(t, project.SpecFileID, out.Changes[0].ID)

	var last events.Event
	var statuses []string
	for len(sub) > 0 {
		last = <-sub
		if last.Kind == events.KindProgress {
			statuses = append(statuses, last.Status)
		}
	}
	assert.Equal(t, events.KindTurn, last.Kind)
	assert.Equal(t, string(project.StepSpecGenerated), last.Step)
	assert.Contains(t, statuses, "正在生成文档...")

	_, err = svc.Click(ctx, "u", st.SessionID, project.ChatAction{Label: "x"})
	assert.Error(t, err)
}

func TestBackendFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	fake := llm.NewFakeClient(map[string]string{
		"clarify": `{"question":"","options":[],"isEnough":true}`,
	})
	fake.Errors["specify"] = errors.New("quota exceeded")
	broker := events.NewBroker()
	traces := trace.NewLogger(t.TempDir())
	svc := newService(t, kvstore.NewMemoryStore(), Options{LLM: llm.NewAdapter(fake), Broker: broker, Trace: traces})
	st, err := svc.Create(ctx, "u")
	require.NoError(t, err)
	sub, cancel := broker.Subscribe(st.SessionID, 16)
	defer cancel()

	_, err = svc.Send(ctx, "u", st.SessionID, "做一个功能", nil)
	require.Error(t, err)

	cur, err := svc.Get(ctx, "u", st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "做一个功能", cur.ChatHistory[len(cur.ChatHistory)-1].Content)
	assert.Equal(t, project.StepInit, cur.CurrentStep)

	var last events.Event
	for len(sub) > 0 {
		last = <-sub
	}
	assert.Equal(t, events.KindError, last.Kind)
	assert.Contains(t, last.Message, "quota exceeded")

	logged, err := traces.Read(st.SessionID)
	require.NoError(t, err)
	var stages []string
	for _, ev := range logged {
		stages = append(stages, ev.Stage)
	}
	assert.Contains(t, stages, "clarify.request")
	assert.Contains(t, stages, "specify.response")
	assert.Contains(t, stages, "send.error")
}

func TestEditFileTracksActiveFile(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, kvstore.NewMemoryStore(), Options{})
	st, err := svc.Create(ctx, "u")
	require.NoError(t, err)

	st, err = svc.EditFile(ctx, "u", st.SessionID, artifact.Edit{Op: artifact.EditAddFolder, ParentID: project.RootFolderID, Name: "notes"})
	require.NoError(t, err)
	folderID := st.Files[0].Children[0].ID

	st, err = svc.EditFile(ctx, "u", st.SessionID, artifact.Edit{Op: artifact.EditAddFile, ParentID: folderID, Name: "a.md", Content: "a"})
	require.NoError(t, err)
	fileID := st.ActiveFileID
	require.NotEmpty(t, fileID)

	st, err = svc.EditFile(ctx, "u", st.SessionID, artifact.Edit{Op: artifact.EditUpdate, ID: fileID, Content: "b"})
	require.NoError(t, err)
	content, _ := artifact.FileContent(st.Files, fileID)
	assert.Equal(t, "b", content)
	assert.Equal(t, fileID, st.ActiveFileID)

	st, err = svc.EditFile(ctx, "u", st.SessionID, artifact.Edit{Op: artifact.EditDelete, ID: folderID})
	require.NoError(t, err)
	assert.Empty(t, st.ActiveFileID)
	assert.Nil(t, artifact.Find(st.Files, fileID))

	_, err = svc.EditFile(ctx, "u", st.SessionID, artifact.Edit{Op: artifact.EditDelete, ID: fileID})
	assert.ErrorIs(t, err, artifact.ErrNodeNotFound)
	_, err = svc.SelectFile(ctx, "u", st.SessionID, project.RootFolderID)
	assert.ErrorIs(t, err, artifact.ErrNodeNotFound)
}
