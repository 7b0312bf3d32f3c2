package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/gateway/repository/kvstore"
	"speckit/internal/gateway/service/library"
	"speckit/internal/gateway/service/session"
	"speckit/internal/project"
)

func TestRunChatDrivesWorkflow(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := session.New(store, library.New(store), session.Options{})
	st, err := svc.Create(ctx, session.DefaultUser)
	require.NoError(t, err)

	in := strings.NewReader("做一个扫码入库功能\n/1\n/9\n/2\n/files\n/show spec.md\n/quit\nignored\n")
	var out bytes.Buffer
	require.NoError(t, runChat(ctx, svc, st.SessionID, in, &out, false))

	text := out.String()
	assert.Contains(t, text, "这个功能主要面向什么用户群体？")
	assert.Contains(t, text, "主要涉及哪些平台？")
	assert.Contains(t, text, "unknown command /9")
	assert.Contains(t, text, "[Web + App]")
	assert.Contains(t, text, "specs/specs/spec.md")
	assert.NotContains(t, text, "> ")

	cur, err := svc.Get(ctx, session.DefaultUser, st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, project.StepSpecGenerated, cur.CurrentStep)
	spec, ok := project.Document(cur.Files, project.SpecFileID)
	require.True(t, ok)
	assert.Contains(t, text, strings.TrimSpace(spec)[:20])
}

func TestPickAction(t *testing.T) {
	history := []project.ChatMessage{
		{Actions: []project.ChatAction{{Label: "old"}}},
		{Content: "plain"},
		{Actions: []project.ChatAction{{Label: "a"}, {Label: "b"}}},
	}
	a, ok := pickAction(history, "2")
	require.True(t, ok)
	assert.Equal(t, "b", a.Label)

	_, ok = pickAction(history, "3")
	assert.False(t, ok)
	_, ok = pickAction(history, "x")
	assert.False(t, ok)
	_, ok = pickAction(nil, "1")
	assert.False(t, ok)
}
