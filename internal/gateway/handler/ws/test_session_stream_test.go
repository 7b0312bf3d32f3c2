package ws

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/gateway/events"
)

type fakeStopper struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeStopper) Stop(user, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, user+"/"+id)
	return true
}

func (f *fakeStopper) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) outbound {
	t.Helper()
	var out outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestStreamRelaysSessionEvents(t *testing.T) {
	broker := events.NewBroker()
	stopper := &fakeStopper{}
	srv := httptest.NewServer(NewSessionStreamHandler(broker, stopper))
	defer srv.Close()

	conn := dial(t, srv, "session_id=s1&user_id=alice")
	assert.Equal(t, "subscribed", readType(t, conn).Type)
	assert.Equal(t, 1, broker.Subscribers("s1"))

	broker.Publish(events.Event{Kind: events.KindProgress, SessionID: "other", Status: "ignored"})
	broker.Publish(events.Event{Kind: events.KindProgress, SessionID: "s1", Status: "正在生成文档..."})
	out := readType(t, conn)
	assert.Equal(t, "progress", out.Type)
	assert.Equal(t, "正在生成文档...", out.Status)

	require.NoError(t, conn.WriteJSON(inbound{Type: "ping"}))
	assert.Equal(t, "pong", readType(t, conn).Type)

	require.NoError(t, conn.WriteJSON(inbound{Type: "stop"}))
	ack := readType(t, conn)
	assert.Equal(t, "stop_ack", ack.Type)
	assert.True(t, ack.Stopped)
	assert.Equal(t, []string{"alice/s1"}, stopper.Calls())

	require.NoError(t, conn.WriteJSON(inbound{Type: "dance"}))
	bad := readType(t, conn)
	assert.Equal(t, "error", bad.Type)
	assert.Equal(t, "invalid_argument", bad.Code)
}

func TestStreamRequiresSession(t *testing.T) {
	srv := httptest.NewServer(NewSessionStreamHandler(events.NewBroker(), nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestPushDropsOldest(t *testing.T) {
	ch := make(chan outbound, 2)
	push(ch, outbound{Type: "a"})
	push(ch, outbound{Type: "b"})
	push(ch, outbound{Type: "c"})
	assert.Equal(t, "b", (<-ch).Type)
	assert.Equal(t, "c", (<-ch).Type)
}
