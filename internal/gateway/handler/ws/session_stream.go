// Package ws streams a session's turn events to the browser.
package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"speckit/internal/artifact"
	"speckit/internal/gateway/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingEvery  = (pongWait * 9) / 10
	queueDepth = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Stopper cancels the turn in flight for a session.
type Stopper interface {
	Stop(user, id string) bool
}

type inbound struct {
	Type string `json:"type"`
}

type outbound struct {
	Type      string            `json:"type"`
	SessionID string            `json:"sessionId,omitempty"`
	Status    string            `json:"status,omitempty"`
	Step      string            `json:"step,omitempty"`
	Changes   []artifact.Change `json:"changes,omitempty"`
	Stopped   bool              `json:"stopped,omitempty"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// SessionStreamHandler relays broker events for one session per
// connection and accepts "ping" and "stop" from the client.
type SessionStreamHandler struct {
	broker  *events.Broker
	stopper Stopper
}

func NewSessionStreamHandler(broker *events.Broker, stopper Stopper) *SessionStreamHandler {
	return &SessionStreamHandler{broker: broker, stopper: stopper}
}

func (h *SessionStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	user := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if user == "" {
		user = strings.TrimSpace(r.Header.Get("X-User-Id"))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("ws: set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeCh := make(chan outbound, queueDepth)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	sub, unsubscribe := h.broker.Subscribe(sessionID, queueDepth)
	defer unsubscribe()
	push(writeCh, outbound{Type: "subscribed", SessionID: sessionID})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				push(writeCh, fromEvent(ev))
			}
		}
	}()

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			push(writeCh, outbound{Type: "pong"})
		case "stop":
			stopped := h.stopper != nil && h.stopper.Stop(user, sessionID)
			push(writeCh, outbound{Type: "stop_ack", SessionID: sessionID, Stopped: stopped})
		case "":
			push(writeCh, outbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			push(writeCh, outbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + msgType})
		}
	}
}

func fromEvent(ev events.Event) outbound {
	return outbound{
		Type:      string(ev.Kind),
		SessionID: ev.SessionID,
		Status:    ev.Status,
		Step:      ev.Step,
		Changes:   ev.Changes,
		Message:   ev.Message,
	}
}

// push enqueues out, dropping the oldest queued message when the client
// falls behind.
func push(writeCh chan outbound, out outbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
