package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"speckit/internal/gateway/service/session"
)

const (
	WorkflowServiceName = "speckit.v1.WorkflowService"

	WorkflowServiceSendMessageProcedure = "/" + WorkflowServiceName + "/SendMessage"
	WorkflowServiceClickActionProcedure = "/" + WorkflowServiceName + "/ClickAction"
	WorkflowServiceStopProcedure        = "/" + WorkflowServiceName + "/Stop"
)

// WorkflowHandler runs turns: free-form messages, clicked actions and
// explicit stops.
type WorkflowHandler struct {
	sessions *session.Service
}

func NewWorkflowHandler(sessions *session.Service) *WorkflowHandler {
	return &WorkflowHandler{sessions: sessions}
}

func (h *WorkflowHandler) SendMessage(ctx context.Context, req *connect.Request[SendMessageRequest]) (*connect.Response[TurnResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	out, err := h.sessions.Send(ctx, userOf(req.Header()), req.Msg.SessionID, req.Msg.Text, req.Msg.Attachments)
	if err != nil {
		return nil, toTurnError("send", err)
	}
	return connect.NewResponse(toTurnResponse(out)), nil
}

func (h *WorkflowHandler) ClickAction(ctx context.Context, req *connect.Request[ClickActionRequest]) (*connect.Response[TurnResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	out, err := h.sessions.Click(ctx, userOf(req.Header()), req.Msg.SessionID, req.Msg.Action)
	if err != nil {
		return nil, toTurnError("click", err)
	}
	return connect.NewResponse(toTurnResponse(out)), nil
}

func (h *WorkflowHandler) Stop(_ context.Context, req *connect.Request[StopRequest]) (*connect.Response[StopResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	stopped := h.sessions.Stop(userOf(req.Header()), req.Msg.SessionID)
	return connect.NewResponse(&StopResponse{Stopped: stopped}), nil
}

// NewWorkflowServiceHandler returns the path prefix and handler serving
// every WorkflowService procedure.
func NewWorkflowServiceHandler(h *WorkflowHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	send := connect.NewUnaryHandler(WorkflowServiceSendMessageProcedure, h.SendMessage, opts...)
	click := connect.NewUnaryHandler(WorkflowServiceClickActionProcedure, h.ClickAction, opts...)
	stop := connect.NewUnaryHandler(WorkflowServiceStopProcedure, h.Stop, opts...)
	return "/" + WorkflowServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case WorkflowServiceSendMessageProcedure:
			send.ServeHTTP(w, r)
		case WorkflowServiceClickActionProcedure:
			click.ServeHTTP(w, r)
		case WorkflowServiceStopProcedure:
			stop.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
