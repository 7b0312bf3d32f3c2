package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"speckit/internal/gateway/service/export"
	"speckit/internal/gateway/service/session"
)

const (
	SessionServiceName = "speckit.v1.SessionService"

	SessionServiceCreateProcedure     = "/" + SessionServiceName + "/Create"
	SessionServiceListProcedure       = "/" + SessionServiceName + "/List"
	SessionServiceGetProcedure        = "/" + SessionServiceName + "/Get"
	SessionServiceDeleteProcedure     = "/" + SessionServiceName + "/Delete"
	SessionServiceRenameProcedure     = "/" + SessionServiceName + "/Rename"
	SessionServiceEditFileProcedure   = "/" + SessionServiceName + "/EditFile"
	SessionServiceSelectFileProcedure = "/" + SessionServiceName + "/SelectFile"
	SessionServiceExportProcedure     = "/" + SessionServiceName + "/Export"
)

type SessionHandler struct {
	sessions *session.Service
	exporter *export.Service
}

func NewSessionHandler(sessions *session.Service, exporter *export.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions, exporter: exporter}
}

func (h *SessionHandler) Create(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[StateResponse], error) {
	st, err := h.sessions.Create(ctx, userOf(req.Header()))
	if err != nil {
		return nil, toTurnError("create", err)
	}
	return connect.NewResponse(&StateResponse{State: st}), nil
}

func (h *SessionHandler) List(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	list, err := h.sessions.List(ctx, userOf(req.Header()))
	if err != nil {
		return nil, toTurnError("list", err)
	}
	return connect.NewResponse(&ListSessionsResponse{Sessions: list}), nil
}

func (h *SessionHandler) Get(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	st, err := h.sessions.Get(ctx, userOf(req.Header()), req.Msg.SessionID)
	if err != nil {
		return nil, toTurnError("get", err)
	}
	return connect.NewResponse(&StateResponse{State: st}), nil
}

func (h *SessionHandler) Delete(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[ListSessionsResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	list, err := h.sessions.Delete(ctx, userOf(req.Header()), req.Msg.SessionID)
	if err != nil {
		return nil, toTurnError("delete", err)
	}
	return connect.NewResponse(&ListSessionsResponse{Sessions: list}), nil
}

func (h *SessionHandler) Rename(ctx context.Context, req *connect.Request[RenameSessionRequest]) (*connect.Response[StateResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	st, err := h.sessions.Rename(ctx, userOf(req.Header()), req.Msg.SessionID, req.Msg.Title)
	if err != nil {
		return nil, toTurnError("rename", err)
	}
	return connect.NewResponse(&StateResponse{State: st}), nil
}

func (h *SessionHandler) EditFile(ctx context.Context, req *connect.Request[EditFileRequest]) (*connect.Response[StateResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	st, err := h.sessions.EditFile(ctx, userOf(req.Header()), req.Msg.SessionID, req.Msg.Edit)
	if err != nil {
		return nil, toTurnError("edit file", err)
	}
	return connect.NewResponse(&StateResponse{State: st}), nil
}

func (h *SessionHandler) SelectFile(ctx context.Context, req *connect.Request[SelectFileRequest]) (*connect.Response[StateResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	st, err := h.sessions.SelectFile(ctx, userOf(req.Header()), req.Msg.SessionID, req.Msg.FileID)
	if err != nil {
		return nil, toTurnError("select file", err)
	}
	return connect.NewResponse(&StateResponse{State: st}), nil
}

// Export copies the session's output files to object storage.
func (h *SessionHandler) Export(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[ExportResponse], error) {
	if err := requireSession(req.Msg.SessionID); err != nil {
		return nil, err
	}
	st, err := h.sessions.Get(ctx, userOf(req.Header()), req.Msg.SessionID)
	if err != nil {
		return nil, toTurnError("export", err)
	}
	if h.exporter == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("object storage is not configured"))
	}
	files, err := h.exporter.Export(ctx, st.SessionID, st.Files)
	if err != nil {
		return nil, toTurnError("export", err)
	}
	return connect.NewResponse(&ExportResponse{Files: files}), nil
}

func NewSessionServiceHandler(h *SessionHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	routes := map[string]http.Handler{
		SessionServiceCreateProcedure:     connect.NewUnaryHandler(SessionServiceCreateProcedure, h.Create, opts...),
		SessionServiceListProcedure:       connect.NewUnaryHandler(SessionServiceListProcedure, h.List, opts...),
		SessionServiceGetProcedure:        connect.NewUnaryHandler(SessionServiceGetProcedure, h.Get, opts...),
		SessionServiceDeleteProcedure:     connect.NewUnaryHandler(SessionServiceDeleteProcedure, h.Delete, opts...),
		SessionServiceRenameProcedure:     connect.NewUnaryHandler(SessionServiceRenameProcedure, h.Rename, opts...),
		SessionServiceEditFileProcedure:   connect.NewUnaryHandler(SessionServiceEditFileProcedure, h.EditFile, opts...),
		SessionServiceSelectFileProcedure: connect.NewUnaryHandler(SessionServiceSelectFileProcedure, h.SelectFile, opts...),
		SessionServiceExportProcedure:     connect.NewUnaryHandler(SessionServiceExportProcedure, h.Export, opts...),
	}
	return "/" + SessionServiceName + "/", serveRoutes(routes)
}

func serveRoutes(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
