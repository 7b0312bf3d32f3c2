package server

import (
	"net/http"

	"speckit/internal/gateway/handler"
	"speckit/internal/gateway/handler/rpc"
	"speckit/internal/gateway/handler/ws"
	"speckit/internal/gateway/middleware"
)

func NewMux(
	workflowHandler *rpc.WorkflowHandler,
	sessionHandler *rpc.SessionHandler,
	libraryHandler *rpc.LibraryHandler,
	streamHandler *ws.SessionStreamHandler,
	traceHandler *handler.TraceHandler,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewWorkflowServiceHandler(workflowHandler))
	mux.Handle(rpc.NewSessionServiceHandler(sessionHandler))
	mux.Handle(rpc.NewLibraryServiceHandler(libraryHandler))

	// Live progress
	mux.Handle("/ws/session", streamHandler)

	// Debug Handlers
	mux.HandleFunc("/debug/frontend-trace", traceHandler.HandleFrontendTrace)
	mux.HandleFunc("/debug/session-logs", traceHandler.HandleSessionLogs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Middleware
	return middleware.CORS(mux)
}
