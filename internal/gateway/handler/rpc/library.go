package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"speckit/internal/gateway/service/library"
)

const (
	LibraryServiceName = "speckit.v1.LibraryService"

	LibraryServiceGetSystemProcedure   = "/" + LibraryServiceName + "/GetSystem"
	LibraryServiceEditSystemProcedure  = "/" + LibraryServiceName + "/EditSystem"
	LibraryServiceResetSystemProcedure = "/" + LibraryServiceName + "/ResetSystem"
)

// LibraryHandler exposes the shared system library. It is not scoped to a
// user.
type LibraryHandler struct {
	lib *library.Service
}

func NewLibraryHandler(lib *library.Service) *LibraryHandler {
	return &LibraryHandler{lib: lib}
}

func (h *LibraryHandler) GetSystem(ctx context.Context, _ *connect.Request[GetSystemRequest]) (*connect.Response[SystemResponse], error) {
	tree, err := h.lib.System(ctx)
	if err != nil {
		return nil, toTurnError("get system", err)
	}
	return connect.NewResponse(&SystemResponse{Files: tree}), nil
}

func (h *LibraryHandler) EditSystem(ctx context.Context, req *connect.Request[EditSystemRequest]) (*connect.Response[SystemResponse], error) {
	tree, err := h.lib.Edit(ctx, req.Msg.Edit)
	if err != nil {
		return nil, toTurnError("edit system", err)
	}
	return connect.NewResponse(&SystemResponse{Files: tree}), nil
}

func (h *LibraryHandler) ResetSystem(ctx context.Context, _ *connect.Request[ResetSystemRequest]) (*connect.Response[SystemResponse], error) {
	tree, err := h.lib.Reset(ctx)
	if err != nil {
		return nil, toTurnError("reset system", err)
	}
	return connect.NewResponse(&SystemResponse{Files: tree}), nil
}

func NewLibraryServiceHandler(h *LibraryHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	return "/" + LibraryServiceName + "/", serveRoutes(map[string]http.Handler{
		LibraryServiceGetSystemProcedure:   connect.NewUnaryHandler(LibraryServiceGetSystemProcedure, h.GetSystem, opts...),
		LibraryServiceEditSystemProcedure:  connect.NewUnaryHandler(LibraryServiceEditSystemProcedure, h.EditSystem, opts...),
		LibraryServiceResetSystemProcedure: connect.NewUnaryHandler(LibraryServiceResetSystemProcedure, h.ResetSystem, opts...),
	})
}
