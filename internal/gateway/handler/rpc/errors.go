package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"speckit/internal/artifact"
	"speckit/internal/gateway/repository/kvstore"
	"speckit/internal/gateway/service/session"
	"speckit/internal/workflow"
)

// UserHeader identifies the caller. Requests without it act as the local
// user.
const UserHeader = "X-User-Id"

func userOf(h http.Header) string {
	return strings.TrimSpace(h.Get(UserHeader))
}

func toTurnError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, artifact.ErrNodeNotFound),
		errors.Is(err, kvstore.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrInvalid),
		errors.Is(err, artifact.ErrInvalidEdit),
		errors.Is(err, workflow.ErrEmptyMessage):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	log.Printf("rpc: %s failed: %v", op, err)
	return connect.NewError(connect.CodeInternal, err)
}

func requireSession(id string) error {
	if strings.TrimSpace(id) == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("sessionId is required"))
	}
	return nil
}
