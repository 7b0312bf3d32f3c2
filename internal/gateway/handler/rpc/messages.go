package rpc

import (
	"speckit/internal/artifact"
	"speckit/internal/gateway/service/export"
	"speckit/internal/gateway/service/session"
	"speckit/internal/project"
)

type SendMessageRequest struct {
	SessionID   string               `json:"sessionId"`
	Text        string               `json:"text"`
	Attachments []project.Attachment `json:"attachments,omitempty"`
}

type ClickActionRequest struct {
	SessionID string             `json:"sessionId"`
	Action    project.ChatAction `json:"action"`
}

// TurnResponse is returned by every turn. A stopped or superseded turn
// sets Cancelled and carries no Result.
type TurnResponse struct {
	State     project.State     `json:"state"`
	Result    *project.Result   `json:"result,omitempty"`
	Changes   []artifact.Change `json:"changes,omitempty"`
	Cancelled bool              `json:"cancelled,omitempty"`
}

type StopRequest struct {
	SessionID string `json:"sessionId"`
}

type StopResponse struct {
	Stopped bool `json:"stopped"`
}

type CreateSessionRequest struct{}

type ListSessionsRequest struct{}

type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type RenameSessionRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

type EditFileRequest struct {
	SessionID string        `json:"sessionId"`
	Edit      artifact.Edit `json:"edit"`
}

type SelectFileRequest struct {
	SessionID string `json:"sessionId"`
	FileID    string `json:"fileId"`
}

type StateResponse struct {
	State project.State `json:"state"`
}

type ListSessionsResponse struct {
	Sessions []session.Summary `json:"sessions"`
}

type ExportResponse struct {
	Files []export.File `json:"files"`
}

type GetSystemRequest struct{}

type EditSystemRequest struct {
	Edit artifact.Edit `json:"edit"`
}

type ResetSystemRequest struct{}

type SystemResponse struct {
	Files artifact.Tree `json:"files"`
}

func toTurnResponse(out session.Outcome) *TurnResponse {
	return &TurnResponse{
		State:     out.State,
		Result:    out.Result,
		Changes:   out.Changes,
		Cancelled: out.Cancelled,
	}
}
