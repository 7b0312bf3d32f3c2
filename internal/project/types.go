// Package project holds the per-session state a workflow turn reads and
// the result it produces.
package project

import (
	"slices"

	"speckit/internal/artifact"
)

// Step is a workflow phase or a document-producing stage.
type Step string

const (
	StepInit          Step = "init"
	StepClarifying    Step = "clarifying"
	StepPaused        Step = "paused"
	StepSpecGenerated Step = "spec_generated"

	StepSpecify    Step = "specify"
	StepChecklist  Step = "checklist"
	StepTechDetail Step = "techdetail"
	StepAutotest   Step = "autotest"
	StepTasks      Step = "tasks"
	StepImplement  Step = "implement"
	StepAnalyze    Step = "analyze"
)

// Author identifies who wrote a chat message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// ActionKind is the visual weight of a suggested action.
type ActionKind string

const (
	ActionPrimary   ActionKind = "primary"
	ActionSecondary ActionKind = "secondary"
)

// ChatAction is a button offered under a bot message.
type ChatAction struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Kind        ActionKind `json:"kind"`
	OperationID string     `json:"operationId"`
}

// Attachment is an image supplied with a user message. Data is a data URL
// or bare base64.
type Attachment struct {
	ID        string `json:"id"`
	MediaType string `json:"mediaType"`
	MIMEType  string `json:"mimeType"`
	Data      string `json:"data"`
	Name      string `json:"name"`
}

// ChatMessage is one entry of the chat history.
type ChatMessage struct {
	ID          string       `json:"id"`
	Author      Author       `json:"author"`
	Content     string       `json:"content"`
	Timestamp   int64        `json:"timestamp"`
	Actions     []ChatAction `json:"actions,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// State is the whole state of one session. It is replaced as a unit after
// each successful turn.
type State struct {
	SessionID          string        `json:"sessionId"`
	Name               string        `json:"name"`
	Files              artifact.Tree `json:"files"`
	ActiveFileID       string        `json:"activeFileId,omitempty"`
	ChatHistory        []ChatMessage `json:"chatHistory"`
	CurrentStep        Step          `json:"currentStep"`
	RequirementContext string        `json:"requirementContext"`
	ClarificationRound int           `json:"clarificationRound"`
	CompletedSteps     []Step        `json:"completedSteps"`
}

// Result is what a turn hands back to the host.
type Result struct {
	Messages       []ChatMessage `json:"messages"`
	Files          artifact.Tree `json:"files"`
	NextStep       Step          `json:"nextStep"`
	ActiveFileID   string        `json:"activeFileId,omitempty"`
	UpdatedContext string        `json:"updatedContext"`
	UpdatedRound   int           `json:"updatedRound"`
	CompletedSteps []Step        `json:"completedSteps"`
}

// HistoryAttachments returns every attachment in the chat history, oldest
// first.
func (s State) HistoryAttachments() []Attachment {
	var out []Attachment
	for _, m := range s.ChatHistory {
		out = append(out, m.Attachments...)
	}
	return out
}

// Apply folds a turn result into s and returns the new state. An empty
// ActiveFileID or UpdatedContext keeps the previous value.
func (s State) Apply(r Result) State {
	next := s
	next.Files = r.Files
	next.ChatHistory = append(append([]ChatMessage(nil), s.ChatHistory...), r.Messages...)
	next.CurrentStep = r.NextStep
	if r.ActiveFileID != "" {
		next.ActiveFileID = r.ActiveFileID
	}
	if r.UpdatedContext != "" {
		next.RequirementContext = r.UpdatedContext
	}
	next.ClarificationRound = r.UpdatedRound
	next.CompletedSteps = MergeSteps(s.CompletedSteps, r.CompletedSteps...)
	return next
}

// Clone returns a copy of s that shares no mutable slices with it.
func (s State) Clone() State {
	c := s
	c.Files = s.Files.Clone()
	c.ChatHistory = slices.Clone(s.ChatHistory)
	c.CompletedSteps = slices.Clone(s.CompletedSteps)
	return c
}

// MergeSteps returns the ordered union of have and add.
func MergeSteps(have []Step, add ...Step) []Step {
	out := slices.Clone(have)
	if out == nil {
		out = []Step{}
	}
	for _, s := range add {
		if !HasStep(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// HasStep reports whether steps contains s.
func HasStep(steps []Step, s Step) bool {
	return slices.Contains(steps, s)
}
