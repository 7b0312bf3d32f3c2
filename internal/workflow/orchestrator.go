// Package workflow routes user turns to the clarification dialogue or to
// the document-producing stages.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"speckit/internal/clarify"
	"speckit/internal/intent"
	"speckit/internal/project"
)

// ErrEmptyMessage is returned for a message with neither text nor
// attachments.
var ErrEmptyMessage = errors.New("workflow: empty message")

var exitKeywords = []string{"退出", "暂停", "exit", "stop", "pause"}

const (
	pausedNotice       = "已暂停需求澄清。您可以随时发送内容继续。"
	unknownStateNotice = "未知的状态，已重置。"
)

func detector(env project.Env) *intent.Detector {
	if env.Mock() {
		return intent.NewDetector(nil)
	}
	return intent.NewDetector(env.LLM)
}

// HandleUserMessage runs one turn for a free-form message. state must be
// the session as it was before message was appended to the history; state
// is never modified.
//
// Recognised commands run their stage directly. Otherwise the current step
// decides: init and clarifying continue the dialogue (clarifying also
// honours exit keywords), paused or any later step with accumulated context
// resumes it, and anything else resets to init.
func HandleUserMessage(ctx context.Context, env project.Env, state project.State, message string, attachments []project.Attachment) (project.Result, error) {
	if strings.TrimSpace(message) == "" && len(attachments) == 0 {
		return project.Result{}, ErrEmptyMessage
	}

	det, err := detector(env).Detect(ctx, message)
	if err != nil {
		return project.Result{}, err
	}
	if det.Dispatchable() {
		return runOperation(ctx, env, state, det.Op, det.ID, "User Trigger: "+message)
	}

	switch {
	case state.CurrentStep == project.StepInit:
		return clarify.Run(ctx, env, state, message, attachments)
	case state.CurrentStep == project.StepClarifying:
		if isExit(message) {
			t := newTurn(ctx, env, state)
			t.res.Messages = append(t.res.Messages, env.BotMessage("bot-pause", pausedNotice))
			t.res.NextStep = project.StepPaused
			return t.res, nil
		}
		return clarify.Run(ctx, env, state, message, attachments)
	case state.CurrentStep == project.StepPaused || state.RequirementContext != "":
		return clarify.Run(ctx, env, state, message, attachments)
	}

	t := newTurn(ctx, env, state)
	t.res.Messages = append(t.res.Messages, env.BotMessage("bot-err", unknownStateNotice))
	t.res.NextStep = project.StepInit
	return t.res, nil
}

// HandleAction runs the operation behind a clicked action. label is the
// action's caption; for answer_clarification it is the answer.
func HandleAction(ctx context.Context, env project.Env, state project.State, operationID, label string) (project.Result, error) {
	return runOperation(ctx, env, state, intent.Parse(operationID), operationID, label)
}

func runOperation(ctx context.Context, env project.Env, state project.State, op intent.Operation, id, label string) (project.Result, error) {
	if op == intent.AnswerClarification {
		return clarify.Run(ctx, env, state, label, nil)
	}

	t := newTurn(ctx, env, state)
	var err error
	switch op {
	case intent.RegenerateSpec:
		err = t.regenerateSpec()
	case intent.CompleteSpec:
		err = t.completeSpec()
	case intent.RunChecklist:
		err = t.runChecklist()
	case intent.RunTech:
		err = t.runTech()
	case intent.RunAutotest:
		err = t.runAutotest()
	case intent.RunTasks:
		err = t.runTasks()
	case intent.RunAnalyze:
		err = t.runAnalyze()
	case intent.RunImplement:
		err = t.runImplement()
	default:
		t.say(fmt.Sprintf("Action %s executed (Mock).", id))
	}
	if err != nil {
		return project.Result{}, err
	}
	return t.res, nil
}

func isExit(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range exitKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
