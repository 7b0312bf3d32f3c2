// Package clarify runs the requirement clarification dialogue and produces
// the first specification once enough is known.
package clarify

import (
	"context"
	"fmt"

	"speckit/internal/artifact"
	"speckit/internal/charter"
	"speckit/internal/intent"
	"speckit/internal/llm"
	"speckit/internal/platform"
	"speckit/internal/project"
	"speckit/internal/seed"
)

const (
	// MaxRound is the round a clarification jumps to once the backend
	// considers the requirement clear.
	MaxRound = 5
	// SpecRound is the first round at which the specification is written.
	SpecRound = 3
)

// Run records answer as the next clarification round, asks the next
// question or, once enough is known, writes specs/spec.md.
//
// state is the session as it was before the user's message was appended to
// the history. The only error besides generation failures is
// llm.ErrCanceled.
func Run(ctx context.Context, env project.Env, state project.State, answer string, attachments []project.Attachment) (project.Result, error) {
	res := project.Result{
		Files:          state.Files,
		NextStep:       project.StepClarifying,
		ActiveFileID:   state.ActiveFileID,
		UpdatedContext: state.RequirementContext,
		UpdatedRound:   state.ClarificationRound,
		CompletedSteps: append([]project.Step(nil), state.CompletedSteps...),
	}

	if answer != "" {
		env.Report("正在记录反馈...")
		res.UpdatedContext += fmt.Sprintf("\nUser Answer (Round %d): %s", res.UpdatedRound, answer)
		if len(attachments) > 0 {
			res.UpdatedContext += fmt.Sprintf("\n[User uploaded %d images]", len(attachments))
		}
	}

	_, hasSpec := project.Document(state.Files, project.SpecFileID)
	allAttachments := append(state.HistoryAttachments(), attachments...)

	var next llm.Clarification
	if env.Mock() {
		if err := env.SimulateLatency(ctx, 1); err != nil {
			return project.Result{}, err
		}
		next = mockClarification(res.UpdatedRound)
	} else {
		env.Report("正在思考...")
		prompt := res.UpdatedContext
		if hasSpec {
			prompt += refinementNote
		}
		var err error
		next, err = env.LLM.CompleteStructured(llm.WithPhase(ctx, "clarify"), prompt, res.UpdatedRound, project.Images(allAttachments))
		if err != nil {
			return project.Result{}, err
		}
	}

	if next.IsEnough {
		res.UpdatedRound = MaxRound
	} else {
		res.Messages = append(res.Messages, questionMessage(env, next))
		if res.UpdatedRound < MaxRound {
			res.UpdatedRound++
		}
	}

	if res.UpdatedRound < SpecRound {
		return res, nil
	}

	env.Report("正在生成文档...")
	files, id, err := writeSpec(ctx, env, state.Files, res.UpdatedContext, allAttachments)
	if err != nil {
		return project.Result{}, err
	}
	res.Files = files
	res.ActiveFileID = id
	res.NextStep = project.StepSpecGenerated
	res.CompletedSteps = project.MergeSteps(res.CompletedSteps, project.StepSpecify)
	res.Messages = append(res.Messages, env.BotMessage("bot-done", specDoneMessage,
		project.ChatAction{ID: "act-complete", Label: "补全文档 (埋点/测试/知识库)", Kind: project.ActionSecondary, OperationID: intent.CompleteSpec.String()},
		project.ChatAction{ID: "act-check", Label: "运行质量检查 (Checklist)", Kind: project.ActionPrimary, OperationID: intent.RunChecklist.String()},
	))
	return res, nil
}

// SpecSystemContext is the system instruction used to write a specification
// from contextText.
func SpecSystemContext(env project.Env, contextText string) string {
	b := charter.Collect(env.System, seed.CmdSpecifyID, seed.TemplatesID, platform.Detect(contextText))
	var standards []string
	if std := env.Standard(seed.StdSpecID); std != "" {
		standards = append(standards, std)
	}
	return b.SystemContext(standards...)
}

func writeSpec(ctx context.Context, env project.Env, files artifact.Tree, contextText string, attachments []project.Attachment) (artifact.Tree, string, error) {
	var content string
	if env.Mock() {
		if err := env.SimulateLatency(ctx, 1.5); err != nil {
			return nil, "", err
		}
		content = mockSpec(contextText)
	} else {
		var err error
		content, err = env.LLM.Complete(llm.WithPhase(ctx, "specify"), specPrompt(contextText), SpecSystemContext(env, contextText), project.Images(attachments))
		if err != nil {
			return nil, "", err
		}
	}
	files, id := project.WriteDocument(files, project.SpecsFolder, project.SpecFileID, content)
	return files, id, nil
}

func questionMessage(env project.Env, c llm.Clarification) project.ChatMessage {
	actions := make([]project.ChatAction, len(c.Options))
	for i, opt := range c.Options {
		kind := project.ActionSecondary
		if opt == c.Recommendation {
			kind = project.ActionPrimary
		}
		actions[i] = project.ChatAction{
			ID:          fmt.Sprintf("opt-%d", i),
			Label:       opt,
			Kind:        kind,
			OperationID: intent.AnswerClarification.String(),
		}
	}
	return env.BotMessage("bot-q", c.Question, actions...)
}
