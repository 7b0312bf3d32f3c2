package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"speckit/internal/artifact"
	"speckit/internal/charter"
	"speckit/internal/clarify"
	"speckit/internal/intent"
	"speckit/internal/llm"
	"speckit/internal/platform"
	"speckit/internal/project"
	"speckit/internal/seed"
)

// turn accumulates the result of one stage.
type turn struct {
	ctx   context.Context
	env   project.Env
	state project.State
	res   project.Result
}

func newTurn(ctx context.Context, env project.Env, state project.State) *turn {
	return &turn{
		ctx:   ctx,
		env:   env,
		state: state,
		res: project.Result{
			Files:          state.Files,
			NextStep:       state.CurrentStep,
			ActiveFileID:   state.ActiveFileID,
			UpdatedContext: state.RequirementContext,
			UpdatedRound:   state.ClarificationRound,
			CompletedSteps: project.MergeSteps(state.CompletedSteps),
		},
	}
}

func (t *turn) say(content string, actions ...project.ChatAction) {
	t.res.Messages = append(t.res.Messages, t.env.BotMessage("bot", content, actions...))
}

// done records that the stage ran: the session moves to step and, when
// completed is set, step joins the completed list.
func (t *turn) done(step project.Step, completed bool) {
	t.res.NextStep = step
	if completed {
		t.res.CompletedSteps = project.MergeSteps(t.res.CompletedSteps, step)
	}
}

func (t *turn) phase(name string) context.Context { return llm.WithPhase(t.ctx, name) }

func (t *turn) systemContext(commandID, templateFolderID string, platforms []platform.Tag, withTemplates bool, standards ...string) string {
	b := charter.Collect(t.env.System, commandID, templateFolderID, platforms)
	if !withTemplates {
		b.Templates = nil
	}
	return b.SystemContext(standards...)
}

func nextAction(id, label string, op intent.Operation) project.ChatAction {
	return project.ChatAction{ID: id, Label: label, Kind: project.ActionPrimary, OperationID: op.String()}
}

var checklistAction = nextAction("act-check", "运行质量检查 (Checklist)", intent.RunChecklist)

// ---- regenerate_spec ----

var reSlugJunk = regexp.MustCompile(`[^a-zA-Z0-9-]`)

func cleanSlug(raw string) string {
	s := reSlugJunk.ReplaceAllString(strings.TrimSpace(raw), "")
	s = strings.ToLower(s)
	if len(s) > 40 {
		s = s[:40]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "update"
	}
	return s
}

func (t *turn) regenerateSpec() error {
	t.env.Report("正在重新生成完整需求文档...")
	contextText := t.state.RequirementContext

	var content, slug string
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1.5); err != nil {
			return err
		}
		content = mockRegeneratedSpec(contextText)
		slug = fmt.Sprintf("mock-%d", t.env.Timestamp())
	} else {
		var err error
		content, err = t.env.LLM.Complete(t.phase("regenerate_spec"), regeneratePrompt(contextText), clarify.SpecSystemContext(t.env, contextText), nil)
		if err != nil {
			return err
		}
		t.env.Report("正在生成版本命名...")
		raw, err := t.env.LLM.Complete(t.phase("slug"), slugPrompt(contextText), slugSystem, nil)
		if err != nil {
			return err
		}
		slug = cleanSlug(raw)
	}

	files, folderID := project.OutputFolder(t.res.Files, project.SpecsFolder)
	folder := artifact.Find(files, folderID)
	name := fmt.Sprintf("spec-%s.md", slug)
	for n := 1; artifact.FindChild(folder, name, artifact.KindFile) != nil || artifact.Find(files, name) != nil; n++ {
		name = fmt.Sprintf("spec-%s-%d.md", slug, n)
	}
	t.res.Files = artifact.AddNode(files, folderID, artifact.File(name, name, content))
	t.res.ActiveFileID = name
	if contextText != "" {
		t.done(project.StepSpecGenerated, false)
	}
	t.say("✅ 需求文档已重新生成为新版本: "+name, checklistAction)
	return nil
}

// ---- complete_spec ----

var (
	reSection4     = regexp.MustCompile(`(?m)^##\s+4(?:[.\s]|$)`)
	rePending      = regexp.MustCompile(`> \*\*Pending Generation`)
	rePendingBreak = regexp.MustCompile(`\n---\n> \*\*Pending`)
)

// spliceCompletion replaces section 4 onward with additional, separated by a
// rule. The cut is the section 4 heading, else the pending marker, else the
// end of the document. A pending notice left dangling above the cut is
// dropped with it. Applying it twice with the same additional text yields
// the same document.
func spliceCompletion(spec, additional string) string {
	cut := -1
	if loc := reSection4.FindStringIndex(spec); loc != nil {
		cut = loc[0]
	} else if loc := rePendingBreak.FindStringIndex(spec); loc != nil {
		cut = loc[0]
	} else if loc := rePending.FindStringIndex(spec); loc != nil {
		cut = loc[0]
	}

	head := spec
	if cut >= 0 {
		head = trimPendingTail(strings.TrimSpace(spec[:cut]))
		head = strings.TrimSpace(strings.TrimSuffix(head, "---"))
	}
	return head + "\n\n---\n" + additional
}

// trimPendingTail removes a trailing pending notice that no heading follows.
func trimPendingTail(head string) string {
	locs := rePending.FindAllStringIndex(head, -1)
	if len(locs) == 0 {
		return head
	}
	at := locs[len(locs)-1][0]
	if strings.Contains(head[at:], "\n#") {
		return head
	}
	return strings.TrimSpace(head[:at])
}

func (t *turn) completeSpec() error {
	t.env.Report("正在补全文档 (埋点/测试/知识库)...")
	spec, ok := project.Document(t.res.Files, project.SpecFileID)
	if !ok {
		return nil
	}

	var additional string
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1); err != nil {
			return err
		}
		additional = mockCompletion
	} else {
		prompt := completePrompt(spec,
			t.env.Standard(seed.StdTestID),
			t.env.Standard(seed.StdTestTableID),
			t.env.Standard(seed.StdKBID),
			charter.ProductCharter(t.env.System),
		)
		var err error
		additional, err = t.env.LLM.Complete(t.phase("complete_spec"), prompt, completeSystem, nil)
		if err != nil {
			return err
		}
	}

	t.res.Files = artifact.UpdateFileContent(t.res.Files, project.SpecFileID, spliceCompletion(spec, additional))
	t.done(project.StepSpecGenerated, false)
	t.say("✅ 文档已补全。已新增/更新：数据埋点、验收标准、知识库。\n\n下一步: 质量检查 (Checklist)", checklistAction)
	return nil
}

// ---- run_checklist ----

func (t *turn) runChecklist() error {
	t.env.Report("正在进行质量检查...")
	spec, ok := project.Document(t.res.Files, project.SpecFileID)
	if !ok {
		return nil
	}

	var report string
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1); err != nil {
			return err
		}
		report = mockChecklist
	} else {
		system := t.systemContext(seed.CmdChecklistID, seed.TemplatesID, platform.Detect(spec), false)
		var err error
		report, err = t.env.LLM.Complete(t.phase("checklist"), checklistPrompt(spec), system, nil)
		if err != nil {
			return err
		}
	}

	files, id := project.WriteDocument(t.res.Files, project.SpecsFolder, project.ChecklistFileID, report)
	t.res.Files = files
	t.res.ActiveFileID = id
	t.done(project.StepChecklist, true)
	t.say("✅ 检查报告已生成。请修复发现的问题，然后继续技术设计。",
		nextAction("act-tech", "生成技术方案 (Tech Design)", intent.RunTech))
	return nil
}

// ---- run_tech / run_autotest ----

// fileDocuments upserts docs by name into the named output folder. New
// files get ids derived from idPrefix. The first child of the folder
// becomes the active file.
func (t *turn) fileDocuments(folderName, idPrefix string, docs []llm.Document) {
	files, folderID := project.OutputFolder(t.res.Files, folderName)
	ts := t.env.Timestamp()
	for _, d := range docs {
		files, _ = artifact.UpsertFile(files, folderID, artifact.File(fmt.Sprintf("%s-%s-%d", idPrefix, d.Name, ts), d.Name, d.Content))
	}
	t.res.Files = files
	if folder := artifact.Find(files, folderID); folder != nil && len(folder.Children) > 0 {
		t.res.ActiveFileID = folder.Children[0].ID
	}
}

func (t *turn) runTech() error {
	t.env.Report("正在生成技术方案...")
	spec, ok := project.Document(t.res.Files, project.SpecFileID)
	if !ok {
		return nil
	}
	platforms := platform.Detect(spec)

	var docs []llm.Document
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1.5); err != nil {
			return err
		}
		docs = mockTechDocs(platforms)
	} else {
		system := t.systemContext(seed.CmdTechID, seed.TechTemplatesID, platforms, true)
		var err error
		docs, err = t.env.LLM.CompleteMultiDocument(t.phase("tech"), techPrompt(spec, platforms), system)
		if err != nil {
			return err
		}
	}

	t.fileDocuments(project.TechFolder, "tech", docs)
	t.done(project.StepTechDetail, true)
	t.say(fmt.Sprintf("✅ 技术方案 (%d files) 已生成。", len(docs)),
		nextAction("act-test", "生成测试计划 (AutoTest)", intent.RunAutotest))
	return nil
}

func (t *turn) runAutotest() error {
	t.env.Report("正在生成自动化测试计划...")
	spec, ok := project.Document(t.res.Files, project.SpecFileID)
	if !ok {
		return nil
	}
	platforms := platform.Detect(spec)

	var docs []llm.Document
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1.5); err != nil {
			return err
		}
		docs = []llm.Document{{Name: "test-plan.md", Content: mockTestPlan}}
	} else {
		system := t.systemContext(seed.CmdAutotestID, seed.AutotestTemplatesID, platforms, true)
		var err error
		docs, err = t.env.LLM.CompleteMultiDocument(t.phase("autotest"), autotestPrompt(spec, platforms), system)
		if err != nil {
			return err
		}
	}

	t.fileDocuments(project.TestPlansFolder, "test", docs)
	t.done(project.StepAutotest, true)
	t.say("✅ 测试计划已生成。", nextAction("act-tasks", "生成任务分解 (Tasks)", intent.RunTasks))
	return nil
}

// ---- run_tasks ----

func (t *turn) runTasks() error {
	t.env.Report("正在分解任务...")
	spec, ok := project.Document(t.res.Files, project.SpecFileID)
	if !ok {
		return nil
	}

	var tasks string
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1); err != nil {
			return err
		}
		tasks = mockTasks
	} else {
		system := t.systemContext(seed.CmdTasksID, seed.TemplatesID, platform.Detect(spec), false)
		var err error
		tasks, err = t.env.LLM.Complete(t.phase("tasks"), tasksPrompt(spec), system, nil)
		if err != nil {
			return err
		}
	}

	files, id := project.WriteDocument(t.res.Files, project.ManagementFolder, project.TasksFileID, tasks)
	t.res.Files = files
	t.res.ActiveFileID = id
	t.done(project.StepTasks, true)
	t.say("✅ 任务分解已完成。", nextAction("act-imp", "生成代码 (Implement)", intent.RunImplement))
	return nil
}

// ---- run_analyze ----

func (t *turn) runAnalyze() error {
	t.env.Report("正在进行一致性分析...")
	spec, ok := project.Document(t.res.Files, project.SpecFileID)
	if !ok {
		return nil
	}

	var report string
	if t.env.Mock() {
		if err := t.env.SimulateLatency(t.ctx, 1); err != nil {
			return err
		}
		report = mockAnalysis
	} else {
		docs := []namedDoc{{name: project.SpecFileID, content: spec}}
		if checklist, ok := project.Document(t.res.Files, project.ChecklistFileID); ok {
			docs = append(docs, namedDoc{name: project.ChecklistFileID, content: checklist})
		}
		if len(t.res.Files) > 0 {
			if tech := artifact.FindChild(t.res.Files[0], project.TechFolder, artifact.KindFolder); tech != nil {
				for _, f := range artifact.CollectFiles(tech) {
					docs = append(docs, namedDoc{name: f.Name, content: f.Content})
				}
			}
		}
		system := t.systemContext(seed.CmdAnalyzeID, seed.TemplatesID, platform.Detect(spec), false)
		var err error
		report, err = t.env.LLM.Complete(t.phase("analyze"), analyzePrompt(docs), system, nil)
		if err != nil {
			return err
		}
	}

	files, id := project.WriteDocument(t.res.Files, project.SpecsFolder, project.AnalysisFileID, report)
	t.res.Files = files
	t.res.ActiveFileID = id
	t.done(project.StepAnalyze, true)
	t.say("✅ 一致性分析报告 (analysis.md) 已生成。", nextAction("act-tasks", "生成任务分解 (Tasks)", intent.RunTasks))
	return nil
}

// ---- run_implement ----

func (t *turn) runImplement() error {
	t.say("💻 代码生成功能正在开发中 (Coming Soon)...")
	return nil
}
