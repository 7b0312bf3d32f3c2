package intent

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"speckit/internal/llm"
)

// fastPathLimit bounds the regex fast path; longer input is usually a
// requirement description that happens to start with a keyword.
const fastPathLimit = 60

var fastPath = []struct {
	op Operation
	re *regexp.Regexp
}{
	{RegenerateSpec, regexp.MustCompile(`(?i)^(重新生成|完整生成|重写|regenerate|rewrite)`)},
	{CompleteSpec, regexp.MustCompile(`(?i)^(补全|埋点|测试标准|验收标准|知识库|enrich)`)},
	{RunChecklist, regexp.MustCompile(`(?i)^(检查|质量|checklist|review)`)},
	{RunTech, regexp.MustCompile(`(?i)^(技术方案|架构|tech|design)`)},
	{RunAutotest, regexp.MustCompile(`(?i)^(测试计划|test plan|cases)`)},
	{RunTasks, regexp.MustCompile(`(?i)^(任务|分解|tasks)`)},
	{RunImplement, regexp.MustCompile(`(?i)^(实施|代码|code|implement)`)},
	{RunAnalyze, regexp.MustCompile(`(?i)^(分析|一致性|analyze)`)},
}

const dispatcherSystem = `
You are a command dispatcher for the SpecKit system.
Map user input to one of the following COMMAND_IDs:

- regenerate_spec: Full rewrite of the spec document (keywords: 重新生成, 完整生成, 重写, regenerate full, rewrite)
- complete_spec: Enrich existing spec with tracking/testing (keywords: 补全, 埋点, 验收标准, enrich spec)
- run_checklist: Run quality checklist (keywords: 检查, 质量, review, checklist)
- run_tech: Generate technical design/architecture (keywords: 技术方案, 架构, tech spec, design docs)
- run_autotest: Generate test plan/cases (keywords: 测试计划, test plan, cases)
- run_autotest_scripts: Generate test scripts/CI config (keywords: 脚本, script, CI/CD, execution)
- run_tasks: Generate task list (keywords: 任务, tasks, breakdown)
- run_implement: Simulate implementation/coding (keywords: 实施, 代码, code, implement)
- run_analyze: Run consistency analysis (keywords: 分析, 一致性, analyze, scan)

If the input is a regular chat message, requirement description, or clarification answer, or is longer than 50 characters, return "chat".

Return STRICTLY just the COMMAND_ID string or "chat". No Markdown, no quotes.
`

// Classifier is the backend capability the detector needs.
type Classifier interface {
	Classify(ctx context.Context, system, input string) (string, error)
}

// Result is a detected intent. ID carries the raw id even when Op is
// Unknown so that handlers can still echo it.
type Result struct {
	Op       Operation
	ID       string
	FastPath bool
}

// Dispatchable reports whether the result should bypass the conversational
// flow and run a stage directly.
func (r Result) Dispatchable() bool {
	if r.Op == Chat {
		return false
	}
	return strings.HasPrefix(r.ID, "run_") || r.Op == CompleteSpec || r.Op == RegenerateSpec
}

// Detector classifies utterances. A nil backend means every utterance that
// misses the fast path is chat.
type Detector struct {
	backend Classifier
}

func NewDetector(backend Classifier) *Detector {
	return &Detector{backend: backend}
}

// Detect returns the intent of utterance. Backend failures resolve to Chat;
// the only error is llm.ErrCanceled.
func (d *Detector) Detect(ctx context.Context, utterance string) (Result, error) {
	if r, ok := MatchFastPath(utterance); ok {
		return r, nil
	}
	if d == nil || d.backend == nil {
		return chat(), nil
	}
	raw, err := d.backend.Classify(llm.WithPhase(ctx, "classify"), dispatcherSystem, utterance)
	if errors.Is(err, llm.ErrCanceled) {
		return Result{}, err
	}
	if err != nil {
		log.Printf("intent: classify failed, treating as chat: %v", err)
		return chat(), nil
	}
	id := strings.Trim(strings.TrimSpace(raw), "`\"'")
	if id == "" {
		return chat(), nil
	}
	return Result{Op: Parse(id), ID: id}, nil
}

// MatchFastPath applies the anchored keyword table. Only utterances shorter
// than fastPathLimit characters are considered.
func MatchFastPath(utterance string) (Result, bool) {
	if utf8.RuneCountInString(utterance) >= fastPathLimit {
		return Result{}, false
	}
	for _, fp := range fastPath {
		if fp.re.MatchString(utterance) {
			return Result{Op: fp.op, ID: fp.op.String(), FastPath: true}, true
		}
	}
	return Result{}, false
}

func chat() Result { return Result{Op: Chat, ID: Chat.String()} }
