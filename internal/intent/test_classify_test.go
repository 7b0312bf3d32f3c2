package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speckit/internal/llm"
)

type stubClassifier struct {
	out   string
	err   error
	calls int
}

func (s *stubClassifier) Classify(ctx context.Context, system, input string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestFastPath(t *testing.T) {
	cases := map[string]Operation{
		"重新生成一版":             RegenerateSpec,
		"Rewrite it":         RegenerateSpec,
		"补全文档":               CompleteSpec,
		"检查一下":               RunChecklist,
		"CHECKLIST":          RunChecklist,
		"技术方案":               RunTech,
		"design docs please": RunTech,
		"test plan":          RunAutotest,
		"任务分解":               RunTasks,
		"implement":          RunImplement,
		"一致性":                RunAnalyze,
	}
	for in, want := range cases {
		r, ok := MatchFastPath(in)
		require.True(t, ok, in)
		assert.Equal(t, want, r.Op, in)
		assert.True(t, r.FastPath)
	}
}

func TestFastPathIsAnchored(t *testing.T) {
	_, ok := MatchFastPath("please run the checklist")
	assert.False(t, ok)
}

func TestFastPathNeverCallsBackend(t *testing.T) {
	backend := &stubClassifier{out: "chat"}
	r, err := NewDetector(backend).Detect(context.Background(), "技术方案")
	require.NoError(t, err)
	assert.Equal(t, RunTech, r.Op)
	assert.Zero(t, backend.calls)
}

func TestLongInputSkipsFastPath(t *testing.T) {
	long := "技术方案" + strings.Repeat("很长的需求描述", 10)
	_, ok := MatchFastPath(long)
	assert.False(t, ok)

	backend := &stubClassifier{out: "chat"}
	r, err := NewDetector(backend).Detect(context.Background(), long)
	require.NoError(t, err)
	assert.Equal(t, Chat, r.Op)
	assert.Equal(t, 1, backend.calls)
}

func TestFastPathLengthCountsCharacters(t *testing.T) {
	in := "检查" + strings.Repeat("中", 57)
	_, ok := MatchFastPath(in)
	assert.True(t, ok, "59 characters is below the limit even though it is many bytes")
}

func TestBackendClassification(t *testing.T) {
	r, err := NewDetector(&stubClassifier{out: " `run_analyze` "}).Detect(context.Background(), "看看文档之间有没有冲突")
	require.NoError(t, err)
	assert.Equal(t, RunAnalyze, r.Op)
	assert.True(t, r.Dispatchable())

	r, err = NewDetector(&stubClassifier{out: "run_autotest_scripts"}).Detect(context.Background(), "写些脚本")
	require.NoError(t, err)
	assert.Equal(t, RunAutotestScripts, r.Op)
	assert.True(t, r.Dispatchable())
}

func TestBackendFailureIsChat(t *testing.T) {
	r, err := NewDetector(&stubClassifier{err: errors.New("down")}).Detect(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Chat, r.Op)
	assert.False(t, r.Dispatchable())
}

func TestBackendCancellationPropagates(t *testing.T) {
	_, err := NewDetector(&stubClassifier{err: llm.ErrCanceled}).Detect(context.Background(), "hello")
	assert.ErrorIs(t, err, llm.ErrCanceled)
}

func TestNoBackendIsChat(t *testing.T) {
	r, err := NewDetector(nil).Detect(context.Background(), "我想做一个扫码入库功能")
	require.NoError(t, err)
	assert.Equal(t, Chat, r.Op)
}

func TestDispatchable(t *testing.T) {
	assert.True(t, Result{Op: Unknown, ID: "run_something_new"}.Dispatchable())
	assert.False(t, Result{Op: Unknown, ID: "hello"}.Dispatchable())
	assert.True(t, Result{Op: CompleteSpec, ID: "complete_spec"}.Dispatchable())
	assert.False(t, Result{Op: AnswerClarification, ID: "answer_clarification"}.Dispatchable())
}

func TestParse(t *testing.T) {
	for op := Chat; op <= AnswerClarification; op++ {
		assert.Equal(t, op, Parse(op.String()))
	}
	assert.Equal(t, Unknown, Parse("unknown"))
	assert.Equal(t, Unknown, Parse("nope"))
	assert.Equal(t, "unknown", Operation(99).String())
}
