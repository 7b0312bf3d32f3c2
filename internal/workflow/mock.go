package workflow

import (
	"fmt"
	"strings"

	"speckit/internal/llm"
	"speckit/internal/platform"
)

// Canned documents produced when no backend is configured.

func mockRegeneratedSpec(contextText string) string {
	return "# 需求规格说明书 (Full Regen)\n\nBased on " + contextText
}

const mockCompletion = "\n## 4. 数据埋点设计\n- Mock Data Event 1\n## 5. 测试验收标准\n- Mock Test Case 1\n## 6. 词条与知识库\n- Mock Term 1"

const mockChecklist = "# Quality Checklist\n- [x] Principle 1 checked\n- [ ] Issue found in section 2"

func mockTechDocs(platforms []platform.Tag) []llm.Document {
	docs := make([]llm.Document, 0, len(platforms))
	for _, p := range platforms {
		docs = append(docs, llm.Document{
			Name:    fmt.Sprintf("tech-%s.md", p),
			Content: fmt.Sprintf("# %s Technical Design (Mock)\n\nBased on Spec...", strings.ToUpper(string(p))),
		})
	}
	return docs
}

const mockTestPlan = "# Automation Test Plan (Mock)"

const mockTasks = "# Tasks (Mock)\n- [ ] Task 1"

const mockAnalysis = "# Consistency Analysis (Mock)\n- [x] Spec and checklist are aligned\n- [ ] Tech design does not cover every acceptance criterion"
