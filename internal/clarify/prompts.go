package clarify

import "fmt"

const refinementNote = "\n[SYSTEM STATUS: Specification Document has been generated. User is providing feedback/refinement.]"

func specPrompt(contextText string) string {
	return fmt.Sprintf(`
Target: Generate "Requirement Specification" (spec.md).
Input Requirement Context: %s

INSTRUCTION:
1. Find the "spec.md" template in the provided TEMPLATES section of the context.
2. Output the full document using that EXACT structure.
3. Fill in Section 1, 2, 3 based on the Input Context.
4. Leave Section 4, 5, 6 as "Pending Generation" as defined in the template.
`, contextText)
}

func mockSpec(contextText string) string {
	return fmt.Sprintf("# 需求规格说明书 (Mock)\n\n## 1. 概述\n基于: %s\n\n## 2. 功能清单...", contextText)
}

const specDoneMessage = "✅ 规格文档 (spec.md) 已生成。已应用标准: 知识库、Markdown、埋点设计。\n\n下一步: 质量检查 (Checklist)"
