package clarify

import "speckit/internal/llm"

// mockClarification is the scripted dialogue used without a backend: two
// questions, then a confirmation that marks the requirement as clear.
func mockClarification(round int) llm.Clarification {
	switch round {
	case 0:
		return llm.Clarification{
			Question:       "这个功能主要面向什么用户群体？",
			Options:        []string{"C端普通用户", "B端企业用户", "内部管理员"},
			Recommendation: "C端普通用户",
		}
	case 1:
		return llm.Clarification{
			Question:       "主要涉及哪些平台？",
			Options:        []string{"仅移动端App", "Web + App", "全平台 (Web/App/PC)"},
			Recommendation: "Web + App",
		}
	}
	return llm.Clarification{
		Question:       "是否需要生成需求文档？",
		Options:        []string{"生成文档", "继续补充"},
		Recommendation: "生成文档",
		IsEnough:       true,
	}
}
