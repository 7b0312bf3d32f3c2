package workflow

import (
	"fmt"
	"strings"

	"speckit/internal/platform"
)

func regeneratePrompt(contextText string) string {
	return fmt.Sprintf(`
Target: REGENERATE the "Requirement Specification" (spec.md) completely from scratch.
Input Requirement Context: %s

INSTRUCTION:
1. Find the "spec.md" template in the context.
2. Output the FULL DOCUMENT filling ALL SECTIONS (1 through 6).
3. Do NOT leave anything as "Pending Generation". Fill Data Tracking, Acceptance Criteria, and KB based on the requirements.
`, contextText)
}

const slugSystem = "You are a naming assistant. Output only the kebab-case string."

func slugPrompt(contextText string) string {
	return fmt.Sprintf(`
Analyze the following requirement context and extract the main feature or update topic.
Context: %s

Output strictly a short filename suffix in English (kebab-case, max 5 words).
Example: "add-offline-mode", "payment-integration", "user-login-refactor".
Do NOT output markdown or file extensions.
`, contextText)
}

const completeSystem = "You are a QA and Data Specialist."

func completePrompt(spec string, standards ...string) string {
	return fmt.Sprintf(`
Source Spec:
%s

Task:
Generate Section 4 (Data Tracking), Section 5 (Acceptance Criteria), and Section 6 (Glossary/KB) based on the source spec.

Standards:
%s

Output strictly Markdown starting with "## 4. 数据埋点设计".
`, spec, strings.Join(standards, "\n"))
}

func checklistPrompt(spec string) string {
	return "Check this spec against charters:\n" + spec
}

func techPrompt(spec string, platforms []platform.Tag) string {
	return fmt.Sprintf(`
Requirement: %s
Target Platforms: %s

Task: Generate a technical design document for EACH platform.

CRITICAL INSTRUCTIONS (CONSTRAINT ANALYSIS):
1. **SCAN CHARTERS FIRST**: Before writing a single line of code design, scan the provided "CONSTITUTION / CHARTERS" context for keywords found in the Requirement (e.g., "MQTT", "Bluetooth", "Payment", "Database").
2. **APPLY SUB-CHARTERS**: If a sub-charter exists (e.g., "sub-mqtt-rules.md"), you MUST follow its rules. For example, if the charter says "Use Protobuf for MQTT", do NOT propose JSON.
3. **TEMPLATE MATCHING**: For each platform, locate the specific template in the context (e.g. "web-template.md").
4. **STRICT OUTPUT**: Your output for that file MUST strictly follow the headers and structure of that specific template.

If you find a technical constraint in the charters (e.g. "Use Hive for local storage"), explicitly mention "As per Charter X..." in your design decision.
`, spec, strings.Join(platform.Strings(platforms), ", "))
}

func autotestPrompt(spec string, platforms []platform.Tag) string {
	return fmt.Sprintf(`
Requirement: %s
Platforms: %s
Task: Generate Automation Test Plans.

INSTRUCTIONS:
1. Use the provided "autotest" templates matching the platforms.
2. Strictly follow the template structure.
`, spec, strings.Join(platform.Strings(platforms), ", "))
}

func tasksPrompt(spec string) string {
	return "Generate Task List for:\n" + spec
}

// analyzePrompt lists each document under its own header so findings can
// cite the file they come from.
func analyzePrompt(docs []namedDoc) string {
	var sb strings.Builder
	sb.WriteString("Analyze the consistency of the following documents against each other and against the charters.\n")
	sb.WriteString("Report contradictions, gaps and ambiguous requirements as a Markdown checklist grouped by document.\n")
	for _, d := range docs {
		fmt.Fprintf(&sb, "\n--- DOCUMENT: %s ---\n%s\n", d.name, d.content)
	}
	return sb.String()
}

type namedDoc struct {
	name    string
	content string
}
