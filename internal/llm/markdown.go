package llm

import "strings"

// CleanMarkdown strips bold markers from table rows. Other lines are left
// untouched.
func CleanMarkdown(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			line = strings.ReplaceAll(line, "**", "")
			lines[i] = strings.ReplaceAll(line, "__", "")
		}
	}
	return strings.Join(lines, "\n")
}
