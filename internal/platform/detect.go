// Package platform infers which platform domains a piece of text concerns.
package platform

import (
	"strings"

	"golang.org/x/text/width"
)

// Tag is a platform domain used to select charters and templates.
type Tag string

const (
	Backend  Tag = "backend"
	Web      Tag = "web"
	App      Tag = "app"
	PC       Tag = "pc"
	Firmware Tag = "firmware"
	UI       Tag = "ui"
)

// Fallback is returned when no keyword matches.
var Fallback = []Tag{Backend, Web}

// Matching is by plain substring, not tokens: "api" also hits "rapid".
// Charter folder and template names key off the same tags.
var keywords = []struct {
	tag   Tag
	words []string
}{
	{Backend, []string{"backend", "api", "server", "java", "node", "nest"}},
	{Web, []string{"web", "frontend", "react", "vue", "browser"}},
	{App, []string{"app", "mobile", "ios", "android", "flutter"}},
	{PC, []string{"pc", "desktop", "windows", "mac", "electron"}},
	{Firmware, []string{"firmware", "embedded", "hardware", "iot"}},
	{UI, []string{"ui", "design", "ux", "figma"}},
}

// Detect returns the tags whose keywords occur in text, in fixed tag order.
func Detect(text string) []Tag {
	lower := strings.ToLower(width.Fold.String(text))
	var out []Tag
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				out = append(out, k.tag)
				break
			}
		}
	}
	if len(out) == 0 {
		return append([]Tag(nil), Fallback...)
	}
	return out
}

// Strings converts tags to plain strings.
func Strings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
