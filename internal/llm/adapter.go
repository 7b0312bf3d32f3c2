package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

const clarifySystem = `
You are an expert Product Manager.
Your goal is to clarify requirements before writing a spec.
If images are provided, use them to understand the requirement context.

SYSTEM STATUS: If the user is asking for changes to an existing spec (Refinement Mode), assume reasonable defaults and set isEnough: true unless a critical decision is missing. Do not ask trivial questions.

Return ONLY valid JSON in the following format:
{
    "question": "Question text in Chinese",
    "options": ["Option A", "Option B", "Option C"],
    "recommendation": "Option A",
    "isEnough": boolean
}
`

const multiDocumentRule = `

CRITICAL OUTPUT RULE:
You must output a strictly valid JSON object where keys are filenames and values are the file content.
Do NOT output Markdown. Do NOT output code blocks (like ` + "```json" + `). Just the raw JSON string.

Example:
{
   "backend.md": "# Backend Design\n...",
   "web.md": "# Web Design\n..."
}
`

// ErrorLogName is the single document returned when multi-document
// generation fails.
const ErrorLogName = "error_log.md"

// Clarification is the structured answer of a clarification round.
type Clarification struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	Recommendation string   `json:"recommendation"`
	IsEnough       bool     `json:"isEnough"`
}

// FallbackClarification is used whenever the backend cannot produce a
// usable clarification. It lets the user proceed to generation.
var FallbackClarification = Clarification{
	Question:       "需求信息已基本明确，是否直接生成需求文档？",
	Options:        []string{"直接生成文档", "继续补充需求"},
	Recommendation: "直接生成文档",
	IsEnough:       true,
}

// Document is one named output of a multi-document call.
type Document struct {
	Name    string
	Content string
}

// Adapter exposes the call shapes the workflow needs on top of an LLMClient.
// Every method returns ErrCanceled when ctx is canceled before the backend
// answers, and never returns partial output in that case.
type Adapter struct {
	client LLMClient
}

func NewAdapter(client LLMClient) *Adapter {
	return &Adapter{client: client}
}

// Available reports whether a real backend is configured.
func (a *Adapter) Available() bool { return a != nil && a.client != nil }

// Complete generates one Markdown document.
func (a *Adapter) Complete(ctx context.Context, prompt, system string, images []Image) (string, error) {
	out, err := a.call(withDefaultPhase(ctx, "document"), "complete", Request{
		System:      system,
		Prompt:      prompt,
		Images:      images,
		Temperature: Temperature(0.7),
	})
	if err != nil {
		return "", err
	}
	return CleanMarkdown(out), nil
}

// CompleteStructured asks for the next clarification question. Backend and
// decode failures yield FallbackClarification; only cancellation is an error.
func (a *Adapter) CompleteStructured(ctx context.Context, contextText string, round int, images []Image) (Clarification, error) {
	prompt := fmt.Sprintf(`
Context so far: %s
Current Round: %d/5

Task:
1. If the requirement is vague, ask a clarifying question (single choice preferred).
2. Provide 2-4 distinct options for the user to click.
3. If the requirement is very clear, set "isEnough" to true.
4. Output strictly valid JSON.
`, contextText, round)

	out, err := a.call(withDefaultPhase(ctx, "clarify"), "clarify", Request{
		System: clarifySystem,
		Prompt: prompt,
		Images: images,
		JSON:   true,
	})
	if errors.Is(err, ErrCanceled) {
		return Clarification{}, err
	}
	if err != nil {
		log.Printf("llm: clarify fallback: %v", err)
		return fallbackClarification(), nil
	}
	var c Clarification
	if err := json.Unmarshal([]byte(stripFences(out)), &c); err != nil {
		log.Printf("llm: clarify fallback: %v: %v", ErrInvalidJSON, err)
		return fallbackClarification(), nil
	}
	return c, nil
}

// CompleteMultiDocument generates several named documents in one call. The
// documents keep the order the backend emitted them in. Failures yield a
// single ErrorLogName document; only cancellation is an error.
func (a *Adapter) CompleteMultiDocument(ctx context.Context, prompt, system string) ([]Document, error) {
	out, err := a.call(withDefaultPhase(ctx, "multi_document"), "multi_document", Request{
		System: system + multiDocumentRule,
		Prompt: prompt,
		JSON:   true,
	})
	if errors.Is(err, ErrCanceled) {
		return nil, err
	}
	if err == nil {
		var docs []Document
		docs, err = decodeDocuments(stripFences(out))
		if err == nil {
			return docs, nil
		}
	}
	log.Printf("llm: multi document fallback: %v", err)
	return []Document{{Name: ErrorLogName, Content: fmt.Sprintf("Generation Failed: %v", err)}}, nil
}

// Classify returns the backend's trimmed one-token answer.
func (a *Adapter) Classify(ctx context.Context, system, input string) (string, error) {
	out, err := a.call(withDefaultPhase(ctx, "classify"), "classify", Request{
		System:      system,
		Prompt:      input,
		Temperature: Temperature(0.1),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

type callResult struct {
	out string
	err error
}

func (a *Adapter) call(ctx context.Context, op string, req Request) (string, error) {
	if !a.Available() {
		return "", &CallError{Op: op, Err: errors.New("no backend configured")}
	}
	if err := ctx.Err(); err != nil {
		return "", ctxError(op, err)
	}
	done := make(chan callResult, 1)
	go func() {
		out, err := a.client.Generate(ctx, req)
		done <- callResult{out: out, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctxError(op, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxError(op, ctxErr)
			}
			return "", &CallError{Op: op, Err: r.err}
		}
		return r.out, nil
	}
}

func ctxError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	return &CallError{Op: op, Err: err}
}

func withDefaultPhase(ctx context.Context, phase string) context.Context {
	if PhaseFrom(ctx) != "unknown" {
		return ctx
	}
	return WithPhase(ctx, phase)
}

func fallbackClarification() Clarification {
	c := FallbackClarification
	c.Options = append([]string(nil), c.Options...)
	return c
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeDocuments reads a flat JSON object while preserving key order.
func decodeDocuments(s string) ([]Document, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrInvalidJSON)
	}
	var docs []Document
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		name, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			content = string(bytes.TrimSpace(raw))
		}
		docs = append(docs, Document{Name: name, Content: CleanMarkdown(content)})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", ErrInvalidJSON)
	}
	return docs, nil
}

// ImageFromDataURL decodes a data URL ("data:image/png;base64,...") or a
// bare base64 payload.
func ImageFromDataURL(mimeType, data string) (Image, error) {
	if i := strings.IndexByte(data, ','); i >= 0 {
		if mimeType == "" && strings.HasPrefix(data, "data:") {
			mimeType = strings.TrimSuffix(data[len("data:"):i], ";base64")
		}
		data = data[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}
	return Image{MIMEType: mimeType, Data: raw}, nil
}
