package project

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"speckit/internal/artifact"
	"speckit/internal/llm"
)

// ProgressFunc receives short status strings while a turn runs.
type ProgressFunc func(status string)

// Env is everything a turn needs besides the session state.
type Env struct {
	// LLM is nil (or has no client) in mock mode.
	LLM *llm.Adapter
	// System is the charter/standard/template library.
	System artifact.Tree
	// Progress may be nil.
	Progress ProgressFunc
	// MockDelay scales the simulated latency of mock generation. Zero
	// disables it.
	MockDelay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Mock reports whether generation is simulated.
func (e Env) Mock() bool { return !e.LLM.Available() }

// Report forwards a status string to the progress sink.
func (e Env) Report(status string) {
	if e.Progress != nil {
		e.Progress(status)
	}
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Timestamp returns the current time in Unix milliseconds.
func (e Env) Timestamp() int64 { return e.now().UnixMilli() }

// MessageID returns a unique id with the given prefix.
func (e Env) MessageID(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, e.Timestamp(), uuid.NewString()[:8])
}

// BotMessage builds a bot message stamped with the current time.
func (e Env) BotMessage(prefix, content string, actions ...ChatAction) ChatMessage {
	return ChatMessage{
		ID:        e.MessageID(prefix),
		Author:    AuthorBot,
		Content:   content,
		Timestamp: e.Timestamp(),
		Actions:   actions,
	}
}

// SimulateLatency waits weight*MockDelay in mock mode, returning
// llm.ErrCanceled if ctx is canceled first.
func (e Env) SimulateLatency(ctx context.Context, weight float64) error {
	d := time.Duration(float64(e.MockDelay) * weight)
	if d <= 0 {
		if ctx.Err() != nil {
			return llm.ErrCanceled
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return llm.ErrCanceled
	case <-timer.C:
		return nil
	}
}

// Images converts attachments to backend image parts. Undecodable
// attachments are skipped.
func Images(atts []Attachment) []llm.Image {
	out := make([]llm.Image, 0, len(atts))
	for _, a := range atts {
		img, err := llm.ImageFromDataURL(a.MIMEType, a.Data)
		if err != nil {
			log.Printf("project: skip attachment %s: %v", a.ID, err)
			continue
		}
		out = append(out, img)
	}
	return out
}

// OutputFolder returns the id of the subfolder of the output root named
// name, creating the root and the subfolder as needed.
func OutputFolder(files artifact.Tree, name string) (artifact.Tree, string) {
	if len(files) == 0 || !files[0].IsFolder() {
		files = append(DefaultFiles(), files...)
	}
	return artifact.EnsureFolder(files, files[0].ID, name)
}

// Standard returns the content of the standard document with the given id,
// or "" when it is missing.
func (e Env) Standard(id string) string {
	content, _ := artifact.FileContent(e.System, id)
	return content
}
