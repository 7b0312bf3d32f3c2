package llm

import (
	"encoding/base64"
	"regexp"
)

var (
	reDataURL = regexp.MustCompile(`(?is)\bdata:(image|video|audio)/[a-z0-9+.-]+;base64,[a-z0-9+/=\r\n]+`)
	reImgTag  = regexp.MustCompile(`(?is)<img[^>]*src=["']data:(image)/[^"']+["'][^>]*>`)
)

const redacted = "[REDACTED media]"

// RedactMedia walks any JSON-like value and replaces media payloads with a marker.
func RedactMedia(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = RedactMedia(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = RedactMedia(vv)
		}
		return out
	case string:
		if reDataURL.MatchString(x) || reImgTag.MatchString(x) || looksLikeBase64Image(x) {
			return redacted
		}
		return x
	case []Image:
		out := make([]any, len(x))
		for i, img := range x {
			out[i] = map[string]any{"mimeType": img.MIMEType, "bytes": len(img.Data), "data": redacted}
		}
		return out
	default:
		return v
	}
}

func looksLikeBase64Image(s string) bool {
	if len(s) < 512 {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
