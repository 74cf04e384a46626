// Package transcript reconciles agent task events, delivered by stream or by
// poll, into a stable de-duplicated conversation transcript.
package transcript

import (
	"encoding/json"
	"strings"
)

// Media kinds for rendered content parts.
const (
	MediaKindText = "text/plain"
	MediaKindData = "application/json"
	MediaKindForm = "form"
)

// ContentPart is one rendered piece of a turn: plain text, structured data or
// a form definition.
type ContentPart struct {
	// MediaKind selects how the part is rendered.
	MediaKind string `json:"mediaKind"`
	// Text holds the content when MediaKind is text.
	Text string `json:"text,omitempty"`
	// Data holds the content when MediaKind is data or form.
	Data map[string]interface{} `json:"data,omitempty"`
}

// IsEmpty reports whether the part carries no content at all.
func (p ContentPart) IsEmpty() bool {
	if p.MediaKind == MediaKindText {
		return strings.TrimSpace(p.Text) == ""
	}
	return p.Data == nil
}

// Turn is one logical transcript entry. Turns are append-only: once created
// the only permitted mutation is incrementing RepeatCount when an exact
// back-to-back duplicate is folded into it.
type Turn struct {
	// Stable identity of the turn.
	ID string `json:"id"`
	// Actor that produced the turn: "user" or an agent identifier.
	Actor string `json:"actor"`
	// Role is "user" or "agent".
	Role string `json:"role"`
	// Ordered content parts.
	Parts []ContentPart `json:"parts"`
	// Timestamp in epoch seconds.
	Timestamp float64 `json:"timestamp"`
	// RepeatCount is how many identical consecutive deliveries this turn
	// represents. Always >= 1.
	RepeatCount int `json:"repeatCount"`
}

// RenderedText flattens the turn's parts into one comparable string. Used for
// repeat folding: two turns with equal role and rendered text are considered
// duplicate deliveries.
func (t Turn) RenderedText() string {
	rendered := make([]string, 0, len(t.Parts))
	for _, part := range t.Parts {
		switch part.MediaKind {
		case MediaKindText:
			rendered = append(rendered, part.Text)
		default:
			if part.Data == nil {
				continue
			}
			b, err := json.Marshal(part.Data)
			if err != nil {
				continue
			}
			rendered = append(rendered, string(b))
		}
	}
	return strings.TrimSpace(strings.Join(rendered, "\n"))
}

// HasContent reports whether at least one part carries content.
func (t Turn) HasContent() bool {
	for _, part := range t.Parts {
		if !part.IsEmpty() {
			return true
		}
	}
	return false
}
