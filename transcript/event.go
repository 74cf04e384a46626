package transcript

import (
	"fmt"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
)

// RawEvent is one inbound unit from either transport: a polled backend event
// or a stream frame already normalized to the event shape. It is transient,
// consumed into at most one Turn.
type RawEvent struct {
	// Server-assigned event ID. May be empty for some poll sources.
	ID string `json:"id,omitempty"`
	// Actor that produced the event: "user" or an agent identifier.
	Actor string `json:"actor"`
	// Content carried by the event.
	Content *a2aSchema.Message `json:"content,omitempty"`
	// Timestamp in epoch seconds.
	Timestamp float64 `json:"timestamp"`
}

// metadataString reads a string value out of the content metadata.
func (e RawEvent) metadataString(key string) string {
	if e.Content == nil || e.Content.Metadata == nil {
		return ""
	}
	if v, ok := (*e.Content.Metadata)[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ConversationID returns the conversation the event belongs to, or "" when
// the event carries no conversation metadata.
func (e RawEvent) ConversationID() string {
	return e.metadataString("conversation_id")
}

// MessageID returns the stable message identity for the resulting turn: the
// upstream message ID when present, otherwise the event ID.
func (e RawEvent) MessageID() string {
	if id := e.metadataString("message_id"); id != "" {
		return id
	}
	return e.ID
}

// Identity returns the dedup identity of the event. Events without a server
// ID fall back to a composite of actor, conversation, rendered content and
// timestamp.
func (e RawEvent) Identity() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s|%s|%s|%.6f", e.Actor, e.ConversationID(), e.Turn().RenderedText(), e.Timestamp)
}

// Role derives the transcript role: the user actor is "user", anything else
// uses the content role, defaulting to "agent".
func (e RawEvent) Role() string {
	if e.Actor == "user" {
		return "user"
	}
	if e.Content != nil && e.Content.Role != "" {
		return e.Content.Role
	}
	return "agent"
}

// Turn converts the event into a candidate transcript turn with RepeatCount 1.
func (e RawEvent) Turn() Turn {
	var parts []ContentPart
	if e.Content != nil {
		parts = RenderParts(e.Content.Parts)
	}
	return Turn{
		ID:          e.MessageID(),
		Actor:       e.Actor,
		Role:        e.Role(),
		Parts:       parts,
		Timestamp:   e.Timestamp,
		RepeatCount: 1,
	}
}

// RenderParts converts protocol content parts into rendered transcript parts.
// Text parts render as text/plain; data parts render as application/json,
// or as a form when the part metadata marks them as one. Unknown part types
// degrade to empty text parts and are dropped later by the content check.
func RenderParts(parts []a2aSchema.Part) []ContentPart {
	rendered := make([]ContentPart, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.IsText():
			rendered = append(rendered, ContentPart{MediaKind: MediaKindText, Text: *part.Text})
		case part.Data != nil:
			kind := MediaKindData
			if part.Metadata != nil {
				if t, ok := (*part.Metadata)["type"].(string); ok && t == "form" {
					kind = MediaKindForm
				}
			}
			rendered = append(rendered, ContentPart{MediaKind: kind, Data: *part.Data})
		default:
			rendered = append(rendered, ContentPart{MediaKind: MediaKindText})
		}
	}
	return rendered
}
