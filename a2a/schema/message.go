package schema

// Part type identifiers.
const (
	PartTypeText = "text"
	PartTypeFile = "file"
	PartTypeData = "data"
)

// FileContent represents file data, either as inline bytes or a URI reference.
type FileContent struct {
	// Optional filename.
	Name *string `json:"name,omitempty"`
	// Optional MIME type of the file content.
	MimeType *string `json:"mimeType,omitempty"`
	// Base64 encoded file content. Mutually exclusive with URI.
	Bytes *string `json:"bytes,omitempty"`
	// URI pointing to the file content. Mutually exclusive with Bytes.
	URI *string `json:"uri,omitempty"`
}

// Part is one piece of content within a Message or Artifact. It is a tagged
// union: Type selects which of Text, File or Data carries the value.
type Part struct {
	// Type identifier: "text", "file" or "data". (Required)
	Type *string `json:"type,omitempty"`
	// The text content. Set when Type is "text".
	Text *string `json:"text,omitempty"`
	// The file content details. Set when Type is "file".
	File *FileContent `json:"file,omitempty"`
	// The structured data object (e.g., a form definition). Set when Type is "data".
	Data *map[string]interface{} `json:"data,omitempty"`
	// Optional metadata specific to this part.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	t := PartTypeText
	return Part{Type: &t, Text: &text}
}

// DataPart builds a structured data part.
func DataPart(data map[string]interface{}) Part {
	t := PartTypeData
	return Part{Type: &t, Data: &data}
}

// IsText reports whether the part carries text content.
func (p Part) IsText() bool {
	return (p.Type == nil || *p.Type == PartTypeText) && p.Text != nil
}

// Message represents a unit of communication between a user/client and an agent.
type Message struct {
	// Role of the sender ("user" or "agent").
	Role string `json:"role"` // enum: "user", "agent"
	// The content parts of the message.
	Parts []Part `json:"parts"`
	// Optional metadata associated with the entire message.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}
