package chatsdk

// ChunkKind discriminates the payload shapes the stream can carry.
type ChunkKind int

const (
	// ChunkUnknown covers shapes this client does not recognize. They are
	// ignored so newer backends stay compatible with older clients.
	ChunkUnknown ChunkKind = iota
	ChunkContentDelta
	ChunkFile
	ChunkConversation
	ChunkTask
	ChunkHTML
	ChunkHTMLPartial
)

// Chunk is one decoded JSON payload extracted from a single "data:" line of
// a streamed response. The fields form a superset of every chunk shape; Kind
// tells which ones are meaningful.
type Chunk struct {
	Type    string   `json:"type,omitempty"`
	Choices []Choice `json:"choices,omitempty"`

	// type == "file"
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`

	// type == "conversation"
	ConversationID     string `json:"conversation_id,omitempty"`
	DifyConversationID string `json:"dify_conversation_id,omitempty"`

	// type == "task", or a bare task_id on any chunk
	TaskID string `json:"task_id,omitempty"`
	ID     string `json:"id,omitempty"`

	// type == "html" / "html_partial"
	HTML string `json:"html,omitempty"`
}

// Kind classifies the chunk, checking the type discriminant first and
// falling back to delta-content presence.
func (c *Chunk) Kind() ChunkKind {
	switch c.Type {
	case "file":
		return ChunkFile
	case "conversation":
		return ChunkConversation
	case "task":
		return ChunkTask
	case "html":
		return ChunkHTML
	case "html_partial":
		return ChunkHTMLPartial
	}
	if len(c.Choices) > 0 && c.Choices[0].Delta != nil && c.Choices[0].Delta.Content != "" {
		return ChunkContentDelta
	}
	return ChunkUnknown
}

// DeltaContent returns the text delta of the first choice, or "".
func (c *Chunk) DeltaContent() string {
	if len(c.Choices) > 0 && c.Choices[0].Delta != nil {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// File returns the generated-file fields of a ChunkFile.
func (c *Chunk) File() FileInfo {
	return FileInfo{Filename: c.Filename, URL: c.URL, MimeType: c.MimeType}
}
