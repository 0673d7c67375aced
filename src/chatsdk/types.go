// Package chatsdk defines the wire types and streaming primitives for the
// PRD For AI chat endpoint.
package chatsdk

// Message represents a single role-tagged message in a request history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles accepted by the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// OutputFormat selects the document format for generated files.
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatPDF      OutputFormat = "pdf"
	FormatDocx     OutputFormat = "docx"
	FormatMarkdown OutputFormat = "markdown"
)

// ValidOutputFormat reports whether s names a known output format.
func ValidOutputFormat(s string) bool {
	switch OutputFormat(s) {
	case FormatText, FormatPDF, FormatDocx, FormatMarkdown:
		return true
	}
	return false
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages           []Message    `json:"messages"`
	Model              string       `json:"model"`
	Temperature        float64      `json:"temperature"`
	MaxTokens          int          `json:"max_tokens"`
	Stream             bool         `json:"stream"`
	OutputFormat       OutputFormat `json:"output_format"`
	ConversationID     string       `json:"conversation_id,omitempty"`
	DifyConversationID string       `json:"dify_conversation_id,omitempty"`
}

// FileInfo describes a document generated by the backend.
type FileInfo struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int      `json:"index"`
	Message      Message  `json:"message"`
	FinishReason string   `json:"finish_reason"`
	Delta        *Message `json:"delta,omitempty"` // For streaming
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the blocking (non-streaming) response envelope.
type ChatResponse struct {
	ID                 string    `json:"id"`
	Object             string    `json:"object"`
	Created            int64     `json:"created"`
	Model              string    `json:"model"`
	Choices            []Choice  `json:"choices"`
	Usage              Usage     `json:"usage"`
	File               *FileInfo `json:"file,omitempty"`
	ConversationID     string    `json:"conversation_id,omitempty"`
	DifyConversationID string    `json:"dify_conversation_id,omitempty"`
}

// ReplyContent returns the assistant text of the first choice, or "" when
// the response carries no choices.
func (r *ChatResponse) ReplyContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// ModelInfo describes a model offered by the backend.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxTokens   int    `json:"max_tokens"`
}
