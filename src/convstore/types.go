// Package convstore owns the in-memory conversation list and the
// active-conversation pointer. All mutations go through Store so the
// transcript invariants hold and every change is written through to durable
// storage.
package convstore

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// MessageType discriminates user messages from AI messages.
type MessageType string

const (
	TypeUser MessageType = "user"
	TypeAI   MessageType = "ai"
)

// Attachment is a file handle attached to a user message at send time.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// GeneratedFile is a document produced by the backend and attached to an AI
// message by a side-channel stream chunk.
type GeneratedFile struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Message is one transcript entry. User messages are immutable after
// creation; the AI placeholder is the only message mutated after append.
type Message struct {
	ID            string         `json:"id"`
	Type          MessageType    `json:"type"`
	Content       string         `json:"content"`
	Timestamp     time.Time      `json:"timestamp"`
	IsError       bool           `json:"isError,omitempty"`
	Attachments   []Attachment   `json:"attachments,omitempty"`
	GeneratedFile *GeneratedFile `json:"generatedFile,omitempty"`
}

// Conversation is a titled message thread. DBConversationID and
// DifyConversationID are assigned by the backend once the first round-trip
// completes; both are absent for brand-new conversations.
type Conversation struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Timestamp          time.Time `json:"timestamp"`
	Preview            string    `json:"preview"`
	Messages           []Message `json:"messages"`
	DBConversationID   string    `json:"dbConversationId,omitempty"`
	DifyConversationID string    `json:"difyConversationId,omitempty"`
}

// idCounter disambiguates ids generated within the same nanosecond.
var idCounter atomic.Int64

// NewID returns a time-based identifier for conversations and messages.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixNano()+idCounter.Add(1), 10)
}

const (
	titleLimit   = 30
	previewLimit = 50
)

// DeriveTitle builds a conversation title from the first user message: the
// first line, truncated to a display-friendly length.
func DeriveTitle(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > titleLimit {
		return string(r[:titleLimit]) + "..."
	}
	return line
}

// DerivePreview builds the sidebar preview text from a message body.
func DerivePreview(content string) string {
	if r := []rune(content); len(r) > previewLimit {
		return string(r[:previewLimit]) + "..."
	}
	return content
}
