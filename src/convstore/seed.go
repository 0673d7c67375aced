package convstore

import "time"

// Display strings for seeded and freshly created conversations.
const (
	DefaultTitle   = "PRD For AI"
	DefaultPreview = "Welcome to the PRD For AI product design assistant"

	NewConversationTitle   = "New conversation"
	NewConversationPreview = "Start a new conversation..."

	welcomeMessage = "Welcome to PRD For AI!\n\n" +
		"I am your product design and documentation assistant. I can help you with:\n\n" +
		"**Core features:**\n" +
		"- Requirement clarification and user personas\n" +
		"- Feature breakdown and prioritization\n" +
		"- PRD/BRD generation and review\n" +
		"- File upload and insight extraction\n" +
		"- Multi-turn conversations with version history\n\n" +
		"Try something like: \"Draft a PRD outline for an AI meeting-notes tool\"."
)

// DefaultConversations returns the seeded single-conversation list used
// whenever durable storage is empty or unreadable. The store never exposes
// zero conversations.
func DefaultConversations() []Conversation {
	now := time.Now()
	return []Conversation{
		{
			ID:        "1",
			Title:     DefaultTitle,
			Timestamp: now,
			Preview:   DefaultPreview,
			Messages: []Message{
				{
					ID:        "1",
					Type:      TypeAI,
					Content:   welcomeMessage,
					Timestamp: now,
				},
			},
		},
	}
}
