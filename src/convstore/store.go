package convstore

import (
	"log/slog"
	"time"
)

// Persister receives write-through snapshots after every mutation. The
// persistence layer swallows its own failures, so these calls cannot fail
// back into the store.
type Persister interface {
	SaveConversations(conversations []Conversation)
	SaveActiveConversationID(id string)
}

// Store is the authoritative owner of the conversation list. Mutations are
// synchronous and self-contained; callers are expected to be a single
// logical goroutine (the orchestrator or the UI layer), so the store takes
// no locks of its own.
type Store struct {
	conversations []Conversation
	activeID      string
	persister     Persister
	onChange      func()
	logger        *slog.Logger
}

// NewStore builds a store from previously loaded state. An empty list is
// replaced by the seeded default; an active id that resolves to nothing
// falls back to the first conversation.
func NewStore(conversations []Conversation, activeID string, persister Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if len(conversations) == 0 {
		conversations = DefaultConversations()
	}
	s := &Store{
		conversations: conversations,
		persister:     persister,
		logger:        logger.With("component", "convstore"),
	}
	s.activeID = activeID
	if _, ok := s.find(activeID); !ok {
		s.activeID = s.conversations[0].ID
	}
	return s
}

// OnChange registers a callback fired after every mutation, for reactive
// re-rendering. Only one callback is supported.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

// Conversations returns a snapshot of the conversation list. Message slices
// are copied so callers cannot alias the store's backing arrays.
func (s *Store) Conversations() []Conversation {
	return cloneConversations(s.conversations)
}

// ActiveID returns the active conversation id.
func (s *Store) ActiveID() string {
	return s.activeID
}

// Active returns a snapshot of the active conversation.
func (s *Store) Active() (Conversation, bool) {
	return s.Get(s.activeID)
}

// Get returns a snapshot of the conversation with the given id.
func (s *Store) Get(id string) (Conversation, bool) {
	conv, ok := s.find(id)
	if !ok {
		return Conversation{}, false
	}
	return cloneConversation(*conv), true
}

// NewConversation inserts a fresh empty conversation at the front of the
// list, activates it, and returns its id.
func (s *Store) NewConversation() string {
	conv := Conversation{
		ID:        NewID(),
		Title:     NewConversationTitle,
		Timestamp: time.Now(),
		Preview:   NewConversationPreview,
		Messages:  []Message{},
	}
	s.conversations = append([]Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	s.persistActiveID()
	s.persist()
	return conv.ID
}

// DeleteConversation removes a conversation. Deleting the active one
// activates the first remaining conversation, or creates a fresh default
// when none remain.
func (s *Store) DeleteConversation(id string) {
	kept := s.conversations[:0:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept

	if s.activeID == id {
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
			s.persistActiveID()
		} else {
			s.persist()
			s.NewConversation()
			return
		}
	}
	s.persist()
}

// SetActive switches the active conversation. Unknown ids fall back to the
// first conversation so the active pointer always resolves.
func (s *Store) SetActive(id string) {
	if _, ok := s.find(id); !ok {
		s.logger.Debug("active id not found, falling back", "id", id)
		id = s.conversations[0].ID
	}
	s.activeID = id
	s.persistActiveID()
	s.notify()
}

// Rename sets a conversation title.
func (s *Store) Rename(id, title string) {
	conv, ok := s.find(id)
	if !ok {
		return
	}
	conv.Title = title
	s.persist()
}

// AppendMessage appends a message and refreshes the conversation's
// last-activity fields. The title is derived from the first user message of
// a previously empty conversation; the preview follows every user message.
func (s *Store) AppendMessage(conversationID string, msg Message) {
	conv, ok := s.find(conversationID)
	if !ok {
		s.logger.Debug("append target missing", "conversation_id", conversationID)
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Type == TypeUser {
		if len(conv.Messages) == 0 {
			conv.Title = DeriveTitle(msg.Content)
		}
		conv.Preview = DerivePreview(msg.Content)
	}
	conv.Messages = append(conv.Messages, msg)
	conv.Timestamp = msg.Timestamp
	s.persist()
}

// PatchMessageContent concatenates delta onto an existing message. Missing
// conversation or message ids are a no-op, since stream chunks can race
// with a conversation switch or delete.
func (s *Store) PatchMessageContent(conversationID, messageID, delta string) {
	if delta == "" {
		return
	}
	msg, ok := s.findMessage(conversationID, messageID)
	if !ok {
		s.logger.Debug("patch target missing", "conversation_id", conversationID, "message_id", messageID)
		return
	}
	msg.Content += delta
	s.persist()
}

// SetMessageContent replaces a message body wholesale. Used by the blocking
// response path and by pre-rendered HTML chunks.
func (s *Store) SetMessageContent(conversationID, messageID, content string) {
	msg, ok := s.findMessage(conversationID, messageID)
	if !ok {
		return
	}
	msg.Content = content
	s.persist()
}

// ConvertMessageError flags a message as a terminal failure. Content
// already streamed into the message is preserved, with the error text
// appended as an annotation; an empty placeholder takes the error text as
// its whole body.
func (s *Store) ConvertMessageError(conversationID, messageID, errText string) {
	msg, ok := s.findMessage(conversationID, messageID)
	if !ok {
		return
	}
	if msg.Content == "" {
		msg.Content = errText
	} else {
		msg.Content += "\n\n" + errText
	}
	msg.IsError = true
	s.persist()
}

// SetMessageGeneratedFile attaches a generated file to a message. The file
// is set at most once; it reports whether this call set it.
func (s *Store) SetMessageGeneratedFile(conversationID, messageID string, file GeneratedFile) bool {
	msg, ok := s.findMessage(conversationID, messageID)
	if !ok || msg.GeneratedFile != nil {
		return false
	}
	msg.GeneratedFile = &file
	s.persist()
	return true
}

// SetConversationUpstreamIDs merges backend-assigned conversation ids.
// Absent values never clear a previously set id.
func (s *Store) SetConversationUpstreamIDs(conversationID, dbID, difyID string) {
	conv, ok := s.find(conversationID)
	if !ok {
		return
	}
	if dbID != "" {
		conv.DBConversationID = dbID
	}
	if difyID != "" {
		conv.DifyConversationID = difyID
	}
	s.persist()
}

// TruncateLastMessage removes the trailing message, used by retry to drop
// an error message before resubmitting.
func (s *Store) TruncateLastMessage(conversationID string) {
	conv, ok := s.find(conversationID)
	if !ok || len(conv.Messages) == 0 {
		return
	}
	conv.Messages = conv.Messages[:len(conv.Messages)-1]
	s.persist()
}

func (s *Store) find(id string) (*Conversation, bool) {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return &s.conversations[i], true
		}
	}
	return nil, false
}

func (s *Store) findMessage(conversationID, messageID string) (*Message, bool) {
	conv, ok := s.find(conversationID)
	if !ok {
		return nil, false
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			return &conv.Messages[i], true
		}
	}
	return nil, false
}

// persist writes the full list through to durable storage and notifies the
// UI layer.
func (s *Store) persist() {
	if s.persister != nil {
		s.persister.SaveConversations(cloneConversations(s.conversations))
	}
	s.notify()
}

func (s *Store) persistActiveID() {
	if s.persister != nil {
		s.persister.SaveActiveConversationID(s.activeID)
	}
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func cloneConversations(conversations []Conversation) []Conversation {
	out := make([]Conversation, len(conversations))
	for i, conv := range conversations {
		out[i] = cloneConversation(conv)
	}
	return out
}

func cloneConversation(conv Conversation) Conversation {
	messages := make([]Message, len(conv.Messages))
	copy(messages, conv.Messages)
	for i := range messages {
		if messages[i].Attachments != nil {
			attachments := make([]Attachment, len(messages[i].Attachments))
			copy(attachments, messages[i].Attachments)
			messages[i].Attachments = attachments
		}
		if messages[i].GeneratedFile != nil {
			file := *messages[i].GeneratedFile
			messages[i].GeneratedFile = &file
		}
	}
	conv.Messages = messages
	return conv
}
