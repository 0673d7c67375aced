package storage

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prdforai/prdchat/src/chatsdk"
	"github.com/prdforai/prdchat/src/convstore"
)

// Storage keys, namespaced under a fixed application prefix.
const (
	keyPrefix = "prd-ai-"

	KeyConversations        = keyPrefix + "conversations"
	KeyActiveConversationID = keyPrefix + "active-conversation-id"
	KeySidebarCollapsed     = keyPrefix + "sidebar-collapsed"
	KeySelectedModel        = keyPrefix + "selected-model"
	KeyIsStreaming          = keyPrefix + "is-streaming"
	KeyOutputFormat         = keyPrefix + "output-format"
)

// Defaults returned when a key is absent or unreadable.
const (
	DefaultActiveConversationID = "1"
	DefaultModel                = "deepseek-chat"
)

var allKeys = []string{
	KeyConversations,
	KeyActiveConversationID,
	KeySidebarCollapsed,
	KeySelectedModel,
	KeyIsStreaming,
	KeyOutputFormat,
}

// Codec serializes application state to and from the kv store. Failures
// never propagate to callers: writes log and leave the prior durable state
// untouched, reads log and fall back to defaults. Timestamps round-trip as
// RFC 3339 strings through the time.Time fields of the conversation schema,
// so recency sorting and formatting survive a store/load cycle.
type Codec struct {
	db     *DB
	logger *slog.Logger
}

// NewCodec wraps db in the persistence codec.
func NewCodec(db *DB, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{db: db, logger: logger.With("component", "storage_codec")}
}

// SaveConversations writes the full conversation list under its key.
func (c *Codec) SaveConversations(conversations []convstore.Conversation) {
	data, err := json.Marshal(conversations)
	if err != nil {
		c.logger.Error("failed to serialize conversations", "error", err)
		return
	}
	c.set(KeyConversations, string(data))
}

// LoadConversations reads the conversation list, returning the seeded
// default on a missing key, corrupt JSON, or an empty list. Callers never
// see zero conversations.
func (c *Codec) LoadConversations() []convstore.Conversation {
	raw, ok := c.get(KeyConversations)
	if !ok {
		return convstore.DefaultConversations()
	}
	var conversations []convstore.Conversation
	if err := json.Unmarshal([]byte(raw), &conversations); err != nil {
		c.logger.Warn("failed to decode stored conversations, using defaults", "error", err)
		return convstore.DefaultConversations()
	}
	if len(conversations) == 0 {
		return convstore.DefaultConversations()
	}
	return conversations
}

// SaveActiveConversationID persists the active-conversation pointer.
func (c *Codec) SaveActiveConversationID(id string) {
	c.set(KeyActiveConversationID, id)
}

// LoadActiveConversationID returns the stored active id, or "1".
func (c *Codec) LoadActiveConversationID() string {
	if id, ok := c.get(KeyActiveConversationID); ok && id != "" {
		return id
	}
	return DefaultActiveConversationID
}

// SaveSidebarCollapsed persists the sidebar-collapsed flag.
func (c *Codec) SaveSidebarCollapsed(collapsed bool) {
	c.setJSON(KeySidebarCollapsed, collapsed)
}

// LoadSidebarCollapsed returns the stored flag, defaulting to false.
func (c *Codec) LoadSidebarCollapsed() bool {
	var collapsed bool
	c.getJSON(KeySidebarCollapsed, &collapsed)
	return collapsed
}

// SaveSelectedModel persists the model choice.
func (c *Codec) SaveSelectedModel(model string) {
	c.set(KeySelectedModel, model)
}

// LoadSelectedModel returns the stored model, or the fixed default.
func (c *Codec) LoadSelectedModel() string {
	if model, ok := c.get(KeySelectedModel); ok && model != "" {
		return model
	}
	return DefaultModel
}

// SaveStreaming persists the streaming-enabled flag.
func (c *Codec) SaveStreaming(streaming bool) {
	c.setJSON(KeyIsStreaming, streaming)
}

// LoadStreaming returns the stored flag, defaulting to true.
func (c *Codec) LoadStreaming() bool {
	streaming := true
	c.getJSON(KeyIsStreaming, &streaming)
	return streaming
}

// SaveOutputFormat persists the output format.
func (c *Codec) SaveOutputFormat(format chatsdk.OutputFormat) {
	c.set(KeyOutputFormat, string(format))
}

// LoadOutputFormat returns the stored format, defaulting to text. Values
// outside the known enum fall back to text.
func (c *Codec) LoadOutputFormat() chatsdk.OutputFormat {
	if raw, ok := c.get(KeyOutputFormat); ok && chatsdk.ValidOutputFormat(raw) {
		return chatsdk.OutputFormat(raw)
	}
	return chatsdk.FormatText
}

// ClearAll removes every key this module owns.
func (c *Codec) ClearAll() {
	for _, key := range allKeys {
		if err := c.db.Delete(context.Background(), key); err != nil {
			c.logger.Error("failed to clear key", "key", key, "error", err)
		}
	}
}

// Usage returns the stored byte size per owned key. Debug helper.
func (c *Codec) Usage() map[string]int {
	usage := make(map[string]int, len(allKeys))
	for _, key := range allKeys {
		usage[key] = 0
		if value, ok := c.get(key); ok {
			usage[key] = len(value)
		}
	}
	return usage
}

func (c *Codec) get(key string) (string, bool) {
	value, ok, err := c.db.Get(context.Background(), key)
	if err != nil {
		c.logger.Warn("failed to read key", "key", key, "error", err)
		return "", false
	}
	return value, ok
}

func (c *Codec) set(key, value string) {
	if err := c.db.Set(context.Background(), key, value); err != nil {
		c.logger.Error("failed to write key", "key", key, "error", err)
	}
}

func (c *Codec) setJSON(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("failed to serialize value", "key", key, "error", err)
		return
	}
	c.set(key, string(data))
}

// getJSON decodes the stored value into dest, leaving dest untouched on a
// missing key or decode failure.
func (c *Codec) getJSON(key string, dest any) {
	raw, ok := c.get(key)
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Warn("failed to decode stored value, using default", "key", key, "error", err)
	}
}
