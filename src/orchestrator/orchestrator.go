// Package orchestrator drives a send/receive round-trip: it builds the
// outbound request from the conversation history, manages the placeholder
// AI message, consumes the response stream, and applies every chunk to the
// conversation store.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prdforai/prdchat/src/chatsdk"
	"github.com/prdforai/prdchat/src/convstore"
)

// ErrEmptyMessage rejects a send whose trimmed text and attachment list are
// both empty. No message is appended and no network call is made.
var ErrEmptyMessage = errors.New("message is empty")

// Transport is the slice of the API client the orchestrator needs.
type Transport interface {
	CreateChatCompletion(ctx context.Context, req *chatsdk.ChatRequest) (*chatsdk.ChatResponse, error)
	CreateChatCompletionStream(ctx context.Context, req *chatsdk.ChatRequest) (chatsdk.Stream, error)
	StopResponse(ctx context.Context, taskID string) error
}

// Notifier surfaces one-line user-visible notices (the toast equivalent).
type Notifier interface {
	Notify(title, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string) {}

// Settings are the per-send generation parameters. The UI layer mutates
// them between sends and they are persisted by the storage codec.
type Settings struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	Streaming    bool
	OutputFormat chatsdk.OutputFormat
}

// DefaultSettings mirrors the request parameters the original client sent.
func DefaultSettings(model string, streaming bool, format chatsdk.OutputFormat) Settings {
	return Settings{
		Model:        model,
		Temperature:  0.7,
		MaxTokens:    4000,
		Streaming:    streaming,
		OutputFormat: format,
	}
}

const noReplyFallback = "Sorry, I couldn't generate a reply."

// Orchestrator owns the send state machine. It is driven by a single
// logical caller; concurrent sends against the same conversation are the
// caller's responsibility to prevent. Stop is the exception: it may be
// called from another goroutine (a signal handler) while a send is in
// flight, so the generation state carries its own lock.
type Orchestrator struct {
	store     *convstore.Store
	transport Transport
	notifier  Notifier
	logger    *slog.Logger

	Settings Settings

	// generation state for the in-flight send
	mu     sync.Mutex
	cancel context.CancelFunc
	taskID string
}

// New creates an orchestrator bound to a store and transport.
func New(store *convstore.Store, transport Transport, notifier Notifier, settings Settings, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     store,
		transport: transport,
		notifier:  notifier,
		logger:    logger.With("component", "orchestrator"),
		Settings:  settings,
	}
}

// Send submits user text (plus optional attachments) to the active
// conversation and consumes the reply. Transport and stream failures settle
// into an error-flagged message rather than returning an error; only the
// synchronous empty-send validation is returned to the caller.
func (o *Orchestrator) Send(ctx context.Context, text string, attachments []convstore.Attachment) error {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return ErrEmptyMessage
	}

	conv, ok := o.store.Active()
	if !ok {
		// The store invariant keeps an active conversation at all times;
		// this is purely defensive.
		return fmt.Errorf("no active conversation")
	}

	history := buildHistory(conv.Messages, text)

	userMsg := convstore.Message{
		ID:          convstore.NewID(),
		Type:        convstore.TypeUser,
		Content:     text,
		Attachments: attachments,
	}
	o.store.AppendMessage(conv.ID, userMsg)

	placeholder := convstore.Message{
		ID:   convstore.NewID(),
		Type: convstore.TypeAI,
	}
	o.store.AppendMessage(conv.ID, placeholder)

	req := &chatsdk.ChatRequest{
		Messages:           history,
		Model:              o.Settings.Model,
		Temperature:        o.Settings.Temperature,
		MaxTokens:          o.Settings.MaxTokens,
		OutputFormat:       o.Settings.OutputFormat,
		ConversationID:     conv.DBConversationID,
		DifyConversationID: conv.DifyConversationID,
	}

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.taskID = ""
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	if o.Settings.Streaming {
		o.sendStreaming(ctx, req, conv.ID, placeholder.ID)
	} else {
		o.sendBlocking(ctx, req, conv.ID, placeholder.ID)
	}
	return nil
}

// buildHistory maps the transcript into role-tagged request messages,
// skipping error placeholders, and appends the new user text last.
func buildHistory(messages []convstore.Message, text string) []chatsdk.Message {
	history := make([]chatsdk.Message, 0, len(messages)+1)
	for _, msg := range messages {
		if msg.IsError {
			continue
		}
		role := chatsdk.RoleUser
		if msg.Type == convstore.TypeAI {
			role = chatsdk.RoleAssistant
		}
		history = append(history, chatsdk.Message{Role: role, Content: msg.Content})
	}
	return append(history, chatsdk.Message{Role: chatsdk.RoleUser, Content: text})
}

// sendStreaming drives the SSE stream and applies each chunk in arrival
// order, exactly once. Cancellation keeps whatever text already arrived;
// no chunk application happens after it is requested.
func (o *Orchestrator) sendStreaming(ctx context.Context, req *chatsdk.ChatRequest, conversationID, placeholderID string) {
	stream, err := o.transport.CreateChatCompletionStream(ctx, req)
	if err != nil {
		o.settleError(conversationID, placeholderID, err)
		return
	}

	// Once a pre-rendered HTML chunk is seen, plain deltas stop being
	// applied so the transcript doesn't double up.
	htmlSeen := false

	err = chatsdk.StreamToCallback(stream, func(chunk *chatsdk.Chunk) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.applyChunk(conversationID, placeholderID, chunk, &htmlSeen)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			o.logger.Debug("stream consumption cancelled", "conversation_id", conversationID)
			return
		}
		o.settleError(conversationID, placeholderID, err)
	}
}

// applyChunk dispatches one chunk by kind.
func (o *Orchestrator) applyChunk(conversationID, placeholderID string, chunk *chatsdk.Chunk, htmlSeen *bool) {
	switch chunk.Kind() {
	case chatsdk.ChunkContentDelta:
		if !*htmlSeen {
			o.store.PatchMessageContent(conversationID, placeholderID, chunk.DeltaContent())
		}
	case chatsdk.ChunkFile:
		file := chunk.File()
		if o.store.SetMessageGeneratedFile(conversationID, placeholderID, convstore.GeneratedFile{
			Filename: file.Filename,
			URL:      file.URL,
			MimeType: file.MimeType,
		}) {
			o.notifier.Notify("File generated", file.Filename)
		}
	case chatsdk.ChunkConversation:
		o.store.SetConversationUpstreamIDs(conversationID, chunk.ConversationID, chunk.DifyConversationID)
	case chatsdk.ChunkTask:
		o.recordTaskID(chunk)
	case chatsdk.ChunkHTML, chatsdk.ChunkHTMLPartial:
		*htmlSeen = true
		o.store.SetMessageContent(conversationID, placeholderID, o.renderHTML(chunk.HTML))
	default:
		// Unknown chunk shapes never raise; newer backends may add kinds
		// this client doesn't know about.
		o.logger.Debug("ignoring unrecognized chunk", "type", chunk.Type)
	}

	if chunk.TaskID != "" {
		o.recordTaskID(chunk)
	}
}

// sendBlocking issues the non-streaming request and fills the placeholder
// from the single response envelope.
func (o *Orchestrator) sendBlocking(ctx context.Context, req *chatsdk.ChatRequest, conversationID, placeholderID string) {
	resp, err := o.transport.CreateChatCompletion(ctx, req)
	if err != nil {
		o.settleError(conversationID, placeholderID, err)
		return
	}

	content := resp.ReplyContent()
	if content == "" {
		content = noReplyFallback
	}
	o.store.SetMessageContent(conversationID, placeholderID, content)

	if resp.File != nil {
		if o.store.SetMessageGeneratedFile(conversationID, placeholderID, convstore.GeneratedFile{
			Filename: resp.File.Filename,
			URL:      resp.File.URL,
			MimeType: resp.File.MimeType,
		}) {
			o.notifier.Notify("File generated", resp.File.Filename)
		}
	}
	o.store.SetConversationUpstreamIDs(conversationID, resp.ConversationID, resp.DifyConversationID)
}

// settleError converts the placeholder into an error-flagged message.
// Content already streamed into it is preserved.
func (o *Orchestrator) settleError(conversationID, placeholderID string, err error) {
	o.logger.Error("send failed", "conversation_id", conversationID, "error", err)
	o.store.ConvertMessageError(conversationID, placeholderID, err.Error())
	o.notifier.Notify("Send failed", err.Error())
}

func (o *Orchestrator) recordTaskID(chunk *chatsdk.Chunk) {
	id := chunk.TaskID
	if id == "" {
		id = chunk.ID
	}
	if id == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.taskID == "" {
		o.taskID = id
		o.logger.Debug("recorded task id", "task_id", id)
	}
}

// Retry resubmits the most recent user message after dropping the trailing
// error message. It only fires when the conversation actually ends in an
// error; a transcript ending in a successful reply is left alone.
// Attachment bytes are not retained, so the resend carries empty-content
// handles with the original name and type.
func (o *Orchestrator) Retry(ctx context.Context) error {
	conv, ok := o.store.Active()
	if !ok || len(conv.Messages) == 0 {
		return nil
	}
	if !conv.Messages[len(conv.Messages)-1].IsError {
		return nil
	}

	var lastUser *convstore.Message
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Type == convstore.TypeUser {
			lastUser = &conv.Messages[i]
			break
		}
	}
	if lastUser == nil {
		return nil
	}

	o.store.TruncateLastMessage(conv.ID)

	return o.Send(ctx, lastUser.Content, attachmentPlaceholders(lastUser.Attachments))
}

// attachmentPlaceholders rebuilds attachment handles from name/type only.
func attachmentPlaceholders(attachments []convstore.Attachment) []convstore.Attachment {
	if len(attachments) == 0 {
		return nil
	}
	out := make([]convstore.Attachment, len(attachments))
	for i, att := range attachments {
		out[i] = convstore.Attachment{Name: att.Name, Type: att.Type}
	}
	return out
}

// Stop abandons the in-flight generation: the stream context is cancelled
// (releasing the network reader) and, when the backend sent a task id, the
// stop endpoint is called best-effort. Safe to call from a goroutine other
// than the one running Send.
func (o *Orchestrator) Stop(ctx context.Context) {
	o.mu.Lock()
	cancel := o.cancel
	taskID := o.taskID
	o.taskID = ""
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if taskID != "" {
		if err := o.transport.StopResponse(ctx, taskID); err != nil {
			o.logger.Warn("stop request failed", "task_id", taskID, "error", err)
		}
	}
}
