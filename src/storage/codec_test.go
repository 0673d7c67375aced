package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdforai/prdchat/src/chatsdk"
	"github.com/prdforai/prdchat/src/convstore"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "prdchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCodec(db, nil)
}

func sampleConversations() []convstore.Conversation {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return []convstore.Conversation{
		{
			ID:                 "1700000000001",
			Title:              "Todo app PRD",
			Timestamp:          ts,
			Preview:            "Build me a PRD for a todo app",
			DBConversationID:   "db-42",
			DifyConversationID: "dify-42",
			Messages: []convstore.Message{
				{
					ID:        "m1",
					Type:      convstore.TypeUser,
					Content:   "Build me a PRD for a todo app",
					Timestamp: ts,
					Attachments: []convstore.Attachment{
						{Name: "notes.txt", Type: "text/plain", URL: "file:///tmp/notes.txt"},
					},
				},
				{
					ID:        "m2",
					Type:      convstore.TypeAI,
					Content:   "Sure, here is your PRD.",
					Timestamp: ts.Add(3 * time.Second),
					GeneratedFile: &convstore.GeneratedFile{
						Filename: "prd.pdf", URL: "/files/prd.pdf", MimeType: "application/pdf",
					},
				},
				{
					ID:        "m3",
					Type:      convstore.TypeAI,
					Content:   "backend unreachable",
					Timestamp: ts.Add(5 * time.Second),
					IsError:   true,
				},
			},
		},
		{
			ID:        "1700000000002",
			Title:     convstore.NewConversationTitle,
			Timestamp: ts.Add(time.Hour),
			Preview:   convstore.NewConversationPreview,
			Messages:  []convstore.Message{},
		},
	}
}

func TestConversationsRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	original := sampleConversations()

	codec.SaveConversations(original)
	loaded := codec.LoadConversations()
	require.Equal(t, original, loaded)

	// save(load()) followed by load() is a fixed point, timestamps included.
	codec.SaveConversations(loaded)
	assert.Equal(t, loaded, codec.LoadConversations())
}

func TestTimestampsSurviveReload(t *testing.T) {
	codec := newTestCodec(t)
	original := sampleConversations()
	codec.SaveConversations(original)

	loaded := codec.LoadConversations()
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].Timestamp.Equal(original[0].Timestamp))
	assert.True(t, loaded[0].Messages[1].Timestamp.After(loaded[0].Messages[0].Timestamp),
		"reloaded timestamps stay comparable")
	assert.True(t, loaded[1].Timestamp.After(loaded[0].Timestamp))
}

func TestLoadConversationsDefaultSeed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, codec *Codec)
	}{
		{
			name:  "empty store",
			setup: func(t *testing.T, codec *Codec) {},
		},
		{
			name: "corrupt json",
			setup: func(t *testing.T, codec *Codec) {
				require.NoError(t, codec.db.Set(context.Background(), KeyConversations, "not json"))
			},
		},
		{
			name: "empty array",
			setup: func(t *testing.T, codec *Codec) {
				require.NoError(t, codec.db.Set(context.Background(), KeyConversations, "[]"))
			},
		},
		{
			name: "wrong shape",
			setup: func(t *testing.T, codec *Codec) {
				require.NoError(t, codec.db.Set(context.Background(), KeyConversations, `{"id":"1"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := newTestCodec(t)
			tt.setup(t, codec)

			loaded := codec.LoadConversations()
			require.Len(t, loaded, 1)
			assert.Equal(t, "1", loaded[0].ID)
			assert.Equal(t, convstore.DefaultTitle, loaded[0].Title)
			require.Len(t, loaded[0].Messages, 1)
			assert.Equal(t, convstore.TypeAI, loaded[0].Messages[0].Type)
		})
	}
}

func TestScalarSettingsDefaults(t *testing.T) {
	codec := newTestCodec(t)

	assert.Equal(t, DefaultActiveConversationID, codec.LoadActiveConversationID())
	assert.False(t, codec.LoadSidebarCollapsed())
	assert.Equal(t, DefaultModel, codec.LoadSelectedModel())
	assert.True(t, codec.LoadStreaming())
	assert.Equal(t, chatsdk.FormatText, codec.LoadOutputFormat())
}

func TestScalarSettingsRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	codec.SaveActiveConversationID("42")
	codec.SaveSidebarCollapsed(true)
	codec.SaveSelectedModel("gpt-4o")
	codec.SaveStreaming(false)
	codec.SaveOutputFormat(chatsdk.FormatDocx)

	assert.Equal(t, "42", codec.LoadActiveConversationID())
	assert.True(t, codec.LoadSidebarCollapsed())
	assert.Equal(t, "gpt-4o", codec.LoadSelectedModel())
	assert.False(t, codec.LoadStreaming())
	assert.Equal(t, chatsdk.FormatDocx, codec.LoadOutputFormat())
}

func TestLoadOutputFormatRejectsUnknown(t *testing.T) {
	codec := newTestCodec(t)
	require.NoError(t, codec.db.Set(context.Background(), KeyOutputFormat, "csv"))
	assert.Equal(t, chatsdk.FormatText, codec.LoadOutputFormat())
}

func TestCorruptScalarFallsBack(t *testing.T) {
	codec := newTestCodec(t)
	require.NoError(t, codec.db.Set(context.Background(), KeyIsStreaming, "maybe"))
	require.NoError(t, codec.db.Set(context.Background(), KeySidebarCollapsed, "{"))

	assert.True(t, codec.LoadStreaming())
	assert.False(t, codec.LoadSidebarCollapsed())
}

func TestClearAll(t *testing.T) {
	codec := newTestCodec(t)
	codec.SaveConversations(sampleConversations())
	codec.SaveSelectedModel("gpt-4o")
	codec.SaveStreaming(false)

	codec.ClearAll()

	assert.Equal(t, DefaultModel, codec.LoadSelectedModel())
	assert.True(t, codec.LoadStreaming())
	loaded := codec.LoadConversations()
	require.Len(t, loaded, 1)
	assert.Equal(t, convstore.DefaultTitle, loaded[0].Title)
}

func TestUsage(t *testing.T) {
	codec := newTestCodec(t)
	usage := codec.Usage()
	require.Len(t, usage, len(allKeys))
	assert.Zero(t, usage[KeyConversations])

	codec.SaveConversations(sampleConversations())
	codec.SaveSelectedModel("gpt-4o")

	usage = codec.Usage()
	assert.Positive(t, usage[KeyConversations])
	assert.Equal(t, len("gpt-4o"), usage[KeySelectedModel])
}

func TestKVPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prdchat.db")

	db, err := Open(path)
	require.NoError(t, err)
	codec := NewCodec(db, nil)
	codec.SaveConversations(sampleConversations())
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	loaded := NewCodec(db, nil).LoadConversations()
	assert.Equal(t, sampleConversations(), loaded)
}
