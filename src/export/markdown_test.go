package export

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdforai/prdchat/src/convstore"
)

func sampleConversation() convstore.Conversation {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return convstore.Conversation{
		ID:    "42",
		Title: "Todo App PRD",
		Messages: []convstore.Message{
			{
				ID: "1", Type: convstore.TypeUser, Content: "Build me a PRD for a todo app",
				Timestamp: ts,
				Attachments: []convstore.Attachment{
					{Name: "notes.txt", Type: "text/plain", URL: "file:///tmp/notes.txt"},
				},
			},
			{
				ID: "2", Type: convstore.TypeAI, Content: "Sure, here is the PRD.",
				Timestamp:     ts.Add(time.Minute),
				GeneratedFile: &convstore.GeneratedFile{Filename: "prd.pdf", URL: "/files/prd.pdf", MimeType: "application/pdf"},
			},
			{
				ID: "3", Type: convstore.TypeAI, Content: "backend unavailable",
				Timestamp: ts.Add(2 * time.Minute), IsError: true,
			},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc := RenderMarkdown(sampleConversation())

	assert.Contains(t, doc, "# Todo App PRD\n")
	assert.Contains(t, doc, "## User (2025-03-14 09:30)\n")
	assert.Contains(t, doc, "Build me a PRD for a todo app")
	assert.Contains(t, doc, "## AI assistant (2025-03-14 09:31)\n")
	assert.Contains(t, doc, "- Attachment: notes.txt (text/plain)")
	assert.Contains(t, doc, "- Generated file: [prd.pdf](/files/prd.pdf)")
	assert.Contains(t, doc, "## AI assistant (2025-03-14 09:32) [error]")
}

func TestRenderMarkdownZeroTimestamp(t *testing.T) {
	conv := convstore.Conversation{
		Title:    "Untitled",
		Messages: []convstore.Message{{Type: convstore.TypeUser, Content: "hi"}},
	}
	doc := RenderMarkdown(conv)
	assert.Contains(t, doc, "## User\n")
}

func TestWriteMarkdown(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteMarkdown(fs, "/out/export.md", sampleConversation()))

	data, err := afero.ReadFile(fs, "/out/export.md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Todo App PRD")
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	conv := sampleConversation()
	assert.Equal(t, "todo-app-prd-20250314-093000.md", DefaultFilename(conv, now))

	conv.Title = "!!!"
	assert.Equal(t, "conversation-20250314-093000.md", DefaultFilename(conv, now))
}
