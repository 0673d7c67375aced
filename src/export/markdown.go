// Package export renders a conversation transcript to a markdown document.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/prdforai/prdchat/src/convstore"
)

const timestampLayout = "2006-01-02 15:04"

// RenderMarkdown produces a markdown document for the conversation: the
// title as a top-level heading, then one section per message labelled by
// speaker and timestamp. Error messages are marked, attachments and
// generated files are listed under the message body.
func RenderMarkdown(conv convstore.Conversation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", conv.Title)

	for _, msg := range conv.Messages {
		speaker := "User"
		if msg.Type == convstore.TypeAI {
			speaker = "AI assistant"
		}

		b.WriteString("\n## ")
		b.WriteString(speaker)
		if !msg.Timestamp.IsZero() {
			fmt.Fprintf(&b, " (%s)", msg.Timestamp.Format(timestampLayout))
		}
		if msg.IsError {
			b.WriteString(" [error]")
		}
		b.WriteString("\n\n")

		if msg.Content != "" {
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}

		for _, att := range msg.Attachments {
			fmt.Fprintf(&b, "\n- Attachment: %s (%s)\n", att.Name, att.Type)
		}
		if msg.GeneratedFile != nil {
			fmt.Fprintf(&b, "\n- Generated file: [%s](%s)\n", msg.GeneratedFile.Filename, msg.GeneratedFile.URL)
		}
	}

	return b.String()
}

// WriteMarkdown renders the conversation and writes it to path.
func WriteMarkdown(fs afero.Fs, path string, conv convstore.Conversation) error {
	if err := afero.WriteFile(fs, path, []byte(RenderMarkdown(conv)), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// DefaultFilename derives an export filename from the conversation title
// and the current time.
func DefaultFilename(conv convstore.Conversation, now time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, conv.Title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "conversation"
	}
	return fmt.Sprintf("%s-%s.md", slug, now.Format("20060102-150405"))
}
