package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"

	"github.com/prdforai/prdchat/src/app"
	"github.com/prdforai/prdchat/src/chatsdk"
	"github.com/prdforai/prdchat/src/convstore"
	"github.com/prdforai/prdchat/src/export"
	"github.com/prdforai/prdchat/src/orchestrator"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	aiStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// repl drives the interactive session. It doubles as the orchestrator's
// notifier so file and error notices land in the terminal.
type repl struct {
	logger *slog.Logger
	app    *app.App
	out    io.Writer

	// echo state for the in-flight reply
	echoing bool
	shown   string

	// attachments staged for the next send
	pending []convstore.Attachment
}

func newREPL(logger *slog.Logger) *repl {
	return &repl{logger: logger, out: os.Stdout}
}

// Notify implements orchestrator.Notifier.
func (r *repl) Notify(title, message string) {
	if r.echoing {
		fmt.Fprintln(r.out)
	}
	fmt.Fprintln(r.out, noticeStyle.Render(fmt.Sprintf("* %s: %s", title, message)))
}

func (r *repl) run(ctx context.Context, a *app.App) error {
	r.app = a
	a.Store.OnChange(r.onStoreChange)
	r.logger.Info("chat session started", "active_conversation", a.Store.ActiveID())

	fmt.Fprintln(r.out, mutedStyle.Render("prdchat - type a message, /help for commands"))
	r.printActiveHeader()
	r.printTranscript()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(r.out, userStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.handleCommand(ctx, line)
			if err != nil {
				fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}
		r.send(ctx, line)
	}
}

func (r *repl) send(ctx context.Context, text string) {
	attachments := r.pending
	r.pending = nil

	fmt.Fprint(r.out, aiStyle.Render("ai> "))
	r.echoing = true
	r.shown = ""

	err := r.interruptible(func() error {
		return r.app.Orchestrator.Send(ctx, text, attachments)
	})

	r.echoing = false
	fmt.Fprintln(r.out)

	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
	}
}

// interruptible runs fn with a Ctrl-C handler armed: an interrupt while a
// generation is in flight stops it (keeping the text already streamed)
// instead of killing the process.
func (r *repl) interruptible(fn func() error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigCh)
		close(done)
	}()

	go func() {
		select {
		case <-sigCh:
			r.app.Orchestrator.Stop(context.Background())
		case <-done:
		}
	}()

	return fn()
}

// onStoreChange echoes reply content as it streams in. Mutations happen on
// the send goroutine, so printing here is ordered with the stream.
func (r *repl) onStoreChange() {
	if !r.echoing {
		return
	}
	conv, ok := r.app.Store.Active()
	if !ok || len(conv.Messages) == 0 {
		return
	}
	msg := conv.Messages[len(conv.Messages)-1]
	if msg.Type != convstore.TypeAI {
		return
	}

	content := msg.Content
	if content == r.shown {
		return
	}
	if strings.HasPrefix(content, r.shown) {
		fmt.Fprint(r.out, content[len(r.shown):])
	} else {
		// wholesale replacement (rendered html, error settlement)
		fmt.Fprint(r.out, "\n"+content)
	}
	r.shown = content
}

func (r *repl) handleCommand(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		r.printHelp()
	case "/quit", "/exit":
		return true, nil
	case "/new":
		r.app.Store.NewConversation()
		r.printActiveHeader()
	case "/list":
		r.printConversationList()
	case "/switch":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /switch <id>")
		}
		r.app.Store.SetActive(args[0])
		r.printActiveHeader()
		r.printTranscript()
	case "/delete":
		id := r.app.Store.ActiveID()
		if len(args) == 1 {
			id = args[0]
		}
		r.app.Store.DeleteConversation(id)
		r.printActiveHeader()
	case "/rename":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /rename <title>")
		}
		r.app.Store.Rename(r.app.Store.ActiveID(), strings.Join(args, " "))
	case "/retry":
		fmt.Fprint(r.out, aiStyle.Render("ai> "))
		r.echoing = true
		r.shown = ""
		err := r.interruptible(func() error {
			return r.app.Orchestrator.Retry(ctx)
		})
		r.echoing = false
		fmt.Fprintln(r.out)
		return false, err
	case "/attach":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /attach <path>")
		}
		att, err := r.app.Stager.Stage(args[0])
		if err != nil {
			return false, err
		}
		r.pending = append(r.pending, att)
		fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf("attached %s (%s)", att.Name, att.Type)))
	case "/model":
		if len(args) == 0 {
			fmt.Fprintln(r.out, mutedStyle.Render("model: "+r.app.Orchestrator.Settings.Model))
			return false, nil
		}
		r.app.Orchestrator.Settings.Model = args[0]
		r.app.SaveSettings()
	case "/stream":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return false, fmt.Errorf("usage: /stream on|off")
		}
		r.app.Orchestrator.Settings.Streaming = args[0] == "on"
		r.app.SaveSettings()
	case "/format":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /format text|pdf|docx|markdown")
		}
		if !chatsdk.ValidOutputFormat(args[0]) {
			return false, fmt.Errorf("unknown format %q", args[0])
		}
		r.app.Orchestrator.Settings.OutputFormat = chatsdk.OutputFormat(args[0])
		r.app.SaveSettings()
	case "/export":
		conv, ok := r.app.Store.Active()
		if !ok {
			return false, fmt.Errorf("no active conversation")
		}
		path := export.DefaultFilename(conv, time.Now())
		if len(args) == 1 {
			path = args[0]
		}
		if err := export.WriteMarkdown(afero.NewOsFs(), path, conv); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, mutedStyle.Render("exported to "+path))
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

func (r *repl) printHelp() {
	help := []string{
		"/new              start a new conversation",
		"/list             list conversations",
		"/switch <id>      switch the active conversation",
		"/delete [id]      delete a conversation",
		"/rename <title>   rename the active conversation",
		"/retry            resend the last user message",
		"/attach <path>    stage a file for the next message",
		"/model [id]       show or set the model",
		"/stream on|off    toggle streaming replies",
		"/format <f>       set output format (text, pdf, docx, markdown)",
		"/export [path]    export the conversation to markdown",
		"/quit             exit",
	}
	for _, line := range help {
		fmt.Fprintln(r.out, mutedStyle.Render(line))
	}
}

func (r *repl) printActiveHeader() {
	conv, ok := r.app.Store.Active()
	if !ok {
		return
	}
	fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf("-- %s (%s)", conv.Title, conv.ID)))
}

func (r *repl) printConversationList() {
	activeID := r.app.Store.ActiveID()
	for _, conv := range r.app.Store.Conversations() {
		marker := "  "
		if conv.ID == activeID {
			marker = "* "
		}
		fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf("%s%s  %s  %s", marker, conv.ID, conv.Title, conv.Preview)))
	}
}

func (r *repl) printTranscript() {
	conv, ok := r.app.Store.Active()
	if !ok {
		return
	}
	for _, msg := range conv.Messages {
		label := userStyle.Render("you> ")
		if msg.Type == convstore.TypeAI {
			label = aiStyle.Render("ai> ")
		}
		content := msg.Content
		if msg.IsError {
			content = errorStyle.Render(content)
		}
		fmt.Fprintln(r.out, label+content)
		if msg.GeneratedFile != nil {
			fmt.Fprintln(r.out, noticeStyle.Render("* file: "+msg.GeneratedFile.Filename+" "+msg.GeneratedFile.URL))
		}
	}
}

var _ orchestrator.Notifier = (*repl)(nil)
