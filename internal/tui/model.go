// Package tui is the interactive terminal chat client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	"github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

const eventBuffer = 128

// Controller is the turn controller as driven by the keyboard.
type Controller interface {
	Submit(ctx context.Context, text string) turn.Outcome
	Cancel() bool
	Snapshot() turn.Snapshot
	Attach(att *chat.Attachment)
	ClearAttachment() bool
	SetMode(mode string)
	SetVoice(ctx context.Context, enabled bool)
}

// Workspace manages the conversation list.
type Workspace interface {
	LoadChat(ctx context.Context, sessionID string) (int, error)
	NewChat()
	History(ctx context.Context, query string) ([]chat.HistoryItem, error)
	DeleteChat(ctx context.Context, sessionID string) (bool, error)
	RenameChat(ctx context.Context, sessionID, title string) (bool, error)
	DeleteAllChats(ctx context.Context) error
}

// Transcript is the entry log shown in the viewport.
type Transcript interface {
	Append(entry transcript.Entry) transcript.Entry
	Entries() []transcript.Entry
	Subscribe(buffer int) (<-chan transcript.Event, func())
}

// Catalog lists the selectable modes.
type Catalog interface {
	Tools() []chat.Tool
	Hint(mode string) string
}

// Options configure a chat Model.
type Options struct {
	Controller    Controller
	Workspace     Workspace
	Transcript    Transcript
	Catalog       Catalog
	MarkdownStyle string
	Logger        *zap.Logger
}

type (
	transcriptMsg transcript.Event
	outcomeMsg    turn.Outcome
	noticeMsg     string
)

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx        context.Context
	controller Controller
	workspace  Workspace
	transcript Transcript
	catalog    Catalog
	logger     *zap.Logger

	events      <-chan transcript.Event
	unsubscribe func()

	style    string
	terminal *render.Terminal
	rendered map[string]string
	styles   styles

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width    int
	height   int
	lastNote string
	quitting bool
}

// New builds the chat screen and subscribes it to the transcript. Close
// releases the subscription.
func New(ctx context.Context, opts Options) (Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	style := opts.MarkdownStyle
	if style == "" || style == "auto" {
		// Auto detection queries the terminal, so it must run before start.
		style = "light"
		if lipgloss.HasDarkBackground() {
			style = "dark"
		}
	}
	term, err := render.NewTerminal(style, render.DefaultWordWrap)
	if err != nil {
		return Model{}, err
	}

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 0
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	events, unsubscribe := opts.Transcript.Subscribe(eventBuffer)

	m := Model{
		ctx:         ctx,
		controller:  opts.Controller,
		workspace:   opts.Workspace,
		transcript:  opts.Transcript,
		catalog:     opts.Catalog,
		logger:      logger,
		events:      events,
		unsubscribe: unsubscribe,
		style:       style,
		terminal:    term,
		rendered:    make(map[string]string),
		styles:      defaultStyles(),
		input:       input,
		viewport:    viewport.New(render.DefaultWordWrap, 20),
		spinner:     spin,
	}
	m.input.Placeholder = m.catalog.Hint(m.controller.Snapshot().Mode)
	m.refresh()
	return m, nil
}

// Close unsubscribes from the transcript.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the full-screen chat until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run chat ui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return transcriptMsg(event)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		m = next

	case transcriptMsg:
		if msg.Type == transcript.EventReset {
			m.rendered = make(map[string]string)
		}
		m.refresh()
		return m, m.waitForEvent()

	case outcomeMsg:
		m.lastNote = turn.Outcome(msg).String()
		m.input.Placeholder = m.catalog.Hint(m.controller.Snapshot().Mode)
		m.refresh()
		return m, nil

	case noticeMsg:
		m.transcript.Append(transcript.SystemEntry(string(msg)))
		m.input.Placeholder = m.catalog.Hint(m.controller.Snapshot().Mode)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.controller.Snapshot().State == turn.StateAwaiting {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey reports handled when the key must not reach the text input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.controller.Cancel()
		m.quitting = true
		return m, tea.Quit, true

	case "esc":
		if m.controller.Cancel() {
			m.lastNote = "stopped"
		}
		return m, nil, true

	case "ctrl+n":
		m.workspace.NewChat()
		m.lastNote = "new chat"
		return m, nil, true

	case "enter":
		return m.submit()
	}
	return m, nil, false
}

// submit sends the input line. While a reply is awaited it stops that reply
// and keeps the typed text.
func (m Model) submit() (Model, tea.Cmd, bool) {
	line := m.input.Value()
	awaiting := m.controller.Snapshot().State == turn.StateAwaiting

	if !awaiting {
		if cmd, ok := parseCommand(line); ok {
			m.input.Reset()
			return m, m.runCommand(cmd), true
		}
		m.input.Reset()
	}

	ctx, ctrl := m.ctx, m.controller
	return m, func() tea.Msg {
		return outcomeMsg(ctrl.Submit(ctx, line))
	}, true
}

func (m Model) resize(width, height int) Model {
	if width <= 0 || height <= 0 {
		return m
	}
	m.width, m.height = width, height
	m.input.Width = max(width-4, 10)

	m.viewport.Width = width
	m.viewport.Height = max(height-4, 1)

	if term, err := render.NewTerminal(m.style, max(width-2, 20)); err == nil {
		m.terminal = term
		m.rendered = make(map[string]string)
	} else {
		m.logger.Warn("resize markdown renderer", zap.Error(err))
	}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || m.viewport.TotalLineCount() <= m.viewport.Height {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	entries := m.transcript.Entries()
	if len(entries) == 0 {
		return m.styles.system.Render("Start a conversation. Type /help for commands.")
	}

	var b strings.Builder
	for _, entry := range entries {
		switch entry.Kind {
		case transcript.KindPlaceholder:
			b.WriteString(m.styles.placeholder.Render(m.spinner.View() + " " + entry.Source))
			b.WriteString("\n")
			continue
		case transcript.KindNotice:
			style := m.styles.notice
			if entry.Role == transcript.RoleSystem {
				style = m.styles.system
			}
			b.WriteString(style.Render(entry.Source))
			b.WriteString("\n")
			continue
		}

		if entry.Role == transcript.RoleUser {
			b.WriteString(m.styles.user.Render("You"))
			b.WriteString("\n")
			if entry.Attachment != "" {
				b.WriteString(m.styles.badge.Render("📎 " + entry.Attachment))
				b.WriteString("\n")
			}
			b.WriteString(entry.Source)
			b.WriteString("\n")
			continue
		}

		b.WriteString(m.styles.assistant.Render("Shanvika"))
		b.WriteString("\n")
		b.WriteString(m.renderEntry(entry))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderEntry(entry transcript.Entry) string {
	if out, ok := m.rendered[entry.ID]; ok {
		return out
	}
	out := m.terminal.Render(entry.Format, entry.Source)
	m.rendered[entry.ID] = out
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.statusLine(),
		m.styles.input.Render(m.input.View()),
	)
}

func (m Model) statusLine() string {
	snap := m.controller.Snapshot()

	glyph := m.styles.sendGlyph.Render(glyphSend)
	if snap.State == turn.StateAwaiting {
		glyph = m.styles.stopGlyph.Render(glyphStop)
	}

	session := snap.SessionID
	if session == "" {
		session = "new"
	}
	parts := []string{
		glyph,
		m.styles.statusKey.Render(snap.Mode),
		"session " + session,
	}
	if snap.Voice {
		parts = append(parts, "🔊")
	}
	if snap.Attachment != nil {
		parts = append(parts, "📎 "+snap.Attachment.Name)
	}
	if m.lastNote != "" {
		parts = append(parts, m.lastNote)
	}

	line := strings.Join(parts, "  ")
	if m.width > 0 {
		return m.styles.status.Width(m.width).Render(line)
	}
	return m.styles.status.Render(line)
}
