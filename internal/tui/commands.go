package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
)

const helpText = `Commands:
  /new                  start a new chat (Ctrl+N)
  /mode <tag>           switch tool mode, e.g. /mode image_gen
  /tools                list tool modes
  /attach <path>        attach a file to the next message
  /detach               drop the pending attachment
  /voice on|off         speak replies aloud
  /history [query]      list saved chats
  /load <id>            open a saved chat
  /rename <id> <title>  rename a saved chat
  /delete <id>          delete a saved chat
  /clear-all            delete every saved chat
  /help                 show this help
Enter sends or stops, Esc stops, Ctrl+C quits.`

type command struct {
	name string
	arg  string
}

// parseCommand splits "/name rest" lines. Other input is a chat message.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") || len(line) == 1 {
		return command{}, false
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

func notice(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return noticeMsg(text) }
}

func failure(err error) tea.Msg {
	return noticeMsg("⚠️ " + err.Error())
}

func (m Model) runCommand(cmd command) tea.Cmd {
	ctx := m.ctx

	switch cmd.name {
	case "help", "?":
		return notice("%s", helpText)

	case "new":
		m.workspace.NewChat()
		return nil

	case "mode":
		if cmd.arg == "" {
			return notice("Current mode: %s", m.controller.Snapshot().Mode)
		}
		m.controller.SetMode(cmd.arg)
		return notice("Activated: %s", chat.ToolTitle(cmd.arg))

	case "tools":
		var b strings.Builder
		b.WriteString("Tools:")
		for _, tool := range m.catalog.Tools() {
			fmt.Fprintf(&b, "\n  %-22s %s", tool.Mode, tool.Title)
		}
		return notice("%s", b.String())

	case "attach":
		if cmd.arg == "" {
			return notice("Usage: /attach <path>")
		}
		att, err := chat.LoadAttachment(cmd.arg)
		if err != nil {
			return func() tea.Msg { return failure(err) }
		}
		m.controller.Attach(att)
		return notice("📎 %s attached (%s)", att.Name, att.MIMEType)

	case "detach":
		if m.controller.ClearAttachment() {
			return notice("Attachment removed.")
		}
		return nil

	case "voice":
		var enabled bool
		switch strings.ToLower(cmd.arg) {
		case "on":
			enabled = true
		case "off":
		default:
			return notice("Usage: /voice on|off")
		}
		ctrl := m.controller
		return func() tea.Msg {
			ctrl.SetVoice(ctx, enabled)
			if enabled {
				return noticeMsg("🔊 Voice mode on.")
			}
			return noticeMsg("🔇 Voice mode off.")
		}

	case "history":
		ws, query := m.workspace, cmd.arg
		return func() tea.Msg {
			items, err := ws.History(ctx, query)
			if err != nil {
				return failure(err)
			}
			if len(items) == 0 {
				return noticeMsg("No chats found.")
			}
			var b strings.Builder
			b.WriteString("Chats:")
			for _, item := range items {
				fmt.Fprintf(&b, "\n  %s  %s", item.ID, item.Title)
			}
			return noticeMsg(b.String())
		}

	case "load":
		if cmd.arg == "" {
			return notice("Usage: /load <id>")
		}
		ws, id := m.workspace, cmd.arg
		return func() tea.Msg {
			if _, err := ws.LoadChat(ctx, id); err != nil {
				return failure(err)
			}
			return nil
		}

	case "rename":
		id, title, _ := strings.Cut(cmd.arg, " ")
		title = strings.TrimSpace(title)
		if id == "" || title == "" {
			return notice("Usage: /rename <id> <title>")
		}
		ws := m.workspace
		return func() tea.Msg {
			if _, err := ws.RenameChat(ctx, id, title); err != nil {
				return failure(err)
			}
			return noticeMsg("Renamed " + id + " to " + title + ".")
		}

	case "delete":
		if cmd.arg == "" {
			return notice("Usage: /delete <id>")
		}
		ws, id := m.workspace, cmd.arg
		return func() tea.Msg {
			if _, err := ws.DeleteChat(ctx, id); err != nil {
				return failure(err)
			}
			return noticeMsg("Deleted " + id + ".")
		}

	case "clear-all":
		ws := m.workspace
		return func() tea.Msg {
			if err := ws.DeleteAllChats(ctx); err != nil {
				return failure(err)
			}
			return noticeMsg("All chats deleted.")
		}
	}

	return notice("Unknown command /%s. Type /help.", cmd.name)
}
