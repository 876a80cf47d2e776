package transcript

import "github.com/shanvika-ai/shanvika/client/internal/render"

// UserEntry is the optimistic bubble for text the user just sent.
func UserEntry(text, attachmentName string) Entry {
	return Entry{
		Role:       RoleUser,
		Kind:       KindMessage,
		Format:     render.FormatText,
		Source:     text,
		Markup:     render.UserMarkup(text, attachmentName),
		Attachment: attachmentName,
	}
}

// ReplyEntry is an assistant message rendered with r.
func ReplyEntry(r *render.Renderer, format render.Format, source string) Entry {
	return Entry{
		Role:   RoleAssistant,
		Kind:   KindMessage,
		Format: format,
		Source: source,
		Markup: r.Markup(format, source),
	}
}

// PlaceholderEntry is the loading bubble shown while a reply is awaited.
func PlaceholderEntry(caption string) Entry {
	return Entry{
		Role:   RoleAssistant,
		Kind:   KindPlaceholder,
		Format: render.FormatText,
		Source: caption,
		Markup: render.UserMarkup(caption, ""),
	}
}

// NoticeEntry is a short assistant status line such as a stop or error marker.
func NoticeEntry(text string) Entry {
	return Entry{
		Role:   RoleAssistant,
		Kind:   KindNotice,
		Format: render.FormatText,
		Source: text,
		Markup: render.UserMarkup(text, ""),
	}
}

// SystemEntry is local client output, e.g. command help. It never reaches the backend.
func SystemEntry(text string) Entry {
	return Entry{
		Role:   RoleSystem,
		Kind:   KindNotice,
		Format: render.FormatText,
		Source: text,
		Markup: render.UserMarkup(text, ""),
	}
}
