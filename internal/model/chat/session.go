package chat

import "strings"

// Session identifies a conversation owned by the backend.
type Session struct {
	ID string `json:"session_id"`
}

// HistoryItem is one row of the conversation list returned by /api/history.
type HistoryItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FilterHistory keeps the items whose title contains query, ignoring case.
// An empty query returns items unchanged.
func FilterHistory(items []HistoryItem, query string) []HistoryItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	filtered := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
