package roomstore

import (
	"sort"
	"strings"

	"roomchat/internal/chat"

	"golang.org/x/text/cases"
)

// SearchResult is one hit. NameMatch marks hits produced by the room name,
// which surface the room's latest message.
type SearchResult struct {
	RoomID    string
	RoomName  string
	Message   chat.Message
	NameMatch bool
}

// Search matches query case-insensitively against room names and message
// contents, optionally limited to roomID. Results are newest first.
func (r *RoomStore) Search(query, roomID string) []SearchResult {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	rooms := r.Rooms()
	var results []SearchResult
	for _, room := range rooms {
		if roomID != "" && room.ID != roomID {
			continue
		}
		seen := make(map[string]bool)
		if strings.Contains(fold.String(room.Name), q) && len(room.Messages) > 0 {
			last := room.Messages[len(room.Messages)-1]
			seen[last.ID] = true
			results = append(results, SearchResult{RoomID: room.ID, RoomName: room.Name, Message: last, NameMatch: true})
		}
		for _, msg := range room.Messages {
			if seen[msg.ID] || !strings.Contains(fold.String(msg.Content), q) {
				continue
			}
			results = append(results, SearchResult{RoomID: room.ID, RoomName: room.Name, Message: msg})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Message.Timestamp > results[j].Message.Timestamp
	})
	return results
}
