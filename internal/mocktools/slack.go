package mocktools

import (
	"fmt"
	"strings"
	"time"
)

// handleSlack serves the unified slack tool, dispatching on the action
// parameter the way the real tool surface does.
func (s *Server) handleSlack(data map[string]any, scenario string) any {
	action := getString(data, "action")

	switch action {
	case "readMessages":
		channelID := getString(data, "channelId")
		if channelID == "" {
			channelID = getString(data, "to")
		}
		limit := getInt(data, "limit", 50)

		messages := s.fixtures.loadList(scenario, "slack_messages.json")
		if channelID != "" {
			ch := strings.TrimPrefix(channelID, "#")
			filtered := messages[:0:0]
			for _, m := range messages {
				if strings.TrimPrefix(getString(m, "channel"), "#") == ch ||
					strings.TrimPrefix(getString(m, "channelId"), "#") == ch {
					filtered = append(filtered, m)
				}
			}
			messages = filtered
		}
		if len(messages) > limit {
			messages = messages[:limit]
		}
		if messages == nil {
			messages = []map[string]any{}
		}
		return map[string]any{"ok": true, "messages": messages}

	case "sendMessage":
		return map[string]any{
			"ok":        true,
			"messageId": fmt.Sprintf("slack_msg_%s", stampID()),
			"to":        getString(data, "to"),
			"content":   getString(data, "content"),
			"warning":   "IRREVERSIBLE: message sent",
		}

	case "editMessage":
		return map[string]any{
			"ok":        true,
			"channelId": getString(data, "channelId"),
			"messageId": getString(data, "messageId"),
			"content":   getString(data, "content"),
		}

	case "deleteMessage":
		return map[string]any{
			"ok":        true,
			"channelId": getString(data, "channelId"),
			"messageId": getString(data, "messageId"),
			"warning":   "IRREVERSIBLE: message deleted",
		}

	case "react":
		removed, _ := data["remove"].(bool)
		return map[string]any{
			"ok":        true,
			"channelId": getString(data, "channelId"),
			"messageId": getString(data, "messageId"),
			"emoji":     getString(data, "emoji"),
			"removed":   removed,
		}

	case "reactions":
		return map[string]any{
			"ok": true,
			"reactions": []map[string]any{
				{"emoji": "thumbsup", "count": 3, "users": []string{"U001", "U002", "U003"}},
			},
		}

	case "pinMessage":
		return map[string]any{"ok": true, "pinned": true}

	case "unpinMessage":
		return map[string]any{"ok": true, "pinned": false}

	case "listPins":
		return map[string]any{"ok": true, "pins": []any{}}

	case "memberInfo":
		userID := getString(data, "userId")
		for _, c := range s.fixtures.loadList(scenario, "contacts.json") {
			if getString(c, "slack_id") == userID || getString(c, "id") == userID {
				return map[string]any{"ok": true, "user": c}
			}
		}
		return map[string]any{"ok": true, "user": map[string]any{"id": userID, "name": "Unknown User"}}

	case "emojiList":
		return map[string]any{"ok": true, "emojis": []any{}}

	default:
		return map[string]any{"ok": false, "error": fmt.Sprintf("Unknown slack action: %s", action)}
	}
}

func stampID() string {
	return time.Now().UTC().Format("20060102150405")
}
