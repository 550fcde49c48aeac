package mocktools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Command patterns the exec handler recognizes. The agent reaches email,
// tasks, docs and calendar through CLI/curl commands, so the mock matches
// the command string and synthesizes the output the real tool would print.
var (
	reHimalayaList  = regexp.MustCompile(`himalaya\s+(envelope\s+)?list`)
	reHimalayaRead  = regexp.MustCompile(`himalaya\s+message\s+read\s+['"]?(\S+)`)
	reHimalayaWrite = regexp.MustCompile(`himalaya\s+(message\s+write|template\s+write|draft)`)
	reHimalayaSend  = regexp.MustCompile(`himalaya\s+message\s+send`)
	reHimalayaFlag  = regexp.MustCompile(`himalaya\s+flag\s+add`)

	reNotionQuery  = regexp.MustCompile(`(?i)curl.*notion\.so/v1/databases/.*/query`)
	reNotionPage   = regexp.MustCompile(`(?i)curl.*notion\.so/v1/pages/([A-Za-z0-9_-]+)`)
	reNotionCreate = regexp.MustCompile(`(?i)curl.*-X\s*POST.*notion\.so/v1/pages`)
	reNotionPatch  = regexp.MustCompile(`(?i)curl.*-X\s*PATCH.*notion\.so/v1/pages`)
	reNotionDBs    = regexp.MustCompile(`(?i)curl.*notion\.so/v1/databases\b`)

	reGCalEvents = regexp.MustCompile(`(?i)curl.*googleapis\.com/calendar/v3/calendars/.*/events`)
	reGCalPost   = regexp.MustCompile(`-X\s*POST`)
	reGCalDelete = regexp.MustCompile(`-X\s*DELETE`)
	reGCalUpdate = regexp.MustCompile(`-X\s*PATCH|-X\s*PUT`)

	reGcalcliList   = regexp.MustCompile(`(?i)gcalcli\s+(agenda|list|search)|gcal\s+list-events`)
	reGcalcliAdd    = regexp.MustCompile(`(?i)gcalcli\s+add|gcal\s+create-event`)
	reGcalcliDelete = regexp.MustCompile(`(?i)gcalcli\s+delete|gcal\s+delete-event`)

	reGitHubCLI = regexp.MustCompile(`\bgh\s+`)
)

// handleExec pattern-matches the command string against the known CLI and
// curl shapes and returns fixture-backed output in the exec result format.
func (s *Server) handleExec(data map[string]any, scenario string) any {
	cmd := strings.TrimSpace(getString(data, "command"))

	// himalaya (email via CLI)
	if reHimalayaList.MatchString(cmd) {
		inbox := s.fixtures.loadList(scenario, "inbox.json")
		summaries := make([]map[string]any, 0, len(inbox))
		for _, msg := range inbox {
			labels := msg["labels"]
			if labels == nil {
				labels = []any{}
			}
			summaries = append(summaries, map[string]any{
				"id":      msg["id"],
				"sender":  msg["sender"],
				"subject": msg["subject"],
				"date":    getString(msg, "received_ts"),
				"flags":   labels,
			})
		}
		return execSuccess(indentJSON(summaries), false)
	}

	if m := reHimalayaRead.FindStringSubmatch(cmd); m != nil {
		msgID := strings.Trim(m[1], `'"`)
		for _, e := range s.fixtures.loadList(scenario, "inbox.json") {
			if fmt.Sprintf("%v", e["id"]) == msgID {
				text := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s",
					getString(e, "sender"), getString(e, "subject"),
					getString(e, "received_ts"), getString(e, "body"))
				return execSuccess(text, false)
			}
		}
		return execFailure(fmt.Sprintf("Message not found: %s", msgID), 1)
	}

	if reHimalayaWrite.MatchString(cmd) {
		return execSuccess(fmt.Sprintf("Draft saved: draft_%s", stampID()), false)
	}
	if reHimalayaSend.MatchString(cmd) {
		return execSuccess("Message sent successfully", true)
	}
	if reHimalayaFlag.MatchString(cmd) {
		return execSuccess("Flag added successfully", false)
	}

	// Notion API (tasks and docs via curl)
	if reNotionQuery.MatchString(cmd) {
		tasks := s.fixtures.loadList(scenario, "tasks.json")
		if tasks == nil {
			tasks = []map[string]any{}
		}
		return execSuccess(indentJSON(map[string]any{"results": tasks}), false)
	}

	if m := reNotionPage.FindStringSubmatch(cmd); m != nil {
		pageID := m[1]
		item := findByID(s.fixtures.loadList(scenario, "tasks.json"), pageID)
		if item == nil {
			item = findByID(s.fixtures.loadList(scenario, "documents.json"), pageID)
		}
		if item != nil {
			return execSuccess(indentJSON(item), false)
		}
		return execFailure(fmt.Sprintf("Page not found: %s", pageID), 1)
	}

	if reNotionCreate.MatchString(cmd) {
		return execSuccess(indentJSON(map[string]any{
			"id":     fmt.Sprintf("page_%s", stampID()),
			"status": "created",
		}), false)
	}
	if reNotionPatch.MatchString(cmd) {
		return execSuccess(indentJSON(map[string]any{"status": "updated"}), false)
	}
	if reNotionDBs.MatchString(cmd) {
		docs := s.fixtures.loadList(scenario, "documents.json")
		if docs == nil {
			docs = []map[string]any{}
		}
		return execSuccess(indentJSON(map[string]any{"results": docs}), false)
	}

	// Google Calendar API (via curl)
	if reGCalEvents.MatchString(cmd) {
		switch {
		case reGCalPost.MatchString(cmd):
			return execSuccess(indentJSON(map[string]any{
				"id":     fmt.Sprintf("evt_%s", stampID()),
				"status": "confirmed",
			}), true)
		case reGCalDelete.MatchString(cmd):
			return execSuccess("", true)
		case reGCalUpdate.MatchString(cmd):
			return execSuccess(indentJSON(map[string]any{"status": "updated"}), false)
		default:
			return execSuccess(indentJSON(map[string]any{"items": s.calendarItems(scenario)}), false)
		}
	}

	// gcalcli / gcal CLI
	if reGcalcliList.MatchString(cmd) {
		return execSuccess(indentJSON(map[string]any{"items": s.calendarItems(scenario)}), false)
	}
	if reGcalcliAdd.MatchString(cmd) {
		return execSuccess(indentJSON(map[string]any{
			"id":     fmt.Sprintf("evt_%s", stampID()),
			"status": "confirmed",
		}), true)
	}
	if reGcalcliDelete.MatchString(cmd) {
		return execSuccess("Event deleted", true)
	}

	// GitHub CLI
	if reGitHubCLI.MatchString(cmd) {
		return execSuccess("(mock gh output)", false)
	}

	if len(cmd) > 100 {
		cmd = cmd[:100]
	}
	return execSuccess(fmt.Sprintf("(mock output for: %s)", cmd), false)
}

func (s *Server) calendarItems(scenario string) []map[string]any {
	events := s.fixtures.loadList(scenario, "calendar.json")
	if events == nil {
		events = []map[string]any{}
	}
	return events
}

func findByID(items []map[string]any, id string) map[string]any {
	for _, it := range items {
		if fmt.Sprintf("%v", it["id"]) == id {
			return it
		}
	}
	return nil
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// execSuccess formats a successful exec result. Irreversible commands are
// flagged so scenario checks can catch side-effecting calls.
func execSuccess(output string, irreversible bool) map[string]any {
	result := map[string]any{
		"status":     "completed",
		"exitCode":   0,
		"durationMs": 42,
		"aggregated": output,
	}
	if irreversible {
		result["_irreversible"] = true
	}
	return result
}

func execFailure(errMsg string, exitCode int) map[string]any {
	return map[string]any{
		"status":     "failed",
		"exitCode":   exitCode,
		"durationMs": 10,
		"aggregated": errMsg,
	}
}
