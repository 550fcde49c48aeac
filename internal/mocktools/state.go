package mocktools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ToolCallEntry is one successfully dispatched tool call, in the shape the
// scoring engine consumes from GET /tool_calls.
type ToolCallEntry struct {
	TS            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Args          map[string]any `json:"args"`
	Response      any            `json:"response"`
	ResultSummary string         `json:"result_summary"`
}

// RequestEntry records every /tools/ request, including failures, for
// debugging via GET /all_requests.
type RequestEntry struct {
	TS          string `json:"ts"`
	Tool        string `json:"tool"`
	RequestBody any    `json:"request_body"`
	StatusCode  int    `json:"status_code"`
	Success     bool   `json:"success"`
}

// RequestLog is the GET /all_requests response body.
type RequestLog struct {
	Requests []RequestEntry `json:"requests"`
	Summary  RequestSummary `json:"summary"`
}

type RequestSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// State owns the per-scenario mutable state of the mock tool server: the
// active scenario name, the tool-call and request logs, and the user context
// used for template substitution in served files. One instance per server
// process; reset happens only through Reset, under the lock, so a scenario
// switch can never interleave with concurrent call logging.
type State struct {
	mu          sync.Mutex
	scenario    string
	toolCalls   []ToolCallEntry
	allRequests []RequestEntry
	userContext map[string]string

	// logDir, when set, receives per-scenario JSONL audit logs.
	logDir string
}

// NewState creates server state starting at the given scenario.
func NewState(scenario, logDir string) *State {
	return &State{scenario: scenario, logDir: logDir}
}

// Scenario returns the active scenario name.
func (s *State) Scenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenario
}

// Reset switches to a new scenario and clears all recorded calls, requests,
// and user context.
func (s *State) Reset(scenario string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenario = scenario
	s.toolCalls = nil
	s.allRequests = nil
	s.userContext = nil
}

// SetUserContext replaces the user identity context. A first name is derived
// from USER_NAME when not provided explicitly.
func (s *State) SetUserContext(ctx map[string]string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userContext = make(map[string]string, len(ctx)+1)
	for k, v := range ctx {
		s.userContext[k] = v
	}
	if _, ok := s.userContext["USER_FIRST_NAME"]; !ok {
		if name, ok := s.userContext["USER_NAME"]; ok {
			if first, _, _ := strings.Cut(name, " "); first != "" {
				s.userContext["USER_FIRST_NAME"] = first
			}
		}
	}
	return s.copyUserContextLocked()
}

// UserContext returns a copy of the current user context.
func (s *State) UserContext() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyUserContextLocked()
}

func (s *State) copyUserContextLocked() map[string]string {
	out := make(map[string]string, len(s.userContext))
	for k, v := range s.userContext {
		out[k] = v
	}
	return out
}

// AddToolCall appends a successful call to the log.
func (s *State) AddToolCall(entry ToolCallEntry) error {
	s.mu.Lock()
	s.toolCalls = append(s.toolCalls, entry)
	scenario := s.scenario
	s.mu.Unlock()
	return s.appendLog(fmt.Sprintf("%s_calls.jsonl", scenario), entry)
}

// AddRequest appends a request record (success or failure).
func (s *State) AddRequest(entry RequestEntry) error {
	s.mu.Lock()
	s.allRequests = append(s.allRequests, entry)
	scenario := s.scenario
	s.mu.Unlock()
	return s.appendLog(fmt.Sprintf("%s_all_requests.jsonl", scenario), entry)
}

// ToolCalls returns a snapshot of the successful tool calls.
func (s *State) ToolCalls() []ToolCallEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolCallEntry, len(s.toolCalls))
	copy(out, s.toolCalls)
	return out
}

// AllRequests returns a snapshot of every recorded request with a summary.
func (s *State) AllRequests() RequestLog {
	s.mu.Lock()
	requests := make([]RequestEntry, len(s.allRequests))
	copy(requests, s.allRequests)
	s.mu.Unlock()

	summary := RequestSummary{Total: len(requests)}
	for _, r := range requests {
		if r.Success {
			summary.Success++
		} else {
			summary.Failed++
		}
	}
	return RequestLog{Requests: requests, Summary: summary}
}

func (s *State) appendLog(filename string, entry any) error {
	if s.logDir == "" {
		return nil
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.logDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.logDir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func nowTS() string {
	return time.Now().UTC().Format(time.RFC3339)
}
