package models

// ToolCall is one recorded tool invocation, in the order it occurred.
// Args and Response are opaque: the mock tool server returns structured
// values for most tools and plain strings for some, and the scoring engine
// must not assume either shape.
type ToolCall struct {
	Tool     string `json:"tool"`
	Args     any    `json:"args,omitempty"`
	Response any    `json:"response,omitempty"`
	TS       string `json:"ts,omitempty"`
}

// EpisodeResult is the transcript of one episode: the concatenated
// assistant-visible text plus the ordered tool-call log. It is produced by
// the episode runner and read-only input to the scoring engine.
//
// Per-tool counts and the total are derived on demand from ToolCalls, so
// they can never disagree with the log.
type EpisodeResult struct {
	Response  string     `json:"response"`
	ToolCalls []ToolCall `json:"tool_calls_raw"`
}

// CountsByTool groups the tool-call log by tool name.
func (r *EpisodeResult) CountsByTool() map[string]int {
	counts := make(map[string]int, len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		counts[tc.Tool]++
	}
	return counts
}

// TotalCalls returns the number of recorded tool calls.
func (r *EpisodeResult) TotalCalls() int {
	return len(r.ToolCalls)
}
