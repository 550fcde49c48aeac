// Package mocktools implements the fixture-backed mock tool server: an HTTP
// service that simulates the external SaaS tools an agent may call, serving
// deterministic responses from per-scenario fixture files and recording
// every call so the episode runner can hand the log to the scoring engine.
package mocktools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// handlerFunc dispatches one tool call: the decoded request body plus the
// scenario active when the request started.
type handlerFunc func(data map[string]any, scenario string) any

// Config holds the mock tool server configuration.
type Config struct {
	Port         int
	FixturesDir  string
	WorkspaceDir string
	LogDir       string
	Scenario     string
	Logger       *slog.Logger
}

// Server is the mock tool server.
type Server struct {
	cfg      Config
	state    *State
	fixtures fixtureStore
	handlers map[string]handlerFunc
	srv      *http.Server
	logger   *slog.Logger
}

// New creates a mock tool server with the given configuration.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 3001
	}
	if cfg.FixturesDir == "" {
		cfg.FixturesDir = "./fixtures"
	}
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = "./workspace"
	}
	if cfg.Scenario == "" {
		cfg.Scenario = "inbox_triage"
	}

	s := &Server{
		cfg:      cfg,
		state:    NewState(cfg.Scenario, cfg.LogDir),
		fixtures: fixtureStore{dir: cfg.FixturesDir},
		logger:   cfg.Logger,
	}
	s.handlers = map[string]handlerFunc{
		"slack":         s.handleSlack,
		"exec":          s.handleExec,
		"memory_search": s.handleMemorySearch,
		"memory_get":    s.handleMemoryGet,
		"web_search":    s.handleWebSearch,
		"web_fetch":     s.handleWebFetch,
		"read":          s.handleRead,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tools/{tool}", s.handleTool)
	mux.HandleFunc("POST /set_scenario/{scenario}", s.handleSetScenario)
	mux.HandleFunc("POST /set_user_context", s.handleSetUserContext)
	mux.HandleFunc("GET /tool_calls", s.handleToolCalls)
	mux.HandleFunc("GET /all_requests", s.handleAllRequests)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("mock tool server listening",
		"addr", s.srv.Addr,
		"scenario", s.state.Scenario(),
		"tools", len(s.handlers))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleTool is the generic dispatch endpoint: POST /tools/{tool}.
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")
	// Snapshot the scenario at request start so a concurrent set_scenario
	// cannot change it mid-handler.
	scenario := s.state.Scenario()

	body, _ := io.ReadAll(r.Body)
	data := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			data = map[string]any{"_raw": string(body)}
		}
	}

	s.logger.Debug("tool request", "tool", tool, "scenario", scenario)

	handler, ok := s.handlers[tool]
	if !ok {
		s.recordRequest(tool, data, http.StatusNotFound)
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tool: %s (known: %v)", tool, s.toolNames()))
		return
	}

	result := handler(data, scenario)

	if err := s.state.AddToolCall(ToolCallEntry{
		TS:            nowTS(),
		Tool:          tool,
		Args:          data,
		Response:      result,
		ResultSummary: summarize(result),
	}); err != nil {
		s.logger.Warn("tool call log append failed", "error", err)
	}
	s.recordRequest(tool, data, http.StatusOK)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) recordRequest(tool string, body any, status int) {
	if err := s.state.AddRequest(RequestEntry{
		TS:          nowTS(),
		Tool:        tool,
		RequestBody: body,
		StatusCode:  status,
		Success:     status >= 200 && status < 300,
	}); err != nil {
		s.logger.Warn("request log append failed", "error", err)
	}
}

func (s *Server) handleSetScenario(w http.ResponseWriter, r *http.Request) {
	scenario := r.PathValue("scenario")
	s.state.Reset(scenario)
	s.logger.Info("scenario reset", "scenario", scenario)
	writeJSON(w, http.StatusOK, map[string]string{"scenario": scenario})
}

func (s *Server) handleSetUserContext(w http.ResponseWriter, r *http.Request) {
	var ctx map[string]string
	if err := json.NewDecoder(r.Body).Decode(&ctx); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid user context body: %v", err))
		return
	}
	applied := s.state.SetUserContext(ctx)
	s.logger.Info("user context set", "keys", len(applied))
	writeJSON(w, http.StatusOK, map[string]any{"user_context": applied})
}

func (s *Server) handleToolCalls(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"calls": s.state.ToolCalls()})
}

func (s *Server) handleAllRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.AllRequests())
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	names := s.toolNames()
	writeJSON(w, http.StatusOK, map[string]any{"tools": names, "count": len(names)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"scenario":        s.state.Scenario(),
		"tools_available": len(s.handlers),
		"tool_names":      s.toolNames(),
	})
}

func (s *Server) toolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// summarize truncates a response for the audit log.
func summarize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := string(b)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
