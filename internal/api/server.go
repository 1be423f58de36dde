// Package api implements the HTTP API for the dialogue engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/agora-edu/agora-dialogue/internal/buildinfo"
	"github.com/agora-edu/agora-dialogue/internal/dialogue"
	"github.com/agora-edu/agora-dialogue/internal/store"
	"github.com/agora-edu/agora-dialogue/internal/transcript"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	engine  *dialogue.Engine
	store   store.Gateway
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, engine *dialogue.Engine, gw store.Gateway, logger *slog.Logger) *Server {
	return &Server{
		address: address,
		port:    port,
		engine:  engine,
		store:   gw,
		logger:  logger,
	}
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/discussions/{id}/chat", s.handleChat)
	mux.HandleFunc("GET /v1/discussions/{id}/messages", s.handleMessages)
	mux.HandleFunc("GET /v1/participants/{id}/transcript", s.handleTranscript)
	mux.HandleFunc("GET /ws/discussions/{id}/chat", s.handleChatSocket)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: streamed responses stay open for the whole
		// generation. Per-write deadlines are reset chunk by chunk.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "agorad",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

// ChatRequest is the chat endpoint request body. An empty UserMessage on
// a fresh conversation asks the AI to open the discussion.
type ChatRequest struct {
	ParticipantID string `json:"participantId"`
	UserMessage   string `json:"userMessage"`
	Stream        bool   `json:"stream,omitempty"`
	Locale        string `json:"locale,omitempty"`
}

// ChatResponse is the batch chat response.
type ChatResponse struct {
	Response  string `json:"response"`
	IsClosing bool   `json:"isClosing"`
	Degraded  bool   `json:"degraded,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	engReq := dialogue.Request{
		DiscussionID:  r.PathValue("id"),
		ParticipantID: req.ParticipantID,
		Message:       req.UserMessage,
		Locale:        req.Locale,
	}

	if req.Stream {
		s.handleStreamingChat(w, r, engReq)
		return
	}

	resp, err := s.engine.Respond(r.Context(), engReq)
	if err != nil {
		s.engineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ChatResponse{
		Response:  resp.Text,
		IsClosing: resp.IsClosing,
		Degraded:  resp.Degraded,
	}, s.logger)
}

// handleStreamingChat serves the chat response over SSE: zero or more
// chunk events followed by exactly one terminal event. Headers are held
// back until the first chunk so pre-generation failures can still use a
// proper status code.
func (s *Server) handleStreamingChat(w http.ResponseWriter, r *http.Request, engReq dialogue.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	rc := http.NewResponseController(w)
	started := false

	emit := func(event any) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			started = true
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		if err := rc.SetWriteDeadline(time.Now().Add(120 * time.Second)); err != nil {
			s.logger.Debug("failed to reset write deadline", "error", err)
		}
		return nil
	}

	resp, err := s.engine.RespondStream(r.Context(), engReq, func(chunk string) error {
		return emit(map[string]string{"chunk": chunk})
	})
	if err != nil {
		if !started {
			s.engineError(w, err)
			return
		}
		// Mid-stream failure: the status line is gone, report in-band the
		// way the original client expects.
		s.logger.Error("streaming chat failed", "error", err)
		_ = emit(map[string]string{"error": "streaming failed"})
		return
	}

	terminal := map[string]any{"done": true, "isClosing": resp.IsClosing}
	if resp.Degraded {
		terminal["degraded"] = true
		// Degraded responses are generated whole; the single chunk was
		// already delivered by the engine through the callback.
	}
	if err := emit(terminal); err != nil {
		s.logger.Debug("failed to write terminal event", "error", err)
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	discussionID := r.PathValue("id")
	participantID := r.URL.Query().Get("participantId")
	if participantID == "" {
		s.errorResponse(w, http.StatusBadRequest, "participantId is required")
		return
	}

	participant, err := s.store.GetParticipant(r.Context(), participantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "participant not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "load participant")
		return
	}
	if participant.SessionID != discussionID {
		s.errorResponse(w, http.StatusNotFound, "participant not found")
		return
	}

	turns, err := s.store.ListTurns(r.Context(), participantID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "load messages")
		return
	}

	if limit := parseIntParam(r, "limit", 0); limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"messages": turns,
		"count":    len(turns),
	}, s.logger)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	participantID := r.PathValue("id")

	participant, err := s.store.GetParticipant(r.Context(), participantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "participant not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "load participant")
		return
	}

	discussion, err := s.store.GetDiscussion(r.Context(), participant.SessionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "load discussion")
		return
	}

	turns, err := s.store.ListTurns(r.Context(), participantID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "load messages")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}

	switch format {
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, transcript.Markdown(discussion, participant, turns))

	case "html":
		html, err := transcript.HTML(discussion, participant, turns)
		if err != nil {
			s.logger.Error("transcript render failed", "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "render transcript")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)

	default:
		s.errorResponse(w, http.StatusBadRequest, "unsupported format: "+format+" (use md or html)")
	}
}

// engineError maps a dialogue error to an HTTP response.
func (s *Server) engineError(w http.ResponseWriter, err error) {
	var derr *dialogue.Error
	if errors.As(err, &derr) {
		s.errorResponse(w, derr.HTTPStatus(), derr.Reason)
		return
	}
	s.logger.Error("chat failed", "error", err)
	s.errorResponse(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
