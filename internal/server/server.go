// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the thin HTTP adapter over the pipeline Engine. It maps
// RunResult to transport responses and nothing more; it never sees stage
// error types.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pdiddy/geo-engine/internal/history"
	"github.com/pdiddy/geo-engine/pkg/types"
)

// Runner is the orchestrator boundary the adapter consumes.
type Runner interface {
	Run(ctx context.Context, keyword, sourceText string) types.RunResult
}

// Server handles fan-out requests over HTTP.
type Server struct {
	runner  Runner
	history *history.Store // nil disables recording
}

// New builds a Server. hist may be nil.
func New(runner Runner, hist *history.Store) *Server {
	return &Server{runner: runner, history: hist}
}

// fanOutRequest is the POST /fanout body.
type fanOutRequest struct {
	Keyword    string `json:"keyword"`
	SourceText string `json:"source_text,omitempty"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /fanout", s.handleFanOut)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFanOut runs one pipeline run. Missing keyword maps to 422, a pipeline
// failure to 502, and success to the serialized FanOutResult.
func (s *Server) handleFanOut(w http.ResponseWriter, r *http.Request) {
	var req fanOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if strings.TrimSpace(req.Keyword) == "" {
		// Validated in the pipeline as well; reported here so clients get a
		// 422 instead of a 502.
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "keyword is required"})
		return
	}

	res := s.runner.Run(r.Context(), req.Keyword, req.SourceText)
	s.record(r.Context(), req.Keyword, res)

	if !res.Succeeded() {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: res.Message})
		return
	}
	writeJSON(w, http.StatusOK, res.Result)
}

// record stores the outcome when history is enabled. Recording failures are
// reported but never affect the response.
func (s *Server) record(ctx context.Context, keyword string, res types.RunResult) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, keyword, res); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run: %v\n", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
