// Package server binds every HTTP endpoint onto a standard library
// net/http.ServeMux using Go 1.22+ method+path patterns, the way the
// teacher's example/*/main.go programs wire a handful of explicit
// routes without reaching for a web framework.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/siherrmann/ragcore/config"
	"github.com/siherrmann/ragcore/core/llm"
	"github.com/siherrmann/ragcore/core/orchestrator"
	"github.com/siherrmann/ragcore/core/thread"
	"github.com/siherrmann/ragcore/database"
)

// Server wires the query-answering, memory, feedback, thread, and
// evaluation collaborators onto an http.Server.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	threader     *thread.Manager
	memory       *database.MemoryDBHandler
	feedback     *database.FeedbackDBHandler
	threads      *database.ThreadsDBHandler
	llm          llm.Client

	cfg config.ServerConfig
	log *slog.Logger

	httpServer *http.Server
}

func New(
	orch *orchestrator.Orchestrator,
	threader *thread.Manager,
	memory *database.MemoryDBHandler,
	feedback *database.FeedbackDBHandler,
	threads *database.ThreadsDBHandler,
	llmClient llm.Client,
	cfg config.ServerConfig,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		orchestrator: orch,
		threader:     threader,
		memory:       memory,
		feedback:     feedback,
		threads:      threads,
		llm:          llmClient,
		cfg:          cfg,
		log:          log,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /query/simple", s.handleQuerySimple)
	mux.HandleFunc("POST /query/classify-chunks", s.handleClassifyChunks)
	mux.HandleFunc("POST /query/generate-subquestions", s.handleGenerateSubquestions)
	mux.HandleFunc("POST /query/verify-answer", s.handleVerifyAnswer)

	mux.HandleFunc("GET /memory/stats", s.handleMemoryStats)
	mux.HandleFunc("GET /memory/entry/{id}", s.handleMemoryGet)
	mux.HandleFunc("DELETE /memory/entry/{id}", s.handleMemoryDelete)
	mux.HandleFunc("DELETE /memory/clear", s.handleMemoryClear)

	mux.HandleFunc("POST /feedback", s.handleFeedbackUpsert)
	mux.HandleFunc("GET /favorites", s.handleFavorites)

	mux.HandleFunc("POST /thread/create", s.handleThreadCreate)
	mux.HandleFunc("GET /threads", s.handleThreadsList)
	mux.HandleFunc("GET /thread/{id}", s.handleThreadGet)
	mux.HandleFunc("POST /thread/message", s.handleThreadMessage)

	mux.HandleFunc("POST /evaluate", s.handleEvaluate)

	return mux
}

// Start binds the listener and serves in the background; it does not
// block. Call Shutdown to drain and stop.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", slog.String("error", err.Error()))
		}
	}()

	s.log.Info("http server listening", slog.String("addr", s.cfg.Addr))
	return nil
}

// Shutdown drains in-flight requests, bounded by the configured
// shutdown timeout, mirroring the context.WithTimeout discipline every
// database handler already uses.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if s.memory != nil {
		if _, err := s.memory.Stats(); err != nil {
			dbStatus = "error"
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"services": map[string]string{
			"database": dbStatus,
			"api":      "ok",
		},
	})
}
