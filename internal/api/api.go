// Package api exposes the IntakePipe HTTP surface: conversation endpoints
// for the website widget, WhatsApp webhook and send endpoints, and flow
// administration.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/advocata/intakepipe/internal/flow"
	"github.com/advocata/intakepipe/internal/messaging"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// Shutdown timeout for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the HTTP endpoints over the conversation orchestrator and the
// messaging transport.
type Server struct {
	addr       string
	orc        *flow.Orchestrator
	msgService messaging.Service
	httpServer *http.Server
}

// NewServer builds a server routing conversation turns through orc and
// messaging operations through msgService. msgService may be nil when no
// transport is configured; WhatsApp endpoints then report unavailability.
func NewServer(orc *flow.Orchestrator, msgService messaging.Service, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		addr:       cfg.Addr,
		orc:        orc,
		msgService: msgService,
	}
}

// routes builds the request multiplexer.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /conversation/start", s.startConversationHandler)
	mux.HandleFunc("POST /conversation/respond", s.respondHandler)
	mux.HandleFunc("POST /conversation/submit-phone", s.submitPhoneHandler)
	mux.HandleFunc("GET /conversation/status/{id}", s.conversationStatusHandler)
	mux.HandleFunc("GET /flow", s.getFlowHandler)
	mux.HandleFunc("PUT /flow", s.updateFlowHandler)
	mux.HandleFunc("POST /whatsapp/webhook", s.whatsappWebhookHandler)
	mux.HandleFunc("POST /whatsapp/send", s.whatsappSendHandler)
	mux.HandleFunc("GET /whatsapp/status", s.whatsappStatusHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the configured HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}
