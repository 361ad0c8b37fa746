// Package webhook hosts the inbound event pipeline: signature verification,
// event classification, answer resolution, and reply dispatch.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/faqbot/internal/audit"
	"github.com/nextlevelbuilder/faqbot/internal/auth"
	"github.com/nextlevelbuilder/faqbot/internal/config"
	"github.com/nextlevelbuilder/faqbot/internal/workvivo"
)

// Dispatcher delivers a constructed reply to the external messaging API.
type Dispatcher interface {
	SendBotMessage(ctx context.Context, msg workvivo.BotMessage) error
}

// AnswerResolver maps a user utterance to a reply string. Never fails.
type AnswerResolver interface {
	Resolve(ctx context.Context, utterance string) string
}

// Server is the webhook HTTP server.
type Server struct {
	cfg         *config.Config
	verifier    *auth.Verifier
	answers     AnswerResolver
	dispatcher  Dispatcher
	auditLog    *audit.Logger
	rateLimiter *RateLimiter
	tracer      trace.Tracer

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a webhook server. auditLog may be nil to disable
// auditing.
func NewServer(cfg *config.Config, verifier *auth.Verifier, answers AnswerResolver, dispatcher Dispatcher, auditLog *audit.Logger) *Server {
	return &Server{
		cfg:         cfg,
		verifier:    verifier,
		answers:     answers,
		dispatcher:  dispatcher,
		auditLog:    auditLog,
		rateLimiter: NewRateLimiter(cfg.Server.RateLimitRPM, 5),
		tracer:      otel.Tracer("faqbot/webhook"),
	}
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)

	s.mux = mux
	return mux
}

// Start begins listening for webhook deliveries. It blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("webhook server starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// writeJSON writes data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// StartTestServer creates a listener on 127.0.0.1:0 (random port) and
// returns the actual address and a start function. Used for integration
// tests.
func StartTestServer(s *Server, ctx context.Context) (addr string, start func()) {
	mux := s.BuildMux()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic("listen: " + err.Error())
	}

	s.httpServer = &http.Server{Handler: mux}
	addr = ln.Addr().String()

	start = func() {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.httpServer.Shutdown(shutdownCtx)
		}()
		s.httpServer.Serve(ln)
	}

	return addr, start
}
