package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/framprelay/client"
	"github.com/brojonat/framprelay/service/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relayer is the set of relay operations the server exposes.
// *client.Relayer satisfies it.
type Relayer interface {
	GiftToken(ctx context.Context, params client.GiftParams) (*client.TransactionResult, error)
	PayServiceFee(ctx context.Context, params client.GiftParams) (*client.TransactionResult, error)
	SendAirtime(ctx context.Context, params client.AirtimeParams) (*client.TransactionResult, error)
	ConfirmAirtime(ctx context.Context, id string) (json.RawMessage, error)
	VerifyTransactionStatus(ctx context.Context, signature string) bool
}

// Server exposes a Relayer over HTTP so vendor credentials stay server-side.
type Server struct {
	addr    string
	relayer Relayer
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new HTTP server. The metrics is optional - if nil, the
// metrics endpoint won't be available.
func New(addr string, relayer Relayer, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		relayer: relayer,
		metrics: m,
		logger:  logger,
	}
}

// Handler builds the routed handler. It is exported for tests and for
// embedding the relay in another server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /api/v1/gift", "/api/v1/gift", handleGiftToken(s.relayer.GiftToken, s.logger))
	s.route(mux, "POST /api/v1/fee", "/api/v1/fee", handleGiftToken(s.relayer.PayServiceFee, s.logger))
	s.route(mux, "POST /api/v1/airtime", "/api/v1/airtime", handleSendAirtime(s.relayer, s.logger))
	s.route(mux, "POST /api/v1/airtime/{id}/confirm", "/api/v1/airtime/confirm", handleConfirmAirtime(s.relayer, s.logger))
	s.route(mux, "GET /api/v1/transactions/{signature}/status", "/api/v1/transactions/status", handleTransactionStatus(s.relayer, s.logger))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h http.Handler) {
	if s.metrics != nil {
		h = metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}
	mux.Handle(pattern, h)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // status checks may wait on the explorer for up to a minute
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
