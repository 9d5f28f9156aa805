package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/hamper/internal/logger"
	"github.com/hpungsan/hamper/internal/ops"
)

const requestIDHeader = "X-Request-Id"

// NewServer creates and configures the HTTP server for the basket API.
func NewServer(env *ops.Env, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(env, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(env *ops.Env, version string) http.Handler {
	h := &Handlers{env: env, version: version}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/laundry", http.StatusFound)
	})
	mux.HandleFunc("GET /laundry", h.HandleList)
	mux.HandleFunc("POST /laundry", h.HandleStore)
	mux.HandleFunc("GET /laundry/latest", h.HandleLatest)
	mux.HandleFunc("GET /laundry/search", h.HandleSearch)
	mux.HandleFunc("GET /laundry/inventory", h.HandleInventory)
	mux.HandleFunc("POST /laundry/clear", h.HandleClear)
	mux.HandleFunc("GET /laundry/{id}", h.HandleDetail)
	mux.HandleFunc("PATCH /laundry/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /laundry/{id}", h.HandleDelete)
	mux.HandleFunc("POST /laundry/{id}/solve", h.HandleSolve)
	mux.HandleFunc("POST /hamper", h.HandleHamper)
	mux.HandleFunc("GET /symbols", h.HandleSymbols)
	mux.HandleFunc("GET /symbols/{code}", h.HandleSymbol)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", env.Metrics.Handler())

	return requestLog(env.Log, securityHeaders(mux))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLog tags each request with an id and logs its outcome.
// An incoming X-Request-Id is kept.
func requestLog(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log *logger.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("hamper API running", "addr", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
