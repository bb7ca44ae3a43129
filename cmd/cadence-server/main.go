// Package main implements the cadence API server: contact snapshots in,
// recommended messaging windows out.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/replymint/cadence/pkg/cadence"
	"github.com/replymint/cadence/pkg/geollm"
)

var (
	port         = flag.String("port", "8080", "Port for the API server")
	geminiAPIKey = flag.String("gemini-key", "", "Gemini API key for location fallback (or set GEMINI_API_KEY)")
	geminiModel  = flag.String("gemini-model", "gemini-2.5-flash-lite", "Gemini model to use")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID (or set GCP_PROJECT)")
	cacheTTL     = flag.Duration("cache-ttl", time.Hour, "Evaluation cache TTL")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

const maxBodyBytes = 4 << 20 // generous: a year of events is well under this

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{requests: make(map[string][]time.Time)}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 60 evaluations per minute per IP.
	if len(valid) >= 60 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("cadence-server v1.3.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *geminiAPIKey == "" {
		*geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if *gcpProject == "" {
		*gcpProject = os.Getenv("GCP_PROJECT")
	}

	logger.Info("server configuration",
		"port", *port,
		"verbose", *verbose,
		"cache_ttl", *cacheTTL,
		"gemini_model", *geminiModel,
		"has_gemini_key", *geminiAPIKey != "",
		"has_gcp_project", *gcpProject != "")

	var engineOpts []cadence.Option
	if *geminiAPIKey != "" || *gcpProject != "" {
		resolver := geollm.New(*geminiAPIKey, logger,
			geollm.WithModel(*geminiModel),
			geollm.WithGCPProject(*gcpProject))
		engineOpts = append(engineOpts, cadence.WithLocationResolver(resolver))
	}

	cache := otter.Must(&otter.Options[string, []byte]{
		MaximumSize:      100_000,
		InitialCapacity:  10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](*cacheTTL),
	})

	srv := &server{
		engine:  cadence.New(logger, engineOpts...),
		cache:   cache,
		limiter: newRateLimiter(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/recommend", srv.handleRecommend)
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	httpSrv := &http.Server{
		Addr:              ":" + *port,
		Handler:           srv.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", *port)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

type server struct {
	engine  *cadence.Engine
	cache   *otter.Cache[string, []byte]
	limiter *rateLimiter
	logger  *slog.Logger
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		handler.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	return strings.Split(r.RemoteAddr, ":")[0]
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !s.limiter.allow(clientIP(r)) {
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var snap cadence.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		http.Error(w, "Invalid snapshot JSON", http.StatusBadRequest)
		return
	}
	if snap.ContactID == "" {
		http.Error(w, "contact_id is required", http.StatusBadRequest)
		return
	}

	// Identical snapshots within the TTL return the cached evaluation;
	// recency-sensitive scores drift slowly enough that an hour of reuse
	// is invisible to consumers.
	digest := sha256.Sum256(body)
	key := hex.EncodeToString(digest[:])
	if cached, ok := s.cache.GetIfPresent(key); ok {
		s.logger.Debug("cache hit", "contact", snap.ContactID)
		writeJSON(w, cached)
		return
	}

	eval, err := s.engine.Evaluate(r.Context(), snap, time.Now())
	if err != nil {
		s.logger.Warn("evaluation rejected", "contact", snap.ContactID, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	payload, err := json.Marshal(eval)
	if err != nil {
		s.logger.Error("encoding evaluation", "contact", snap.ContactID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.cache.Set(key, payload)
	s.logger.Info("evaluated contact",
		"contact", snap.ContactID,
		"timezone", eval.Timezone.Timezone,
		"windows", len(eval.Result.RecommendedWindows),
		"duration", time.Since(start))
	writeJSON(w, payload)
}

func writeJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}
