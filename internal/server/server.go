package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const component = "taxonomy_builder"

// Check is a named readiness probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type probe struct {
	Component string        `json:"component"`
	Status    string        `json:"status"`
	Timestamp string        `json:"ts"`
	Checks    []checkResult `json:"checks,omitempty"`
}

type Server struct {
	addr         string
	registry     *prometheus.Registry
	checks       []Check
	checkTimeout time.Duration
	now          func() time.Time
}

func New(addr string, registry *prometheus.Registry, checks ...Check) *Server {
	return &Server{
		addr:         addr,
		registry:     registry,
		checks:       checks,
		checkTimeout: 3 * time.Second,
		now:          time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleLiveness)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	}
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Infof("🌐 Serving health and metrics on %s", s.addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, probe{
		Component: component,
		Status:    "ok",
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
	defer cancel()

	p := probe{
		Component: component,
		Status:    "ok",
		Timestamp: s.timestamp(),
		Checks:    make([]checkResult, 0, len(s.checks)),
	}
	code := http.StatusOK

	for _, check := range s.checks {
		result := checkResult{Name: check.Name, Status: "ok"}
		if err := check.Run(ctx); err != nil {
			result.Status = "fail"
			result.Error = err.Error()
			p.Status = "fail"
			code = http.StatusServiceUnavailable
		}
		p.Checks = append(p.Checks, result)
	}

	writeProbe(w, code, p)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func writeProbe(w http.ResponseWriter, code int, p probe) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Errorf("❌ Failed to write probe response: %v", err)
	}
}

// OutputDirWritable reports whether files can be created in dir.
func OutputDirWritable(dir string) Check {
	return Check{
		Name: "output_dir",
		Run: func(context.Context) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			f, err := os.CreateTemp(dir, ".readyz-*")
			if err != nil {
				return fmt.Errorf("%s not writable: %w", dir, err)
			}
			name := f.Name()
			_ = f.Close()
			return os.Remove(name)
		},
	}
}

// Pinger is anything with a liveness ping, such as a Redis client adapter
// or the repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

func PingCheck(name string, p Pinger) Check {
	return Check{
		Name: name,
		Run:  p.Ping,
	}
}
