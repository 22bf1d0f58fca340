// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package selftelemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// DefaultListen is the default self-telemetry listen address.
const DefaultListen = ":19090"

// HealthSource reports per collector health for /healthz.
type HealthSource interface {
	GetHealth() map[string]*storagedef.CollectorHealth
	LastCollectionTime() time.Time
}

// Server serves /metrics, /healthz and /readyz.
type Server struct {
	metrics *Metrics
	health  HealthSource
	log     *slog.Logger
	srv     *http.Server
}

type collectorStatus struct {
	Status       storagedef.HealthStatus `json:"status"`
	LastCheck    *time.Time              `json:"last_check,omitempty"`
	LastSuccess  *time.Time              `json:"last_success,omitempty"`
	LastError    string                  `json:"last_error,omitempty"`
	ErrorCount   int                     `json:"error_count"`
	ResponseTime string                  `json:"response_time"`
	Samples      int                     `json:"samples"`
}

type healthResponse struct {
	Status         string                     `json:"status"`
	LastCollection *time.Time                 `json:"last_collection,omitempty"`
	Collectors     map[string]collectorStatus `json:"collectors,omitempty"`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// NewServer builds a server on listen for the given metrics. health may be
// nil, in which case /healthz only reports liveness.
func NewServer(listen string, m *Metrics, health HealthSource, log *slog.Logger) *Server {
	if listen == "" {
		listen = DefaultListen
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{metrics: m, health: health, log: log.With("component", "selftelemetry")}
	s.srv = &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with every endpoint installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.metrics.InstallHandler(mux)
	mux.HandleFunc("/healthz", s.healthz)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.metrics.IsReady() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	return mux
}

// healthz always answers 200 while the process is alive; the body carries
// the last cycle outcome of each collector.
func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.health != nil {
		resp.LastCollection = timeOrNil(s.health.LastCollectionTime())
		hs := s.health.GetHealth()
		if len(hs) > 0 {
			resp.Collectors = make(map[string]collectorStatus, len(hs))
		}
		for name, h := range hs {
			cs := collectorStatus{
				Status:       h.Status,
				LastCheck:    timeOrNil(h.LastCheck),
				LastSuccess:  timeOrNil(h.LastSuccess),
				ErrorCount:   h.ErrorCount,
				ResponseTime: h.ResponseTime.String(),
				Samples:      h.Samples,
			}
			if h.LastError != nil {
				cs.LastError = storagedef.Describe(h.LastError)
			}
			resp.Collectors[name] = cs
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Debug("failed to write health response", "error", err)
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.log.Info("self-telemetry HTTP listening", "address", ln.Addr().String())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("self-telemetry server failed", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
