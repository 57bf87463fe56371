// Package metrics exposes console command metrics in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records command outcomes, connection state and transport failures.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	connected       prometheus.Gauge
	transportErrors *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scpicon_commands_total",
		Help: "Dispatched console commands by name and outcome code.",
	}, []string{"command", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scpicon_command_duration_seconds",
		Help:    "Command latency including instrument I/O.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"command"})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scpicon_connected",
		Help: "1 while an instrument session is open.",
	})
	transportErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scpicon_transport_errors_total",
		Help: "Transport failures by normalized error code.",
	}, []string{"code"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(commands, duration, connected, transportErrors)

	return &Metrics{
		registry:        registry,
		commands:        commands,
		duration:        duration,
		connected:       connected,
		transportErrors: transportErrors,
	}
}

// ObserveCommand counts a dispatched command and records its latency.
func (m *Metrics) ObserveCommand(name, code string, latency time.Duration) {
	m.commands.WithLabelValues(name, code).Inc()
	m.duration.WithLabelValues(name).Observe(latency.Seconds())
}

// ObserveTransportError counts a transport failure.
func (m *Metrics) ObserveTransportError(code string) {
	m.transportErrors.WithLabelValues(code).Inc()
}

// SetConnected tracks the session state. Its signature matches session.Observer.
func (m *Metrics) SetConnected(resource string, connected bool) {
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server serves /metrics and /healthz until shut down.
type Server struct {
	srv *http.Server
}

// Serve starts the metrics HTTP server on addr in the background.
func (m *Metrics) Serve(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	return s
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
