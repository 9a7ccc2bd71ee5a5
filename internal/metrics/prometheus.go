// Package metrics exposes the bridge's Prometheus instruments.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all bridge metrics.
type Registry struct {
	// Datagram traffic
	DatagramsReceived *prometheus.CounterVec
	DatagramsSent     *prometheus.CounterVec
	DatagramsDropped  *prometheus.CounterVec
	SendErrors        *prometheus.CounterVec

	// Session
	Handshakes prometheus.Counter
	QueueDepth prometheus.Gauge

	// Gamepad
	BufferedSnapshots prometheus.Gauge
	SnapshotsEvicted  prometheus.Counter
	ControllerChanges *prometheus.CounterVec

	// Control API
	APIRequests *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.DatagramsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winbridge_datagrams_received_total",
		Help: "Datagrams received from the companion, by request code",
	}, []string{"code"})

	r.DatagramsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winbridge_datagrams_sent_total",
		Help: "Datagrams sent to the companion, by request code",
	}, []string{"code"})

	r.DatagramsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winbridge_datagrams_dropped_total",
		Help: "Inbound or outbound datagrams dropped, by reason",
	}, []string{"reason"})

	r.SendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winbridge_send_errors_total",
		Help: "Socket send failures, by request code",
	}, []string{"code"})

	r.Handshakes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winbridge_handshakes_total",
		Help: "INIT handshakes completed",
	})

	r.QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "winbridge_action_queue_depth",
		Help: "Outbound actions waiting for the dispatcher",
	})

	r.BufferedSnapshots = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "winbridge_gamepad_buffered_snapshots",
		Help: "Gamepad snapshots waiting to be polled",
	})

	r.SnapshotsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winbridge_gamepad_snapshots_evicted_total",
		Help: "Gamepad snapshots dropped because the buffer was full",
	})

	r.ControllerChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winbridge_gamepad_controller_changes_total",
		Help: "Active controller selections and releases",
	}, []string{"event"})

	r.APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "winbridge_api_requests_total",
		Help: "Control API requests, by path and result",
	}, []string{"path", "result"})

	return r
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("Metrics listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
