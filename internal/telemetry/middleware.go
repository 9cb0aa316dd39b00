package telemetry

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	requestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_count_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	activeRequestsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_active",
			Help: "Number of active HTTP requests",
		},
	)

	// Wallet session metrics
	walletConnectCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_connect_total",
			Help: "Total number of wallet connect attempts",
		},
		[]string{"modal_mode", "status"},
	)

	walletDisconnectCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_disconnect_total",
			Help: "Total number of wallet disconnects",
		},
	)

	walletResyncCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_resync_total",
			Help: "Silent reconnects triggered by wallet events",
		},
		[]string{"event", "status"},
	)

	walletSessionGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallet_session_active",
			Help: "1 while a wallet session is installed",
		},
	)

	// Bridge metrics
	bridgePeerGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_peer_connected",
			Help: "1 while a browser peer is attached to the wallet bridge",
		},
	)

	bridgeRequestHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_request_duration_seconds",
			Help:    "Round trip of bridge requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type", "status"},
	)

	// Webhook metrics
	webhookCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_calls_total",
			Help: "Total number of webhook calls",
		},
		[]string{"status", "type"},
	)

	webhookDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Duration of webhook calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "type"},
	)
)

// MetricsHandler returns an http.Handler that serves the metrics endpoint
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware wraps an http.Handler and records metrics about the request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		activeRequestsGauge.Inc()
		defer activeRequestsGauge.Dec()

		next.ServeHTTP(sw, r)

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"path":   routeTemplate(r),
			"status": fmt.Sprintf("%d", sw.status),
		}

		requestDurationHistogram.With(labels).Observe(time.Since(start).Seconds())
		requestCounter.With(labels).Inc()
	})
}

// routeTemplate keeps label cardinality bounded for paths with variables.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	if w.status == 0 {
		w.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// RecordWebhook records webhook metrics
func RecordWebhook(webhookType string, status string, duration time.Duration) {
	webhookCounter.WithLabelValues(status, webhookType).Inc()
	webhookDurationHistogram.WithLabelValues(status, webhookType).Observe(duration.Seconds())
}

func RecordWalletConnect(modalMode string, status string) {
	walletConnectCounter.WithLabelValues(modalMode, status).Inc()
}

func RecordWalletDisconnect() {
	walletDisconnectCounter.Inc()
}

func RecordWalletResync(event string, status string) {
	walletResyncCounter.WithLabelValues(event, status).Inc()
}

func SetWalletSessionActive(active bool) {
	if active {
		walletSessionGauge.Set(1)
		return
	}
	walletSessionGauge.Set(0)
}

func SetBridgePeerConnected(connected bool) {
	if connected {
		bridgePeerGauge.Set(1)
		return
	}
	bridgePeerGauge.Set(0)
}

func RecordBridgeRequest(requestType string, status string, duration time.Duration) {
	bridgeRequestHistogram.WithLabelValues(requestType, status).Observe(duration.Seconds())
}
