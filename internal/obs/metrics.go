package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound automation events by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// Init registers metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, webhookEventsTotal)
	})
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WebhookEvent counts one processed automation event.
func WebhookEvent(kind, outcome string) {
	webhookEventsTotal.WithLabelValues(kind, outcome).Inc()
}

// Instrument records rate, latency and in-flight requests. The path label is
// the chi route pattern when one matched, else CanonicalPath.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			path = rctx.RoutePattern()
		}
		if path == "" || path == "/*" {
			path = CanonicalPath(r.URL.Path)
		}
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

var idCollections = map[string]bool{
	"clientes":   true,
	"setores":    true,
	"processos":  true,
	"documentos": true,
	"faturas":    true,
}

// CanonicalPath collapses ids so label cardinality stays bounded. Paths that
// match no API shape are reported as "/api/other" or "/static".
func CanonicalPath(raw string) string {
	path := raw
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}
	switch path {
	case "/metrics", "/readyz":
		return path
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if parts[0] != "api" {
		return "/static"
	}
	switch len(parts) {
	case 2:
		if idCollections[parts[1]] || parts[1] == "health" || parts[1] == "atividades" {
			return path
		}
	case 3:
		if idCollections[parts[1]] {
			return "/api/" + parts[1] + "/:id"
		}
		switch parts[1] {
		case "auth", "relatorios", "atividades":
			return path
		}
	case 4:
		if parts[1] == "documentos" && parts[2] == "cliente" {
			return "/api/documentos/cliente/:id"
		}
		if parts[1] == "faturas" && parts[3] == "pagar" {
			return "/api/faturas/:id/pagar"
		}
	}
	return "/api/other"
}

// statusWriter remembers the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
