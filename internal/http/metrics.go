package http

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Métricas del dominio
	loginsTotal         *prometheus.CounterVec
	sessionsEvicted     prometheus.Counter
	tokenReuseTotal     prometheus.Counter
	rememberValidations *prometheus.CounterVec
)

// RegisterMetrics inicializa las métricas y devuelve el handler para /metrics.
func RegisterMetrics(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_logins_total",
			Help: "Intentos de login por resultado",
		}, []string{"result"}) // success|bad_captcha|bad_credentials|disabled|locked|error

		sessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_sessions_evicted_total",
			Help: "Sesiones desalojadas por el cupo de concurrencia",
		})

		tokenReuseTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_token_reuse_total",
			Help: "Reusos de token remember-me detectados",
		})

		rememberValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_remember_validations_total",
			Help: "Validaciones de cookie remember-me por resultado",
		}, []string{"result"}) // ok|unknown_series|reuse|error

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			loginsTotal, sessionsEvicted, tokenReuseTotal, rememberValidations,
		} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	// Usamos el gatherer global por compatibilidad, ya que las métricas se registran allí.
	return promhttp.Handler(), nil
}

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
func WithMetrics(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &metricsRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			duration := time.Since(start).Seconds()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(duration)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// CountLogin registra un intento de login por resultado.
func CountLogin(result string) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(result).Inc()
	}
}

// CountEviction registra un desalojo de sesión por cupo.
func CountEviction() {
	if sessionsEvicted != nil {
		sessionsEvicted.Inc()
	}
}

// CountTokenReuse registra un reuso de remember-me detectado.
func CountTokenReuse() {
	if tokenReuseTotal != nil {
		tokenReuseTotal.Inc()
	}
}

// CountRememberValidation registra una validación de cookie remember-me.
func CountRememberValidation(result string) {
	if rememberValidations != nil {
		rememberValidations.WithLabelValues(result).Inc()
	}
}

// normalizePath colapsa IDs variables para no explotar la cardinalidad.
func normalizePath(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) >= 4 && parts[1] == "admin" && parts[2] == "sessions" {
		parts[3] = ":sid"
		return strings.Join(parts[:4], "/")
	}
	if len(parts) >= 4 && parts[1] == "admin" && parts[2] == "tokens" {
		parts[3] = ":username"
		return strings.Join(parts[:4], "/")
	}
	return p
}

// registerCollector registra el collector, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// metricsRecorder captura el status sin pisar al statusRecorder del logging.
type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (m *metricsRecorder) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *metricsRecorder) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	return m.ResponseWriter.Write(b)
}
