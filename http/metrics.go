package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the app's prometheus counters.
type Metrics struct {
	SuccessfulRequests *prometheus.CounterVec
	BadRequests        *prometheus.CounterVec
	Follows            *prometheus.CounterVec
	Unfollows          *prometheus.CounterVec
	MessagesSent       *prometheus.CounterVec
}

// NewMetrics creates and registers the counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		SuccessfulRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_request",
				Help: "Total number of successful (2xx/3xx) HTTP requests",
			},
			[]string{"path"},
		),
		BadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unsuccessful_request",
				Help: "Total number of unsuccessful (4xx/5xx) HTTP requests",
			},
			[]string{"path"},
		),
		Follows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_follows",
				Help: "Total number of follow edges created",
			},
			[]string{"path"},
		),
		Unfollows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_unfollows",
				Help: "Total number of unfollow requests",
			},
			[]string{"path"},
		),
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_message",
				Help: "Total number of successfully sent messages",
			},
			[]string{"path"},
		),
	}

	registerOnce(m.SuccessfulRequests, m.BadRequests, m.Follows, m.Unfollows, m.MessagesSent)
	return m
}

// registerOnce tolerates re-registration so tests can build more than
// one server per process.
func registerOnce(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}

func (s *Server) registerMetricsRoutes(r *mux.Router) {
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// statusRecorder captures the response status for the counters.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// countRequest feeds the request counters.
func (s *Server) countRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status < 400 {
			s.metrics.SuccessfulRequests.WithLabelValues(r.URL.Path).Inc()
		} else {
			s.metrics.BadRequests.WithLabelValues(r.URL.Path).Inc()
		}
	})
}
