package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "sodamachine"

// SMS message results.
const (
	SMSHandled     = "handled"
	SMSDuplicate   = "duplicate"
	SMSStale       = "stale"
	SMSUnreadable  = "unreadable"
	SMSReplyFailed = "reply_failed"
)

// Metrics holds the terminal's Prometheus collectors.
type Metrics struct {
	outcomes        *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	smsMessages     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "Total number of order session outcomes",
			},
			[]string{"kind"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_api_requests_total",
				Help:      "Total number of Order Service requests",
			},
			[]string{"operation", "result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_api_request_duration_seconds",
				Help:      "Order Service request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		smsMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sms_messages_total",
				Help:      "Total number of messages received on the SMS channel",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.outcomes, m.requests, m.requestDuration, m.smsMessages)
	return m
}

// ObserveEvents counts controller outcomes.
func (m *Metrics) ObserveEvents(events []machine.Event) {
	for _, ev := range events {
		m.outcomes.WithLabelValues(string(ev.Kind)).Inc()
	}
}

// ObserveRequest records one Order Service call.
func (m *Metrics) ObserveRequest(operation string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.requests.WithLabelValues(operation, result).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveSMS counts one message received on the SMS channel.
func (m *Metrics) ObserveSMS(result string) {
	m.smsMessages.WithLabelValues(result).Inc()
}

// Handler exposes /metrics for g plus a /healthz probe.
func Handler(g prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("metrics endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics: %w", err)
		}
		return nil
	}
}
