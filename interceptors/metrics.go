package interceptors

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/aspect"
)

// Metrics records Prometheus call counts, durations and in-flight calls
// labelled by contract and member.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewMetrics creates the collectors under namespace and registers them
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aspect_invocations_total",
			Help:      "Total proxied member invocations",
		}, []string{"contract", "member", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aspect_invocation_duration_seconds",
			Help:      "Proxied member invocation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"contract", "member"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aspect_invocations_in_flight",
			Help:      "Proxied member invocations in progress",
		}, []string{"contract", "member"}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.duration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Intercept implements aspect.Interceptor.
func (m *Metrics) Intercept(inv *aspect.Invocation) error {
	member := inv.Method()
	contract := member.Contract.String()

	gauge := m.inFlight.WithLabelValues(contract, member.Name)
	gauge.Inc()
	defer gauge.Dec()
	start := time.Now()

	err := inv.Proceed()

	m.duration.WithLabelValues(contract, member.Name).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(contract, member.Name, outcome).Inc()
	return err
}
