package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the kernel's core services
// report to. Every call site that reports a metric guards on a nil
// *Metrics, so a caller that doesn't want metrics can simply pass nil
// instead of constructing a real one.
type Metrics struct {
	RegistryApps          prometheus.Gauge
	RegistryDiscoverTotal prometheus.Counter
	RegistryErrorsTotal   prometheus.Counter

	LifecycleTransitions *prometheus.CounterVec
	LifecycleErrorsTotal *prometheus.CounterVec

	HookEmitsTotal    *prometheus.CounterVec
	HookEmitDuration  *prometheus.HistogramVec
	HookHandlerErrors *prometheus.CounterVec

	BusPublishTotal  *prometheus.CounterVec
	BusRequestsTotal *prometheus.CounterVec
	BusTimeoutsTotal *prometheus.CounterVec

	StoreOpsTotal     *prometheus.CounterVec
	StoreExpiredTotal prometheus.Counter

	startTime time.Time
}

// New registers and returns a fresh Metrics against the default registry.
// Use NewWithRegisterer to register against an isolated registry (tests,
// multiple kernel instances in one process).
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers every collector against reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		startTime: time.Now(),

		RegistryApps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapper_registry_apps",
			Help: "Number of apps currently catalogued in the registry.",
		}),
		RegistryDiscoverTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapper_registry_discover_total",
			Help: "Number of Discover() scans performed.",
		}),
		RegistryErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapper_registry_errors_total",
			Help: "Number of manifest discovery failures accumulated across all scans.",
		}),

		LifecycleTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_lifecycle_transitions_total",
			Help: "Number of lifecycle state transitions, by from/to state.",
		}, []string{"from", "to"}),
		LifecycleErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_lifecycle_errors_total",
			Help: "Number of lifecycle operations that flipped an app to the error state, by callback.",
		}, []string{"callback"}),

		HookEmitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_hook_emits_total",
			Help: "Number of Hook Router emit() calls, by event name.",
		}, []string{"event"}),
		HookEmitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "snapper_hook_emit_duration_seconds",
			Help: "Time to run every matching handler for one emit() call.",
		}, []string{"event"}),
		HookHandlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_hook_handler_errors_total",
			Help: "Number of hook handlers that panicked or returned an error, by event name.",
		}, []string{"event"}),

		BusPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_bus_publish_total",
			Help: "Number of Message Bus publish() calls, by channel.",
		}, []string{"channel"}),
		BusRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_bus_requests_total",
			Help: "Number of Message Bus RPC requests, by target app and method.",
		}, []string{"app", "method"}),
		BusTimeoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_bus_timeouts_total",
			Help: "Number of Message Bus RPC requests that timed out, by target app and method.",
		}, []string{"app", "method"}),

		StoreOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapper_store_ops_total",
			Help: "Number of State Store operations, by operation name.",
		}, []string{"op"}),
		StoreExpiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapper_store_expired_total",
			Help: "Number of state entries removed by ClearExpired across all namespaces.",
		}),
	}
}

// Uptime returns the duration since this Metrics was constructed.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
