package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	TGIncomingMessages *prometheus.CounterVec
	TGOutgoingMessages *prometheus.CounterVec
	AppsFlyerRequests  *prometheus.CounterVec
	AppsFlyerLatency   *prometheus.HistogramVec
	Analyses           *prometheus.CounterVec
	Workflows          *prometheus.CounterVec
	Errors             *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			TGIncomingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tg_incoming_messages_total",
				Help:      "Total incoming Telegram updates processed.",
			}, []string{"type"}),
			TGOutgoingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tg_outgoing_messages_total",
				Help:      "Total outgoing Telegram messages sent.",
			}, []string{"type"}),
			AppsFlyerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "appsflyer_requests_total",
				Help:      "Total AppsFlyer raw-data requests by report and status.",
			}, []string{"report", "status"}),
			AppsFlyerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "appsflyer_request_duration_seconds",
				Help:      "Latency distribution for AppsFlyer raw-data requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"report", "status"}),
			Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total analytics runs by kind and outcome.",
			}, []string{"kind", "outcome"}),
			Workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_total",
				Help:      "Total chat workflows by kind and outcome.",
			}, []string{"kind", "outcome"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.TGIncomingMessages,
			metricsInstance.TGOutgoingMessages,
			metricsInstance.AppsFlyerRequests,
			metricsInstance.AppsFlyerLatency,
			metricsInstance.Analyses,
			metricsInstance.Workflows,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
