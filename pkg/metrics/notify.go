package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotifyMetrics records outbound notification outcomes by event type.
type NotifyMetrics struct {
	sent    *prometheus.CounterVec
	skipped *prometheus.CounterVec
	failed  *prometheus.CounterVec
}

// NewNotifyMetrics registers the notification metrics on the provided registerer.
func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	if reg == nil {
		return &NotifyMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_sent_total",
		Help: "Notifications delivered.",
	}, []string{"event"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_skipped_total",
		Help: "Notifications skipped for opt-out or missing contact.",
	}, []string{"event"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_failed_total",
		Help: "Notification deliveries that failed.",
	}, []string{"event"})
	reg.MustRegister(sent, skipped, failed)
	return &NotifyMetrics{sent: sent, skipped: skipped, failed: failed}
}

// IncSent counts one delivered notification.
func (n *NotifyMetrics) IncSent(event string) {
	if n == nil || n.sent == nil {
		return
	}
	n.sent.WithLabelValues(event).Inc()
}

// IncSkipped counts one skipped notification.
func (n *NotifyMetrics) IncSkipped(event string) {
	if n == nil || n.skipped == nil {
		return
	}
	n.skipped.WithLabelValues(event).Inc()
}

// IncFailed counts one failed delivery.
func (n *NotifyMetrics) IncFailed(event string) {
	if n == nil || n.failed == nil {
		return
	}
	n.failed.WithLabelValues(event).Inc()
}
