package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts how often the façade degrades to the local cart.
// A nil *Metrics records nothing.
type Metrics struct {
	RemoteErrors *prometheus.CounterVec
	Fallbacks    *prometheus.CounterVec
	SyncItems    *prometheus.CounterVec
}

// NewMetrics creates and registers cart metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RemoteErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solecart",
				Subsystem: "cart",
				Name:      "remote_errors_total",
				Help:      "Remote cart calls that failed",
			},
			[]string{"op", "kind"}, // kind=auth/remote
		),
		Fallbacks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solecart",
				Subsystem: "cart",
				Name:      "local_fallbacks_total",
				Help:      "Operations served by the local cart after a remote failure",
			},
			[]string{"op"},
		),
		SyncItems: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solecart",
				Subsystem: "cart",
				Name:      "sync_items_total",
				Help:      "Guest cart rows pushed to the server cart on login",
			},
			[]string{"result"}, // result=pushed/failed
		),
	}
}

func (m *Metrics) remoteError(op string, kind failureKind) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(op, kind.String()).Inc()
}

func (m *Metrics) fallback(op string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(op).Inc()
}

func (m *Metrics) syncItem(result string) {
	if m == nil {
		return
	}
	m.SyncItems.WithLabelValues(result).Inc()
}
