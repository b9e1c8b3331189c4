package orchestrator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "xchain_dex"

const (
	resultSuccess   = "success"
	resultFailure   = "failure"
	resultRejected  = "rejected"
	resultIgnored   = "ignored"
	resultCancelled = "cancelled"
	resultDiscarded = "discarded"
)

type metrics struct {
	walletConnects *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	rateRefreshes  *prometheus.CounterVec
	inFlight       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		walletConnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "wallet_connects_total",
			Help:      "Wallet connection attempts by result.",
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transfer_submissions_total",
			Help:      "Transfer submissions by result.",
		}, []string{"result"}),
		rateRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_refreshes_total",
			Help:      "Exchange rate refreshes by result.",
		}, []string{"result"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "transfers_in_flight",
			Help:      "Transfers awaiting the executor.",
		}),
	}

	for _, c := range []prometheus.Collector{m.walletConnects, m.submissions, m.rateRefreshes, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *metrics) walletConnect(result string) {
	if m != nil {
		m.walletConnects.WithLabelValues(result).Inc()
	}
}

func (m *metrics) submission(result string) {
	if m != nil {
		m.submissions.WithLabelValues(result).Inc()
	}
}

func (m *metrics) rateRefresh(result string) {
	if m != nil {
		m.rateRefreshes.WithLabelValues(result).Inc()
	}
}

func (m *metrics) setInFlight(busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.inFlight.Set(1)
	} else {
		m.inFlight.Set(0)
	}
}
