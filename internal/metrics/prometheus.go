package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "nexus"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry        *prometheus.Registry
	accountFetches  prometheus.Counter
	decodeFailures  prometheus.Counter
	droppedAccounts prometheus.Counter
	txSubmitted     prometheus.Counter
	txFailed        prometheus.Counter
	alertsSent      prometheus.Counter
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      name,
			Help:      help,
		})
	}
	accountFetches := newCounter("account_fetches_total", "Total number of on-chain account reads.")
	decodeFailures := newCounter("decode_failures_total", "Total number of account buffers that failed to decode.")
	droppedAccounts := newCounter("dropped_accounts_total", "Total number of used bitmap slots past the slab's account region.")
	txSubmitted := newCounter("tx_submitted_total", "Total number of confirmed transactions.")
	txFailed := newCounter("tx_failed_total", "Total number of failed or unconfirmed transactions.")
	alertsSent := newCounter("alerts_sent_total", "Total number of alerts delivered.")

	registry.MustRegister(accountFetches, decodeFailures, droppedAccounts, txSubmitted, txFailed, alertsSent)

	m := &Metrics{
		AccountFetches:  promCounter{accountFetches},
		DecodeFailures:  promCounter{decodeFailures},
		DroppedAccounts: promCounter{droppedAccounts},
		TxSubmitted:     promCounter{txSubmitted},
		TxFailed:        promCounter{txFailed},
		AlertsSent:      promCounter{alertsSent},
	}

	return &Prometheus{
		Metrics:         m,
		registry:        registry,
		accountFetches:  accountFetches,
		decodeFailures:  decodeFailures,
		droppedAccounts: droppedAccounts,
		txSubmitted:     txSubmitted,
		txFailed:        txFailed,
		alertsSent:      alertsSent,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
