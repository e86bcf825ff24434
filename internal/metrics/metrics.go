package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	AccountFetches  Counter
	DecodeFailures  Counter
	DroppedAccounts Counter
	TxSubmitted     Counter
	TxFailed        Counter
	AlertsSent      Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		AccountFetches:  n,
		DecodeFailures:  n,
		DroppedAccounts: n,
		TxSubmitted:     n,
		TxFailed:        n,
		AlertsSent:      n,
	}
}

// OrNoop lets callers accept a nil *Metrics.
func OrNoop(m *Metrics) *Metrics {
	if m == nil {
		return NewNoop()
	}
	return m
}
