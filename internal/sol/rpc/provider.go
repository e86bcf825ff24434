package rpc

import (
	"sync"

	"go.uber.org/zap"
)

// Provider hands out one shared Client per endpoint. The client is created
// on first use and replaced when the endpoint changes.
type Provider struct {
	mu       sync.Mutex
	endpoint string
	opts     Options
	log      *zap.Logger
	client   *Client
}

func NewProvider(endpoint string, opts Options, log *zap.Logger) *Provider {
	return &Provider{endpoint: endpoint, opts: opts, log: log}
}

func (p *Provider) Client() *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil || p.client.Endpoint() != p.endpoint {
		p.client = New(p.endpoint, p.opts, p.log)
	}
	return p.client
}

// SetEndpoint points later Client calls at url. Clients already handed out
// keep their endpoint.
func (p *Provider) SetEndpoint(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if url == p.endpoint {
		return
	}
	if p.log != nil {
		p.log.Info("rpc endpoint changed", zap.String("endpoint", url))
	}
	p.endpoint = url
}
