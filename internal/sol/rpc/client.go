// Package rpc is the Solana JSON-RPC collaborator used by the protocol
// clients: account reads, program account scans and transaction submission.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountReader fetches raw account data.
type AccountReader interface {
	AccountData(ctx context.Context, key solana.PublicKey) ([]byte, error)
	ProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]KeyedAccount, error)
}

// Filter is one getProgramAccounts filter. Set DataSize, or Memcmp bytes at Offset.
type Filter struct {
	DataSize uint64
	Offset   uint64
	Memcmp   []byte
}

func DataSize(n uint64) Filter {
	return Filter{DataSize: n}
}

func Memcmp(offset uint64, b []byte) Filter {
	return Filter{Offset: offset, Memcmp: b}
}

type KeyedAccount struct {
	Key  solana.PublicKey
	Data []byte
}

type Options struct {
	Commitment     string
	Timeout        time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

type Client struct {
	endpoint       string
	rpc            *solrpc.Client
	commitment     solrpc.CommitmentType
	timeout        time.Duration
	confirmTimeout time.Duration
	pollInterval   time.Duration
	log            *zap.Logger
}

func New(endpoint string, opts Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	commitment := solrpc.CommitmentConfirmed
	if opts.Commitment != "" {
		commitment = solrpc.CommitmentType(opts.Commitment)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 700 * time.Millisecond
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 60 * time.Second
	}
	return &Client{
		endpoint:       endpoint,
		rpc:            solrpc.New(endpoint),
		commitment:     commitment,
		timeout:        opts.Timeout,
		confirmTimeout: opts.ConfirmTimeout,
		pollInterval:   opts.PollInterval,
		log:            log,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) AccountData(ctx context.Context, key solana.PublicKey) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	resp, err := c.rpc.GetAccountInfoWithOpts(ctx, key, &solrpc.GetAccountInfoOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, solrpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
		}
		return nil, fmt.Errorf("get account %s: %w", key, err)
	}
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return resp.Value.Data.GetBinary(), nil
}

func (c *Client) ProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]KeyedAccount, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	opts := &solrpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	}
	for _, f := range filters {
		if f.Memcmp != nil {
			opts.Filters = append(opts.Filters, solrpc.RPCFilter{
				Memcmp: &solrpc.RPCFilterMemcmp{Offset: f.Offset, Bytes: solana.Base58(f.Memcmp)},
			})
			continue
		}
		opts.Filters = append(opts.Filters, solrpc.RPCFilter{DataSize: f.DataSize})
	}
	resp, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, opts)
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts %s: %w", program, err)
	}
	out := make([]KeyedAccount, 0, len(resp))
	for _, item := range resp {
		if item == nil || item.Account == nil {
			continue
		}
		out = append(out, KeyedAccount{Key: item.Pubkey, Data: item.Account.Data.GetBinary()})
	}
	return out, nil
}
