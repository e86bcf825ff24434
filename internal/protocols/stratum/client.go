// Package stratum reads the batch-auction order book program and builds
// merkle inclusion proofs for its epoch order trees.
package stratum

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/pda"
	"nexus-defi/internal/sol/rpc"
)

type Client struct {
	programID solana.PublicKey
	reader    rpc.AccountReader
	log       *zap.Logger
}

func NewClient(programID solana.PublicKey, reader rpc.AccountReader, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{programID: programID, reader: reader, log: log}
}

func (c *Client) DeriveOrderBook(authority, baseMint, quoteMint solana.PublicKey) (pda.Address, error) {
	return DeriveOrderBook(c.programID, authority, baseMint, quoteMint)
}

func (c *Client) GetOrderBook(ctx context.Context, authority, baseMint, quoteMint solana.PublicKey) (OrderBook, error) {
	addr, err := c.DeriveOrderBook(authority, baseMint, quoteMint)
	if err != nil {
		return OrderBook{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return OrderBook{}, fmt.Errorf("order book %s: %w", addr.Key, err)
	}
	return ParseOrderBook(data)
}

func (c *Client) GetEpoch(ctx context.Context, orderBook solana.PublicKey, epochIndex uint32) (Epoch, error) {
	addr, err := DeriveEpoch(c.programID, orderBook, epochIndex)
	if err != nil {
		return Epoch{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return Epoch{}, fmt.Errorf("epoch %d: %w", epochIndex, err)
	}
	c.log.Debug("epoch fetched", zap.Uint32("epoch", epochIndex), zap.String("address", addr.Key.String()))
	return ParseEpoch(data, epochIndex)
}
