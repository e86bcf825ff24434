package veil

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

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

func (c *Client) GetSolverConfig(ctx context.Context) (SolverConfig, error) {
	addr, err := DeriveSolverConfig(c.programID)
	if err != nil {
		return SolverConfig{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return SolverConfig{}, fmt.Errorf("solver config: %w", err)
	}
	return ParseSolverConfig(data)
}

func (c *Client) GetOrder(ctx context.Context, owner solana.PublicKey, orderID string) (Order, error) {
	addr, err := DeriveOrder(c.programID, owner, orderID)
	if err != nil {
		return Order{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	return ParseOrder(data)
}

// GetOrdersByOwner scans order-sized accounts whose owner field matches.
// Accounts that fail to decode are logged and skipped.
func (c *Client) GetOrdersByOwner(ctx context.Context, owner solana.PublicKey) ([]Order, error) {
	accounts, err := c.reader.ProgramAccounts(ctx, c.programID,
		rpc.DataSize(OrderAccountLen),
		rpc.Memcmp(OrderOwnerOffset, owner.Bytes()),
	)
	if err != nil {
		return nil, fmt.Errorf("orders by owner %s: %w", owner, err)
	}
	orders := make([]Order, 0, len(accounts))
	for _, acc := range accounts {
		o, err := ParseOrder(acc.Data)
		if err != nil {
			c.log.Warn("order decode failed", zap.String("account", acc.Key.String()), zap.Error(err))
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}
