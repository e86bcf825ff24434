package exodus

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/pda"
	"nexus-defi/internal/sol/rpc"
)

func DeriveProtocolConfig(programID solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("exodus_config"))
}

func DeriveUserPosition(programID, config, owner solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("user_position"), pda.SeedKey(config), pda.SeedKey(owner))
}

func DeriveYieldSource(programID, config, tokenMint solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("yield_source"), pda.SeedKey(config), pda.SeedKey(tokenMint))
}

// Client reads Exodus accounts. Every query accepts an optional program ID
// override; the zero key selects the configured program.
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

func (c *Client) program(override solana.PublicKey) solana.PublicKey {
	if override.IsZero() {
		return c.programID
	}
	return override
}

func (c *Client) GetProtocolConfig(ctx context.Context, programID solana.PublicKey) (ProtocolConfig, error) {
	addr, err := DeriveProtocolConfig(c.program(programID))
	if err != nil {
		return ProtocolConfig{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return ProtocolConfig{}, fmt.Errorf("protocol config (pda %s): %w", addr.Key, err)
	}
	return ParseProtocolConfig(data)
}

func (c *Client) GetUserPosition(ctx context.Context, owner, programID solana.PublicKey) (UserPosition, error) {
	pid := c.program(programID)
	config, err := DeriveProtocolConfig(pid)
	if err != nil {
		return UserPosition{}, err
	}
	addr, err := DeriveUserPosition(pid, config.Key, owner)
	if err != nil {
		return UserPosition{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return UserPosition{}, fmt.Errorf("user position for %s: %w", owner, err)
	}
	return ParseUserPosition(data)
}

// GetYieldSource reads the single yield source registered for tokenMint.
func (c *Client) GetYieldSource(ctx context.Context, tokenMint, programID solana.PublicKey) (YieldSource, error) {
	pid := c.program(programID)
	config, err := DeriveProtocolConfig(pid)
	if err != nil {
		return YieldSource{}, err
	}
	addr, err := DeriveYieldSource(pid, config.Key, tokenMint)
	if err != nil {
		return YieldSource{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return YieldSource{}, fmt.Errorf("yield source for mint %s: %w", tokenMint, err)
	}
	return ParseYieldSource(data)
}

func (c *Client) GetPortfolioValue(ctx context.Context, owner, programID solana.PublicKey) (PortfolioValue, error) {
	pos, err := c.GetUserPosition(ctx, owner, programID)
	if err != nil {
		return PortfolioValue{}, err
	}
	return pos.Portfolio(), nil
}
