package sigma

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/pda"
	"nexus-defi/internal/sol/rpc"
)

func DeriveVariancePool(programID, underlyingMint solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("variance_pool"), pda.SeedKey(underlyingMint))
}

func DeriveVariancePosition(programID, pool, user solana.PublicKey, epoch uint64) (pda.Address, error) {
	return pda.Find(programID,
		pda.SeedString("variance_position"),
		pda.SeedKey(pool),
		pda.SeedKey(user),
		pda.SeedU64(epoch),
	)
}

func DeriveFundingPool(programID solana.PublicKey, marketSymbol string) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("funding_pool"), pda.SeedString(marketSymbol))
}

func DeriveVolatilityIndex(programID solana.PublicKey, indexName string) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("vol_index"), pda.SeedString(indexName))
}

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

func (c *Client) fetch(ctx context.Context, addr pda.Address, what string) ([]byte, error) {
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return data, nil
}

func (c *Client) GetVolatilityIndex(ctx context.Context, indexName string) (VolatilityIndex, error) {
	addr, err := DeriveVolatilityIndex(c.programID, indexName)
	if err != nil {
		return VolatilityIndex{}, err
	}
	data, err := c.fetch(ctx, addr, "volatility index "+indexName)
	if err != nil {
		return VolatilityIndex{}, err
	}
	return ParseVolatilityIndex(data, indexName)
}

func (c *Client) GetVariancePool(ctx context.Context, underlyingMint solana.PublicKey) (VariancePool, error) {
	addr, err := DeriveVariancePool(c.programID, underlyingMint)
	if err != nil {
		return VariancePool{}, err
	}
	data, err := c.fetch(ctx, addr, "variance pool for mint "+underlyingMint.String())
	if err != nil {
		return VariancePool{}, err
	}
	return ParseVariancePool(data)
}

// GetPosition derives the pool from the mint, then the user's position in epoch.
func (c *Client) GetPosition(ctx context.Context, underlyingMint, user solana.PublicKey, epoch uint64) (VariancePosition, error) {
	pool, err := DeriveVariancePool(c.programID, underlyingMint)
	if err != nil {
		return VariancePosition{}, err
	}
	addr, err := DeriveVariancePosition(c.programID, pool.Key, user, epoch)
	if err != nil {
		return VariancePosition{}, err
	}
	data, err := c.fetch(ctx, addr, fmt.Sprintf("position for %s in epoch %d", user, epoch))
	if err != nil {
		return VariancePosition{}, err
	}
	return ParseVariancePosition(data)
}

func (c *Client) GetFundingPool(ctx context.Context, marketSymbol string) (FundingPool, error) {
	addr, err := DeriveFundingPool(c.programID, marketSymbol)
	if err != nil {
		return FundingPool{}, err
	}
	data, err := c.fetch(ctx, addr, "funding pool for "+marketSymbol)
	if err != nil {
		return FundingPool{}, err
	}
	return ParseFundingPool(data, marketSymbol)
}

func (c *Client) GetFundingRate(ctx context.Context, marketSymbol string) (FundingRate, error) {
	pool, err := c.GetFundingPool(ctx, marketSymbol)
	if err != nil {
		return FundingRate{}, err
	}
	return pool.Rate(), nil
}
