package percolator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/metrics"
	"nexus-defi/internal/sol/rpc"
)

// MarketSummary is one slab found by ListMarkets.
type MarketSummary struct {
	Address solana.PublicKey
	Market  Market
}

// Client reads slabs and submits collateral and trade instructions. Every
// query fetches fresh account data.
type Client struct {
	programID solana.PublicKey
	reader    rpc.AccountReader
	submitter rpc.Submitter
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewClient(programID solana.PublicKey, reader rpc.AccountReader, submitter rpc.Submitter, m *metrics.Metrics, log *zap.Logger) *Client {
	if programID.IsZero() {
		programID = DefaultProgramID
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		programID: programID,
		reader:    reader,
		submitter: submitter,
		metrics:   metrics.OrNoop(m),
		log:       log,
	}
}

func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// MagicPrefix is the on-chain encoding of Magic, used to filter program accounts.
func MagicPrefix() []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, Magic)
	return out
}

// FetchSlab returns the raw slab buffer.
func (c *Client) FetchSlab(ctx context.Context, slab solana.PublicKey) ([]byte, error) {
	c.metrics.AccountFetches.Inc()
	data, err := c.reader.AccountData(ctx, slab)
	if err != nil {
		return nil, fmt.Errorf("fetch slab %s: %w", slab, err)
	}
	return data, nil
}

// ListMarkets scans the program for slabs carrying the magic prefix. Slabs
// that fail to decode are logged and skipped.
func (c *Client) ListMarkets(ctx context.Context, programID solana.PublicKey) ([]MarketSummary, error) {
	if programID.IsZero() {
		programID = c.programID
	}
	c.metrics.AccountFetches.Inc()
	accounts, err := c.reader.ProgramAccounts(ctx, programID, rpc.Memcmp(0, MagicPrefix()))
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	out := make([]MarketSummary, 0, len(accounts))
	for _, acc := range accounts {
		m, err := DecodeMarket(acc.Data)
		if err != nil {
			c.metrics.DecodeFailures.Inc()
			c.log.Warn("slab decode failed", zap.String("slab", acc.Key.String()), zap.Error(err))
			continue
		}
		out = append(out, MarketSummary{Address: acc.Key, Market: m})
	}
	return out, nil
}

func (c *Client) GetMarket(ctx context.Context, slab solana.PublicKey) (Market, error) {
	data, err := c.FetchSlab(ctx, slab)
	if err != nil {
		return Market{}, err
	}
	m, err := DecodeMarket(data)
	if err != nil {
		c.metrics.DecodeFailures.Inc()
		return Market{}, fmt.Errorf("decode slab %s: %w", slab, err)
	}
	return m, nil
}

func (c *Client) GetUserPosition(ctx context.Context, slab solana.PublicKey, idx int) (Account, error) {
	data, err := c.FetchSlab(ctx, slab)
	if err != nil {
		return Account{}, err
	}
	return DecodeAccount(data, idx)
}

// Accounts decodes every used account of the slab. Used bitmap slots past
// the buffer are logged as an inconsistent bitmap.
func (c *Client) Accounts(ctx context.Context, slab solana.PublicKey) (AccountScan, error) {
	data, err := c.FetchSlab(ctx, slab)
	if err != nil {
		return AccountScan{}, err
	}
	scan, err := ScanAccounts(data)
	if err != nil {
		c.metrics.DecodeFailures.Inc()
		return AccountScan{}, fmt.Errorf("scan accounts %s: %w", slab, err)
	}
	if len(scan.Dropped) > 0 {
		for range scan.Dropped {
			c.metrics.DroppedAccounts.Inc()
		}
		c.log.Warn("slab bitmap marks slots past account region",
			zap.String("slab", slab.String()),
			zap.Ints("indices", scan.Dropped),
			zap.Int("max_index", MaxAccountIndex(len(data))),
		)
	}
	return scan, nil
}

func (c *Client) DepositCollateral(ctx context.Context, signer solana.PrivateKey, slab solana.PublicKey, userIdx uint16, amount *big.Int) (rpc.TxResult, error) {
	data, err := EncodeDepositCollateral(DepositCollateralArgs{UserIdx: userIdx, Amount: amount})
	if err != nil {
		return rpc.TxResult{}, err
	}
	m, err := c.GetMarket(ctx, slab)
	if err != nil {
		return rpc.TxResult{}, err
	}
	user := signer.PublicKey()
	ata, _, err := solana.FindAssociatedTokenAddress(user, m.Config.CollateralMint)
	if err != nil {
		return rpc.TxResult{}, fmt.Errorf("derive user token account: %w", err)
	}
	metas, err := BuildAccountMetas(DepositCollateralAccounts, []solana.PublicKey{
		user, slab, ata, m.Config.Vault, TokenProgram, ClockSysvar,
	})
	if err != nil {
		return rpc.TxResult{}, err
	}
	return c.submit(ctx, signer, TagDepositCollateral, metas, data), nil
}

// WithdrawCollateral passes the zero key as the oracle account.
func (c *Client) WithdrawCollateral(ctx context.Context, signer solana.PrivateKey, slab solana.PublicKey, userIdx uint16, amount *big.Int) (rpc.TxResult, error) {
	data, err := EncodeWithdrawCollateral(WithdrawCollateralArgs{UserIdx: userIdx, Amount: amount})
	if err != nil {
		return rpc.TxResult{}, err
	}
	m, err := c.GetMarket(ctx, slab)
	if err != nil {
		return rpc.TxResult{}, err
	}
	vaultAuth, err := DeriveVaultAuthority(c.programID, slab)
	if err != nil {
		return rpc.TxResult{}, err
	}
	user := signer.PublicKey()
	ata, _, err := solana.FindAssociatedTokenAddress(user, m.Config.CollateralMint)
	if err != nil {
		return rpc.TxResult{}, fmt.Errorf("derive user token account: %w", err)
	}
	metas, err := BuildAccountMetas(WithdrawCollateralAccounts, []solana.PublicKey{
		user, slab, m.Config.Vault, ata, vaultAuth.Key, TokenProgram, ClockSysvar, {},
	})
	if err != nil {
		return rpc.TxResult{}, err
	}
	return c.submit(ctx, signer, TagWithdrawCollateral, metas, data), nil
}

// Trade signs as both user and LP with the one wallet.
func (c *Client) Trade(ctx context.Context, signer solana.PrivateKey, slab solana.PublicKey, lpIdx, userIdx uint16, size *big.Int) (rpc.TxResult, error) {
	data, err := EncodeTradeNoCpi(TradeArgs{LPIdx: lpIdx, UserIdx: userIdx, Size: size})
	if err != nil {
		return rpc.TxResult{}, err
	}
	user := signer.PublicKey()
	metas, err := BuildAccountMetas(TradeNoCpiAccounts, []solana.PublicKey{
		user, user, slab, ClockSysvar, {},
	})
	if err != nil {
		return rpc.TxResult{}, err
	}
	return c.submit(ctx, signer, TagTradeNoCpi, metas, data), nil
}

func (c *Client) submit(ctx context.Context, signer solana.PrivateKey, tag Tag, metas solana.AccountMetaSlice, data []byte) rpc.TxResult {
	ix := solana.NewInstruction(c.programID, metas, data)
	res := c.submitter.Submit(ctx, signer, ix)
	if res.Success {
		c.metrics.TxSubmitted.Inc()
	} else {
		c.metrics.TxFailed.Inc()
	}
	c.log.Info("percolator instruction submitted",
		zap.Stringer("instruction", tag),
		zap.String("signature", res.Signature),
		zap.Bool("success", res.Success),
	)
	return res
}
