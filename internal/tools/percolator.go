package tools

import (
	"context"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/protocols/percolator"
	"nexus-defi/internal/sol/rpc"
	"nexus-defi/internal/state"
)

var percolatorTools = []Tool{
	{
		Name:        "percolator_list_markets",
		Description: "List all Percolator perpetual markets with OI, insurance fund, vault balance, and risk parameters.",
		InputSchema: object(nil, map[string]Property{
			"programId": str("Override program ID (optional)"),
		}),
	},
	{
		Name:        "percolator_get_market",
		Description: "Get full market state for a Percolator slab: header, config, engine state, and risk parameters.",
		InputSchema: object([]string{"slab"}, map[string]Property{
			"slab": str("Slab account address (base58)"),
		}),
	},
	{
		Name:        "percolator_get_user_position",
		Description: "Get a user's position in a Percolator market: capital, PnL, position size, entry price, funding index.",
		InputSchema: object([]string{"slab", "userIndex"}, map[string]Property{
			"slab":      str("Slab account address (base58)"),
			"userIndex": num("User account index in the slab"),
		}),
	},
	{
		Name:        "percolator_list_accounts",
		Description: "List every used account in a Percolator slab, flagging bitmap slots past the account region.",
		InputSchema: object([]string{"slab"}, map[string]Property{
			"slab": str("Slab account address (base58)"),
		}),
	},
	{
		Name:        "percolator_deposit_collateral",
		Description: "Deposit collateral to a user account in a Percolator market. Requires wallet.",
		InputSchema: object([]string{"slab", "userIndex", "amount"}, map[string]Property{
			"slab":             str("Slab account address (base58)"),
			"userIndex":        num("User account index"),
			"amount":           str("Amount in lamports/minor units"),
			"walletPrivateKey": str("Wallet private key (optional, uses env if not provided)"),
		}),
	},
	{
		Name:        "percolator_withdraw_collateral",
		Description: "Withdraw collateral from a user account in a Percolator market. Requires wallet.",
		InputSchema: object([]string{"slab", "userIndex", "amount"}, map[string]Property{
			"slab":             str("Slab account address (base58)"),
			"userIndex":        num("User account index"),
			"amount":           str("Amount in lamports/minor units"),
			"walletPrivateKey": str("Wallet private key (optional)"),
		}),
	},
	{
		Name:        "percolator_trade",
		Description: "Open or adjust a position in a Percolator market. Positive size = long, negative = short. Requires wallet.",
		InputSchema: object([]string{"slab", "lpIndex", "userIndex", "size"}, map[string]Property{
			"slab":             str("Slab account address (base58)"),
			"lpIndex":          num("LP account index"),
			"userIndex":        num("User account index"),
			"size":             str("Position size change (positive=long, negative=short)"),
			"walletPrivateKey": str("Wallet private key (optional)"),
		}),
	},
}

func (d *Dispatcher) handlePercolator(ctx context.Context, name string, args Args) (any, error) {
	c := d.deps.Percolator
	if c == nil {
		return nil, notConfigured("percolator")
	}
	switch name {
	case "percolator_list_markets":
		program, err := args.OptionalPublicKey("programId")
		if err != nil {
			return nil, err
		}
		markets, err := c.ListMarkets(ctx, program)
		if err != nil {
			return nil, err
		}
		views := make([]marketView, len(markets))
		for i, m := range markets {
			views[i] = newMarketView(m.Address, m.Market)
		}
		return map[string]any{"markets": views, "count": len(views)}, nil

	case "percolator_get_market":
		slab, err := args.PublicKey("slab")
		if err != nil {
			return nil, err
		}
		m, err := c.GetMarket(ctx, slab)
		if err != nil {
			return nil, err
		}
		return newMarketView(slab, m), nil

	case "percolator_get_user_position":
		slab, err := args.PublicKey("slab")
		if err != nil {
			return nil, err
		}
		idx, err := args.Int("userIndex")
		if err != nil {
			return nil, err
		}
		acct, err := c.GetUserPosition(ctx, slab, idx)
		if err != nil {
			return nil, err
		}
		return newAccountView(idx, acct), nil

	case "percolator_list_accounts":
		slab, err := args.PublicKey("slab")
		if err != nil {
			return nil, err
		}
		scan, err := c.Accounts(ctx, slab)
		if err != nil {
			return nil, err
		}
		views := make([]accountView, len(scan.Accounts))
		for i, a := range scan.Accounts {
			views[i] = newAccountView(a.Index, a.Account)
		}
		out := map[string]any{"slab": key(slab), "accounts": views, "count": len(views)}
		if len(scan.Dropped) > 0 {
			out["droppedIndices"] = scan.Dropped
		}
		return out, nil

	case "percolator_deposit_collateral", "percolator_withdraw_collateral":
		slab, err := args.PublicKey("slab")
		if err != nil {
			return nil, err
		}
		userIdx, err := args.Uint16("userIndex")
		if err != nil {
			return nil, err
		}
		amount, err := args.BigInt("amount")
		if err != nil {
			return nil, err
		}
		signer, err := d.signer(args)
		if err != nil {
			return nil, err
		}
		send, tag := c.DepositCollateral, percolator.TagDepositCollateral
		if name == "percolator_withdraw_collateral" {
			send, tag = c.WithdrawCollateral, percolator.TagWithdrawCollateral
		}
		res, err := send(ctx, signer, slab, userIdx, amount)
		if err != nil {
			return nil, err
		}
		d.record(ctx, name, tag, slab, res)
		return res, nil

	case "percolator_trade":
		slab, err := args.PublicKey("slab")
		if err != nil {
			return nil, err
		}
		lpIdx, err := args.Uint16("lpIndex")
		if err != nil {
			return nil, err
		}
		userIdx, err := args.Uint16("userIndex")
		if err != nil {
			return nil, err
		}
		size, err := args.BigInt("size")
		if err != nil {
			return nil, err
		}
		signer, err := d.signer(args)
		if err != nil {
			return nil, err
		}
		res, err := c.Trade(ctx, signer, slab, lpIdx, userIdx, size)
		if err != nil {
			return nil, err
		}
		d.record(ctx, name, percolator.TagTradeNoCpi, slab, res)
		return res, nil
	}
	return nil, unknownTool("percolator", name)
}

func (d *Dispatcher) signer(args Args) (solana.PrivateKey, error) {
	if d.deps.Signer == nil {
		return nil, notConfigured("wallet")
	}
	return d.deps.Signer(args.OptionalString("walletPrivateKey"))
}

// record journals a submission. Journal failures are logged, not returned,
// since the transaction has already been sent.
func (d *Dispatcher) record(ctx context.Context, tool string, tag percolator.Tag, slab solana.PublicKey, res rpc.TxResult) {
	entry := state.JournalEntry{
		Tool:        tool,
		Instruction: tag.String(),
		Market:      slab.String(),
		Signature:   res.Signature,
		Success:     res.Success,
		Error:       res.Error,
		RecordedMS:  d.deps.Now().UnixMilli(),
	}
	id, err := d.deps.Journal.Record(ctx, entry)
	if err != nil {
		d.log.Warn("journal record failed", zap.String("tool", tool), zap.Error(err))
	}
	entry.ID = id
	if d.deps.OnRecord != nil {
		d.deps.OnRecord(entry)
	}
}

type headerView struct {
	Magic             string `json:"magic"`
	Version           uint32 `json:"version"`
	Bump              uint8  `json:"bump"`
	Flags             uint8  `json:"flags"`
	Resolved          bool   `json:"resolved"`
	Admin             string `json:"admin"`
	Nonce             string `json:"nonce"`
	LastThrUpdateSlot string `json:"lastThrUpdateSlot"`
}

type configView struct {
	CollateralMint     string `json:"collateralMint"`
	Vault              string `json:"vault"`
	IndexFeedID        string `json:"indexFeedId"`
	MaxStalenessSlots  string `json:"maxStalenessSlots"`
	ConfFilterBps      uint16 `json:"confFilterBps"`
	VaultAuthorityBump uint8  `json:"vaultAuthorityBump"`
	Invert             uint8  `json:"invert"`
	UnitScale          uint32 `json:"unitScale"`

	FundingHorizonSlots       string `json:"fundingHorizonSlots"`
	FundingKBps               string `json:"fundingKBps"`
	FundingInvScaleNotionalE6 string `json:"fundingInvScaleNotionalE6"`
	FundingMaxPremiumBps      string `json:"fundingMaxPremiumBps"`
	FundingMaxBpsPerSlot      string `json:"fundingMaxBpsPerSlot"`

	ThreshFloor               string `json:"threshFloor"`
	ThreshRiskBps             string `json:"threshRiskBps"`
	ThreshUpdateIntervalSlots string `json:"threshUpdateIntervalSlots"`
	ThreshStepBps             string `json:"threshStepBps"`
	ThreshAlphaBps            string `json:"threshAlphaBps"`
	ThreshMin                 string `json:"threshMin"`
	ThreshMax                 string `json:"threshMax"`
	ThreshMinStep             string `json:"threshMinStep"`

	OracleAuthority      string `json:"oracleAuthority,omitempty"`
	AuthorityPriceE6     string `json:"authorityPriceE6"`
	AuthorityPrice       string `json:"authorityPrice"`
	AuthorityTimestamp   string `json:"authorityTimestamp"`
	OraclePriceCapE2bps  string `json:"oraclePriceCapE2bps"`
	LastEffectivePriceE6 string `json:"lastEffectivePriceE6"`
	LastEffectivePrice   string `json:"lastEffectivePrice"`
}

type engineView struct {
	Vault                  string `json:"vault"`
	InsuranceBalance       string `json:"insuranceBalance"`
	InsuranceFeeRevenue    string `json:"insuranceFeeRevenue"`
	CurrentSlot            string `json:"currentSlot"`
	FundingIndexQpbE6      string `json:"fundingIndexQpbE6"`
	LastFundingSlot        string `json:"lastFundingSlot"`
	FundingRateBpsPerSlot  string `json:"fundingRateBpsPerSlot"`
	LastCrankSlot          string `json:"lastCrankSlot"`
	MaxCrankStalenessSlots string `json:"maxCrankStalenessSlots"`
	TotalOpenInterest      string `json:"totalOpenInterest"`
	CTot                   string `json:"cTot"`
	PnlPosTot              string `json:"pnlPosTot"`
	LiqCursor              uint16 `json:"liqCursor"`
	GCCursor               uint16 `json:"gcCursor"`
	LastSweepStartSlot     string `json:"lastSweepStartSlot"`
	LastSweepCompleteSlot  string `json:"lastSweepCompleteSlot"`
	CrankCursor            uint16 `json:"crankCursor"`
	SweepStartIdx          uint16 `json:"sweepStartIdx"`
	LifetimeLiquidations   string `json:"lifetimeLiquidations"`
	LifetimeForceCloses    string `json:"lifetimeForceCloses"`
	NetLPPos               string `json:"netLpPos"`
	LPSumAbs               string `json:"lpSumAbs"`
	LPMaxAbs               string `json:"lpMaxAbs"`
	LPMaxAbsSweep          string `json:"lpMaxAbsSweep"`
	NumUsedAccounts        uint16 `json:"numUsedAccounts"`
	NextAccountID          string `json:"nextAccountId"`
}

type paramsView struct {
	WarmupPeriodSlots      string `json:"warmupPeriodSlots"`
	MaintenanceMarginBps   string `json:"maintenanceMarginBps"`
	MaintenanceMarginPct   string `json:"maintenanceMarginPct"`
	InitialMarginBps       string `json:"initialMarginBps"`
	InitialMarginPct       string `json:"initialMarginPct"`
	TradingFeeBps          string `json:"tradingFeeBps"`
	MaxAccounts            string `json:"maxAccounts"`
	NewAccountFee          string `json:"newAccountFee"`
	RiskReductionThreshold string `json:"riskReductionThreshold"`
	MaintenanceFeePerSlot  string `json:"maintenanceFeePerSlot"`
	MaxCrankStalenessSlots string `json:"maxCrankStalenessSlots"`
	LiquidationFeeBps      string `json:"liquidationFeeBps"`
	LiquidationFeeCap      string `json:"liquidationFeeCap"`
	LiquidationBufferBps   string `json:"liquidationBufferBps"`
	MinLiquidationAbs      string `json:"minLiquidationAbs"`
}

type marketView struct {
	Slab   string     `json:"slab"`
	Header headerView `json:"header"`
	Config configView `json:"config"`
	Engine engineView `json:"engine"`
	Params paramsView `json:"params"`
}

func newMarketView(slab solana.PublicKey, m percolator.Market) marketView {
	h, c, e, p := m.Header, m.Config, m.Engine, m.Params
	return marketView{
		Slab: key(slab),
		Header: headerView{
			Magic:             "0x" + new(big.Int).SetUint64(h.Magic).Text(16),
			Version:           h.Version,
			Bump:              h.Bump,
			Flags:             h.Flags,
			Resolved:          h.Resolved,
			Admin:             key(h.Admin),
			Nonce:             u64(h.Nonce),
			LastThrUpdateSlot: u64(h.LastThrUpdateSlot),
		},
		Config: configView{
			CollateralMint:            key(c.CollateralMint),
			Vault:                     key(c.Vault),
			IndexFeedID:               key(c.IndexFeedID),
			MaxStalenessSlots:         u64(c.MaxStalenessSlots),
			ConfFilterBps:             c.ConfFilterBps,
			VaultAuthorityBump:        c.VaultAuthorityBump,
			Invert:                    c.Invert,
			UnitScale:                 c.UnitScale,
			FundingHorizonSlots:       u64(c.FundingHorizonSlots),
			FundingKBps:               u64(c.FundingKBps),
			FundingInvScaleNotionalE6: i128(c.FundingInvScaleNotionalE6),
			FundingMaxPremiumBps:      u64(c.FundingMaxPremiumBps),
			FundingMaxBpsPerSlot:      u64(c.FundingMaxBpsPerSlot),
			ThreshFloor:               u128(c.ThreshFloor),
			ThreshRiskBps:             u64(c.ThreshRiskBps),
			ThreshUpdateIntervalSlots: u64(c.ThreshUpdateIntervalSlots),
			ThreshStepBps:             u64(c.ThreshStepBps),
			ThreshAlphaBps:            u64(c.ThreshAlphaBps),
			ThreshMin:                 u128(c.ThreshMin),
			ThreshMax:                 u128(c.ThreshMax),
			ThreshMinStep:             u128(c.ThreshMinStep),
			OracleAuthority:           optKey(c.OracleAuthority),
			AuthorityPriceE6:          u64(c.AuthorityPriceE6),
			AuthorityPrice:            e6(c.AuthorityPriceE6),
			AuthorityTimestamp:        i64(c.AuthorityTimestamp),
			OraclePriceCapE2bps:       u64(c.OraclePriceCapE2bps),
			LastEffectivePriceE6:      u64(c.LastEffectivePriceE6),
			LastEffectivePrice:        e6(c.LastEffectivePriceE6),
		},
		Engine: engineView{
			Vault:                  u128(e.Vault),
			InsuranceBalance:       u128(e.InsuranceFund.Balance),
			InsuranceFeeRevenue:    u128(e.InsuranceFund.FeeRevenue),
			CurrentSlot:            u64(e.CurrentSlot),
			FundingIndexQpbE6:      i128(e.FundingIndexQpbE6),
			LastFundingSlot:        u64(e.LastFundingSlot),
			FundingRateBpsPerSlot:  i64(e.FundingRateBpsPerSlot),
			LastCrankSlot:          u64(e.LastCrankSlot),
			MaxCrankStalenessSlots: u64(e.MaxCrankStalenessSlots),
			TotalOpenInterest:      u128(e.TotalOpenInterest),
			CTot:                   u128(e.CTot),
			PnlPosTot:              u128(e.PnlPosTot),
			LiqCursor:              e.LiqCursor,
			GCCursor:               e.GCCursor,
			LastSweepStartSlot:     u64(e.LastSweepStartSlot),
			LastSweepCompleteSlot:  u64(e.LastSweepCompleteSlot),
			CrankCursor:            e.CrankCursor,
			SweepStartIdx:          e.SweepStartIdx,
			LifetimeLiquidations:   u64(e.LifetimeLiquidations),
			LifetimeForceCloses:    u64(e.LifetimeForceCloses),
			NetLPPos:               i128(e.NetLPPos),
			LPSumAbs:               u128(e.LPSumAbs),
			LPMaxAbs:               u128(e.LPMaxAbs),
			LPMaxAbsSweep:          u128(e.LPMaxAbsSweep),
			NumUsedAccounts:        e.NumUsedAccounts,
			NextAccountID:          u64(e.NextAccountID),
		},
		Params: paramsView{
			WarmupPeriodSlots:      u64(p.WarmupPeriodSlots),
			MaintenanceMarginBps:   u64(p.MaintenanceMarginBps),
			MaintenanceMarginPct:   bpsPercent(p.MaintenanceMarginBps),
			InitialMarginBps:       u64(p.InitialMarginBps),
			InitialMarginPct:       bpsPercent(p.InitialMarginBps),
			TradingFeeBps:          u64(p.TradingFeeBps),
			MaxAccounts:            u64(p.MaxAccounts),
			NewAccountFee:          u128(p.NewAccountFee),
			RiskReductionThreshold: u128(p.RiskReductionThreshold),
			MaintenanceFeePerSlot:  u128(p.MaintenanceFeePerSlot),
			MaxCrankStalenessSlots: u64(p.MaxCrankStalenessSlots),
			LiquidationFeeBps:      u64(p.LiquidationFeeBps),
			LiquidationFeeCap:      u128(p.LiquidationFeeCap),
			LiquidationBufferBps:   u64(p.LiquidationBufferBps),
			MinLiquidationAbs:      u128(p.MinLiquidationAbs),
		},
	}
}

type accountView struct {
	Index               int    `json:"index"`
	Kind                string `json:"kind"`
	AccountID           string `json:"accountId"`
	Capital             string `json:"capital"`
	Pnl                 string `json:"pnl"`
	ReservedPnl         string `json:"reservedPnl"`
	WarmupStartedAtSlot string `json:"warmupStartedAtSlot"`
	WarmupSlopePerStep  string `json:"warmupSlopePerStep"`
	PositionSize        string `json:"positionSize"`
	EntryPrice          string `json:"entryPrice"`
	FundingIndex        string `json:"fundingIndex"`
	MatcherProgram      string `json:"matcherProgram,omitempty"`
	MatcherContext      string `json:"matcherContext,omitempty"`
	Owner               string `json:"owner"`
	FeeCredits          string `json:"feeCredits"`
	LastFeeSlot         string `json:"lastFeeSlot"`
}

func newAccountView(idx int, a percolator.Account) accountView {
	return accountView{
		Index:               idx,
		Kind:                a.Kind.String(),
		AccountID:           u64(a.AccountID),
		Capital:             u128(a.Capital),
		Pnl:                 i128(a.Pnl),
		ReservedPnl:         u64(a.ReservedPnl),
		WarmupStartedAtSlot: u64(a.WarmupStartedAtSlot),
		WarmupSlopePerStep:  u128(a.WarmupSlopePerStep),
		PositionSize:        i128(a.PositionSize),
		EntryPrice:          u64(a.EntryPrice),
		FundingIndex:        i128(a.FundingIndex),
		MatcherProgram:      optKey(a.MatcherProgram),
		MatcherContext:      optKey(a.MatcherContext),
		Owner:               key(a.Owner),
		FeeCredits:          i128(a.FeeCredits),
		LastFeeSlot:         u64(a.LastFeeSlot),
	}
}
