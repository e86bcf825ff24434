package percolator

import (
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"nexus-defi/internal/wire"
)

type SlabHeader struct {
	Magic             uint64
	Version           uint32
	Bump              uint8
	Flags             uint8
	Resolved          bool
	Admin             solana.PublicKey
	Nonce             uint64
	LastThrUpdateSlot uint64
}

type MarketConfig struct {
	CollateralMint     solana.PublicKey
	Vault              solana.PublicKey
	IndexFeedID        solana.PublicKey
	MaxStalenessSlots  uint64
	ConfFilterBps      uint16
	VaultAuthorityBump uint8
	Invert             uint8
	UnitScale          uint32

	FundingHorizonSlots       uint64
	FundingKBps               uint64
	FundingInvScaleNotionalE6 wire.Int128
	FundingMaxPremiumBps      uint64
	FundingMaxBpsPerSlot      uint64

	ThreshFloor               uint128.Uint128
	ThreshRiskBps             uint64
	ThreshUpdateIntervalSlots uint64
	ThreshStepBps             uint64
	ThreshAlphaBps            uint64
	ThreshMin                 uint128.Uint128
	ThreshMax                 uint128.Uint128
	ThreshMinStep             uint128.Uint128

	OracleAuthority      solana.PublicKey
	AuthorityPriceE6     uint64
	AuthorityTimestamp   int64
	OraclePriceCapE2bps  uint64
	LastEffectivePriceE6 uint64
}

type RiskParams struct {
	WarmupPeriodSlots      uint64
	MaintenanceMarginBps   uint64
	InitialMarginBps       uint64
	TradingFeeBps          uint64
	MaxAccounts            uint64
	NewAccountFee          uint128.Uint128
	RiskReductionThreshold uint128.Uint128
	MaintenanceFeePerSlot  uint128.Uint128
	MaxCrankStalenessSlots uint64
	LiquidationFeeBps      uint64
	LiquidationFeeCap      uint128.Uint128
	LiquidationBufferBps   uint64
	MinLiquidationAbs      uint128.Uint128
}

type InsuranceFund struct {
	Balance    uint128.Uint128
	FeeRevenue uint128.Uint128
}

type EngineState struct {
	Vault                  uint128.Uint128
	InsuranceFund          InsuranceFund
	CurrentSlot            uint64
	FundingIndexQpbE6      wire.Int128
	LastFundingSlot        uint64
	FundingRateBpsPerSlot  int64
	LastCrankSlot          uint64
	MaxCrankStalenessSlots uint64
	TotalOpenInterest      uint128.Uint128
	CTot                   uint128.Uint128
	PnlPosTot              uint128.Uint128
	LiqCursor              uint16
	GCCursor               uint16
	LastSweepStartSlot     uint64
	LastSweepCompleteSlot  uint64
	CrankCursor            uint16
	SweepStartIdx          uint16
	LifetimeLiquidations   uint64
	LifetimeForceCloses    uint64
	NetLPPos               wire.Int128
	LPSumAbs               uint128.Uint128
	LPMaxAbs               uint128.Uint128
	LPMaxAbsSweep          uint128.Uint128
	NumUsedAccounts        uint16
	NextAccountID          uint64
}

type AccountKind uint8

const (
	KindUser AccountKind = iota
	KindLP
)

func (k AccountKind) String() string {
	if k == KindLP {
		return "LP"
	}
	return "User"
}

type Account struct {
	Kind                AccountKind
	AccountID           uint64
	Capital             uint128.Uint128
	Pnl                 wire.Int128
	ReservedPnl         uint64
	WarmupStartedAtSlot uint64
	WarmupSlopePerStep  uint128.Uint128
	PositionSize        wire.Int128
	EntryPrice          uint64
	FundingIndex        wire.Int128
	MatcherProgram      solana.PublicKey
	MatcherContext      solana.PublicKey
	Owner               solana.PublicKey
	FeeCredits          wire.Int128
	LastFeeSlot         uint64
}

// IndexedAccount pairs an account with its slot in the table.
type IndexedAccount struct {
	Index   int
	Account Account
}
