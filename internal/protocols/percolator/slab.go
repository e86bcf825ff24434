package percolator

import (
	"errors"
	"fmt"

	"nexus-defi/internal/wire"
)

var (
	ErrInvalidMagic    = errors.New("invalid slab magic")
	ErrIndexOutOfRange = errors.New("account index out of range")
)

// MagicError carries both magic values so callers can tell a foreign account
// from a corrupted one.
type MagicError struct {
	Expected uint64
	Actual   uint64
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("%s: expected %x, got %x", ErrInvalidMagic, e.Expected, e.Actual)
}

func (e *MagicError) Unwrap() error {
	return ErrInvalidMagic
}

func DecodeHeader(buf []byte) (SlabHeader, error) {
	if err := wire.CheckLen("slab header", buf, HeaderOffset+HeaderLen); err != nil {
		return SlabHeader{}, err
	}
	magic := wire.U64(buf, hdrMagicOff)
	if magic != Magic {
		return SlabHeader{}, &MagicError{Expected: Magic, Actual: magic}
	}
	flags := wire.U8(buf, hdrFlagsOff)
	return SlabHeader{
		Magic:             magic,
		Version:           wire.U32(buf, hdrVersionOff),
		Bump:              wire.U8(buf, hdrBumpOff),
		Flags:             flags,
		Resolved:          flags&FlagResolved != 0,
		Admin:             wire.PublicKey(buf, hdrAdminOff),
		Nonce:             wire.U64(buf, hdrNonceOff),
		LastThrUpdateSlot: wire.U64(buf, hdrLastThrSlotOff),
	}, nil
}

func DecodeConfig(buf []byte) (MarketConfig, error) {
	if err := wire.CheckLen("market config", buf, ConfigOffset+ConfigLen); err != nil {
		return MarketConfig{}, err
	}
	b := ConfigOffset
	return MarketConfig{
		CollateralMint:     wire.PublicKey(buf, b+cfgCollateralMintOff),
		Vault:              wire.PublicKey(buf, b+cfgVaultOff),
		IndexFeedID:        wire.PublicKey(buf, b+cfgIndexFeedIDOff),
		MaxStalenessSlots:  wire.U64(buf, b+cfgMaxStalenessOff),
		ConfFilterBps:      wire.U16(buf, b+cfgConfFilterBpsOff),
		VaultAuthorityBump: wire.U8(buf, b+cfgVaultAuthBumpOff),
		Invert:             wire.U8(buf, b+cfgInvertOff),
		UnitScale:          wire.U32(buf, b+cfgUnitScaleOff),

		FundingHorizonSlots:       wire.U64(buf, b+cfgFundingHorizonOff),
		FundingKBps:               wire.U64(buf, b+cfgFundingKBpsOff),
		FundingInvScaleNotionalE6: wire.I128(buf, b+cfgFundingInvScaleOff),
		FundingMaxPremiumBps:      wire.U64(buf, b+cfgFundingMaxPremiumOff),
		FundingMaxBpsPerSlot:      wire.U64(buf, b+cfgFundingMaxPerSlotOff),

		ThreshFloor:               wire.U128(buf, b+cfgThreshFloorOff),
		ThreshRiskBps:             wire.U64(buf, b+cfgThreshRiskBpsOff),
		ThreshUpdateIntervalSlots: wire.U64(buf, b+cfgThreshIntervalOff),
		ThreshStepBps:             wire.U64(buf, b+cfgThreshStepBpsOff),
		ThreshAlphaBps:            wire.U64(buf, b+cfgThreshAlphaBpsOff),
		ThreshMin:                 wire.U128(buf, b+cfgThreshMinOff),
		ThreshMax:                 wire.U128(buf, b+cfgThreshMaxOff),
		ThreshMinStep:             wire.U128(buf, b+cfgThreshMinStepOff),

		OracleAuthority:      wire.PublicKey(buf, b+cfgOracleAuthorityOff),
		AuthorityPriceE6:     wire.U64(buf, b+cfgAuthorityPriceOff),
		AuthorityTimestamp:   wire.I64(buf, b+cfgAuthorityTimestampOff),
		OraclePriceCapE2bps:  wire.U64(buf, b+cfgPriceCapOff),
		LastEffectivePriceE6: wire.U64(buf, b+cfgLastEffectivePriceOff),
	}, nil
}

func DecodeParams(buf []byte) (RiskParams, error) {
	if err := wire.CheckLen("risk params", buf, ParamsOffset+ParamsLen); err != nil {
		return RiskParams{}, err
	}
	b := ParamsOffset
	return RiskParams{
		WarmupPeriodSlots:      wire.U64(buf, b+prmWarmupOff),
		MaintenanceMarginBps:   wire.U64(buf, b+prmMaintenanceMarginOff),
		InitialMarginBps:       wire.U64(buf, b+prmInitialMarginOff),
		TradingFeeBps:          wire.U64(buf, b+prmTradingFeeOff),
		MaxAccounts:            wire.U64(buf, b+prmMaxAccountsOff),
		NewAccountFee:          wire.U128(buf, b+prmNewAccountFeeOff),
		RiskReductionThreshold: wire.U128(buf, b+prmRiskThresholdOff),
		MaintenanceFeePerSlot:  wire.U128(buf, b+prmMaintenanceFeeOff),
		MaxCrankStalenessSlots: wire.U64(buf, b+prmMaxCrankStaleOff),
		LiquidationFeeBps:      wire.U64(buf, b+prmLiqFeeBpsOff),
		LiquidationFeeCap:      wire.U128(buf, b+prmLiqFeeCapOff),
		LiquidationBufferBps:   wire.U64(buf, b+prmLiqBufferOff),
		MinLiquidationAbs:      wire.U128(buf, b+prmMinLiqAbsOff),
	}, nil
}

// DecodeEngine requires the buffer to reach the start of the account table.
func DecodeEngine(buf []byte) (EngineState, error) {
	if err := wire.CheckLen("risk engine", buf, EngineMinLen); err != nil {
		return EngineState{}, err
	}
	b := EngineOffset
	return EngineState{
		Vault: wire.U128(buf, b+engVaultOff),
		InsuranceFund: InsuranceFund{
			Balance:    wire.U128(buf, b+engInsuranceOff),
			FeeRevenue: wire.U128(buf, b+engInsuranceOff+16),
		},
		CurrentSlot:            wire.U64(buf, b+engCurrentSlotOff),
		FundingIndexQpbE6:      wire.I128(buf, b+engFundingIndexOff),
		LastFundingSlot:        wire.U64(buf, b+engLastFundingSlotOff),
		FundingRateBpsPerSlot:  wire.I64(buf, b+engFundingRateOff),
		LastCrankSlot:          wire.U64(buf, b+engLastCrankSlotOff),
		MaxCrankStalenessSlots: wire.U64(buf, b+engMaxCrankStalenessOff),
		TotalOpenInterest:      wire.U128(buf, b+engTotalOIOff),
		CTot:                   wire.U128(buf, b+engCTotOff),
		PnlPosTot:              wire.U128(buf, b+engPnlPosTotOff),
		LiqCursor:              wire.U16(buf, b+engLiqCursorOff),
		GCCursor:               wire.U16(buf, b+engGCCursorOff),
		LastSweepStartSlot:     wire.U64(buf, b+engLastSweepStartOff),
		LastSweepCompleteSlot:  wire.U64(buf, b+engLastSweepCompleteOff),
		CrankCursor:            wire.U16(buf, b+engCrankCursorOff),
		SweepStartIdx:          wire.U16(buf, b+engSweepStartIdxOff),
		LifetimeLiquidations:   wire.U64(buf, b+engLifetimeLiqOff),
		LifetimeForceCloses:    wire.U64(buf, b+engLifetimeForceOff),
		NetLPPos:               wire.I128(buf, b+engNetLPPosOff),
		LPSumAbs:               wire.U128(buf, b+engLPSumAbsOff),
		LPMaxAbs:               wire.U128(buf, b+engLPMaxAbsOff),
		LPMaxAbsSweep:          wire.U128(buf, b+engLPMaxAbsSweepOff),
		NumUsedAccounts:        wire.U16(buf, b+engNumUsedOff),
		NextAccountID:          wire.U64(buf, b+engNextAccountIDOff),
	}, nil
}

// Market is every fixed section of one slab.
type Market struct {
	Header SlabHeader
	Config MarketConfig
	Engine EngineState
	Params RiskParams
}

// DecodeMarket decodes the header first so a foreign account fails on its
// magic before any length check of the later sections.
func DecodeMarket(buf []byte) (Market, error) {
	var (
		m   Market
		err error
	)
	if m.Header, err = DecodeHeader(buf); err != nil {
		return Market{}, err
	}
	if m.Config, err = DecodeConfig(buf); err != nil {
		return Market{}, err
	}
	if m.Engine, err = DecodeEngine(buf); err != nil {
		return Market{}, err
	}
	if m.Params, err = DecodeParams(buf); err != nil {
		return Market{}, err
	}
	return m, nil
}
