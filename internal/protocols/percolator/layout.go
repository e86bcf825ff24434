package percolator

// Slab layout. Every field offset is fixed; section offsets are absolute
// within the slab, field offsets are relative to their section.
const (
	// Magic is "PERCOLAT" read as a big-endian word. On chain it is stored
	// as a little-endian u64, so the first eight bytes are "TALOCREP".
	Magic uint64 = 0x504552434F4C4154

	HeaderOffset = 0
	HeaderLen    = 72

	ConfigOffset = HeaderLen
	ConfigLen    = 320

	EngineOffset = ConfigOffset + ConfigLen

	FlagResolved uint8 = 1 << 0
)

// Header fields.
const (
	hdrMagicOff       = 0
	hdrVersionOff     = 8
	hdrBumpOff        = 12
	hdrFlagsOff       = 13
	hdrAdminOff       = 16
	hdrNonceOff       = 48
	hdrLastThrSlotOff = 56
)

// Config fields, relative to ConfigOffset.
const (
	cfgCollateralMintOff     = 0
	cfgVaultOff              = 32
	cfgIndexFeedIDOff        = 64
	cfgMaxStalenessOff       = 96
	cfgConfFilterBpsOff      = 104
	cfgVaultAuthBumpOff      = 106
	cfgInvertOff             = 107
	cfgUnitScaleOff          = 108
	cfgFundingHorizonOff     = 112
	cfgFundingKBpsOff        = 120
	cfgFundingInvScaleOff    = 128
	cfgFundingMaxPremiumOff  = 144
	cfgFundingMaxPerSlotOff  = 152
	cfgThreshFloorOff        = 160
	cfgThreshRiskBpsOff      = 176
	cfgThreshIntervalOff     = 184
	cfgThreshStepBpsOff      = 192
	cfgThreshAlphaBpsOff     = 200
	cfgThreshMinOff          = 208
	cfgThreshMaxOff          = 224
	cfgThreshMinStepOff      = 240
	cfgOracleAuthorityOff    = 256
	cfgAuthorityPriceOff     = 288
	cfgAuthorityTimestampOff = 296
	cfgPriceCapOff           = 304
	cfgLastEffectivePriceOff = 312
)

// Engine fields, relative to EngineOffset.
const (
	engVaultOff             = 0
	engInsuranceOff         = 16
	engParamsOff            = 48
	engCurrentSlotOff       = 192
	engFundingIndexOff      = 200
	engLastFundingSlotOff   = 216
	engFundingRateOff       = 224
	engLastCrankSlotOff     = 232
	engMaxCrankStalenessOff = 240
	engTotalOIOff           = 248
	engCTotOff              = 264
	engPnlPosTotOff         = 280
	engLiqCursorOff         = 296
	engGCCursorOff          = 298
	engLastSweepStartOff    = 304
	engLastSweepCompleteOff = 312
	engCrankCursorOff       = 320
	engSweepStartIdxOff     = 322
	engLifetimeLiqOff       = 328
	engLifetimeForceOff     = 336
	engNetLPPosOff          = 344
	engLPSumAbsOff          = 360
	engLPMaxAbsOff          = 376
	engLPMaxAbsSweepOff     = 392
	engBitmapOff            = 408
	engNumUsedOff           = 920
	engNextAccountIDOff     = 928
	engAccountsOff          = 9136
)

// RiskParams fields, relative to ParamsOffset.
const (
	ParamsOffset = EngineOffset + engParamsOff
	ParamsLen    = 160

	prmWarmupOff            = 0
	prmMaintenanceMarginOff = 8
	prmInitialMarginOff     = 16
	prmTradingFeeOff        = 24
	prmMaxAccountsOff       = 32
	prmNewAccountFeeOff     = 40
	prmRiskThresholdOff     = 56
	prmMaintenanceFeeOff    = 72
	prmMaxCrankStaleOff     = 88
	prmLiqFeeBpsOff         = 96
	prmLiqFeeCapOff         = 104
	prmLiqBufferOff         = 120
	prmMinLiqAbsOff         = 128
)

// Sparse account table.
const (
	BitmapWords    = 64
	MaxAccounts    = 4096
	AccountSize    = 240
	BitmapOffset   = EngineOffset + engBitmapOff
	BitmapLen      = BitmapWords * 8
	AccountsOffset = EngineOffset + engAccountsOff

	// EngineMinLen is the smallest buffer the engine decoder accepts.
	EngineMinLen = AccountsOffset
)

// Account fields, relative to the start of one account record.
const (
	acctIDOff             = 0
	acctCapitalOff        = 8
	acctKindOff           = 24
	acctPnlOff            = 32
	acctReservedPnlOff    = 48
	acctWarmupStartedOff  = 56
	acctWarmupSlopeOff    = 64
	acctPositionSizeOff   = 80
	acctEntryPriceOff     = 96
	acctFundingIndexOff   = 104
	acctMatcherProgramOff = 120
	acctMatcherContextOff = 152
	acctOwnerOff          = 184
	acctFeeCreditsOff     = 216
	acctLastFeeSlotOff    = 232

	kindLP uint8 = 1
)
