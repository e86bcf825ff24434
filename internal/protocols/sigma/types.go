// Package sigma reads the variance swap and funding swap program.
package sigma

import "github.com/gagliardetto/solana-go"

// SVIParams are the raw fixed-point parameters of the fitted volatility smile.
type SVIParams struct {
	A     int64
	B     int64
	Rho   int64
	M     int64
	Sigma int64
}

type VolatilityIndex struct {
	Name           string
	CurrentLevel   uint64
	LastUpdateSlot uint64
	SVI            SVIParams
}

type VariancePool struct {
	UnderlyingMint     solana.PublicKey
	CollateralMint     solana.PublicKey
	CurrentEpoch       uint64
	StrikeVariance     uint64
	TotalLongNotional  uint64
	TotalShortNotional uint64
	LPDeposits         uint64
	RealizedVariance   uint64
	LastUpdateSlot     uint64
	IsActive           bool
}

type VariancePosition struct {
	Owner               solana.PublicKey
	UnderlyingMint      solana.PublicKey
	Epoch               uint64
	IsLong              bool
	Notional            uint64
	EntryVariance       uint64
	CollateralDeposited uint64
	UnrealizedPnl       int64
	Settled             bool
}

type FundingPool struct {
	MarketSymbol            string
	CurrentEpoch            uint64
	FixedRate               int64
	FloatingRateAccumulator int64
	TotalReceiveFixed       uint64
	TotalPayFixed           uint64
	LPDeposits              uint64
	LastFundingUpdate       uint64
	IsActive                bool
}

// FundingRate is the summary view of a funding pool.
type FundingRate struct {
	MarketSymbol   string
	CurrentRate    int64
	AnnualizedRate int64
	LastUpdateSlot uint64
}

func (p FundingPool) Rate() FundingRate {
	return FundingRate{
		MarketSymbol:   p.MarketSymbol,
		CurrentRate:    p.FloatingRateAccumulator,
		AnnualizedRate: p.FixedRate,
		LastUpdateSlot: p.LastFundingUpdate,
	}
}
