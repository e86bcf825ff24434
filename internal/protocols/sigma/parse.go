package sigma

import "nexus-defi/internal/wire"

// symbolLen is the fixed on-chain width of a funding pool's market symbol.
const symbolLen = 32

func ParseVolatilityIndex(data []byte, name string) (VolatilityIndex, error) {
	r := wire.NewAnchorReader("sigma volatility index", data)
	v := VolatilityIndex{
		Name:           name,
		CurrentLevel:   r.U64(),
		LastUpdateSlot: r.U64(),
		SVI: SVIParams{
			A:     r.I64(),
			B:     r.I64(),
			Rho:   r.I64(),
			M:     r.I64(),
			Sigma: r.I64(),
		},
	}
	if err := r.Err(); err != nil {
		return VolatilityIndex{}, err
	}
	return v, nil
}

func ParseVariancePool(data []byte) (VariancePool, error) {
	r := wire.NewAnchorReader("sigma variance pool", data)
	p := VariancePool{
		UnderlyingMint:     r.PublicKey(),
		CollateralMint:     r.PublicKey(),
		CurrentEpoch:       r.U64(),
		StrikeVariance:     r.U64(),
		TotalLongNotional:  r.U64(),
		TotalShortNotional: r.U64(),
		LPDeposits:         r.U64(),
		RealizedVariance:   r.U64(),
		LastUpdateSlot:     r.U64(),
		IsActive:           r.Bool(),
	}
	if err := r.Err(); err != nil {
		return VariancePool{}, err
	}
	return p, nil
}

func ParseVariancePosition(data []byte) (VariancePosition, error) {
	r := wire.NewAnchorReader("sigma variance position", data)
	p := VariancePosition{
		Owner:               r.PublicKey(),
		UnderlyingMint:      r.PublicKey(),
		Epoch:               r.U64(),
		IsLong:              r.Bool(),
		Notional:            r.U64(),
		EntryVariance:       r.U64(),
		CollateralDeposited: r.U64(),
		UnrealizedPnl:       r.I64(),
		Settled:             r.Bool(),
	}
	if err := r.Err(); err != nil {
		return VariancePosition{}, err
	}
	return p, nil
}

// ParseFundingPool skips the stored symbol and reports the one the caller
// derived the address from.
func ParseFundingPool(data []byte, marketSymbol string) (FundingPool, error) {
	r := wire.NewAnchorReader("sigma funding pool", data)
	r.Skip(symbolLen)
	p := FundingPool{
		MarketSymbol:            marketSymbol,
		CurrentEpoch:            r.U64(),
		FixedRate:               r.I64(),
		FloatingRateAccumulator: r.I64(),
		TotalReceiveFixed:       r.U64(),
		TotalPayFixed:           r.U64(),
		LPDeposits:              r.U64(),
		LastFundingUpdate:       r.U64(),
		IsActive:                r.Bool(),
	}
	if err := r.Err(); err != nil {
		return FundingPool{}, err
	}
	return p, nil
}
