package exodus

import "nexus-defi/internal/wire"

const nameLen = 32

func ParseProtocolConfig(data []byte) (ProtocolConfig, error) {
	r := wire.NewAnchorReader("exodus protocol config", data)
	c := ProtocolConfig{
		Authority:            r.PublicKey(),
		JPYMint:              r.PublicKey(),
		USDCMint:             r.PublicKey(),
		JPYVault:             r.PublicKey(),
		USDCVault:            r.PublicKey(),
		Oracle:               r.PublicKey(),
		KYCRegistry:          r.PublicKey(),
		SovereignProgram:     r.PublicKey(),
		ConversionFeeBps:     r.U16(),
		ManagementFeeBps:     r.U16(),
		PerformanceFeeBps:    r.U16(),
		TotalDepositsUSDC:    r.U64(),
		TotalYieldEarned:     r.U64(),
		PendingJPYConversion: r.U64(),
		DepositNonce:         r.U64(),
		IsActive:             r.Bool(),
		CreatedAt:            r.I64(),
		UpdatedAt:            r.I64(),
		Bump:                 r.U8(),
	}
	if err := r.Err(); err != nil {
		return ProtocolConfig{}, err
	}
	return c, nil
}

func ParseUserPosition(data []byte) (UserPosition, error) {
	r := wire.NewAnchorReader("exodus user position", data)
	p := UserPosition{
		Owner:                r.PublicKey(),
		ProtocolConfig:       r.PublicKey(),
		TotalDepositedJPY:    r.U64(),
		TotalDepositedUSDC:   r.U64(),
		CurrentShares:        r.U64(),
		UnrealizedYieldUSDC:  r.U64(),
		RealizedYieldUSDC:    r.U64(),
		AvgConversionRate:    r.U64(),
		SovereignTier:        r.U8(),
		MonthlyDepositedJPY:  r.U64(),
		MonthlyDepositedUSDC: r.U64(),
		MonthStart:           r.I64(),
		DepositCount:         r.U32(),
		WithdrawalCount:      r.U32(),
		LastDepositAt:        r.I64(),
		LastWithdrawalAt:     r.I64(),
		DepositNonce:         r.U64(),
		CreatedAt:            r.I64(),
		Bump:                 r.U8(),
	}
	if err := r.Err(); err != nil {
		return UserPosition{}, err
	}
	return p, nil
}

func ParseYieldSource(data []byte) (YieldSource, error) {
	r := wire.NewAnchorReader("exodus yield source", data)
	y := YieldSource{
		ProtocolConfig:      r.PublicKey(),
		Name:                r.FixedString(nameLen),
		SourceType:          r.U8(),
		TokenMint:           r.PublicKey(),
		DepositVault:        r.PublicKey(),
		YieldTokenVault:     r.PublicKey(),
		CurrentAPYBps:       r.U16(),
		TotalDeposited:      r.U64(),
		TotalShares:         r.U64(),
		AllocationWeightBps: r.U16(),
		MinDeposit:          r.U64(),
		MaxAllocation:       r.U64(),
		IsActive:            r.Bool(),
		LastNavUpdate:       r.I64(),
		NavPerShare:         r.U64(),
		Bump:                r.U8(),
	}
	if err := r.Err(); err != nil {
		return YieldSource{}, err
	}
	return y, nil
}
