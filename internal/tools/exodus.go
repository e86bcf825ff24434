package tools

import (
	"context"

	"nexus-defi/internal/protocols/exodus"
)

var exodusTools = []Tool{
	{
		Name:        "exodus_get_protocol_config",
		Description: "Get Exodus protocol config: mints (JPY/USDC), vaults, fees, totals.",
		InputSchema: object(nil, map[string]Property{
			"programId": str("Override program ID (optional)"),
		}),
	},
	{
		Name:        "exodus_get_user_position",
		Description: "Get a user's Exodus position: deposits, shares, yield, Sovereign tier.",
		InputSchema: object([]string{"owner"}, map[string]Property{
			"owner":     str("User wallet address (base58)"),
			"programId": str("Override program ID (optional)"),
		}),
	},
	{
		Name:        "exodus_get_yield_sources",
		Description: "Get available yield sources: APY, NAV per share, allocation weights.",
		InputSchema: object([]string{"tokenMint"}, map[string]Property{
			"tokenMint": str("Token mint address for the yield source"),
			"programId": str("Override program ID (optional)"),
		}),
	},
	{
		Name:        "exodus_deposit_jpy",
		Description: "Deposit JPY for USDC yield conversion. Write operation, deferred.",
		InputSchema: object([]string{"jpyAmount", "minUsdcOut"}, map[string]Property{
			"jpyAmount":  str("JPY amount in minor units"),
			"minUsdcOut": str("Minimum USDC output"),
		}),
	},
	{
		Name:        "exodus_get_portfolio_value",
		Description: "Get total portfolio value (USDC + JPY equivalent) for a user.",
		InputSchema: object([]string{"owner"}, map[string]Property{
			"owner":     str("User wallet address (base58)"),
			"programId": str("Override program ID (optional)"),
		}),
	},
}

func (d *Dispatcher) handleExodus(ctx context.Context, name string, args Args) (any, error) {
	if name == "exodus_deposit_jpy" {
		return nil, deferred(name, "wallet integration")
	}
	c := d.deps.Exodus
	if c == nil {
		return nil, notConfigured("exodus")
	}
	program, err := args.OptionalPublicKey("programId")
	if err != nil {
		return nil, err
	}
	switch name {
	case "exodus_get_protocol_config":
		cfg, err := c.GetProtocolConfig(ctx, program)
		if err != nil {
			return nil, err
		}
		return protocolConfigView(cfg), nil

	case "exodus_get_user_position":
		owner, err := args.PublicKey("owner")
		if err != nil {
			return nil, err
		}
		pos, err := c.GetUserPosition(ctx, owner, program)
		if err != nil {
			return nil, err
		}
		return userPositionView(pos), nil

	case "exodus_get_yield_sources":
		mint, err := args.PublicKey("tokenMint")
		if err != nil {
			return nil, err
		}
		src, err := c.GetYieldSource(ctx, mint, program)
		if err != nil {
			return nil, err
		}
		return yieldSourceView(src), nil

	case "exodus_get_portfolio_value":
		owner, err := args.PublicKey("owner")
		if err != nil {
			return nil, err
		}
		pv, err := c.GetPortfolioValue(ctx, owner, program)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"owner":               key(pv.Owner),
			"totalDepositedJpy":   u64(pv.TotalDepositedJPY),
			"totalDepositedUsdc":  u64(pv.TotalDepositedUSDC),
			"totalDepositedUsdcD": e6(pv.TotalDepositedUSDC),
			"currentShares":       u64(pv.CurrentShares),
			"unrealizedYieldUsdc": u64(pv.UnrealizedYieldUSDC),
			"realizedYieldUsdc":   u64(pv.RealizedYieldUSDC),
			"avgConversionRate":   u64(pv.AvgConversionRate),
			"sovereignTier":       pv.SovereignTier,
		}, nil
	}
	return nil, unknownTool("exodus", name)
}

func protocolConfigView(c exodus.ProtocolConfig) map[string]any {
	return map[string]any{
		"authority":            key(c.Authority),
		"jpyMint":              key(c.JPYMint),
		"usdcMint":             key(c.USDCMint),
		"jpyVault":             key(c.JPYVault),
		"usdcVault":            key(c.USDCVault),
		"oracle":               key(c.Oracle),
		"kycRegistry":          key(c.KYCRegistry),
		"sovereignProgram":     key(c.SovereignProgram),
		"conversionFeeBps":     c.ConversionFeeBps,
		"managementFeeBps":     c.ManagementFeeBps,
		"performanceFeeBps":    c.PerformanceFeeBps,
		"totalDepositsUsdc":    u64(c.TotalDepositsUSDC),
		"totalYieldEarned":     u64(c.TotalYieldEarned),
		"pendingJpyConversion": u64(c.PendingJPYConversion),
		"depositNonce":         u64(c.DepositNonce),
		"isActive":             c.IsActive,
		"createdAt":            i64(c.CreatedAt),
		"updatedAt":            i64(c.UpdatedAt),
		"bump":                 c.Bump,
	}
}

func userPositionView(p exodus.UserPosition) map[string]any {
	return map[string]any{
		"owner":                key(p.Owner),
		"protocolConfig":       key(p.ProtocolConfig),
		"totalDepositedJpy":    u64(p.TotalDepositedJPY),
		"totalDepositedUsdc":   u64(p.TotalDepositedUSDC),
		"currentShares":        u64(p.CurrentShares),
		"unrealizedYieldUsdc":  u64(p.UnrealizedYieldUSDC),
		"realizedYieldUsdc":    u64(p.RealizedYieldUSDC),
		"avgConversionRate":    u64(p.AvgConversionRate),
		"sovereignTier":        p.SovereignTier,
		"monthlyDepositedJpy":  u64(p.MonthlyDepositedJPY),
		"monthlyDepositedUsdc": u64(p.MonthlyDepositedUSDC),
		"monthStart":           i64(p.MonthStart),
		"depositCount":         p.DepositCount,
		"withdrawalCount":      p.WithdrawalCount,
		"lastDepositAt":        i64(p.LastDepositAt),
		"lastWithdrawalAt":     i64(p.LastWithdrawalAt),
		"depositNonce":         u64(p.DepositNonce),
		"createdAt":            i64(p.CreatedAt),
		"bump":                 p.Bump,
	}
}

func yieldSourceView(s exodus.YieldSource) map[string]any {
	return map[string]any{
		"protocolConfig":      key(s.ProtocolConfig),
		"name":                s.Name,
		"sourceType":          s.SourceType,
		"tokenMint":           key(s.TokenMint),
		"depositVault":        key(s.DepositVault),
		"yieldTokenVault":     key(s.YieldTokenVault),
		"currentApyBps":       s.CurrentAPYBps,
		"currentApyPct":       bpsPercent(uint64(s.CurrentAPYBps)),
		"totalDeposited":      u64(s.TotalDeposited),
		"totalShares":         u64(s.TotalShares),
		"allocationWeightBps": s.AllocationWeightBps,
		"minDeposit":          u64(s.MinDeposit),
		"maxAllocation":       u64(s.MaxAllocation),
		"isActive":            s.IsActive,
		"lastNavUpdate":       i64(s.LastNavUpdate),
		"navPerShare":         u64(s.NavPerShare),
		"bump":                s.Bump,
	}
}
