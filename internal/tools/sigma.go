package tools

import (
	"context"

	"nexus-defi/internal/protocols/sigma"
)

var sigmaTools = []Tool{
	{
		Name:        "sigma_get_volatility_index",
		Description: "Get the current volatility index level and SVI parameters.",
		InputSchema: object([]string{"indexName"}, map[string]Property{
			"indexName": str("Volatility index name (e.g., 'SOL-30D')"),
		}),
	},
	{
		Name:        "sigma_get_variance_pool",
		Description: "Get variance swap pool state: notionals, LP deposits, realized variance.",
		InputSchema: object([]string{"underlyingMint"}, map[string]Property{
			"underlyingMint": str("Underlying token mint address"),
		}),
	},
	{
		Name:        "sigma_get_position",
		Description: "Get user's variance swap position: notional, entry variance, PnL.",
		InputSchema: object([]string{"underlyingMint", "user", "epoch"}, map[string]Property{
			"underlyingMint": str("Underlying token mint address"),
			"user":           str("User wallet address"),
			"epoch":          str("Epoch number"),
		}),
	},
	{
		Name:        "sigma_open_long",
		Description: "Open a long variance position (profit when realized vol > strike). Write operation, deferred.",
		InputSchema: object([]string{"underlyingMint", "collateralMint", "notional", "maxPremium"}, map[string]Property{
			"underlyingMint": str("Underlying token mint"),
			"collateralMint": str("Collateral token mint"),
			"notional":       str("Notional amount"),
			"maxPremium":     str("Max premium willing to pay"),
		}),
	},
	{
		Name:        "sigma_open_short",
		Description: "Open a short variance position (profit when realized vol < strike). Write operation, deferred.",
		InputSchema: object([]string{"underlyingMint", "collateralMint", "notional", "minPremium"}, map[string]Property{
			"underlyingMint": str("Underlying token mint"),
			"collateralMint": str("Collateral token mint"),
			"notional":       str("Notional amount"),
			"minPremium":     str("Min premium to receive"),
		}),
	},
	{
		Name:        "sigma_close_position",
		Description: "Close a variance swap position early. Write operation, deferred.",
		InputSchema: object([]string{"underlyingMint", "collateralMint", "epoch"}, map[string]Property{
			"underlyingMint": str("Underlying token mint"),
			"collateralMint": str("Collateral token mint"),
			"epoch":          str("Epoch number"),
		}),
	},
	{
		Name:        "sigma_get_funding_rate",
		Description: "Get the latest funding rate for a market symbol.",
		InputSchema: object([]string{"marketSymbol"}, map[string]Property{
			"marketSymbol": str("Market symbol (e.g., 'SOL-PERP')"),
		}),
	},
	{
		Name:        "sigma_get_funding_pool",
		Description: "Get funding swap pool state: fixed/floating rates, notionals, LP deposits.",
		InputSchema: object([]string{"marketSymbol"}, map[string]Property{
			"marketSymbol": str("Market symbol (e.g., 'SOL-PERP')"),
		}),
	},
}

func (d *Dispatcher) handleSigma(ctx context.Context, name string, args Args) (any, error) {
	switch name {
	case "sigma_open_long", "sigma_open_short", "sigma_close_position":
		return nil, deferred(name, "IDL + wallet integration")
	}
	c := d.deps.Sigma
	if c == nil {
		return nil, notConfigured("sigma")
	}
	switch name {
	case "sigma_get_volatility_index":
		indexName, err := args.String("indexName")
		if err != nil {
			return nil, err
		}
		idx, err := c.GetVolatilityIndex(ctx, indexName)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":           idx.Name,
			"currentLevel":   u64(idx.CurrentLevel),
			"lastUpdateSlot": u64(idx.LastUpdateSlot),
			"sviParams": map[string]string{
				"a":     i64(idx.SVI.A),
				"b":     i64(idx.SVI.B),
				"rho":   i64(idx.SVI.Rho),
				"m":     i64(idx.SVI.M),
				"sigma": i64(idx.SVI.Sigma),
			},
		}, nil

	case "sigma_get_variance_pool":
		mint, err := args.PublicKey("underlyingMint")
		if err != nil {
			return nil, err
		}
		pool, err := c.GetVariancePool(ctx, mint)
		if err != nil {
			return nil, err
		}
		return variancePoolView(pool), nil

	case "sigma_get_position":
		mint, err := args.PublicKey("underlyingMint")
		if err != nil {
			return nil, err
		}
		user, err := args.PublicKey("user")
		if err != nil {
			return nil, err
		}
		epoch, err := args.Uint64("epoch")
		if err != nil {
			return nil, err
		}
		pos, err := c.GetPosition(ctx, mint, user, epoch)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"owner":               key(pos.Owner),
			"underlyingMint":      key(pos.UnderlyingMint),
			"epoch":               u64(pos.Epoch),
			"isLong":              pos.IsLong,
			"notional":            u64(pos.Notional),
			"entryVariance":       u64(pos.EntryVariance),
			"collateralDeposited": u64(pos.CollateralDeposited),
			"unrealizedPnl":       i64(pos.UnrealizedPnl),
			"settled":             pos.Settled,
		}, nil

	case "sigma_get_funding_rate":
		symbol, err := args.String("marketSymbol")
		if err != nil {
			return nil, err
		}
		rate, err := c.GetFundingRate(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"marketSymbol":   rate.MarketSymbol,
			"currentRate":    i64(rate.CurrentRate),
			"annualizedRate": i64(rate.AnnualizedRate),
			"lastUpdateSlot": u64(rate.LastUpdateSlot),
		}, nil

	case "sigma_get_funding_pool":
		symbol, err := args.String("marketSymbol")
		if err != nil {
			return nil, err
		}
		pool, err := c.GetFundingPool(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"marketSymbol":            pool.MarketSymbol,
			"currentEpoch":            u64(pool.CurrentEpoch),
			"fixedRate":               i64(pool.FixedRate),
			"floatingRateAccumulator": i64(pool.FloatingRateAccumulator),
			"totalReceiveFixed":       u64(pool.TotalReceiveFixed),
			"totalPayFixed":           u64(pool.TotalPayFixed),
			"lpDeposits":              u64(pool.LPDeposits),
			"lastFundingUpdate":       u64(pool.LastFundingUpdate),
			"isActive":                pool.IsActive,
		}, nil
	}
	return nil, unknownTool("sigma", name)
}

func variancePoolView(p sigma.VariancePool) map[string]any {
	return map[string]any{
		"underlyingMint":     key(p.UnderlyingMint),
		"collateralMint":     key(p.CollateralMint),
		"currentEpoch":       u64(p.CurrentEpoch),
		"strikeVariance":     u64(p.StrikeVariance),
		"totalLongNotional":  u64(p.TotalLongNotional),
		"totalShortNotional": u64(p.TotalShortNotional),
		"lpDeposits":         u64(p.LPDeposits),
		"realizedVariance":   u64(p.RealizedVariance),
		"lastUpdateSlot":     u64(p.LastUpdateSlot),
		"isActive":           p.IsActive,
	}
}
