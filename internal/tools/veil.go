package tools

import (
	"context"

	"nexus-defi/internal/protocols/veil"
)

var veilTools = []Tool{
	{
		Name:        "veil_get_solver_config",
		Description: "Get the Veil CSR solver configuration: fees, volume, activity status.",
		InputSchema: object(nil, nil),
	},
	{
		Name:        "veil_get_order",
		Description: "Get a specific encrypted order by owner and order ID.",
		InputSchema: object([]string{"owner", "orderId"}, map[string]Property{
			"owner":   str("Order owner wallet address"),
			"orderId": str("Order ID string"),
		}),
	},
	{
		Name:        "veil_get_orders_by_owner",
		Description: "Get all encrypted orders for a wallet.",
		InputSchema: object([]string{"owner"}, map[string]Property{
			"owner": str("Wallet address (base58)"),
		}),
	},
	{
		Name:        "veil_submit_encrypted_order",
		Description: "Submit an encrypted swap order to the Veil CSR solver. Write operation, deferred.",
		InputSchema: object([]string{"orderId", "inputMint", "outputMint", "inputAmount", "minOutputAmount", "slippageBps", "deadlineSeconds"}, map[string]Property{
			"orderId":         str("Unique order ID"),
			"inputMint":       str("Input token mint address"),
			"outputMint":      str("Output token mint address"),
			"inputAmount":     str("Input amount in minor units"),
			"minOutputAmount": str("Minimum output amount"),
			"slippageBps":     num("Slippage tolerance in basis points"),
			"deadlineSeconds": num("Order deadline in seconds from now"),
		}),
	},
	{
		Name:        "veil_cancel_order",
		Description: "Cancel a pending encrypted order. Write operation, deferred.",
		InputSchema: object([]string{"orderId", "inputMint"}, map[string]Property{
			"orderId":   str("Order ID to cancel"),
			"inputMint": str("Input token mint (for refund)"),
		}),
	},
}

func (d *Dispatcher) handleVeil(ctx context.Context, name string, args Args) (any, error) {
	switch name {
	case "veil_submit_encrypted_order":
		return nil, deferred(name, "wallet + encryption integration")
	case "veil_cancel_order":
		return nil, deferred(name, "wallet integration")
	}
	c := d.deps.Veil
	if c == nil {
		return nil, notConfigured("veil")
	}
	switch name {
	case "veil_get_solver_config":
		cfg, err := c.GetSolverConfig(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"authority":            key(cfg.Authority),
			"solverPublicKey":      key(cfg.SolverPublicKey),
			"feeRecipient":         key(cfg.FeeRecipient),
			"baseFee":              u64(cfg.BaseFee),
			"feeRateBps":           cfg.FeeRateBps,
			"totalOrdersProcessed": u64(cfg.TotalOrdersProcessed),
			"totalVolumeUsdc":      u64(cfg.TotalVolumeUSDC),
			"isActive":             cfg.IsActive,
			"createdAt":            i64(cfg.CreatedAt),
			"bump":                 cfg.Bump,
		}, nil

	case "veil_get_order":
		owner, err := args.PublicKey("owner")
		if err != nil {
			return nil, err
		}
		orderID, err := args.String("orderId")
		if err != nil {
			return nil, err
		}
		order, err := c.GetOrder(ctx, owner, orderID)
		if err != nil {
			return nil, err
		}
		return orderView(order), nil

	case "veil_get_orders_by_owner":
		owner, err := args.PublicKey("owner")
		if err != nil {
			return nil, err
		}
		orders, err := c.GetOrdersByOwner(ctx, owner)
		if err != nil {
			return nil, err
		}
		views := make([]map[string]any, len(orders))
		for i, o := range orders {
			views[i] = orderView(o)
		}
		return map[string]any{"orders": views, "count": len(views)}, nil
	}
	return nil, unknownTool("veil", name)
}

// orderView renders the encrypted payload as base64 via []byte marshalling.
func orderView(o veil.Order) map[string]any {
	return map[string]any{
		"orderId":          o.OrderID,
		"owner":            key(o.Owner),
		"inputMint":        key(o.InputMint),
		"outputMint":       key(o.OutputMint),
		"inputAmount":      u64(o.InputAmount),
		"encryptedPayload": o.EncryptedPayload,
		"status":           o.Status.String(),
		"createdAt":        i64(o.CreatedAt),
		"expiresAt":        i64(o.ExpiresAt),
		"bump":             o.Bump,
	}
}
