package tools

import (
	"context"
	"fmt"

	"nexus-defi/internal/protocols/stratum"
)

var stratumTools = []Tool{
	{
		Name:        "stratum_get_orderbook",
		Description: "Get Stratum order book state: best bid/ask, volumes, epoch info.",
		InputSchema: object([]string{"authority", "baseMint", "quoteMint"}, map[string]Property{
			"authority": str("Order book authority address"),
			"baseMint":  str("Base token mint address"),
			"quoteMint": str("Quote token mint address"),
		}),
	},
	{
		Name:        "stratum_get_epoch",
		Description: "Get epoch info: merkle root, order count, finalization status.",
		InputSchema: object([]string{"orderBookPda", "epochIndex"}, map[string]Property{
			"orderBookPda": str("Order book PDA address"),
			"epochIndex":   num("Epoch index number"),
		}),
	},
	{
		Name:        "stratum_derive_orderbook_pda",
		Description: "Derive the order book PDA address from authority and mints.",
		InputSchema: object([]string{"authority", "baseMint", "quoteMint"}, map[string]Property{
			"authority": str("Order book authority address"),
			"baseMint":  str("Base token mint address"),
			"quoteMint": str("Quote token mint address"),
		}),
	},
	{
		Name:        "stratum_get_merkle_proof",
		Description: "Build a merkle proof for settlement of a specific order.",
		InputSchema: object([]string{"orders", "targetIndex"}, map[string]Property{
			"orders": {
				Type:        "array",
				Description: "Array of orders in the epoch",
				Items: &Schema{
					Type:     "object",
					Required: []string{"maker", "orderId", "side", "price", "amount", "epochIndex", "orderIndex", "timestamp"},
					Properties: map[string]Property{
						"maker":      {Type: "string"},
						"orderId":    {Type: "string"},
						"side":       num("0=Bid, 1=Ask"),
						"price":      {Type: "string"},
						"amount":     {Type: "string"},
						"epochIndex": {Type: "number"},
						"orderIndex": {Type: "number"},
						"timestamp":  {Type: "string"},
					},
				},
			},
			"targetIndex": num("Index of order to prove"),
		}),
	},
}

func (d *Dispatcher) handleStratum(ctx context.Context, name string, args Args) (any, error) {
	if name == "stratum_get_merkle_proof" {
		return merkleProof(args)
	}
	c := d.deps.Stratum
	if c == nil {
		return nil, notConfigured("stratum")
	}
	switch name {
	case "stratum_get_orderbook", "stratum_derive_orderbook_pda":
		authority, err := args.PublicKey("authority")
		if err != nil {
			return nil, err
		}
		base, err := args.PublicKey("baseMint")
		if err != nil {
			return nil, err
		}
		quote, err := args.PublicKey("quoteMint")
		if err != nil {
			return nil, err
		}
		if name == "stratum_derive_orderbook_pda" {
			addr, err := c.DeriveOrderBook(authority, base, quote)
			if err != nil {
				return nil, err
			}
			return map[string]any{"pda": key(addr.Key), "bump": addr.Bump}, nil
		}
		ob, err := c.GetOrderBook(ctx, authority, base, quote)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"authority":    key(ob.Authority),
			"baseMint":     key(ob.BaseMint),
			"quoteMint":    key(ob.QuoteMint),
			"currentEpoch": ob.CurrentEpoch,
			"totalOrders":  u64(ob.TotalOrders),
			"totalVolume":  u64(ob.TotalVolume),
			"bestBid":      u64(ob.BestBid),
			"bestAsk":      u64(ob.BestAsk),
			"isActive":     ob.IsActive,
			"bump":         ob.Bump,
		}, nil

	case "stratum_get_epoch":
		book, err := args.PublicKey("orderBookPda")
		if err != nil {
			return nil, err
		}
		idx, err := args.Uint32("epochIndex")
		if err != nil {
			return nil, err
		}
		ep, err := c.GetEpoch(ctx, book, idx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"epochIndex":  ep.EpochIndex,
			"merkleRoot":  hex32(ep.MerkleRoot),
			"orderCount":  ep.OrderCount,
			"finalized":   ep.Finalized,
			"finalizedAt": i64(ep.FinalizedAt),
			"createdAt":   i64(ep.CreatedAt),
		}, nil
	}
	return nil, unknownTool("stratum", name)
}

func merkleProof(args Args) (any, error) {
	raw, err := args.Objects("orders")
	if err != nil {
		return nil, err
	}
	target, err := args.Int("targetIndex")
	if err != nil {
		return nil, err
	}
	orders := make([]stratum.OrderLeaf, len(raw))
	for i, o := range raw {
		leaf, err := parseOrderLeaf(o)
		if err != nil {
			return nil, fmt.Errorf("orders[%d]: %w", i, err)
		}
		orders[i] = leaf
	}
	proof, err := stratum.BuildOrderProof(orders, target)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"root":  proof.Root.Hex(),
		"proof": proof.HexSiblings(),
		"leaf":  proof.Leaf.Hex(),
	}, nil
}

func parseOrderLeaf(o Args) (stratum.OrderLeaf, error) {
	var (
		leaf stratum.OrderLeaf
		err  error
	)
	if leaf.Maker, err = o.PublicKey("maker"); err != nil {
		return leaf, err
	}
	if leaf.OrderID, err = o.String("orderId"); err != nil {
		return leaf, err
	}
	side, err := o.uint("side", 8)
	if err != nil {
		return leaf, err
	}
	if side > uint64(stratum.SideAsk) {
		return leaf, fmt.Errorf("side must be 0 (bid) or 1 (ask), got %d", side)
	}
	leaf.Side = stratum.OrderSide(side)
	if leaf.Price, err = o.Uint64("price"); err != nil {
		return leaf, err
	}
	if leaf.Amount, err = o.Uint64("amount"); err != nil {
		return leaf, err
	}
	if leaf.EpochIndex, err = o.Uint32("epochIndex"); err != nil {
		return leaf, err
	}
	if leaf.OrderIndex, err = o.Uint32("orderIndex"); err != nil {
		return leaf, err
	}
	if leaf.Timestamp, err = o.Uint64("timestamp"); err != nil {
		return leaf, err
	}
	return leaf, nil
}
