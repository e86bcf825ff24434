package tools

import (
	"context"
	"fmt"
	"strings"

	"nexus-defi/internal/protocols/sovereign"
)

var sovereignTools = []Tool{
	{
		Name:        "sovereign_get_identity",
		Description: "Get a wallet's SOVEREIGN identity: all dimension scores (trading, civic, developer, infra, creator), composite score, and tier (Bronze-Diamond).",
		InputSchema: object([]string{"wallet"}, map[string]Property{
			"wallet": str("Solana wallet address (base58)"),
		}),
	},
	{
		Name:        "sovereign_get_dimension_score",
		Description: "Get a specific SOVEREIGN dimension score for a wallet. Dimensions: trading, civic, developer, infra, creator.",
		InputSchema: object([]string{"wallet", "dimension"}, map[string]Property{
			"wallet": str("Solana wallet address (base58)"),
			"dimension": {
				Type:        "string",
				Description: "SOVEREIGN dimension to query",
				Enum:        dimensionNames(),
			},
		}),
	},
	{
		Name:        "sovereign_assess_confidence",
		Description: "Assess the trust confidence level for a wallet based on its SOVEREIGN tier. Returns high/medium/low/none.",
		InputSchema: object([]string{"wallet"}, map[string]Property{
			"wallet": str("Solana wallet address (base58)"),
		}),
	},
}

func dimensionNames() []string {
	out := make([]string, len(sovereign.Dimensions))
	for i, d := range sovereign.Dimensions {
		out[i] = string(d)
	}
	return out
}

type identityView struct {
	Owner          string `json:"owner"`
	TradingScore   uint16 `json:"tradingScore"`
	CivicScore     uint16 `json:"civicScore"`
	DeveloperScore uint16 `json:"developerScore"`
	InfraScore     uint16 `json:"infraScore"`
	CreatorScore   uint16 `json:"creatorScore"`
	CompositeScore uint16 `json:"compositeScore"`
	Tier           uint8  `json:"tier"`
	TierName       string `json:"tierName"`
	CreatedAt      string `json:"createdAt"`
	LastUpdated    string `json:"lastUpdated"`
}

func (d *Dispatcher) handleSovereign(ctx context.Context, name string, args Args) (any, error) {
	c := d.deps.Sovereign
	if c == nil {
		return nil, notConfigured("sovereign")
	}
	wallet, err := args.PublicKey("wallet")
	if err != nil {
		return nil, err
	}
	switch name {
	case "sovereign_get_identity":
		id, err := c.GetIdentity(ctx, wallet)
		if err != nil {
			return nil, err
		}
		return identityView{
			Owner:          key(id.Owner),
			TradingScore:   id.TradingScore,
			CivicScore:     id.CivicScore,
			DeveloperScore: id.DeveloperScore,
			InfraScore:     id.InfraScore,
			CreatorScore:   id.CreatorScore,
			CompositeScore: id.CompositeScore,
			Tier:           id.Tier,
			TierName:       id.TierName(),
			CreatedAt:      i64(id.CreatedAt),
			LastUpdated:    i64(id.LastUpdated),
		}, nil

	case "sovereign_get_dimension_score":
		raw, err := args.String("dimension")
		if err != nil {
			return nil, err
		}
		// Validate before the network call.
		dim, err := sovereign.ParseDimension(raw)
		if err != nil {
			return nil, fmt.Errorf("%w. Must be one of: %s", err, strings.Join(dimensionNames(), ", "))
		}
		id, err := c.GetIdentity(ctx, wallet)
		if err != nil {
			return nil, err
		}
		score, err := id.Score(dim)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"wallet":         key(wallet),
			"dimension":      string(dim),
			"score":          score,
			"compositeScore": id.CompositeScore,
			"tier":           id.Tier,
			"tierName":       id.TierName(),
		}, nil

	case "sovereign_assess_confidence":
		id, err := c.GetIdentity(ctx, wallet)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"wallet":         key(wallet),
			"tier":           id.Tier,
			"tierName":       id.TierName(),
			"confidence":     string(sovereign.AssessConfidence(id.Tier)),
			"compositeScore": id.CompositeScore,
		}, nil
	}
	return nil, unknownTool("sovereign", name)
}
