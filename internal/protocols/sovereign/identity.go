// Package sovereign reads on-chain reputation identities.
package sovereign

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/wire"
)

// IdentityLen is the allocated account size. The decoded fields end at
// byte 230; the tail is reserved.
const IdentityLen = 236

var ErrUnknownDimension = errors.New("unknown dimension")

type Dimension string

const (
	DimensionTrading   Dimension = "trading"
	DimensionCivic     Dimension = "civic"
	DimensionDeveloper Dimension = "developer"
	DimensionInfra     Dimension = "infra"
	DimensionCreator   Dimension = "creator"
)

var Dimensions = []Dimension{DimensionTrading, DimensionCivic, DimensionDeveloper, DimensionInfra, DimensionCreator}

func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

var tierNames = map[uint8]string{
	1: "Bronze",
	2: "Silver",
	3: "Gold",
	4: "Platinum",
	5: "Diamond",
}

func TierName(tier uint8) string {
	if name, ok := tierNames[tier]; ok {
		return name
	}
	return "Unknown"
}

func AssessConfidence(tier uint8) Confidence {
	switch {
	case tier >= 4:
		return ConfidenceHigh
	case tier >= 3:
		return ConfidenceMedium
	case tier >= 1:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

type Identity struct {
	Owner          solana.PublicKey
	CreatedAt      int64
	TradingScore   uint16
	CivicScore     uint16
	DeveloperScore uint16
	InfraScore     uint16
	CreatorScore   uint16
	CompositeScore uint16
	Tier           uint8
	LastUpdated    int64
	Bump           uint8
}

func (id Identity) TierName() string {
	return TierName(id.Tier)
}

func (id Identity) Score(d Dimension) (uint16, error) {
	switch d {
	case DimensionTrading:
		return id.TradingScore, nil
	case DimensionCivic:
		return id.CivicScore, nil
	case DimensionDeveloper:
		return id.DeveloperScore, nil
	case DimensionInfra:
		return id.InfraScore, nil
	case DimensionCreator:
		return id.CreatorScore, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
}

// ParseIdentity decodes an identity account. The five attester authorities
// between created_at and the scores are skipped.
func ParseIdentity(data []byte) (Identity, error) {
	r := wire.NewAnchorReader("sovereign identity", data)
	var id Identity
	id.Owner = r.PublicKey()
	id.CreatedAt = r.I64()
	r.Skip(5 * wire.PublicKeyLen)
	id.TradingScore = r.U16()
	id.CivicScore = r.U16()
	id.DeveloperScore = r.U16()
	id.InfraScore = r.U16()
	id.CreatorScore = r.U16()
	id.CompositeScore = r.U16()
	id.Tier = r.U8()
	id.LastUpdated = r.I64()
	id.Bump = r.U8()
	if err := r.Err(); err != nil {
		return Identity{}, err
	}
	return id, nil
}
