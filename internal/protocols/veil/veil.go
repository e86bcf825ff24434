// Package veil reads the encrypted-order solver program.
package veil

import (
	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/pda"
	"nexus-defi/internal/wire"
)

const (
	// OrderAccountLen is the allocated size used to filter order accounts.
	OrderAccountLen = 280
	// OrderOwnerOffset is the owner field, after the discriminator and order id.
	OrderOwnerOffset = wire.AnchorDiscriminatorLen + orderIDLen

	orderIDLen = 32
)

type OrderStatus uint8

const (
	StatusPending OrderStatus = iota
	StatusFilled
	StatusCancelled
	StatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

type SolverConfig struct {
	Authority            solana.PublicKey
	SolverPublicKey      solana.PublicKey
	FeeRecipient         solana.PublicKey
	BaseFee              uint64
	FeeRateBps           uint16
	TotalOrdersProcessed uint64
	TotalVolumeUSDC      uint64
	IsActive             bool
	CreatedAt            int64
	Bump                 uint8
}

type Order struct {
	OrderID          string
	Owner            solana.PublicKey
	InputMint        solana.PublicKey
	OutputMint       solana.PublicKey
	InputAmount      uint64
	EncryptedPayload []byte
	Status           OrderStatus
	CreatedAt        int64
	ExpiresAt        int64
	Bump             uint8
}

func DeriveSolverConfig(programID solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("solver_config"))
}

func DeriveOrder(programID, owner solana.PublicKey, orderID string) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("order"), pda.SeedKey(owner), pda.SeedString(orderID))
}

func ParseSolverConfig(data []byte) (SolverConfig, error) {
	r := wire.NewAnchorReader("veil solver config", data)
	c := SolverConfig{
		Authority:            r.PublicKey(),
		SolverPublicKey:      r.PublicKey(),
		FeeRecipient:         r.PublicKey(),
		BaseFee:              r.U64(),
		FeeRateBps:           r.U16(),
		TotalOrdersProcessed: r.U64(),
		TotalVolumeUSDC:      r.U64(),
		IsActive:             r.Bool(),
		CreatedAt:            r.I64(),
		Bump:                 r.U8(),
	}
	if err := r.Err(); err != nil {
		return SolverConfig{}, err
	}
	return c, nil
}

// ParseOrder decodes an order whose encrypted payload is a u32
// length-prefixed byte string.
func ParseOrder(data []byte) (Order, error) {
	r := wire.NewAnchorReader("veil order", data)
	var o Order
	o.OrderID = r.FixedString(orderIDLen)
	o.Owner = r.PublicKey()
	o.InputMint = r.PublicKey()
	o.OutputMint = r.PublicKey()
	o.InputAmount = r.U64()
	n := r.U32()
	if r.Err() == nil {
		o.EncryptedPayload = append([]byte(nil), r.Bytes(int(n))...)
	}
	o.Status = OrderStatus(r.U8())
	o.CreatedAt = r.I64()
	o.ExpiresAt = r.I64()
	o.Bump = r.U8()
	if err := r.Err(); err != nil {
		return Order{}, err
	}
	return o, nil
}
