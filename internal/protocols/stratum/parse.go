package stratum

import (
	"nexus-defi/internal/wire"
)

func ParseOrderBook(data []byte) (OrderBook, error) {
	r := wire.NewAnchorReader("stratum order book", data)
	ob := OrderBook{
		Authority:    r.PublicKey(),
		BaseMint:     r.PublicKey(),
		QuoteMint:    r.PublicKey(),
		CurrentEpoch: r.U32(),
		TotalOrders:  r.U64(),
		TotalVolume:  r.U64(),
		BestBid:      r.U64(),
		BestAsk:      r.U64(),
		IsActive:     r.Bool(),
		Bump:         r.U8(),
	}
	if err := r.Err(); err != nil {
		return OrderBook{}, err
	}
	return ob, nil
}

// ParseEpoch decodes an epoch account. The index is not stored in the
// account, so the caller supplies the one it derived the address from.
func ParseEpoch(data []byte, epochIndex uint32) (Epoch, error) {
	r := wire.NewAnchorReader("stratum epoch", data)
	e := Epoch{EpochIndex: epochIndex}
	copy(e.MerkleRoot[:], r.Bytes(32))
	e.OrderCount = r.U32()
	e.Finalized = r.Bool()
	e.FinalizedAt = r.I64()
	e.CreatedAt = r.I64()
	if err := r.Err(); err != nil {
		return Epoch{}, err
	}
	return e, nil
}
