package stratum

import "github.com/gagliardetto/solana-go"

type OrderSide uint8

const (
	SideBid OrderSide = 0
	SideAsk OrderSide = 1
)

func (s OrderSide) String() string {
	if s == SideAsk {
		return "ask"
	}
	return "bid"
}

// OrderLeaf is one order committed to an epoch's merkle tree. Only price,
// amount, side, epoch index and order index are hashed.
type OrderLeaf struct {
	Maker      solana.PublicKey
	OrderID    string
	Side       OrderSide
	Price      uint64
	Amount     uint64
	EpochIndex uint32
	OrderIndex uint32
	Timestamp  uint64
}

type OrderBook struct {
	Authority    solana.PublicKey
	BaseMint     solana.PublicKey
	QuoteMint    solana.PublicKey
	CurrentEpoch uint32
	TotalOrders  uint64
	TotalVolume  uint64
	BestBid      uint64
	BestAsk      uint64
	IsActive     bool
	Bump         uint8
}

type Epoch struct {
	EpochIndex  uint32
	MerkleRoot  [32]byte
	OrderCount  uint32
	Finalized   bool
	FinalizedAt int64
	CreatedAt   int64
}
