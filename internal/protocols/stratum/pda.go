package stratum

import (
	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/pda"
)

func DeriveOrderBook(programID, authority, baseMint, quoteMint solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID,
		pda.SeedString("order_book"),
		pda.SeedKey(authority),
		pda.SeedKey(baseMint),
		pda.SeedKey(quoteMint),
	)
}

func DeriveEpoch(programID, orderBook solana.PublicKey, epochIndex uint32) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("epoch"), pda.SeedKey(orderBook), pda.SeedU32(epochIndex))
}
