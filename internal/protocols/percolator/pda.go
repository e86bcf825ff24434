package percolator

import (
	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/pda"
)

// DefaultProgramID is the devnet deployment.
var DefaultProgramID = solana.MustPublicKeyFromBase58("F1uxb9kqJg7jv1FoYCjqBm12RYDsTEPnHUbpTopsNVAg")

// DeriveVaultAuthority returns the PDA that signs for the slab's collateral vault.
func DeriveVaultAuthority(programID, slab solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("vault"), pda.SeedKey(slab))
}

func DeriveLP(programID, slab solana.PublicKey, lpIdx uint16) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("lp"), pda.SeedKey(slab), pda.SeedU16(lpIdx))
}
