package percolator

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AccountSpec describes one position in an instruction's account list.
type AccountSpec struct {
	Name     string
	Signer   bool
	Writable bool
}

var (
	DepositCollateralAccounts = []AccountSpec{
		{Name: "user", Signer: true, Writable: true},
		{Name: "slab", Writable: true},
		{Name: "userAta", Writable: true},
		{Name: "vault", Writable: true},
		{Name: "tokenProgram"},
		{Name: "clock"},
	}

	WithdrawCollateralAccounts = []AccountSpec{
		{Name: "user", Signer: true, Writable: true},
		{Name: "slab", Writable: true},
		{Name: "vault", Writable: true},
		{Name: "userAta", Writable: true},
		{Name: "vaultPda"},
		{Name: "tokenProgram"},
		{Name: "clock"},
		{Name: "oracle"},
	}

	TradeNoCpiAccounts = []AccountSpec{
		{Name: "user", Signer: true, Writable: true},
		{Name: "lp", Signer: true},
		{Name: "slab", Writable: true},
		{Name: "clock"},
		{Name: "oracle"},
	}
)

// Well-known program and sysvar keys referenced by the account lists.
var (
	TokenProgram = solana.TokenProgramID
	ClockSysvar  = solana.SysVarClockPubkey
)

// BuildAccountMetas pairs keys with specs positionally.
func BuildAccountMetas(specs []AccountSpec, keys []solana.PublicKey) (solana.AccountMetaSlice, error) {
	if len(specs) != len(keys) {
		return nil, fmt.Errorf("account count mismatch: expected %d keys, got %d", len(specs), len(keys))
	}
	metas := make(solana.AccountMetaSlice, len(specs))
	for i, spec := range specs {
		metas[i] = solana.NewAccountMeta(keys[i], spec.Writable, spec.Signer)
	}
	return metas, nil
}
