package percolator

import (
	"fmt"
	"math/bits"

	"nexus-defi/internal/wire"
)

// MaxAccountIndex is the number of whole account records that fit in a slab
// of slabLen bytes. Capacity varies per deployment, so it is derived from the
// buffer length rather than from MaxAccounts.
func MaxAccountIndex(slabLen int) int {
	region := slabLen - AccountsOffset
	if region <= 0 {
		return 0
	}
	return region / AccountSize
}

// UsedIndices lists the set bits of the allocation bitmap in ascending order.
// Bits past the end of the buffer's account region are still reported.
func UsedIndices(buf []byte) ([]int, error) {
	if err := wire.CheckLen("account bitmap", buf, BitmapOffset+BitmapLen); err != nil {
		return nil, err
	}
	var used []int
	for word := 0; word < BitmapWords; word++ {
		w := wire.U64(buf, BitmapOffset+word*8)
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			used = append(used, word*64+bit)
			w &= w - 1
		}
	}
	return used, nil
}

func DecodeAccount(buf []byte, idx int) (Account, error) {
	maxIdx := MaxAccountIndex(len(buf))
	if idx < 0 || idx >= maxIdx {
		return Account{}, fmt.Errorf("%w: %d (max: %d)", ErrIndexOutOfRange, idx, maxIdx-1)
	}
	b := AccountsOffset + idx*AccountSize
	kind := KindUser
	if wire.U8(buf, b+acctKindOff) == kindLP {
		kind = KindLP
	}
	return Account{
		Kind:                kind,
		AccountID:           wire.U64(buf, b+acctIDOff),
		Capital:             wire.U128(buf, b+acctCapitalOff),
		Pnl:                 wire.I128(buf, b+acctPnlOff),
		ReservedPnl:         wire.U64(buf, b+acctReservedPnlOff),
		WarmupStartedAtSlot: wire.U64(buf, b+acctWarmupStartedOff),
		WarmupSlopePerStep:  wire.U128(buf, b+acctWarmupSlopeOff),
		PositionSize:        wire.I128(buf, b+acctPositionSizeOff),
		EntryPrice:          wire.U64(buf, b+acctEntryPriceOff),
		FundingIndex:        wire.I128(buf, b+acctFundingIndexOff),
		MatcherProgram:      wire.PublicKey(buf, b+acctMatcherProgramOff),
		MatcherContext:      wire.PublicKey(buf, b+acctMatcherContextOff),
		Owner:               wire.PublicKey(buf, b+acctOwnerOff),
		FeeCredits:          wire.I128(buf, b+acctFeeCreditsOff),
		LastFeeSlot:         wire.U64(buf, b+acctLastFeeSlotOff),
	}, nil
}

// AccountScan is the result of walking the bitmap: decoded accounts plus the
// used bits that point past the buffer's account region.
type AccountScan struct {
	Accounts []IndexedAccount
	Dropped  []int
}

// ScanAccounts decodes every used account that lies inside the buffer and
// reports the indices it had to skip.
func ScanAccounts(buf []byte) (AccountScan, error) {
	used, err := UsedIndices(buf)
	if err != nil {
		return AccountScan{}, err
	}
	maxIdx := MaxAccountIndex(len(buf))
	scan := AccountScan{Accounts: make([]IndexedAccount, 0, len(used))}
	for _, idx := range used {
		if idx >= maxIdx {
			scan.Dropped = append(scan.Dropped, idx)
			continue
		}
		acct, err := DecodeAccount(buf, idx)
		if err != nil {
			return AccountScan{}, err
		}
		scan.Accounts = append(scan.Accounts, IndexedAccount{Index: idx, Account: acct})
	}
	return scan, nil
}

// DecodeAllAccounts decodes every used account in ascending index order.
// Used bits past the buffer's account region are skipped silently; use
// ScanAccounts to see them.
func DecodeAllAccounts(buf []byte) ([]IndexedAccount, error) {
	scan, err := ScanAccounts(buf)
	if err != nil {
		return nil, err
	}
	return scan.Accounts, nil
}
