package percolator

import (
	"encoding/binary"
	"errors"
	"testing"

	"nexus-defi/internal/wire"
)

func setUsed(buf []byte, idx int) {
	off := BitmapOffset + (idx/64)*8
	w := binary.LittleEndian.Uint64(buf[off:])
	binary.LittleEndian.PutUint64(buf[off:], w|1<<(idx%64))
}

func TestMaxAccountIndex(t *testing.T) {
	cases := []struct {
		length int
		want   int
	}{
		{0, 0},
		{AccountsOffset - 1, 0},
		{AccountsOffset, 0},
		{AccountsOffset + AccountSize - 1, 0},
		{AccountsOffset + AccountSize, 1},
		{AccountsOffset + 2*AccountSize + 17, 2},
		{AccountsOffset + MaxAccounts*AccountSize, MaxAccounts},
	}
	for _, tc := range cases {
		if got := MaxAccountIndex(tc.length); got != tc.want {
			t.Fatalf("length %d: expected %d, got %d", tc.length, tc.want, got)
		}
	}
	prev := 0
	for n := AccountsOffset - 10; n < AccountsOffset+5*AccountSize; n += 37 {
		got := MaxAccountIndex(n)
		if got < prev {
			t.Fatalf("expected non-decreasing capacity at %d: %d < %d", n, got, prev)
		}
		prev = got
	}
}

func TestUsedIndicesAcrossWords(t *testing.T) {
	buf := newSlab(0)
	for _, idx := range []int{130, 0, 63, 64, 4095} {
		setUsed(buf, idx)
	}
	got, err := UsedIndices(buf)
	if err != nil {
		t.Fatalf("used indices: %v", err)
	}
	want := []int{0, 63, 64, 130, 4095}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestUsedIndicesShortBuffer(t *testing.T) {
	buf := newSlab(0)[:BitmapOffset+BitmapLen-1]
	if _, err := UsedIndices(buf); !errors.Is(err, wire.ErrLayoutTooShort) {
		t.Fatalf("expected layout error, got %v", err)
	}
}

func TestDecodeAccount(t *testing.T) {
	buf := newSlab(3)
	b := AccountsOffset + 2*AccountSize
	binary.LittleEndian.PutUint64(buf[b+acctIDOff:], 77)
	binary.LittleEndian.PutUint64(buf[b+acctCapitalOff:], 1_000_000)
	buf[b+acctKindOff] = kindLP
	putI128(buf, b+acctPnlOff, ^uint64(4), ^uint64(0))
	putI128(buf, b+acctPositionSizeOff, 250, 0)
	binary.LittleEndian.PutUint64(buf[b+acctEntryPriceOff:], 1_500_000)
	copy(buf[b+acctOwnerOff:], key(9).Bytes())
	binary.LittleEndian.PutUint64(buf[b+acctLastFeeSlotOff:], 12)

	acct, err := DecodeAccount(buf, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if acct.Kind != KindLP || acct.Kind.String() != "LP" {
		t.Fatalf("expected LP, got %v", acct.Kind)
	}
	if acct.AccountID != 77 || acct.Capital.Lo != 1_000_000 || acct.EntryPrice != 1_500_000 {
		t.Fatalf("unexpected account %+v", acct)
	}
	if acct.Pnl.String() != "-5" || acct.PositionSize.String() != "250" {
		t.Fatalf("unexpected pnl %s size %s", acct.Pnl, acct.PositionSize)
	}
	if !acct.Owner.Equals(key(9)) || acct.LastFeeSlot != 12 {
		t.Fatalf("unexpected owner or fee slot %+v", acct)
	}
}

func TestDecodeAccountOutOfRange(t *testing.T) {
	buf := newSlab(2)
	for _, idx := range []int{-1, 2, 100} {
		if _, err := DecodeAccount(buf, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected out of range, got %v", idx, err)
		}
	}
	if _, err := DecodeAccount(newSlab(0), 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected out of range on empty table, got %v", err)
	}
}

func TestDecodeAllAccountsSkipsBitsPastBuffer(t *testing.T) {
	buf := newSlab(2)
	setUsed(buf, 0)
	setUsed(buf, 2)
	binary.LittleEndian.PutUint64(buf[AccountsOffset+acctIDOff:], 5)

	all, err := DecodeAllAccounts(buf)
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(all) != 1 || all[0].Index != 0 || all[0].Account.AccountID != 5 {
		t.Fatalf("expected only index 0, got %+v", all)
	}

	scan, err := ScanAccounts(buf)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(scan.Dropped) != 1 || scan.Dropped[0] != 2 {
		t.Fatalf("expected dropped [2], got %v", scan.Dropped)
	}
}

func TestDecodeAllAccountsAscending(t *testing.T) {
	buf := newSlab(70)
	for _, idx := range []int{65, 3, 40} {
		setUsed(buf, idx)
	}
	all, err := DecodeAllAccounts(buf)
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(all) != 3 || all[0].Index != 3 || all[1].Index != 40 || all[2].Index != 65 {
		t.Fatalf("expected ascending 3, 40, 65, got %+v", all)
	}
}
