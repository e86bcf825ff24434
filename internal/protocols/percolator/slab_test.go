package percolator

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/wire"
)

// newSlab returns a zeroed slab with the magic set and room for n accounts.
func newSlab(n int) []byte {
	buf := make([]byte, AccountsOffset+n*AccountSize)
	binary.LittleEndian.PutUint64(buf, Magic)
	return buf
}

func putI128(buf []byte, off int, lo, hi uint64) {
	binary.LittleEndian.PutUint64(buf[off:], lo)
	binary.LittleEndian.PutUint64(buf[off+8:], hi)
}

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestMagicBytesOnChain(t *testing.T) {
	if got := string(MagicPrefix()); got != "TALOCREP" {
		t.Fatalf("expected TALOCREP, got %q", got)
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	_, err := DecodeHeader(newSlab(0)[:HeaderLen-1])
	if !errors.Is(err, wire.ErrLayoutTooShort) {
		t.Fatalf("expected layout error, got %v", err)
	}
	var le *wire.LayoutError
	if !errors.As(err, &le) || le.Need != HeaderLen || le.Have != HeaderLen-1 {
		t.Fatalf("expected need %d have %d, got %+v", HeaderLen, HeaderLen-1, le)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	buf := newSlab(0)
	binary.LittleEndian.PutUint64(buf, 0xDEADBEEF)
	_, err := DecodeHeader(buf)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected invalid magic, got %v", err)
	}
	var me *MagicError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MagicError, got %T", err)
	}
	if me.Expected != Magic || me.Actual != 0xDEADBEEF {
		t.Fatalf("expected %x/%x, got %x/%x", uint64(Magic), 0xDEADBEEF, me.Expected, me.Actual)
	}
}

func TestDecodeHeaderFields(t *testing.T) {
	buf := newSlab(0)
	binary.LittleEndian.PutUint32(buf[hdrVersionOff:], 3)
	buf[hdrBumpOff] = 254
	buf[hdrFlagsOff] = FlagResolved
	copy(buf[hdrAdminOff:], key(7).Bytes())
	binary.LittleEndian.PutUint64(buf[hdrNonceOff:], 42)

	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Version != 3 || h.Bump != 254 || h.Nonce != 42 {
		t.Fatalf("unexpected header %+v", h)
	}
	if !h.Resolved {
		t.Fatalf("expected resolved flag")
	}
	if !h.Admin.Equals(key(7)) {
		t.Fatalf("expected admin %s, got %s", key(7), h.Admin)
	}
}

func TestDecodeMarket(t *testing.T) {
	buf := newSlab(1)
	copy(buf[ConfigOffset+cfgCollateralMintOff:], key(1).Bytes())
	copy(buf[ConfigOffset+cfgVaultOff:], key(2).Bytes())
	binary.LittleEndian.PutUint16(buf[ConfigOffset+cfgConfFilterBpsOff:], 50)
	binary.LittleEndian.PutUint32(buf[ConfigOffset+cfgUnitScaleOff:], 1000)
	binary.LittleEndian.PutUint64(buf[EngineOffset+engVaultOff:], 5_000_000)
	binary.LittleEndian.PutUint64(buf[EngineOffset+engCurrentSlotOff:], 900)
	binary.LittleEndian.PutUint64(buf[EngineOffset+engFundingRateOff:], ^uint64(2)) // -3
	binary.LittleEndian.PutUint16(buf[EngineOffset+engNumUsedOff:], 1)
	putI128(buf, EngineOffset+engNetLPPosOff, ^uint64(9), ^uint64(0)) // -10
	binary.LittleEndian.PutUint64(buf[ParamsOffset+prmMaintenanceMarginOff:], 500)
	binary.LittleEndian.PutUint64(buf[ParamsOffset+prmInitialMarginOff:], 1000)
	binary.LittleEndian.PutUint64(buf[ParamsOffset+prmLiqFeeCapOff+8:], 1) // 2^64

	m, err := DecodeMarket(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !m.Config.CollateralMint.Equals(key(1)) || !m.Config.Vault.Equals(key(2)) {
		t.Fatalf("unexpected config keys %+v", m.Config)
	}
	if m.Config.ConfFilterBps != 50 || m.Config.UnitScale != 1000 {
		t.Fatalf("unexpected config %+v", m.Config)
	}
	if m.Engine.Vault.Lo != 5_000_000 || m.Engine.CurrentSlot != 900 {
		t.Fatalf("unexpected engine %+v", m.Engine)
	}
	if m.Engine.FundingRateBpsPerSlot != -3 {
		t.Fatalf("expected -3, got %d", m.Engine.FundingRateBpsPerSlot)
	}
	if got := m.Engine.NetLPPos.String(); got != "-10" {
		t.Fatalf("expected -10, got %s", got)
	}
	if m.Engine.NumUsedAccounts != 1 {
		t.Fatalf("expected 1 used account, got %d", m.Engine.NumUsedAccounts)
	}
	if m.Params.MaintenanceMarginBps != 500 || m.Params.InitialMarginBps != 1000 {
		t.Fatalf("unexpected params %+v", m.Params)
	}
	if got := m.Params.LiquidationFeeCap.String(); got != "18446744073709551616" {
		t.Fatalf("expected 2^64, got %s", got)
	}
}

func TestDecodeMarketEngineTooShort(t *testing.T) {
	buf := newSlab(0)[:AccountsOffset-1]
	_, err := DecodeMarket(buf)
	var le *wire.LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("expected layout error, got %v", err)
	}
	if le.Need != EngineMinLen {
		t.Fatalf("expected need %d, got %d", EngineMinLen, le.Need)
	}
}

func TestDecodeMarketChecksMagicFirst(t *testing.T) {
	buf := make([]byte, HeaderLen)
	_, err := DecodeMarket(buf)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected invalid magic, got %v", err)
	}
}

func TestSectionOffsets(t *testing.T) {
	if ConfigOffset != 72 || EngineOffset != 392 || ParamsOffset != 440 {
		t.Fatalf("unexpected section offsets %d %d %d", ConfigOffset, EngineOffset, ParamsOffset)
	}
	if BitmapOffset != 800 || AccountsOffset != 9528 {
		t.Fatalf("unexpected table offsets %d %d", BitmapOffset, AccountsOffset)
	}
}
