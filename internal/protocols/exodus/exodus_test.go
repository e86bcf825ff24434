package exodus

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"nexus-defi/internal/sol/rpc"
	"nexus-defi/internal/wire"
)

type mapReader map[solana.PublicKey][]byte

func (m mapReader) AccountData(_ context.Context, key solana.PublicKey) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, rpc.ErrAccountNotFound
	}
	return data, nil
}

func (m mapReader) ProgramAccounts(context.Context, solana.PublicKey, ...rpc.Filter) ([]rpc.KeyedAccount, error) {
	return nil, nil
}

type builder struct{ buf []byte }

func newBuilder() *builder { return &builder{buf: make([]byte, 8)} }

func (b *builder) key(v byte) *builder {
	b.buf = append(b.buf, solana.PublicKey{v}.Bytes()...)
	return b
}
func (b *builder) u8(v uint8) *builder { b.buf = append(b.buf, v); return b }
func (b *builder) u16(v uint16) *builder {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
	return b
}
func (b *builder) u32(v uint32) *builder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}
func (b *builder) u64(v uint64) *builder {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
	return b
}

func configData() []byte {
	b := newBuilder()
	for i := byte(1); i <= 8; i++ {
		b.key(i)
	}
	b.u16(30).u16(100).u16(1000)
	b.u64(5_000_000).u64(12_000).u64(0).u64(4)
	b.u8(1).u64(1_700_000_000).u64(1_700_000_100).u8(255)
	return b.buf
}

func positionData(owner byte) []byte {
	b := newBuilder().key(owner).key(9)
	b.u64(150_000).u64(1_000).u64(990).u64(12).u64(3).u64(150)
	b.u8(3).u64(50_000).u64(330).u64(1_699_000_000)
	b.u32(4).u32(1).u64(1_700_000_000).u64(1_700_000_050).u64(5).u64(1_698_000_000).u8(250)
	return b.buf
}

func TestParseProtocolConfig(t *testing.T) {
	c, err := ParseProtocolConfig(configData())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.Authority.Equals(solana.PublicKey{1}) || !c.SovereignProgram.Equals(solana.PublicKey{8}) {
		t.Fatalf("unexpected keys %+v", c)
	}
	if c.ConversionFeeBps != 30 || c.PerformanceFeeBps != 1000 || c.DepositNonce != 4 {
		t.Fatalf("unexpected fees %+v", c)
	}
	if !c.IsActive || c.UpdatedAt != 1_700_000_100 || c.Bump != 255 {
		t.Fatalf("unexpected tail %+v", c)
	}
}

func TestParseUserPosition(t *testing.T) {
	p, err := ParseUserPosition(positionData(2))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.TotalDepositedJPY != 150_000 || p.AvgConversionRate != 150 || p.SovereignTier != 3 {
		t.Fatalf("unexpected position %+v", p)
	}
	if p.DepositCount != 4 || p.WithdrawalCount != 1 || p.DepositNonce != 5 || p.Bump != 250 {
		t.Fatalf("unexpected counters %+v", p)
	}
	v := p.Portfolio()
	if !v.Owner.Equals(solana.PublicKey{2}) || v.CurrentShares != 990 || v.SovereignTier != 3 {
		t.Fatalf("unexpected portfolio %+v", v)
	}
}

func TestParseYieldSourceTrimsName(t *testing.T) {
	b := newBuilder().key(9)
	name := make([]byte, nameLen)
	copy(name, "kamino-usdc")
	b.buf = append(b.buf, name...)
	b.u8(2).key(3).key(4).key(5)
	b.u16(845).u64(1_000_000).u64(990_000).u16(5000).u64(10).u64(9_000_000)
	b.u8(1).u64(1_700_000_000).u64(1_010_000).u8(200)

	y, err := ParseYieldSource(b.buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if y.Name != "kamino-usdc" {
		t.Fatalf("expected trimmed name, got %q", y.Name)
	}
	if y.SourceType != 2 || y.CurrentAPYBps != 845 || y.AllocationWeightBps != 5000 || y.NavPerShare != 1_010_000 {
		t.Fatalf("unexpected yield source %+v", y)
	}
	if _, err := ParseYieldSource(b.buf[:100]); !errors.Is(err, wire.ErrLayoutTooShort) {
		t.Fatalf("expected layout error, got %v", err)
	}
}

func TestClientProgramOverride(t *testing.T) {
	configured := solana.PublicKey{7}
	override := solana.PublicKey{8}
	cfg, _ := DeriveProtocolConfig(override)
	c := NewClient(configured, mapReader{cfg.Key: configData()}, nil)

	if _, err := c.GetProtocolConfig(context.Background(), solana.PublicKey{}); !errors.Is(err, rpc.ErrAccountNotFound) {
		t.Fatalf("expected not found under configured program, got %v", err)
	}
	if _, err := c.GetProtocolConfig(context.Background(), override); err != nil {
		t.Fatalf("get with override: %v", err)
	}
}

func TestClientPortfolioValue(t *testing.T) {
	program := solana.PublicKey{7}
	owner := solana.PublicKey{2}
	cfg, _ := DeriveProtocolConfig(program)
	pos, _ := DeriveUserPosition(program, cfg.Key, owner)
	c := NewClient(program, mapReader{pos.Key: positionData(2)}, nil)

	v, err := c.GetPortfolioValue(context.Background(), owner, solana.PublicKey{})
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if v.TotalDepositedUSDC != 1_000 {
		t.Fatalf("expected 1000, got %d", v.TotalDepositedUSDC)
	}
}
