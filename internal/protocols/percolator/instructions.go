package percolator

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"nexus-defi/internal/wire"
)

// Tag is the first byte of every instruction payload.
type Tag uint8

const (
	TagInitMarket         Tag = 0
	TagInitUser           Tag = 1
	TagInitLP             Tag = 2
	TagDepositCollateral  Tag = 3
	TagWithdrawCollateral Tag = 4
	TagKeeperCrank        Tag = 5
	TagTradeNoCpi         Tag = 6
	TagLiquidateAtOracle  Tag = 7
	TagCloseAccount       Tag = 8
	TagTopUpInsurance     Tag = 9
	TagTradeCpi           Tag = 10
)

var tagNames = map[Tag]string{
	TagInitMarket:         "InitMarket",
	TagInitUser:           "InitUser",
	TagInitLP:             "InitLP",
	TagDepositCollateral:  "DepositCollateral",
	TagWithdrawCollateral: "WithdrawCollateral",
	TagKeeperCrank:        "KeeperCrank",
	TagTradeNoCpi:         "TradeNoCpi",
	TagLiquidateAtOracle:  "LiquidateAtOracle",
	TagCloseAccount:       "CloseAccount",
	TagTopUpInsurance:     "TopUpInsurance",
	TagTradeCpi:           "TradeCpi",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Unknown"
}

type InitMarketArgs struct {
	Admin             solana.PublicKey
	CollateralMint    solana.PublicKey
	IndexFeedID       solana.PublicKey
	MaxStalenessSlots uint64
	ConfFilterBps     uint16
	Invert            uint8
	UnitScale         uint32
	Params            RiskParams
}

type InitUserArgs struct {
	Fee *big.Int
}

type InitLPArgs struct {
	MatcherProgram solana.PublicKey
	MatcherContext solana.PublicKey
	Fee            *big.Int
}

type DepositCollateralArgs struct {
	UserIdx uint16
	Amount  *big.Int
}

type WithdrawCollateralArgs struct {
	UserIdx uint16
	Amount  *big.Int
}

type KeeperCrankArgs struct {
	CallerIdx  uint16
	AllowPanic bool
}

// TradeArgs is shared by TradeNoCpi and TradeCpi. A positive size goes long
// for the user, a negative size goes short.
type TradeArgs struct {
	LPIdx   uint16
	UserIdx uint16
	Size    *big.Int
}

type LiquidateAtOracleArgs struct {
	TargetIdx uint16
}

type CloseAccountArgs struct {
	UserIdx uint16
}

type TopUpInsuranceArgs struct {
	Amount *big.Int
}

// payload appends fields in order; the first range error sticks and no bytes
// are returned once it is set.
type payload struct {
	buf []byte
	err error
}

func newPayload(tag Tag) *payload {
	return &payload{buf: []byte{byte(tag)}}
}

func (p *payload) put(b []byte, err error) {
	if p.err != nil {
		return
	}
	if err != nil {
		p.err = err
		return
	}
	p.buf = append(p.buf, b...)
}

func (p *payload) u8(v uint8)              { p.put(wire.EncodeU8(v), nil) }
func (p *payload) boolean(v bool)          { p.put(wire.EncodeBool(v), nil) }
func (p *payload) u16(v uint16)            { p.put(wire.EncodeU16(v), nil) }
func (p *payload) u32(v uint32)            { p.put(wire.EncodeU32(v), nil) }
func (p *payload) u64(v *big.Int)          { p.put(wire.EncodeU64(v)) }
func (p *payload) u64n(v uint64)           { p.put(wire.EncodeU64(new(big.Int).SetUint64(v))) }
func (p *payload) i128(v *big.Int)         { p.put(wire.EncodeI128(v)) }
func (p *payload) key(pk solana.PublicKey) { p.put(wire.EncodePublicKey(pk), nil) }

func (p *payload) u128(v uint128.Uint128) {
	out := make([]byte, 16)
	v.PutBytes(out)
	p.put(out, nil)
}

func (p *payload) bytes() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.buf, nil
}

// The argument layouts of InitMarket, InitUser, InitLP, KeeperCrank,
// LiquidateAtOracle, CloseAccount, TopUpInsurance and TradeCpi are assumed
// from the account layout and the field order of the deposit, withdraw and
// TradeNoCpi payloads. They have not been checked against the program; only
// the tag byte is known to be right. No tool sends them.

// EncodeInitMarket lays out RiskParams in the order the slab stores them.
// Unverified layout.
func EncodeInitMarket(args InitMarketArgs) ([]byte, error) {
	p := newPayload(TagInitMarket)
	p.key(args.Admin)
	p.key(args.CollateralMint)
	p.key(args.IndexFeedID)
	p.u64n(args.MaxStalenessSlots)
	p.u16(args.ConfFilterBps)
	p.u8(args.Invert)
	p.u32(args.UnitScale)
	rp := args.Params
	p.u64n(rp.WarmupPeriodSlots)
	p.u64n(rp.MaintenanceMarginBps)
	p.u64n(rp.InitialMarginBps)
	p.u64n(rp.TradingFeeBps)
	p.u64n(rp.MaxAccounts)
	p.u128(rp.NewAccountFee)
	p.u128(rp.RiskReductionThreshold)
	p.u128(rp.MaintenanceFeePerSlot)
	p.u64n(rp.MaxCrankStalenessSlots)
	p.u64n(rp.LiquidationFeeBps)
	p.u128(rp.LiquidationFeeCap)
	p.u64n(rp.LiquidationBufferBps)
	p.u128(rp.MinLiquidationAbs)
	return p.bytes()
}

// EncodeInitUser is tag then fee u64. Unverified layout.
func EncodeInitUser(args InitUserArgs) ([]byte, error) {
	p := newPayload(TagInitUser)
	p.u64(args.Fee)
	return p.bytes()
}

// EncodeInitLP is tag, matcher program, matcher context, fee u64.
// Unverified layout.
func EncodeInitLP(args InitLPArgs) ([]byte, error) {
	p := newPayload(TagInitLP)
	p.key(args.MatcherProgram)
	p.key(args.MatcherContext)
	p.u64(args.Fee)
	return p.bytes()
}

func EncodeDepositCollateral(args DepositCollateralArgs) ([]byte, error) {
	p := newPayload(TagDepositCollateral)
	p.u16(args.UserIdx)
	p.u64(args.Amount)
	return p.bytes()
}

func EncodeWithdrawCollateral(args WithdrawCollateralArgs) ([]byte, error) {
	p := newPayload(TagWithdrawCollateral)
	p.u16(args.UserIdx)
	p.u64(args.Amount)
	return p.bytes()
}

// EncodeKeeperCrank is tag, caller index u16, allow-panic bool.
// Unverified layout.
func EncodeKeeperCrank(args KeeperCrankArgs) ([]byte, error) {
	p := newPayload(TagKeeperCrank)
	p.u16(args.CallerIdx)
	p.boolean(args.AllowPanic)
	return p.bytes()
}

func EncodeTradeNoCpi(args TradeArgs) ([]byte, error) {
	return encodeTrade(TagTradeNoCpi, args)
}

// EncodeTradeCpi reuses the TradeNoCpi layout under tag 10.
// Unverified layout.
func EncodeTradeCpi(args TradeArgs) ([]byte, error) {
	return encodeTrade(TagTradeCpi, args)
}

func encodeTrade(tag Tag, args TradeArgs) ([]byte, error) {
	p := newPayload(tag)
	p.u16(args.LPIdx)
	p.u16(args.UserIdx)
	p.i128(args.Size)
	return p.bytes()
}

// EncodeLiquidateAtOracle is tag then target index u16. Unverified layout.
func EncodeLiquidateAtOracle(args LiquidateAtOracleArgs) ([]byte, error) {
	p := newPayload(TagLiquidateAtOracle)
	p.u16(args.TargetIdx)
	return p.bytes()
}

// EncodeCloseAccount is tag then user index u16. Unverified layout.
func EncodeCloseAccount(args CloseAccountArgs) ([]byte, error) {
	p := newPayload(TagCloseAccount)
	p.u16(args.UserIdx)
	return p.bytes()
}

// EncodeTopUpInsurance is tag then amount u64. Unverified layout.
func EncodeTopUpInsurance(args TopUpInsuranceArgs) ([]byte, error) {
	p := newPayload(TagTopUpInsurance)
	p.u64(args.Amount)
	return p.bytes()
}
