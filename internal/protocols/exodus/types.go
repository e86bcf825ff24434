// Package exodus reads the JPY to USDC yield vault program.
package exodus

import "github.com/gagliardetto/solana-go"

type ProtocolConfig struct {
	Authority            solana.PublicKey
	JPYMint              solana.PublicKey
	USDCMint             solana.PublicKey
	JPYVault             solana.PublicKey
	USDCVault            solana.PublicKey
	Oracle               solana.PublicKey
	KYCRegistry          solana.PublicKey
	SovereignProgram     solana.PublicKey
	ConversionFeeBps     uint16
	ManagementFeeBps     uint16
	PerformanceFeeBps    uint16
	TotalDepositsUSDC    uint64
	TotalYieldEarned     uint64
	PendingJPYConversion uint64
	DepositNonce         uint64
	IsActive             bool
	CreatedAt            int64
	UpdatedAt            int64
	Bump                 uint8
}

type UserPosition struct {
	Owner                solana.PublicKey
	ProtocolConfig       solana.PublicKey
	TotalDepositedJPY    uint64
	TotalDepositedUSDC   uint64
	CurrentShares        uint64
	UnrealizedYieldUSDC  uint64
	RealizedYieldUSDC    uint64
	AvgConversionRate    uint64
	SovereignTier        uint8
	MonthlyDepositedJPY  uint64
	MonthlyDepositedUSDC uint64
	MonthStart           int64
	DepositCount         uint32
	WithdrawalCount      uint32
	LastDepositAt        int64
	LastWithdrawalAt     int64
	DepositNonce         uint64
	CreatedAt            int64
	Bump                 uint8
}

type YieldSource struct {
	ProtocolConfig      solana.PublicKey
	Name                string
	SourceType          uint8
	TokenMint           solana.PublicKey
	DepositVault        solana.PublicKey
	YieldTokenVault     solana.PublicKey
	CurrentAPYBps       uint16
	TotalDeposited      uint64
	TotalShares         uint64
	AllocationWeightBps uint16
	MinDeposit          uint64
	MaxAllocation       uint64
	IsActive            bool
	LastNavUpdate       int64
	NavPerShare         uint64
	Bump                uint8
}

// PortfolioValue is the valuation subset of a user position.
type PortfolioValue struct {
	Owner               solana.PublicKey
	TotalDepositedJPY   uint64
	TotalDepositedUSDC  uint64
	CurrentShares       uint64
	UnrealizedYieldUSDC uint64
	RealizedYieldUSDC   uint64
	AvgConversionRate   uint64
	SovereignTier       uint8
}

func (p UserPosition) Portfolio() PortfolioValue {
	return PortfolioValue{
		Owner:               p.Owner,
		TotalDepositedJPY:   p.TotalDepositedJPY,
		TotalDepositedUSDC:  p.TotalDepositedUSDC,
		CurrentShares:       p.CurrentShares,
		UnrealizedYieldUSDC: p.UnrealizedYieldUSDC,
		RealizedYieldUSDC:   p.RealizedYieldUSDC,
		AvgConversionRate:   p.AvgConversionRate,
		SovereignTier:       p.SovereignTier,
	}
}
