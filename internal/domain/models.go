package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Asset string

const (
	AssetXEC   Asset = "XEC"
	AssetFIRMA Asset = "FIRMA"
	AssetXECX  Asset = "XECX"
)

func (a Asset) Valid() bool {
	switch a {
	case AssetXEC, AssetFIRMA, AssetXECX:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanStatusActive     LoanStatus = "active"
	LoanStatusMarginCall LoanStatus = "margin_call"
	LoanStatusRepaid     LoanStatus = "repaid"
	LoanStatusLiquidated LoanStatus = "liquidated"
)

// Terminal reports whether the loan can no longer be mutated.
func (s LoanStatus) Terminal() bool {
	return s == LoanStatusRepaid || s == LoanStatusLiquidated
}

type TransactionType string

const (
	TxDepositXEC      TransactionType = "deposit_xec"
	TxDepositFirma    TransactionType = "deposit_firma"
	TxBorrow          TransactionType = "borrow"
	TxRepay           TransactionType = "repay"
	TxAddCollateral   TransactionType = "add_collateral"
	TxLiquidation     TransactionType = "liquidation"
	TxInterestPayment TransactionType = "interest_payment"
	TxStakingReward   TransactionType = "staking_reward"
	TxFirmaSwap       TransactionType = "firma_swap"
	TxWithdrawXEC     TransactionType = "withdraw_xec"
	TxWithdrawFirma   TransactionType = "withdraw_firma"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusConfirmed TransactionStatus = "confirmed"
	TxStatusFailed    TransactionStatus = "failed"
)

type User struct {
	ID                   int64           `db:"id"`
	EcashAddress         string          `db:"ecash_address"`
	SolanaAddress        string          `db:"solana_address"`
	XECBalance           decimal.Decimal `db:"xec_balance"`
	FirmaBalance         decimal.Decimal `db:"firma_balance"`
	XECXBalance          decimal.Decimal `db:"xecx_balance"`
	StakingRewardsEarned decimal.Decimal `db:"staking_rewards_earned"`
	CreatedAt            time.Time       `db:"created_at"`
}

// Balance returns the user's balance for the given asset.
func (u *User) Balance(asset Asset) decimal.Decimal {
	switch asset {
	case AssetXEC:
		return u.XECBalance
	case AssetFIRMA:
		return u.FirmaBalance
	case AssetXECX:
		return u.XECXBalance
	}
	return decimal.Zero
}

type Loan struct {
	ID                 int64           `db:"id"`
	UserID             int64           `db:"user_id"`
	Status             LoanStatus      `db:"status"`
	CollateralType     Asset           `db:"collateral_type"`
	CollateralAmount   decimal.Decimal `db:"collateral_amount"`
	CollateralValueUSD decimal.Decimal `db:"collateral_value_usd"`
	BorrowedType       Asset           `db:"borrowed_type"`
	BorrowedAmount     decimal.Decimal `db:"borrowed_amount"`
	BorrowedValueUSD   decimal.Decimal `db:"borrowed_value_usd"`
	InterestRate       decimal.Decimal `db:"interest_rate"`
	AccruedInterest    decimal.Decimal `db:"accrued_interest"`
	InitialLTV         decimal.Decimal `db:"initial_ltv"`
	CurrentLTV         decimal.Decimal `db:"current_ltv"`
	StakingYieldEarned decimal.Decimal `db:"staking_yield_earned"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
	LastInterestUpdate time.Time       `db:"last_interest_update"`
	ClosedAt           *time.Time      `db:"closed_at"`
}

// TotalDebt is the outstanding principal plus accrued interest.
func (l *Loan) TotalDebt() decimal.Decimal {
	return l.BorrowedAmount.Add(l.AccruedInterest)
}

type Transaction struct {
	ID        string              `db:"id"`
	UserID    int64               `db:"user_id"`
	LoanID    *int64              `db:"loan_id"`
	Type      TransactionType     `db:"type"`
	Asset     Asset               `db:"asset"`
	Amount    decimal.Decimal     `db:"amount"`
	ValueUSD  decimal.NullDecimal `db:"value_usd"`
	TxHash    string              `db:"tx_hash"`
	Status    TransactionStatus   `db:"status"`
	CreatedAt time.Time           `db:"created_at"`
}

type EscrowWallet struct {
	ID        int64           `db:"id"`
	Chain     string          `db:"chain"`
	Address   string          `db:"address"`
	Asset     Asset           `db:"asset"`
	Balance   decimal.Decimal `db:"balance"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type StakingPool struct {
	PlatformBase            decimal.Decimal `db:"platform_base"`
	UserContributed         decimal.Decimal `db:"user_contributed"`
	Total                   decimal.Decimal `db:"total"`
	LastRewardDistribution  *time.Time      `db:"last_reward_distribution"`
	TotalRewardsDistributed decimal.Decimal `db:"total_rewards_distributed"`
}

type MarginCallAlert string

const (
	AlertWarning  MarginCallAlert = "warning"
	AlertCritical MarginCallAlert = "critical"
)

type MarginCall struct {
	ID        int64           `db:"id"`
	LoanID    int64           `db:"loan_id"`
	UserID    int64           `db:"user_id"`
	LTV       decimal.Decimal `db:"ltv"`
	AlertType MarginCallAlert `db:"alert_type"`
	CreatedAt time.Time       `db:"created_at"`
}

type PricePoint struct {
	Asset     Asset           `db:"asset"`
	PriceUSD  decimal.Decimal `db:"price_usd"`
	Source    string          `db:"source"`
	UpdatedAt time.Time       `db:"updated_at"`
}
