package dto

import "time"

type LoanCalculateRequestDTO struct {
	CollateralType   string  `json:"collateral_type" example:"XEC"`
	CollateralAmount float64 `json:"collateral_amount" example:"1000000"`
	BorrowType       string  `json:"borrow_type" example:"FIRMA"`
	BorrowAmount     float64 `json:"borrow_amount,omitempty" example:"15"`
}

type LoanCalculateResponseDTO struct {
	MaxBorrow float64  `json:"max_borrow" example:"19.5"`
	LTV       *float64 `json:"ltv,omitempty" example:"50"`
}

type CreateLoanRequestDTO struct {
	UserID           int64   `json:"user_id" example:"1"`
	CollateralType   string  `json:"collateral_type" example:"XEC"`
	CollateralAmount float64 `json:"collateral_amount" example:"1000000"`
	BorrowType       string  `json:"borrow_type" example:"FIRMA"`
	BorrowAmount     float64 `json:"borrow_amount" example:"15"`
}

type LoanResponseDTO struct {
	ID                 int64      `json:"id" example:"1"`
	UserID             int64      `json:"user_id" example:"1"`
	Status             string     `json:"status" example:"active"`
	CollateralType     string     `json:"collateral_type" example:"XEC"`
	CollateralAmount   float64    `json:"collateral_amount" example:"1000000"`
	CollateralValueUSD float64    `json:"collateral_value_usd" example:"30"`
	BorrowedType       string     `json:"borrowed_type" example:"FIRMA"`
	BorrowedAmount     float64    `json:"borrowed_amount" example:"15"`
	BorrowedValueUSD   float64    `json:"borrowed_value_usd" example:"15"`
	InterestRate       float64    `json:"interest_rate" example:"0.0001"`
	AccruedInterest    float64    `json:"accrued_interest" example:"0.15"`
	InitialLTV         float64    `json:"initial_ltv" example:"50"`
	CurrentLTV         float64    `json:"current_ltv" example:"50"`
	StakingYieldEarned float64    `json:"staking_yield_earned" example:"101.25"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
}

type RepayLoanRequestDTO struct {
	UserID int64   `json:"user_id" example:"1"`
	Amount float64 `json:"amount" example:"0.10"`
}

type RepayLoanResponseDTO struct {
	RemainingDebt float64 `json:"remaining_debt" example:"15.05"`
	FullyRepaid   bool    `json:"fully_repaid" example:"false"`
}

type AddCollateralRequestDTO struct {
	UserID int64   `json:"user_id" example:"1"`
	Amount float64 `json:"amount" example:"100000"`
}

type LoanConfigResponseDTO struct {
	InitialLTV          float64  `json:"initial_ltv" example:"65"`
	MarginCallLTV       float64  `json:"margin_call_ltv" example:"75"`
	LiquidationLTV      float64  `json:"liquidation_ltv" example:"83"`
	HourlyInterestRate  float64  `json:"hourly_interest_rate" example:"0.0001"`
	SupportedCollateral []string `json:"supported_collateral"`
	SupportedBorrow     []string `json:"supported_borrow"`
	StakingStats        any      `json:"staking_stats"`
}
