package dto

import "time"

type DepositRequestDTO struct {
	UserID    int64   `json:"user_id" example:"1"`
	Amount    float64 `json:"amount" example:"1000000"`
	TxHash    string  `json:"tx_hash,omitempty"`
	Signature string  `json:"signature,omitempty"`
}

type WithdrawRequestDTO struct {
	UserID  int64   `json:"user_id" example:"1"`
	Amount  float64 `json:"amount" example:"100"`
	Address string  `json:"address,omitempty"`
}

type TransactionResponseDTO struct {
	ID        string    `json:"id"`
	LoanID    *int64    `json:"loan_id,omitempty"`
	Type      string    `json:"type" example:"deposit_xec"`
	Asset     string    `json:"asset" example:"XEC"`
	Amount    float64   `json:"amount" example:"1000000"`
	ValueUSD  *float64  `json:"value_usd,omitempty" example:"30"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Status    string    `json:"status" example:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

type DepositAddressResponseDTO struct {
	XEC    string `json:"xec"`
	Solana string `json:"solana"`
}
