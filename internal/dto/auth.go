package dto

type WalletAuthRequestDTO struct {
	Address   string `json:"address" example:"ecash:qq1234..."`
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message,omitempty"`
}

type LinkWalletRequestDTO struct {
	UserID     int64  `json:"user_id" example:"1"`
	WalletType string `json:"wallet_type" example:"solana"`
	Address    string `json:"address"`
}

type BalancesDTO struct {
	XEC   float64 `json:"xec" example:"1000000"`
	Firma float64 `json:"firma" example:"15"`
	XECX  float64 `json:"xecx" example:"0"`
}

type UserResponseDTO struct {
	ID                   int64       `json:"id" example:"1"`
	EcashAddress         string      `json:"ecash_address,omitempty"`
	SolanaAddress        string      `json:"solana_address,omitempty"`
	Balances             BalancesDTO `json:"balances"`
	StakingRewardsEarned float64     `json:"staking_rewards_earned" example:"101.25"`
}

type AuthResponseDTO struct {
	User  UserResponseDTO `json:"user"`
	Token string          `json:"token"`
}
