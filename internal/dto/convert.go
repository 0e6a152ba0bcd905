package dto

import "github.com/loanzzz/loanzzz/internal/domain"

func FromUser(user *domain.User) UserResponseDTO {
	return UserResponseDTO{
		ID:            user.ID,
		EcashAddress:  user.EcashAddress,
		SolanaAddress: user.SolanaAddress,
		Balances: BalancesDTO{
			XEC:   user.XECBalance.InexactFloat64(),
			Firma: user.FirmaBalance.InexactFloat64(),
			XECX:  user.XECXBalance.InexactFloat64(),
		},
		StakingRewardsEarned: user.StakingRewardsEarned.InexactFloat64(),
	}
}

func FromLoan(loan *domain.Loan) LoanResponseDTO {
	return LoanResponseDTO{
		ID:                 loan.ID,
		UserID:             loan.UserID,
		Status:             string(loan.Status),
		CollateralType:     string(loan.CollateralType),
		CollateralAmount:   loan.CollateralAmount.InexactFloat64(),
		CollateralValueUSD: loan.CollateralValueUSD.InexactFloat64(),
		BorrowedType:       string(loan.BorrowedType),
		BorrowedAmount:     loan.BorrowedAmount.InexactFloat64(),
		BorrowedValueUSD:   loan.BorrowedValueUSD.InexactFloat64(),
		InterestRate:       loan.InterestRate.InexactFloat64(),
		AccruedInterest:    loan.AccruedInterest.InexactFloat64(),
		InitialLTV:         loan.InitialLTV.InexactFloat64(),
		CurrentLTV:         loan.CurrentLTV.InexactFloat64(),
		StakingYieldEarned: loan.StakingYieldEarned.InexactFloat64(),
		CreatedAt:          loan.CreatedAt,
		UpdatedAt:          loan.UpdatedAt,
		ClosedAt:           loan.ClosedAt,
	}
}

func FromLoans(loans []domain.Loan) []LoanResponseDTO {
	out := make([]LoanResponseDTO, len(loans))
	for i := range loans {
		out[i] = FromLoan(&loans[i])
	}
	return out
}

func FromTransaction(txn *domain.Transaction) TransactionResponseDTO {
	resp := TransactionResponseDTO{
		ID:        txn.ID,
		LoanID:    txn.LoanID,
		Type:      string(txn.Type),
		Asset:     string(txn.Asset),
		Amount:    txn.Amount.InexactFloat64(),
		TxHash:    txn.TxHash,
		Status:    string(txn.Status),
		CreatedAt: txn.CreatedAt,
	}
	if txn.ValueUSD.Valid {
		v := txn.ValueUSD.Decimal.InexactFloat64()
		resp.ValueUSD = &v
	}
	return resp
}

func FromTransactions(txns []domain.Transaction) []TransactionResponseDTO {
	out := make([]TransactionResponseDTO, len(txns))
	for i := range txns {
		out[i] = FromTransaction(&txns[i])
	}
	return out
}
