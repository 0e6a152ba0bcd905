package loanservice

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/loanzzz/loanzzz/internal/domain"
)

// Stats is the platform-wide lending snapshot served by the stats endpoint.
type Stats struct {
	TotalLoans         int64           `json:"total_loans"`
	ActiveLoans        int64           `json:"active_loans"`
	MarginCallLoans    int64           `json:"margin_call_loans"`
	RepaidLoans        int64           `json:"repaid_loans"`
	LiquidatedLoans    int64           `json:"liquidated_loans"`
	TotalCollateralUSD decimal.Decimal `json:"total_collateral_usd"`
	TotalBorrowedUSD   decimal.Decimal `json:"total_borrowed_usd"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.loanRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	prices, err := s.priceTable(ctx)
	if err != nil {
		return nil, err
	}

	open, err := s.loanRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ActiveLoans:        counts[domain.LoanStatusActive],
		MarginCallLoans:    counts[domain.LoanStatusMarginCall],
		RepaidLoans:        counts[domain.LoanStatusRepaid],
		LiquidatedLoans:    counts[domain.LoanStatusLiquidated],
		TotalCollateralUSD: decimal.Zero,
		TotalBorrowedUSD:   decimal.Zero,
	}
	for _, c := range counts {
		stats.TotalLoans += c
	}
	for _, loan := range open {
		stats.TotalCollateralUSD = stats.TotalCollateralUSD.Add(loan.CollateralAmount.Mul(prices[loan.CollateralType]))
		stats.TotalBorrowedUSD = stats.TotalBorrowedUSD.Add(loan.TotalDebt().Mul(prices[loan.BorrowedType]))
	}
	return stats, nil
}
