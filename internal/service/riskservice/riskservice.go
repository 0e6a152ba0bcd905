package riskservice

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/service/loanservice"
	"github.com/loanzzz/loanzzz/internal/storage"
)

var one = decimal.NewFromInt(1)

// liquidationWorkers bounds how many loans are liquidated concurrently in
// one sweep; each liquidation still commits in its own ledger transaction.
const liquidationWorkers = 10

type LoanRepo interface {
	FindByID(ctx context.Context, id int64) (*domain.Loan, error)
	FindOpen(ctx context.Context) ([]domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
}

type UserRepo interface {
	AdjustBalance(ctx context.Context, userID int64, asset domain.Asset, delta decimal.Decimal) error
}

type TransactionRepo interface {
	Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
}

type Oracle interface {
	GetPrice(ctx context.Context, asset domain.Asset) (decimal.Decimal, error)
}

type StakingLedger interface {
	OnCollateralRemoved(ctx context.Context, amount decimal.Decimal) error
}

type Notifier interface {
	NotifyUser(userID int64, eventType string, data any)
}

// Limits are the thresholds the risk loop enforces. Fee is a fraction of
// debt (0.02 = 2%).
type Limits struct {
	MarginCallLTV  decimal.Decimal
	LiquidationLTV decimal.Decimal
	LiquidationFee decimal.Decimal
}

type Service struct {
	loanRepo  LoanRepo
	userRepo  UserRepo
	txnRepo   TransactionRepo
	oracle    Oracle
	staking   StakingLedger
	notifier  Notifier
	txManager storage.TXManager
	limits    Limits

	processing sync.Map

	now func() time.Time
}

func New(loanRepo LoanRepo, userRepo UserRepo, txnRepo TransactionRepo, oracle Oracle,
	staking StakingLedger, notifier Notifier, txManager storage.TXManager, limits Limits) *Service {
	return &Service{
		loanRepo:  loanRepo,
		userRepo:  userRepo,
		txnRepo:   txnRepo,
		oracle:    oracle,
		staking:   staking,
		notifier:  notifier,
		txManager: txManager,
		limits:    limits,
		now:       time.Now,
	}
}

// ScanAndLiquidate revalues every open loan and liquidates the ones at or
// above the liquidation threshold. Each liquidation is all-or-nothing in its
// own ledger transaction.
func (s *Service) ScanAndLiquidate(ctx context.Context) error {
	prices, err := s.priceTable(ctx)
	if err != nil {
		return err
	}

	loans, err := s.loanRepo.FindOpen(ctx)
	if err != nil {
		zap.L().Error("can't list loans for risk scan", zap.Error(err))
		return err
	}

	var g errgroup.Group
	g.SetLimit(liquidationWorkers)
	for _, loan := range loans {
		loan := loan

		ltv := loanservice.LTV(loan.BorrowedAmount, loan.AccruedInterest,
			prices[loan.BorrowedType], loan.CollateralAmount, prices[loan.CollateralType])
		if ltv.LessThan(s.limits.LiquidationLTV) {
			continue
		}

		// Skip loans a previous sweep is still working on.
		if _, loaded := s.processing.LoadOrStore(loan.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			defer s.processing.Delete(loan.ID)
			return s.liquidate(ctx, loan.ID, prices)
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error processing liquidations", zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) liquidate(ctx context.Context, loanID int64, prices map[domain.Asset]decimal.Decimal) error {
	var (
		loan     *domain.Loan
		sold     decimal.Decimal
		returned decimal.Decimal
		feeUSD   decimal.Decimal
		debtUSD  decimal.Decimal
		covered  decimal.Decimal
	)

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loanRepo.FindByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil || loan.Status.Terminal() {
			loan = nil
			return nil
		}

		borrowPrice := prices[loan.BorrowedType]
		collatPrice := prices[loan.CollateralType]

		ltv := loanservice.LTV(loan.BorrowedAmount, loan.AccruedInterest, borrowPrice, loan.CollateralAmount, collatPrice)
		if ltv.LessThan(s.limits.LiquidationLTV) {
			loan = nil
			return nil
		}

		totalDebt := loan.TotalDebt()
		debtUSD = totalDebt.Mul(borrowPrice)
		feeUSD = debtUSD.Mul(s.limits.LiquidationFee)
		recoverUSD := debtUSD.Add(feeUSD)

		if collatPrice.IsPositive() {
			sold = decimal.Min(recoverUSD.Div(collatPrice), loan.CollateralAmount)
		} else {
			// Worthless collateral: everything is sold, debt is written off.
			sold = loan.CollateralAmount
		}
		returned = decimal.Max(decimal.Zero, loan.CollateralAmount.Sub(sold))

		feeInCollat := sold.Mul(s.limits.LiquidationFee).Div(one.Add(s.limits.LiquidationFee))
		soldUSD := sold.Mul(collatPrice)
		covered = soldUSD.Sub(feeInCollat.Mul(collatPrice))

		originalCollateral := loan.CollateralAmount
		collatType := loan.CollateralType

		closedAt := s.now().UTC()
		loan.Status = domain.LoanStatusLiquidated
		loan.CollateralAmount = decimal.Zero
		loan.BorrowedAmount = decimal.Zero
		loan.AccruedInterest = decimal.Zero
		loan.CurrentLTV = ltv
		loan.ClosedAt = &closedAt
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			return err
		}

		if returned.IsPositive() {
			if err := s.userRepo.AdjustBalance(ctx, loan.UserID, collatType, returned); err != nil {
				return err
			}
		}

		if collatType == domain.AssetXEC {
			if err := s.staking.OnCollateralRemoved(ctx, originalCollateral); err != nil {
				return err
			}
		}

		_, err = s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   loan.UserID,
			LoanID:   &loan.ID,
			Type:     domain.TxLiquidation,
			Asset:    collatType,
			Amount:   sold,
			ValueUSD: decimal.NewNullDecimal(recoverUSD),
		})
		return err
	})
	if err != nil {
		return err
	}
	if loan == nil {
		return nil
	}

	shortfall := decimal.Max(decimal.Zero, debtUSD.Sub(covered))
	zap.L().Warn("loan liquidated",
		zap.Int64("loanID", loan.ID),
		zap.String("sold", sold.String()),
		zap.String("returned", returned.String()),
		zap.String("shortfallUSD", shortfall.String()))

	s.notifier.NotifyUser(loan.UserID, "loan:liquidation", map[string]any{
		"loanId":      loan.ID,
		"sold":        sold,
		"debtCovered": covered,
		"fee":         feeUSD,
		"returned":    returned,
		"shortfall":   shortfall,
	})
	return nil
}

// LoansAtRisk returns open loans inside or above the margin band, riskiest
// first.
func (s *Service) LoansAtRisk(ctx context.Context) ([]domain.Loan, error) {
	loans, err := s.loanRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	var atRisk []domain.Loan
	for _, loan := range loans {
		if loan.CurrentLTV.GreaterThanOrEqual(s.limits.MarginCallLTV) {
			atRisk = append(atRisk, loan)
		}
	}
	sort.Slice(atRisk, func(i, j int) bool {
		return atRisk[i].CurrentLTV.GreaterThan(atRisk[j].CurrentLTV)
	})
	return atRisk, nil
}

func (s *Service) priceTable(ctx context.Context) (map[domain.Asset]decimal.Decimal, error) {
	prices := make(map[domain.Asset]decimal.Decimal, 3)
	for _, asset := range []domain.Asset{domain.AssetXEC, domain.AssetFIRMA, domain.AssetXECX} {
		price, err := s.oracle.GetPrice(ctx, asset)
		if err != nil {
			return nil, err
		}
		prices[asset] = price
	}
	return prices, nil
}
