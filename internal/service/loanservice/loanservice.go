package loanservice

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("loan does not belong to user")
	ErrTerminalLoan        = errors.New("loan is already closed")
	ErrLTVExceeded         = errors.New("requested loan exceeds the maximum initial LTV")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

var hundred = decimal.NewFromInt(100)

type LoanRepo interface {
	Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)
	FindByID(ctx context.Context, id int64) (*domain.Loan, error)
	FindByUserID(ctx context.Context, userID int64) ([]domain.Loan, error)
	FindOpen(ctx context.Context) ([]domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
	CreateMarginCall(ctx context.Context, mc *domain.MarginCall) error
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	AdjustBalance(ctx context.Context, userID int64, asset domain.Asset, delta decimal.Decimal) error
}

type TransactionRepo interface {
	Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
}

type Oracle interface {
	GetPrice(ctx context.Context, asset domain.Asset) (decimal.Decimal, error)
}

// StakingLedger tracks XEC collateral entering and leaving the staking pool.
// Both hooks run inside the caller's ledger transaction.
type StakingLedger interface {
	OnCollateralAdded(ctx context.Context, amount decimal.Decimal) error
	OnCollateralRemoved(ctx context.Context, amount decimal.Decimal) error
}

type Notifier interface {
	NotifyUser(userID int64, eventType string, data any)
}

// Limits are the loan thresholds, percent for the LTV bands and a per-hour
// fraction for interest.
type Limits struct {
	InitialLTV     decimal.Decimal
	MarginCallLTV  decimal.Decimal
	LiquidationLTV decimal.Decimal
	HourlyRate     decimal.Decimal
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

// LTV computes the loan-to-value percentage. A worthless collateral position
// reads as fully underwater (100).
func LTV(principal, accrued, borrowPrice, collatAmount, collatPrice decimal.Decimal) decimal.Decimal {
	collatValue := collatAmount.Mul(collatPrice)
	if !collatValue.IsPositive() {
		return hundred
	}
	debtValue := principal.Add(accrued).Mul(borrowPrice)
	return debtValue.Div(collatValue).Mul(hundred)
}

// CalculateMaxBorrow returns the largest borrow permitted at the initial LTV
// cap for the given collateral.
func (s *Service) CalculateMaxBorrow(ctx context.Context, collatType domain.Asset, collatAmount decimal.Decimal, borrowType domain.Asset) (decimal.Decimal, error) {
	collatPrice, err := s.oracle.GetPrice(ctx, collatType)
	if err != nil {
		return decimal.Zero, err
	}
	borrowPrice, err := s.oracle.GetPrice(ctx, borrowType)
	if err != nil {
		return decimal.Zero, err
	}
	if borrowPrice.IsZero() {
		return decimal.Zero, nil
	}
	return collatAmount.Mul(collatPrice).Mul(s.limits.InitialLTV).Div(hundred).Div(borrowPrice), nil
}

// CalculateLTV values an arbitrary position at current prices.
func (s *Service) CalculateLTV(ctx context.Context, borrowType domain.Asset, principal, accrued decimal.Decimal, collatType domain.Asset, collatAmount decimal.Decimal) (decimal.Decimal, error) {
	borrowPrice, err := s.oracle.GetPrice(ctx, borrowType)
	if err != nil {
		return decimal.Zero, err
	}
	collatPrice, err := s.oracle.GetPrice(ctx, collatType)
	if err != nil {
		return decimal.Zero, err
	}
	return LTV(principal, accrued, borrowPrice, collatAmount, collatPrice), nil
}

type RepayResult struct {
	RemainingDebt decimal.Decimal
	FullyRepaid   bool
}

func (s *Service) CreateLoan(ctx context.Context, userID int64, collatType domain.Asset, collatAmount decimal.Decimal, borrowType domain.Asset, borrowAmount decimal.Decimal) (*domain.Loan, error) {
	if !collatType.Valid() || !borrowType.Valid() {
		return nil, errors.New("unsupported asset type")
	}
	if !collatAmount.IsPositive() || !borrowAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Prices are snapshotted before the ledger transaction opens.
	collatPrice, err := s.oracle.GetPrice(ctx, collatType)
	if err != nil {
		return nil, err
	}
	borrowPrice, err := s.oracle.GetPrice(ctx, borrowType)
	if err != nil {
		return nil, err
	}

	ltv := LTV(borrowAmount, decimal.Zero, borrowPrice, collatAmount, collatPrice)
	if ltv.GreaterThan(s.limits.InitialLTV) {
		return nil, ErrLTVExceeded
	}

	var loan *domain.Loan
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.Balance(collatType).LessThan(collatAmount) {
			return ErrInsufficientBalance
		}

		if err := s.userRepo.AdjustBalance(ctx, userID, collatType, collatAmount.Neg()); err != nil {
			return err
		}
		if err := s.userRepo.AdjustBalance(ctx, userID, borrowType, borrowAmount); err != nil {
			return err
		}

		now := s.now().UTC()
		loan, err = s.loanRepo.Create(ctx, &domain.Loan{
			UserID:             userID,
			Status:             domain.LoanStatusActive,
			CollateralType:     collatType,
			CollateralAmount:   collatAmount,
			CollateralValueUSD: collatAmount.Mul(collatPrice),
			BorrowedType:       borrowType,
			BorrowedAmount:     borrowAmount,
			BorrowedValueUSD:   borrowAmount.Mul(borrowPrice),
			InterestRate:       s.limits.HourlyRate,
			AccruedInterest:    decimal.Zero,
			InitialLTV:         ltv,
			CurrentLTV:         ltv,
			StakingYieldEarned: decimal.Zero,
			CreatedAt:          now,
			UpdatedAt:          now,
			LastInterestUpdate: now,
		})
		if err != nil {
			return err
		}

		if _, err := s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   userID,
			LoanID:   &loan.ID,
			Type:     domain.TxBorrow,
			Asset:    borrowType,
			Amount:   borrowAmount,
			ValueUSD: decimal.NewNullDecimal(borrowAmount.Mul(borrowPrice)),
		}); err != nil {
			return err
		}

		if collatType == domain.AssetXEC {
			if err := s.staking.OnCollateralAdded(ctx, collatAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("loan created",
		zap.Int64("loanID", loan.ID),
		zap.Int64("userID", userID),
		zap.String("ltv", loan.CurrentLTV.String()))
	s.notifyBalance(ctx, userID)
	return loan, nil
}

func (s *Service) RepayLoan(ctx context.Context, loanID, userID int64, amount decimal.Decimal) (*RepayResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	if loan.UserID != userID {
		return nil, ErrUnauthorized
	}
	if loan.Status.Terminal() {
		return nil, ErrTerminalLoan
	}

	borrowPrice, err := s.oracle.GetPrice(ctx, loan.BorrowedType)
	if err != nil {
		return nil, err
	}
	collatPrice, err := s.oracle.GetPrice(ctx, loan.CollateralType)
	if err != nil {
		return nil, err
	}

	var result RepayResult
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		loan, err = s.loanRepo.FindByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status.Terminal() {
			return ErrTerminalLoan
		}

		totalDebt := loan.TotalDebt()
		actual := decimal.Min(amount, totalDebt)

		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Balance(loan.BorrowedType).LessThan(actual) {
			return ErrInsufficientBalance
		}
		if err := s.userRepo.AdjustBalance(ctx, userID, loan.BorrowedType, actual.Neg()); err != nil {
			return err
		}

		if actual.GreaterThanOrEqual(totalDebt) {
			// Full repayment: the entire collateral comes back to the user.
			if err := s.userRepo.AdjustBalance(ctx, userID, loan.CollateralType, loan.CollateralAmount); err != nil {
				return err
			}
			if loan.CollateralType == domain.AssetXEC {
				if err := s.staking.OnCollateralRemoved(ctx, loan.CollateralAmount); err != nil {
					return err
				}
			}
			closedAt := s.now().UTC()
			loan.Status = domain.LoanStatusRepaid
			loan.CollateralAmount = decimal.Zero
			loan.BorrowedAmount = decimal.Zero
			loan.AccruedInterest = decimal.Zero
			loan.CurrentLTV = decimal.Zero
			loan.ClosedAt = &closedAt
			result = RepayResult{RemainingDebt: decimal.Zero, FullyRepaid: true}
		} else {
			// Interest-first: reduce accrued interest, then principal.
			if actual.GreaterThanOrEqual(loan.AccruedInterest) {
				loan.BorrowedAmount = loan.BorrowedAmount.Sub(actual.Sub(loan.AccruedInterest))
				loan.AccruedInterest = decimal.Zero
			} else {
				loan.AccruedInterest = loan.AccruedInterest.Sub(actual)
			}
			loan.CurrentLTV = LTV(loan.BorrowedAmount, loan.AccruedInterest, borrowPrice, loan.CollateralAmount, collatPrice)
			if loan.Status == domain.LoanStatusMarginCall && loan.CurrentLTV.LessThan(s.limits.MarginCallLTV) {
				loan.Status = domain.LoanStatusActive
			}
			result = RepayResult{RemainingDebt: loan.TotalDebt(), FullyRepaid: false}
		}

		if err := s.loanRepo.Update(ctx, loan); err != nil {
			return err
		}

		_, err = s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   userID,
			LoanID:   &loan.ID,
			Type:     domain.TxRepay,
			Asset:    loan.BorrowedType,
			Amount:   actual,
			ValueUSD: decimal.NewNullDecimal(actual.Mul(borrowPrice)),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyBalance(ctx, userID)
	if !result.FullyRepaid {
		s.notifyLTV(loan)
	}
	return &result, nil
}

func (s *Service) AddCollateral(ctx context.Context, loanID, userID int64, amount decimal.Decimal) (*domain.Loan, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	if loan.UserID != userID {
		return nil, ErrUnauthorized
	}
	if loan.Status.Terminal() {
		return nil, ErrTerminalLoan
	}

	borrowPrice, err := s.oracle.GetPrice(ctx, loan.BorrowedType)
	if err != nil {
		return nil, err
	}
	collatPrice, err := s.oracle.GetPrice(ctx, loan.CollateralType)
	if err != nil {
		return nil, err
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		loan, err = s.loanRepo.FindByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status.Terminal() {
			return ErrTerminalLoan
		}

		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Balance(loan.CollateralType).LessThan(amount) {
			return ErrInsufficientBalance
		}
		if err := s.userRepo.AdjustBalance(ctx, userID, loan.CollateralType, amount.Neg()); err != nil {
			return err
		}

		loan.CollateralAmount = loan.CollateralAmount.Add(amount)
		loan.CurrentLTV = LTV(loan.BorrowedAmount, loan.AccruedInterest, borrowPrice, loan.CollateralAmount, collatPrice)
		if loan.Status == domain.LoanStatusMarginCall && loan.CurrentLTV.LessThan(s.limits.MarginCallLTV) {
			loan.Status = domain.LoanStatusActive
		}
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			return err
		}

		if _, err := s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   userID,
			LoanID:   &loan.ID,
			Type:     domain.TxAddCollateral,
			Asset:    loan.CollateralType,
			Amount:   amount,
			ValueUSD: decimal.NewNullDecimal(amount.Mul(collatPrice)),
		}); err != nil {
			return err
		}

		if loan.CollateralType == domain.AssetXEC {
			if err := s.staking.OnCollateralAdded(ctx, amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyBalance(ctx, userID)
	s.notifyLTV(loan)
	return loan, nil
}

// AccrueInterest adds whole elapsed hours of interest to the loan. Calling
// it again within the same hour is a no-op.
func (s *Service) AccrueInterest(ctx context.Context, loanID int64) error {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan == nil {
		return ErrLoanNotFound
	}
	if loan.Status.Terminal() {
		return nil
	}

	hours := int64(s.now().UTC().Sub(loan.LastInterestUpdate).Hours())
	if hours < 1 {
		return nil
	}

	borrowPrice, err := s.oracle.GetPrice(ctx, loan.BorrowedType)
	if err != nil {
		return err
	}
	collatPrice, err := s.oracle.GetPrice(ctx, loan.CollateralType)
	if err != nil {
		return err
	}

	var marginCalled bool
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		loan, err = s.loanRepo.FindByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status.Terminal() {
			return nil
		}

		interest := loan.BorrowedAmount.Mul(loan.InterestRate).Mul(decimal.NewFromInt(hours))
		loan.AccruedInterest = loan.AccruedInterest.Add(interest)
		loan.LastInterestUpdate = s.now().UTC()
		loan.CurrentLTV = LTV(loan.BorrowedAmount, loan.AccruedInterest, borrowPrice, loan.CollateralAmount, collatPrice)

		inMarginBand := loan.CurrentLTV.GreaterThanOrEqual(s.limits.MarginCallLTV) &&
			loan.CurrentLTV.LessThan(s.limits.LiquidationLTV)
		if inMarginBand && loan.Status != domain.LoanStatusMarginCall {
			if err := s.triggerMarginCall(ctx, loan); err != nil {
				return err
			}
			marginCalled = true
		}

		if err := s.loanRepo.Update(ctx, loan); err != nil {
			return err
		}

		_, err = s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   loan.UserID,
			LoanID:   &loan.ID,
			Type:     domain.TxInterestPayment,
			Asset:    loan.BorrowedType,
			Amount:   interest,
			ValueUSD: decimal.NewNullDecimal(interest.Mul(borrowPrice)),
		})
		return err
	})
	if err != nil {
		return err
	}

	s.notifyLTV(loan)
	if marginCalled {
		s.notifyMarginCall(loan)
	}
	return nil
}

// AccrueAll runs interest accrual over every open loan; failures are logged
// and do not stop the sweep.
func (s *Service) AccrueAll(ctx context.Context) {
	loans, err := s.loanRepo.FindOpen(ctx)
	if err != nil {
		zap.L().Error("can't list loans for interest accrual", zap.Error(err))
		return
	}
	for _, loan := range loans {
		if err := s.AccrueInterest(ctx, loan.ID); err != nil {
			zap.L().Error("interest accrual failed", zap.Int64("loanID", loan.ID), zap.Error(err))
		}
	}
}

// UpdateAllLTVs revalues every open loan at fresh prices and applies the
// margin-call state machine. Loans at or above the liquidation threshold are
// left for the risk scan.
func (s *Service) UpdateAllLTVs(ctx context.Context) error {
	prices, err := s.priceTable(ctx)
	if err != nil {
		return err
	}

	loans, err := s.loanRepo.FindOpen(ctx)
	if err != nil {
		return err
	}

	for i := range loans {
		loan := &loans[i]
		newLTV := LTV(loan.BorrowedAmount, loan.AccruedInterest,
			prices[loan.BorrowedType], loan.CollateralAmount, prices[loan.CollateralType])

		var marginCalled bool
		err := s.txManager.Begin(ctx, func(ctx context.Context) error {
			loan.CurrentLTV = newLTV
			switch {
			case newLTV.GreaterThanOrEqual(s.limits.LiquidationLTV):
				// Leave the status alone; the liquidation loop sweeps it.
			case newLTV.GreaterThanOrEqual(s.limits.MarginCallLTV):
				if loan.Status != domain.LoanStatusMarginCall {
					if err := s.triggerMarginCall(ctx, loan); err != nil {
						return err
					}
					marginCalled = true
				}
			default:
				if loan.Status == domain.LoanStatusMarginCall {
					loan.Status = domain.LoanStatusActive
				}
			}
			return s.loanRepo.Update(ctx, loan)
		})
		if err != nil {
			zap.L().Error("LTV update failed", zap.Int64("loanID", loan.ID), zap.Error(err))
			continue
		}

		s.notifyLTV(loan)
		if marginCalled {
			s.notifyMarginCall(loan)
		}
	}
	return nil
}

// triggerMarginCall appends the margin-call log entry and moves the loan
// into the margin band. Runs inside the caller's ledger transaction; the
// caller emits the notification after commit.
func (s *Service) triggerMarginCall(ctx context.Context, loan *domain.Loan) error {
	alert := domain.AlertWarning
	if loan.CurrentLTV.GreaterThanOrEqual(decimal.NewFromInt(80)) {
		alert = domain.AlertCritical
	}
	if err := s.loanRepo.CreateMarginCall(ctx, &domain.MarginCall{
		LoanID:    loan.ID,
		UserID:    loan.UserID,
		LTV:       loan.CurrentLTV,
		AlertType: alert,
	}); err != nil {
		return err
	}
	loan.Status = domain.LoanStatusMarginCall
	zap.L().Warn("margin call triggered",
		zap.Int64("loanID", loan.ID),
		zap.String("ltv", loan.CurrentLTV.String()),
		zap.String("alert", string(alert)))
	return nil
}

func (s *Service) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

func (s *Service) ListUserLoans(ctx context.Context, userID int64) ([]domain.Loan, error) {
	return s.loanRepo.FindByUserID(ctx, userID)
}

// Config describes the lending terms exposed on the public config endpoint.
type Config struct {
	InitialLTV          decimal.Decimal
	MarginCallLTV       decimal.Decimal
	LiquidationLTV      decimal.Decimal
	HourlyInterestRate  decimal.Decimal
	SupportedCollateral []domain.Asset
	SupportedBorrow     []domain.Asset
}

func (s *Service) Config() Config {
	return Config{
		InitialLTV:          s.limits.InitialLTV,
		MarginCallLTV:       s.limits.MarginCallLTV,
		LiquidationLTV:      s.limits.LiquidationLTV,
		HourlyInterestRate:  s.limits.HourlyRate,
		SupportedCollateral: []domain.Asset{domain.AssetXEC, domain.AssetFIRMA},
		SupportedBorrow:     []domain.Asset{domain.AssetXEC, domain.AssetFIRMA},
	}
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

func (s *Service) notifyBalance(ctx context.Context, userID int64) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	s.notifier.NotifyUser(userID, "balance:update", map[string]any{
		"userId": userID,
		"xec":    user.XECBalance,
		"firma":  user.FirmaBalance,
		"xecx":   user.XECXBalance,
	})
}

func (s *Service) notifyLTV(loan *domain.Loan) {
	s.notifier.NotifyUser(loan.UserID, "loan:ltv:update", map[string]any{
		"loanId": loan.ID,
		"ltv":    loan.CurrentLTV,
		"status": loan.Status,
	})
}

func (s *Service) notifyMarginCall(loan *domain.Loan) {
	alert := domain.AlertWarning
	if loan.CurrentLTV.GreaterThanOrEqual(decimal.NewFromInt(80)) {
		alert = domain.AlertCritical
	}
	s.notifier.NotifyUser(loan.UserID, "loan:margin-call", map[string]any{
		"loanId":    loan.ID,
		"ltv":       loan.CurrentLTV,
		"alertType": alert,
	})
}
