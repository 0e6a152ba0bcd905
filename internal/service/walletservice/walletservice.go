package walletservice

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

var depositTypes = []domain.TransactionType{
	domain.TxDepositXEC,
	domain.TxDepositFirma,
	domain.TxFirmaSwap,
}

type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	AdjustBalance(ctx context.Context, userID int64, asset domain.Asset, delta decimal.Decimal) error
}

type TransactionRepo interface {
	Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
	FindByUserID(ctx context.Context, userID int64, limit int, types ...domain.TransactionType) ([]domain.Transaction, error)
}

type Oracle interface {
	GetPrice(ctx context.Context, asset domain.Asset) (decimal.Decimal, error)
}

type Notifier interface {
	NotifyUser(userID int64, eventType string, data any)
}

// DepositAddresses are the platform escrow addresses users send funds to.
type DepositAddresses struct {
	XEC    string `json:"xec"`
	Solana string `json:"solana"`
}

type Service struct {
	userRepo  UserRepo
	txnRepo   TransactionRepo
	oracle    Oracle
	notifier  Notifier
	txManager storage.TXManager
	addresses DepositAddresses
}

func New(userRepo UserRepo, txnRepo TransactionRepo, oracle Oracle, notifier Notifier,
	txManager storage.TXManager, addresses DepositAddresses) *Service {
	return &Service{
		userRepo:  userRepo,
		txnRepo:   txnRepo,
		oracle:    oracle,
		notifier:  notifier,
		txManager: txManager,
		addresses: addresses,
	}
}

// DepositXEC credits a confirmed on-chain XEC deposit observed by the
// indexer or reported by the client.
func (s *Service) DepositXEC(ctx context.Context, userID int64, amount decimal.Decimal, txHash string) (*domain.Transaction, error) {
	return s.deposit(ctx, userID, domain.AssetXEC, amount, domain.TxDepositXEC, txHash)
}

// DepositFirma credits a confirmed FIRMA deposit.
func (s *Service) DepositFirma(ctx context.Context, userID int64, amount decimal.Decimal, txHash string) (*domain.Transaction, error) {
	return s.deposit(ctx, userID, domain.AssetFIRMA, amount, domain.TxDepositFirma, txHash)
}

// DepositUSDTSolana bridges a USDT deposit on Solana into FIRMA at the 1:1
// USD peg.
func (s *Service) DepositUSDTSolana(ctx context.Context, userID int64, amountUSD decimal.Decimal, signature string) (*domain.Transaction, error) {
	return s.deposit(ctx, userID, domain.AssetFIRMA, amountUSD, domain.TxFirmaSwap, signature)
}

func (s *Service) deposit(ctx context.Context, userID int64, asset domain.Asset, amount decimal.Decimal,
	txType domain.TransactionType, txHash string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	price, err := s.oracle.GetPrice(ctx, asset)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		if err := s.userRepo.AdjustBalance(ctx, userID, asset, amount); err != nil {
			return err
		}

		txn, err = s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   userID,
			Type:     txType,
			Asset:    asset,
			Amount:   amount,
			ValueUSD: decimal.NewNullDecimal(amount.Mul(price)),
			TxHash:   txHash,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("deposit credited",
		zap.Int64("userID", userID),
		zap.String("asset", string(asset)),
		zap.String("amount", amount.String()))
	s.notifyBalance(ctx, userID)
	return txn, nil
}

// WithdrawXEC debits the balance and records a pending withdrawal; the
// on-chain send happens outside the core.
func (s *Service) WithdrawXEC(ctx context.Context, userID int64, amount decimal.Decimal, address string) (*domain.Transaction, error) {
	return s.withdraw(ctx, userID, domain.AssetXEC, amount, domain.TxWithdrawXEC, address)
}

func (s *Service) WithdrawFirma(ctx context.Context, userID int64, amount decimal.Decimal, address string) (*domain.Transaction, error) {
	return s.withdraw(ctx, userID, domain.AssetFIRMA, amount, domain.TxWithdrawFirma, address)
}

func (s *Service) withdraw(ctx context.Context, userID int64, asset domain.Asset, amount decimal.Decimal,
	txType domain.TransactionType, address string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	price, err := s.oracle.GetPrice(ctx, asset)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.Balance(asset).LessThan(amount) {
			return ErrInsufficientBalance
		}

		if err := s.userRepo.AdjustBalance(ctx, userID, asset, amount.Neg()); err != nil {
			return err
		}

		txn, err = s.txnRepo.Create(ctx, &domain.Transaction{
			UserID:   userID,
			Type:     txType,
			Asset:    asset,
			Amount:   amount,
			ValueUSD: decimal.NewNullDecimal(amount.Mul(price)),
			TxHash:   address,
			Status:   domain.TxStatusPending,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyBalance(ctx, userID)
	return txn, nil
}

// Deposits lists the user's recent deposit-side ledger entries.
func (s *Service) Deposits(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	return s.txnRepo.FindByUserID(ctx, userID, limit, depositTypes...)
}

// DepositAddresses reports where the user sends funds for each chain.
func (s *Service) DepositAddresses(ctx context.Context, userID int64) (*DepositAddresses, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	addrs := s.addresses
	return &addrs, nil
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
