package escrowservice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
)

type EscrowRepo interface {
	Upsert(ctx context.Context, wallet *domain.EscrowWallet) error
	List(ctx context.Context) ([]domain.EscrowWallet, error)
}

type TransactionRepo interface {
	FindRecent(ctx context.Context, limit int, types ...domain.TransactionType) ([]domain.Transaction, error)
}

type XECIndexer interface {
	AddressBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

type SolanaIndexer interface {
	TokenBalance(ctx context.Context, tokenAccount string) (decimal.Decimal, error)
}

type Notifier interface {
	Broadcast(eventType string, data any)
}

// Addresses are the platform-controlled escrow addresses surfaced for
// transparency reporting.
type Addresses struct {
	XEC    string
	Solana string
}

type Service struct {
	escrowRepo EscrowRepo
	txnRepo    TransactionRepo
	xecIndexer XECIndexer
	solIndexer SolanaIndexer
	notifier   Notifier
	addresses  Addresses
}

func New(escrowRepo EscrowRepo, txnRepo TransactionRepo, xecIndexer XECIndexer,
	solIndexer SolanaIndexer, notifier Notifier, addresses Addresses) *Service {
	return &Service{
		escrowRepo: escrowRepo,
		txnRepo:    txnRepo,
		xecIndexer: xecIndexer,
		solIndexer: solIndexer,
		notifier:   notifier,
		addresses:  addresses,
	}
}

// Reconcile refreshes observed escrow balances from the chain indexers.
// Escrow rows are transparency data; user balances are never touched here.
func (s *Service) Reconcile(ctx context.Context) {
	previous := make(map[string]decimal.Decimal)
	if wallets, err := s.escrowRepo.List(ctx); err == nil {
		for _, w := range wallets {
			previous[w.Address+"/"+string(w.Asset)] = w.Balance
		}
	}

	if s.addresses.XEC != "" {
		balance, err := s.xecIndexer.AddressBalance(ctx, s.addresses.XEC)
		if err != nil {
			zap.L().Warn("can't reconcile XEC escrow balance", zap.Error(err))
		} else {
			s.record(ctx, previous, &domain.EscrowWallet{
				Chain:   "ecash",
				Address: s.addresses.XEC,
				Asset:   domain.AssetXEC,
				Balance: balance,
			})
		}
	}

	if s.addresses.Solana != "" {
		balance, err := s.solIndexer.TokenBalance(ctx, s.addresses.Solana)
		if err != nil {
			zap.L().Warn("can't reconcile solana escrow balance", zap.Error(err))
		} else {
			s.record(ctx, previous, &domain.EscrowWallet{
				Chain:   "solana",
				Address: s.addresses.Solana,
				Asset:   domain.AssetFIRMA,
				Balance: balance,
			})
		}
	}
}

func (s *Service) record(ctx context.Context, previous map[string]decimal.Decimal, wallet *domain.EscrowWallet) {
	if err := s.escrowRepo.Upsert(ctx, wallet); err != nil {
		return
	}
	old, seen := previous[wallet.Address+"/"+string(wallet.Asset)]
	if seen && old.Equal(wallet.Balance) {
		return
	}
	s.notifier.Broadcast("escrow:transaction", map[string]any{
		"chain":   wallet.Chain,
		"address": wallet.Address,
		"asset":   wallet.Asset,
		"balance": wallet.Balance,
	})
}

// Summary aggregates observed escrow balances per asset.
type Summary struct {
	Totals    map[domain.Asset]decimal.Decimal `json:"totals"`
	Wallets   int                              `json:"wallets"`
	UpdatedAt *time.Time                       `json:"updated_at"`
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	wallets, err := s.escrowRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Totals: make(map[domain.Asset]decimal.Decimal)}
	for _, w := range wallets {
		total, ok := summary.Totals[w.Asset]
		if !ok {
			total = decimal.Zero
		}
		summary.Totals[w.Asset] = total.Add(w.Balance)
		if summary.UpdatedAt == nil || w.UpdatedAt.After(*summary.UpdatedAt) {
			t := w.UpdatedAt
			summary.UpdatedAt = &t
		}
	}
	summary.Wallets = len(wallets)
	return summary, nil
}

func (s *Service) Wallets(ctx context.Context) ([]domain.EscrowWallet, error) {
	return s.escrowRepo.List(ctx)
}

func (s *Service) Transactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	return s.txnRepo.FindRecent(ctx, limit)
}

func (s *Service) Liquidations(ctx context.Context, limit int) ([]domain.Transaction, error) {
	return s.txnRepo.FindRecent(ctx, limit, domain.TxLiquidation)
}
