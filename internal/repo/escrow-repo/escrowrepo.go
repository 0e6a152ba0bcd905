package escrowrepo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

type Repository struct {
	db storage.Database
}

func New(db storage.Database) *Repository {
	return &Repository{db: db}
}

// Upsert records the latest observed balance for an escrow address/asset
// pair. Escrow rows are transparency data only and never touch user
// balances.
func (r *Repository) Upsert(ctx context.Context, wallet *domain.EscrowWallet) error {
	query := `
        INSERT INTO escrow_wallets (chain, address, asset, balance, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (address, asset) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at
    `
	_, err := r.db.Exec(ctx, query, wallet.Chain, wallet.Address, wallet.Asset, wallet.Balance, time.Now().UTC())
	if err != nil {
		zap.L().Error("can't upsert escrow wallet", zap.Error(err))
	}
	return err
}

func (r *Repository) List(ctx context.Context) ([]domain.EscrowWallet, error) {
	query := `
        SELECT id, chain, address, asset, balance, updated_at
        FROM escrow_wallets
        ORDER BY chain, asset
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("can't list escrow wallets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var wallets []domain.EscrowWallet
	for rows.Next() {
		var w domain.EscrowWallet
		if err := rows.Scan(&w.ID, &w.Chain, &w.Address, &w.Asset, &w.Balance, &w.UpdatedAt); err != nil {
			zap.L().Error("can't scan escrow wallet row", zap.Error(err))
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
