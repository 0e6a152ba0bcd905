package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

var ErrNegativeBalance = errors.New("balance would go negative")

// Static asset -> column mapping. Asset values never reach SQL text directly.
var balanceColumns = map[domain.Asset]string{
	domain.AssetXEC:   "xec_balance",
	domain.AssetFIRMA: "firma_balance",
	domain.AssetXECX:  "xecx_balance",
}

type Repository struct {
	db        storage.Database
	txManager storage.TXManager
}

func New(db storage.Database, txManager storage.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

const userColumns = `id, ecash_address, solana_address, xec_balance, firma_balance, xecx_balance, staking_rewards_earned, created_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var ecash, solana sql.NullString
	err := row.Scan(&user.ID, &ecash, &solana,
		&user.XECBalance, &user.FirmaBalance, &user.XECXBalance,
		&user.StakingRewardsEarned, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.EcashAddress = ecash.String
	user.SolanaAddress = solana.String
	return &user, nil
}

func (r *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
        INSERT INTO users (ecash_address, solana_address)
        VALUES (?, ?)
    `
	res, err := r.db.Exec(ctx, query, nullable(user.EcashAddress), nullable(user.SolanaAddress))
	if err != nil {
		zap.L().Error("can't create user", zap.Error(err))
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByEcashAddress(ctx context.Context, address string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ecash_address = ?`
	user, err := scanUser(r.db.QueryRow(ctx, query, address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find user by ecash address", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindBySolanaAddress(ctx context.Context, address string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE solana_address = ?`
	user, err := scanUser(r.db.QueryRow(ctx, query, address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find user by solana address", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *Repository) SetEcashAddress(ctx context.Context, userID int64, address string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET ecash_address = ? WHERE id = ?`, address, userID)
	if err != nil {
		zap.L().Error("can't link ecash address", zap.Error(err))
	}
	return err
}

func (r *Repository) SetSolanaAddress(ctx context.Context, userID int64, address string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET solana_address = ? WHERE id = ?`, address, userID)
	if err != nil {
		zap.L().Error("can't link solana address", zap.Error(err))
	}
	return err
}

// AdjustBalance moves the given asset balance by delta (negative debits).
// Callers run it inside a ledger transaction together with the matching
// transaction-log entry.
func (r *Repository) AdjustBalance(ctx context.Context, userID int64, asset domain.Asset, delta decimal.Decimal) error {
	column, ok := balanceColumns[asset]
	if !ok {
		return fmt.Errorf("unknown asset %q", asset)
	}

	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		var current decimal.Decimal
		query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ?`, column)
		if err := r.db.QueryRow(ctx, query, userID).Scan(&current); err != nil {
			zap.L().Error("can't read balance", zap.Error(err))
			return err
		}

		next := current.Add(delta)
		if next.IsNegative() {
			return ErrNegativeBalance
		}

		update := fmt.Sprintf(`UPDATE users SET %s = ? WHERE id = ?`, column)
		if _, err := r.db.Exec(ctx, update, next, userID); err != nil {
			zap.L().Error("can't update balance", zap.Error(err))
			return err
		}
		return nil
	})
}

func (r *Repository) AddStakingRewards(ctx context.Context, userID int64, amount decimal.Decimal) error {
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		var current decimal.Decimal
		if err := r.db.QueryRow(ctx, `SELECT staking_rewards_earned FROM users WHERE id = ?`, userID).Scan(&current); err != nil {
			zap.L().Error("can't read staking rewards", zap.Error(err))
			return err
		}
		_, err := r.db.Exec(ctx, `UPDATE users SET staking_rewards_earned = ? WHERE id = ?`, current.Add(amount), userID)
		if err != nil {
			zap.L().Error("can't update staking rewards", zap.Error(err))
		}
		return err
	})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
