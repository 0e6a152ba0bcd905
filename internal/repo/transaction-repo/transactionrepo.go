package transactionrepo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
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

const txnColumns = `id, user_id, loan_id, type, asset, amount, value_usd, tx_hash, status, created_at`

// Create appends a transaction-log entry. The log is append-only: entries
// are never updated or deleted.
func (r *Repository) Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.Status == "" {
		txn.Status = domain.TxStatusConfirmed
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO transactions (id, user_id, loan_id, type, asset, amount, value_usd, tx_hash, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	var loanID any
	if txn.LoanID != nil {
		loanID = *txn.LoanID
	}
	var valueUSD any
	if txn.ValueUSD.Valid {
		valueUSD = txn.ValueUSD.Decimal
	}
	_, err := r.db.Exec(ctx, query,
		txn.ID, txn.UserID, loanID, txn.Type, txn.Asset, txn.Amount, valueUSD, txn.TxHash, txn.Status, txn.CreatedAt)
	if err != nil {
		zap.L().Error("can't append transaction", zap.Error(err))
		return nil, err
	}
	return txn, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64, limit int, types ...domain.TransactionType) ([]domain.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}
	query, args = appendTypeFilter(query, args, types)
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)
	return r.queryTransactions(ctx, query, args...)
}

func (r *Repository) FindRecent(ctx context.Context, limit int, types ...domain.TransactionType) ([]domain.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM transactions WHERE 1 = 1`
	args := []any{}
	query, args = appendTypeFilter(query, args, types)
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)
	return r.queryTransactions(ctx, query, args...)
}

func appendTypeFilter(query string, args []any, types []domain.TransactionType) (string, []any) {
	if len(types) == 0 {
		return query, args
	}
	placeholders := make([]string, len(types))
	for i, t := range types {
		placeholders[i] = "?"
		args = append(args, t)
	}
	return query + ` AND type IN (` + strings.Join(placeholders, ", ") + `)`, args
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't query transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var loanID *int64
		var txHash *string
		if err := rows.Scan(&txn.ID, &txn.UserID, &loanID, &txn.Type, &txn.Asset,
			&txn.Amount, &txn.ValueUSD, &txHash, &txn.Status, &txn.CreatedAt); err != nil {
			zap.L().Error("can't scan transaction row", zap.Error(err))
			return nil, err
		}
		txn.LoanID = loanID
		if txHash != nil {
			txn.TxHash = *txHash
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
