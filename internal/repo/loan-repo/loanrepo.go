package loanrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

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

const loanColumns = `id, user_id, status, collateral_type, collateral_amount, collateral_value_usd,
		borrowed_type, borrowed_amount, borrowed_value_usd, interest_rate, accrued_interest,
		initial_ltv, current_ltv, staking_yield_earned, created_at, updated_at, last_interest_update, closed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*domain.Loan, error) {
	var loan domain.Loan
	var closedAt sql.NullTime
	err := row.Scan(&loan.ID, &loan.UserID, &loan.Status,
		&loan.CollateralType, &loan.CollateralAmount, &loan.CollateralValueUSD,
		&loan.BorrowedType, &loan.BorrowedAmount, &loan.BorrowedValueUSD,
		&loan.InterestRate, &loan.AccruedInterest,
		&loan.InitialLTV, &loan.CurrentLTV, &loan.StakingYieldEarned,
		&loan.CreatedAt, &loan.UpdatedAt, &loan.LastInterestUpdate, &closedAt)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		loan.ClosedAt = &closedAt.Time
	}
	return &loan, nil
}

func (r *Repository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	query := `
        INSERT INTO loans (user_id, status, collateral_type, collateral_amount, collateral_value_usd,
            borrowed_type, borrowed_amount, borrowed_value_usd, interest_rate, accrued_interest,
            initial_ltv, current_ltv, staking_yield_earned, created_at, updated_at, last_interest_update)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	var created *domain.Loan
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		res, err := r.db.Exec(ctx, query,
			loan.UserID, loan.Status, loan.CollateralType, loan.CollateralAmount, loan.CollateralValueUSD,
			loan.BorrowedType, loan.BorrowedAmount, loan.BorrowedValueUSD, loan.InterestRate, loan.AccruedInterest,
			loan.InitialLTV, loan.CurrentLTV, loan.StakingYieldEarned,
			loan.CreatedAt, loan.UpdatedAt, loan.LastInterestUpdate)
		if err != nil {
			zap.L().Error("can't create loan", zap.Error(err))
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = r.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`
	loan, err := scanLoan(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find loan", zap.Error(err))
		return nil, err
	}
	return loan, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = ? ORDER BY created_at DESC`
	return r.queryLoans(ctx, query, userID)
}

// FindOpen returns every loan in a non-terminal state.
func (r *Repository) FindOpen(ctx context.Context) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status IN (?, ?) ORDER BY id ASC`
	return r.queryLoans(ctx, query, domain.LoanStatusActive, domain.LoanStatusMarginCall)
}

func (r *Repository) queryLoans(ctx context.Context, query string, args ...any) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't query loans", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			zap.L().Error("can't scan loan row", zap.Error(err))
			return nil, err
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

func (r *Repository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
        UPDATE loans
        SET status = ?, collateral_amount = ?, borrowed_amount = ?, accrued_interest = ?,
            current_ltv = ?, staking_yield_earned = ?, updated_at = ?, last_interest_update = ?, closed_at = ?
        WHERE id = ?
    `
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		var closedAt any
		if loan.ClosedAt != nil {
			closedAt = *loan.ClosedAt
		}
		_, err := r.db.Exec(ctx, query,
			loan.Status, loan.CollateralAmount, loan.BorrowedAmount, loan.AccruedInterest,
			loan.CurrentLTV, loan.StakingYieldEarned, time.Now().UTC(), loan.LastInterestUpdate, closedAt,
			loan.ID)
		if err != nil {
			zap.L().Error("can't update loan", zap.Error(err))
		}
		return err
	})
	return err
}

func (r *Repository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM loans GROUP BY status`)
	if err != nil {
		zap.L().Error("can't count loans", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.LoanStatus]int64)
	for rows.Next() {
		var status domain.LoanStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *Repository) CreateMarginCall(ctx context.Context, mc *domain.MarginCall) error {
	query := `
        INSERT INTO margin_calls (loan_id, user_id, ltv, alert_type)
        VALUES (?, ?, ?, ?)
    `
	_, err := r.db.Exec(ctx, query, mc.LoanID, mc.UserID, mc.LTV, mc.AlertType)
	if err != nil {
		zap.L().Error("can't record margin call", zap.Error(err))
	}
	return err
}

func (r *Repository) FindMarginCallsByLoanID(ctx context.Context, loanID int64) ([]domain.MarginCall, error) {
	query := `
        SELECT id, loan_id, user_id, ltv, alert_type, created_at
        FROM margin_calls
        WHERE loan_id = ?
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		zap.L().Error("can't query margin calls", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var calls []domain.MarginCall
	for rows.Next() {
		var mc domain.MarginCall
		if err := rows.Scan(&mc.ID, &mc.LoanID, &mc.UserID, &mc.LTV, &mc.AlertType, &mc.CreatedAt); err != nil {
			zap.L().Error("can't scan margin call row", zap.Error(err))
			return nil, err
		}
		calls = append(calls, mc)
	}
	return calls, rows.Err()
}
