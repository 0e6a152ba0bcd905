package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// TXManager runs a function inside a writer-exclusive unit of work. On any
// error returned from fn the whole unit rolls back.
type TXManager interface {
	Begin(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

type Manager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewTXManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) Begin(ctx context.Context, fn func(ctx context.Context) error) error {
	// A nested Begin joins the enclosing transaction.
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.run(ctx, fn)
	if isBusy(err) {
		zap.L().Warn("ledger transaction aborted on busy database, retrying once", zap.Error(err))
		err = m.run(ctx, fn)
	}
	return err
}

func (m *Manager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin ledger transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			zap.L().Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("can't commit ledger transaction: %w", err)
	}
	return nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
