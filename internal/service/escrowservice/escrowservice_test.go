package escrowservice

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/loanzzz/loanzzz/internal/domain"
	escrowrepo "github.com/loanzzz/loanzzz/internal/repo/escrow-repo"
	transactionrepo "github.com/loanzzz/loanzzz/internal/repo/transaction-repo"
	"github.com/loanzzz/loanzzz/internal/storage"
)

type fakeXECIndexer struct {
	balance decimal.Decimal
	err     error
}

func (f *fakeXECIndexer) AddressBalance(context.Context, string) (decimal.Decimal, error) {
	return f.balance, f.err
}

type fakeSolanaIndexer struct {
	balance decimal.Decimal
	err     error
}

func (f *fakeSolanaIndexer) TokenBalance(context.Context, string) (decimal.Decimal, error) {
	return f.balance, f.err
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Broadcast(eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

type escrowFixture struct {
	svc        *Service
	escrowRepo *escrowrepo.Repository
	txnRepo    *transactionrepo.Repository
	xec        *fakeXECIndexer
	sol        *fakeSolanaIndexer
	bus        *recordingBroadcaster
}

func newEscrowFixture(t *testing.T) *escrowFixture {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	conn := storage.New(db)
	f := &escrowFixture{
		escrowRepo: escrowrepo.New(conn),
		txnRepo:    transactionrepo.New(conn),
		xec:        &fakeXECIndexer{balance: decimal.NewFromInt(5_000_000)},
		sol:        &fakeSolanaIndexer{balance: decimal.NewFromInt(1_200)},
		bus:        &recordingBroadcaster{},
	}
	f.svc = New(f.escrowRepo, f.txnRepo, f.xec, f.sol, f.bus, Addresses{
		XEC:    "ecash:qqescrow",
		Solana: "So1Escrow",
	})
	return f
}

func TestReconcileRecordsObservedBalances(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()

	f.svc.Reconcile(ctx)

	wallets, err := f.escrowRepo.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, wallets, 2)

	summary, err := f.svc.Summary(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Wallets)
	assert.True(t, summary.Totals[domain.AssetXEC].Equal(decimal.NewFromInt(5_000_000)))
	assert.True(t, summary.Totals[domain.AssetFIRMA].Equal(decimal.NewFromInt(1_200)))

	// First observation broadcasts both wallets.
	assert.Len(t, f.bus.events, 2)
}

func TestReconcileBroadcastsOnlyOnChange(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()

	f.svc.Reconcile(ctx)
	assert.Len(t, f.bus.events, 2)

	// Unchanged balances stay quiet.
	f.svc.Reconcile(ctx)
	assert.Len(t, f.bus.events, 2)

	f.xec.balance = decimal.NewFromInt(5_100_000)
	f.svc.Reconcile(ctx)
	assert.Len(t, f.bus.events, 3)
}

func TestReconcileSurvivesIndexerFailure(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()

	f.xec.err = errors.New("chronik down")
	f.svc.Reconcile(ctx)

	// The solana side still reconciles.
	wallets, err := f.escrowRepo.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, wallets, 1)
	assert.Equal(t, "solana", wallets[0].Chain)
}

func TestLiquidationsFiltersTransactionLog(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()

	if _, err := f.txnRepo.Create(ctx, &domain.Transaction{
		UserID: 1, Type: domain.TxLiquidation, Asset: domain.AssetXEC,
		Amount: decimal.NewFromInt(850_000),
	}); err != nil {
		t.Fatalf("Failed to seed transaction: %v", err)
	}
	if _, err := f.txnRepo.Create(ctx, &domain.Transaction{
		UserID: 1, Type: domain.TxBorrow, Asset: domain.AssetFIRMA,
		Amount: decimal.NewFromInt(15),
	}); err != nil {
		t.Fatalf("Failed to seed transaction: %v", err)
	}

	liquidations, err := f.svc.Liquidations(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, liquidations, 1)
	assert.Equal(t, domain.TxLiquidation, liquidations[0].Type)

	all, err := f.svc.Transactions(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}
