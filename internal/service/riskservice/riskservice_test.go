package riskservice

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/loanzzz/loanzzz/internal/domain"
	loanrepo "github.com/loanzzz/loanzzz/internal/repo/loan-repo"
	stakingrepo "github.com/loanzzz/loanzzz/internal/repo/staking-repo"
	transactionrepo "github.com/loanzzz/loanzzz/internal/repo/transaction-repo"
	userrepo "github.com/loanzzz/loanzzz/internal/repo/user-repo"
	"github.com/loanzzz/loanzzz/internal/service/stakingservice"
	"github.com/loanzzz/loanzzz/internal/storage"
)

type stubOracle struct {
	mu     sync.Mutex
	prices map[domain.Asset]decimal.Decimal
}

func (o *stubOracle) GetPrice(_ context.Context, asset domain.Asset) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if asset == domain.AssetFIRMA {
		return decimal.NewFromInt(1), nil
	}
	return o.prices[asset], nil
}

func (o *stubOracle) setXECPrice(price string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := decimal.RequireFromString(price)
	o.prices[domain.AssetXEC] = p
	o.prices[domain.AssetXECX] = p
}

type recordedEvent struct {
	UserID int64
	Type   string
	Data   any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) NotifyUser(userID int64, eventType string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{UserID: userID, Type: eventType, Data: data})
}

type riskFixture struct {
	svc         *Service
	oracle      *stubOracle
	notifier    *recordingNotifier
	userRepo    *userrepo.Repository
	loanRepo    *loanrepo.Repository
	stakingRepo *stakingrepo.Repository
	txnRepo     *transactionrepo.Repository
	staking     *stakingservice.Service
	seeded      int
}

func newRiskFixture(t *testing.T) *riskFixture {
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
	txManager := storage.NewTXManager(db)

	f := &riskFixture{
		oracle:      &stubOracle{prices: map[domain.Asset]decimal.Decimal{}},
		notifier:    &recordingNotifier{},
		userRepo:    userrepo.New(conn, txManager),
		loanRepo:    loanrepo.New(conn, txManager),
		stakingRepo: stakingrepo.New(conn),
		txnRepo:     transactionrepo.New(conn),
	}
	f.oracle.setXECPrice("0.00003")

	f.staking = stakingservice.New(f.stakingRepo, f.loanRepo, f.userRepo, f.txnRepo,
		f.notifier, txManager, decimal.RequireFromString("0.0001"))

	f.svc = New(f.loanRepo, f.userRepo, f.txnRepo, f.oracle, f.staking, f.notifier, txManager, Limits{
		MarginCallLTV:  decimal.NewFromInt(75),
		LiquidationLTV: decimal.NewFromInt(83),
		LiquidationFee: decimal.RequireFromString("0.02"),
	})
	return f
}

// seedLoan installs an open XEC-collateralised loan and registers its
// collateral with the staking pool.
func (f *riskFixture) seedLoan(t *testing.T, collateral, borrowed string) (*domain.Loan, *domain.User) {
	ctx := context.Background()
	f.seeded++
	user, err := f.userRepo.Create(ctx, &domain.User{EcashAddress: fmt.Sprintf("ecash:%s-%d", t.Name(), f.seeded)})
	assert.NoError(t, err)

	now := time.Now().UTC()
	loan, err := f.loanRepo.Create(ctx, &domain.Loan{
		UserID:             user.ID,
		Status:             domain.LoanStatusActive,
		CollateralType:     domain.AssetXEC,
		CollateralAmount:   decimal.RequireFromString(collateral),
		CollateralValueUSD: decimal.RequireFromString(collateral).Mul(decimal.RequireFromString("0.00003")),
		BorrowedType:       domain.AssetFIRMA,
		BorrowedAmount:     decimal.RequireFromString(borrowed),
		BorrowedValueUSD:   decimal.RequireFromString(borrowed),
		InterestRate:       decimal.RequireFromString("0.0001"),
		AccruedInterest:    decimal.Zero,
		InitialLTV:         decimal.NewFromInt(50),
		CurrentLTV:         decimal.NewFromInt(50),
		StakingYieldEarned: decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
		LastInterestUpdate: now,
	})
	assert.NoError(t, err)
	assert.NoError(t, f.staking.OnCollateralAdded(ctx, loan.CollateralAmount))
	return loan, user
}

func TestScanLeavesHealthyLoansAlone(t *testing.T) {
	f := newRiskFixture(t)
	loan, _ := f.seedLoan(t, "1000000", "15")

	assert.NoError(t, f.svc.ScanAndLiquidate(context.Background()))

	after, err := f.loanRepo.FindByID(context.Background(), loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, after.Status)
}

func TestLiquidationAtThreshold(t *testing.T) {
	f := newRiskFixture(t)
	ctx := context.Background()
	loan, user := f.seedLoan(t, "1000000", "15")

	// LTV = 15 / (1,000,000 * 0.000018) * 100 = 83.33 -> liquidate.
	f.oracle.setXECPrice("0.0000180")
	assert.NoError(t, f.svc.ScanAndLiquidate(ctx))

	after, err := f.loanRepo.FindByID(ctx, loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusLiquidated, after.Status)
	assert.True(t, after.CollateralAmount.IsZero())
	assert.True(t, after.BorrowedAmount.IsZero())
	assert.NotNil(t, after.ClosedAt)

	// debt 15 USD, fee 0.30 USD, recover 15.30 USD -> sell 850,000 XEC,
	// return 150,000 XEC.
	updated, err := f.userRepo.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, updated.XECBalance.Equal(decimal.NewFromInt(150_000)),
		"expected 150000 XEC returned, got %s", updated.XECBalance)

	txns, err := f.txnRepo.FindByUserID(ctx, user.ID, 10, domain.TxLiquidation)
	assert.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(850_000)), "sold %s", txns[0].Amount)
	assert.True(t, txns[0].ValueUSD.Decimal.Equal(decimal.RequireFromString("15.3")),
		"recover USD %s", txns[0].ValueUSD.Decimal)

	// The whole collateral leaves the staking pool.
	pool, err := f.stakingRepo.Get(ctx)
	assert.NoError(t, err)
	assert.True(t, pool.UserContributed.IsZero())
	assert.True(t, pool.Total.Equal(decimal.NewFromInt(50_000)))

	var sawLiquidation bool
	for _, e := range f.notifier.events {
		if e.Type == "loan:liquidation" {
			sawLiquidation = true
		}
	}
	assert.True(t, sawLiquidation)
}

func TestLiquidationBelowThresholdDoesNothing(t *testing.T) {
	f := newRiskFixture(t)
	ctx := context.Background()
	loan, _ := f.seedLoan(t, "1000000", "15")

	// LTV = 75: margin band, not liquidation.
	f.oracle.setXECPrice("0.0000200")
	assert.NoError(t, f.svc.ScanAndLiquidate(ctx))

	after, err := f.loanRepo.FindByID(ctx, loan.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, domain.LoanStatusLiquidated, after.Status)
}

func TestUnderwaterLiquidationAcceptsBadDebt(t *testing.T) {
	f := newRiskFixture(t)
	ctx := context.Background()
	loan, user := f.seedLoan(t, "1000000", "15")

	// Collateral worth 10 USD against 15 USD of debt: everything is sold,
	// nothing comes back, the shortfall is written off.
	f.oracle.setXECPrice("0.00001")
	assert.NoError(t, f.svc.ScanAndLiquidate(ctx))

	after, err := f.loanRepo.FindByID(ctx, loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusLiquidated, after.Status)

	updated, err := f.userRepo.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, updated.XECBalance.IsZero())

	txns, err := f.txnRepo.FindByUserID(ctx, user.ID, 10, domain.TxLiquidation)
	assert.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(1_000_000)),
		"the whole collateral is sold, got %s", txns[0].Amount)
}

func TestWorthlessCollateralLiquidatesImmediately(t *testing.T) {
	f := newRiskFixture(t)
	ctx := context.Background()
	loan, _ := f.seedLoan(t, "1000000", "15")

	f.oracle.setXECPrice("0")
	assert.NoError(t, f.svc.ScanAndLiquidate(ctx))

	after, err := f.loanRepo.FindByID(ctx, loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusLiquidated, after.Status)
}

func TestLoansAtRiskOrdering(t *testing.T) {
	f := newRiskFixture(t)
	ctx := context.Background()

	safe, _ := f.seedLoan(t, "3000000", "15")
	risky, _ := f.seedLoan(t, "1000000", "15")

	risky.CurrentLTV = decimal.NewFromInt(80)
	assert.NoError(t, f.loanRepo.Update(ctx, risky))
	safe.CurrentLTV = decimal.NewFromInt(76)
	assert.NoError(t, f.loanRepo.Update(ctx, safe))

	atRisk, err := f.svc.LoansAtRisk(ctx)
	assert.NoError(t, err)
	assert.Len(t, atRisk, 2)
	assert.Equal(t, risky.ID, atRisk[0].ID)
	assert.Equal(t, safe.ID, atRisk[1].ID)
}
