package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/service/stakingservice"
)

type fakeOracle struct{ refreshed atomic.Int32 }

func (f *fakeOracle) Refresh(context.Context) map[domain.Asset]domain.PricePoint {
	f.refreshed.Add(1)
	return map[domain.Asset]domain.PricePoint{
		domain.AssetXEC: {Asset: domain.AssetXEC, PriceUSD: decimal.RequireFromString("0.00003")},
	}
}

type fakeLoans struct {
	updated atomic.Int32
	accrued atomic.Int32
	err     error
}

func (f *fakeLoans) UpdateAllLTVs(context.Context) error { f.updated.Add(1); return f.err }
func (f *fakeLoans) AccrueAll(context.Context)           { f.accrued.Add(1) }

type fakeRisk struct{ scans atomic.Int32 }

func (f *fakeRisk) ScanAndLiquidate(context.Context) error { f.scans.Add(1); return nil }

type fakeStaking struct{ runs atomic.Int32 }

func (f *fakeStaking) DistributeDailyRewards(context.Context) (*stakingservice.DistributionResult, error) {
	f.runs.Add(1)
	return &stakingservice.DistributionResult{Distributed: decimal.Zero}, nil
}

type fakeEscrow struct{ reconciled atomic.Int32 }

func (f *fakeEscrow) Reconcile(context.Context) { f.reconciled.Add(1) }

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *fakeBroadcaster) Broadcast(eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func TestPriceTickRunsEachStepOnce(t *testing.T) {
	oracle := &fakeOracle{}
	loans := &fakeLoans{}
	escrow := &fakeEscrow{}
	bus := &fakeBroadcaster{}

	svc := New(oracle, loans, &fakeRisk{}, &fakeStaking{}, escrow, bus)
	assert.NoError(t, svc.priceTick(context.Background()))

	assert.Equal(t, int32(1), oracle.refreshed.Load())
	assert.Equal(t, int32(1), loans.updated.Load())
	assert.Equal(t, int32(1), escrow.reconciled.Load())
	assert.Equal(t, []string{"prices:update"}, bus.events)
}

func TestPriceTickContinuesPastLTVFailure(t *testing.T) {
	oracle := &fakeOracle{}
	loans := &fakeLoans{err: errors.New("sweep failed")}
	escrow := &fakeEscrow{}

	svc := New(oracle, loans, &fakeRisk{}, &fakeStaking{}, escrow, &fakeBroadcaster{})
	assert.NoError(t, svc.priceTick(context.Background()))

	// Escrow reconciliation still runs after a failed LTV sweep.
	assert.Equal(t, int32(1), escrow.reconciled.Load())
}

func TestRunTaskSwallowsPanics(t *testing.T) {
	svc := New(&fakeOracle{}, &fakeLoans{}, &fakeRisk{}, &fakeStaking{}, &fakeEscrow{}, &fakeBroadcaster{})

	assert.NotPanics(t, func() {
		svc.runTask(context.Background(), "explosive", func(context.Context) error {
			panic("boom")
		})
	})
}

func TestTickersFire(t *testing.T) {
	oracle := &fakeOracle{}
	loans := &fakeLoans{}
	risk := &fakeRisk{}

	svc := New(oracle, loans, risk, &fakeStaking{}, &fakeEscrow{}, &fakeBroadcaster{})
	svc.priceInterval = 10 * time.Millisecond
	svc.riskInterval = 10 * time.Millisecond
	svc.interestInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	assert.Eventually(t, func() bool {
		return oracle.refreshed.Load() > 0 && risk.scans.Load() > 0 && loans.accrued.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
}

func TestUntilNextMidnightUTC(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, untilNextMidnightUTC(now))

	justAfter := time.Date(2024, 3, 10, 0, 0, 1, 0, time.UTC)
	remaining := untilNextMidnightUTC(justAfter)
	assert.Equal(t, 24*time.Hour-time.Second, remaining)
}
