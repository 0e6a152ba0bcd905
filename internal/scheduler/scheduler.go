package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/service/stakingservice"
)

type Oracle interface {
	Refresh(ctx context.Context) map[domain.Asset]domain.PricePoint
}

type LoanEngine interface {
	UpdateAllLTVs(ctx context.Context) error
	AccrueAll(ctx context.Context)
}

type RiskEngine interface {
	ScanAndLiquidate(ctx context.Context) error
}

type StakingDistributor interface {
	DistributeDailyRewards(ctx context.Context) (*stakingservice.DistributionResult, error)
}

type EscrowReconciler interface {
	Reconcile(ctx context.Context)
}

type Notifier interface {
	Broadcast(eventType string, data any)
}

// Service drives the periodic ticks. Every task is fire-and-forget: errors
// are logged, panics are swallowed, and the next tick always proceeds.
type Service struct {
	oracle   Oracle
	loans    LoanEngine
	risk     RiskEngine
	staking  StakingDistributor
	escrow   EscrowReconciler
	notifier Notifier

	priceInterval    time.Duration
	riskInterval     time.Duration
	interestInterval time.Duration
}

func New(oracle Oracle, loans LoanEngine, risk RiskEngine, staking StakingDistributor,
	escrow EscrowReconciler, notifier Notifier) *Service {
	return &Service{
		oracle:           oracle,
		loans:            loans,
		risk:             risk,
		staking:          staking,
		escrow:           escrow,
		notifier:         notifier,
		priceInterval:    time.Minute,
		riskInterval:     time.Minute,
		interestInterval: time.Hour,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("scheduler started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	priceTicker := time.NewTicker(s.priceInterval)
	defer priceTicker.Stop()
	riskTicker := time.NewTicker(s.riskInterval)
	defer riskTicker.Stop()
	interestTicker := time.NewTicker(s.interestInterval)
	defer interestTicker.Stop()

	daily := time.NewTimer(untilNextMidnightUTC(time.Now()))
	defer daily.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping scheduler")
			return
		case <-priceTicker.C:
			s.runTask(ctx, "price refresh", s.priceTick)
		case <-riskTicker.C:
			s.runTask(ctx, "risk scan", func(ctx context.Context) error {
				return s.risk.ScanAndLiquidate(ctx)
			})
		case <-interestTicker.C:
			s.runTask(ctx, "interest accrual", func(ctx context.Context) error {
				s.loans.AccrueAll(ctx)
				return nil
			})
		case <-daily.C:
			s.runTask(ctx, "staking distribution", func(ctx context.Context) error {
				_, err := s.staking.DistributeDailyRewards(ctx)
				return err
			})
			daily.Reset(untilNextMidnightUTC(time.Now()))
		}
	}
}

// priceTick refreshes the oracle, broadcasts the snapshot, revalues every
// open loan, and reconciles escrow balances, in that order.
func (s *Service) priceTick(ctx context.Context) error {
	prices := s.oracle.Refresh(ctx)
	s.notifier.Broadcast("prices:update", prices)

	if err := s.loans.UpdateAllLTVs(ctx); err != nil {
		zap.L().Error("LTV sweep failed", zap.Error(err))
	}

	s.escrow.Reconcile(ctx)
	return nil
}

func (s *Service) runTask(ctx context.Context, name string, task func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scheduled task panicked", zap.String("task", name), zap.Any("panic", r))
		}
	}()
	if err := task(ctx); err != nil {
		zap.L().Error("scheduled task failed", zap.String("task", name), zap.Error(err))
	}
}

func untilNextMidnightUTC(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}
