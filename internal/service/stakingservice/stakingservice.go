package stakingservice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

var hoursPerDay = decimal.NewFromInt(24)

type StakingRepo interface {
	Get(ctx context.Context) (*domain.StakingPool, error)
	Update(ctx context.Context, pool *domain.StakingPool) error
}

type LoanRepo interface {
	FindOpen(ctx context.Context) ([]domain.Loan, error)
	FindByUserID(ctx context.Context, userID int64) ([]domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
}

type UserRepo interface {
	AddStakingRewards(ctx context.Context, userID int64, amount decimal.Decimal) error
}

type TransactionRepo interface {
	Create(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
}

type Notifier interface {
	NotifyUser(userID int64, eventType string, data any)
}

type Service struct {
	stakingRepo StakingRepo
	loanRepo    LoanRepo
	userRepo    UserRepo
	txnRepo     TransactionRepo
	notifier    Notifier
	txManager   storage.TXManager

	dailyYieldRate decimal.Decimal

	now func() time.Time
}

func New(stakingRepo StakingRepo, loanRepo LoanRepo, userRepo UserRepo, txnRepo TransactionRepo,
	notifier Notifier, txManager storage.TXManager, dailyYieldRate decimal.Decimal) *Service {
	return &Service{
		stakingRepo:    stakingRepo,
		loanRepo:       loanRepo,
		userRepo:       userRepo,
		txnRepo:        txnRepo,
		notifier:       notifier,
		txManager:      txManager,
		dailyYieldRate: dailyYieldRate,
		now:            time.Now,
	}
}

// OnCollateralAdded grows the pool when XEC collateral is locked. Runs
// inside the caller's ledger transaction.
func (s *Service) OnCollateralAdded(ctx context.Context, amount decimal.Decimal) error {
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		pool, err := s.stakingRepo.Get(ctx)
		if err != nil {
			return err
		}
		pool.UserContributed = pool.UserContributed.Add(amount)
		pool.Total = pool.Total.Add(amount)
		return s.stakingRepo.Update(ctx, pool)
	})
}

// OnCollateralRemoved shrinks the pool when XEC collateral leaves (full
// repayment or liquidation), clamped so user_contributed stays non-negative
// and total never drops below the platform base.
func (s *Service) OnCollateralRemoved(ctx context.Context, amount decimal.Decimal) error {
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		pool, err := s.stakingRepo.Get(ctx)
		if err != nil {
			return err
		}
		pool.UserContributed = decimal.Max(decimal.Zero, pool.UserContributed.Sub(amount))
		pool.Total = decimal.Max(pool.PlatformBase, pool.Total.Sub(amount))
		return s.stakingRepo.Update(ctx, pool)
	})
}

type DistributionResult struct {
	Distributed decimal.Decimal
	Recipients  int
}

// DistributeDailyRewards pays the day's proportional yield to every open
// XEC-collateralised loan, at most once per UTC day, all inside one ledger
// transaction.
func (s *Service) DistributeDailyRewards(ctx context.Context) (*DistributionResult, error) {
	result := &DistributionResult{Distributed: decimal.Zero}
	perUser := make(map[int64]decimal.Decimal)

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		pool, err := s.stakingRepo.Get(ctx)
		if err != nil {
			return err
		}

		today := s.now().UTC().Truncate(24 * time.Hour)
		if pool.LastRewardDistribution != nil && !pool.LastRewardDistribution.UTC().Truncate(24*time.Hour).Before(today) {
			zap.L().Info("staking rewards already distributed today")
			return nil
		}

		loans, err := s.loanRepo.FindOpen(ctx)
		if err != nil {
			return err
		}

		var xecLoans []domain.Loan
		userCollateralSum := decimal.Zero
		for _, loan := range loans {
			if loan.CollateralType != domain.AssetXEC {
				continue
			}
			xecLoans = append(xecLoans, loan)
			userCollateralSum = userCollateralSum.Add(loan.CollateralAmount)
		}
		if userCollateralSum.IsZero() {
			return nil
		}

		dailyReward := pool.Total.Mul(s.dailyYieldRate)

		distributed := decimal.Zero
		for i := range xecLoans {
			loan := &xecLoans[i]
			reward := dailyReward.Mul(loan.CollateralAmount).Div(userCollateralSum)
			loan.StakingYieldEarned = loan.StakingYieldEarned.Add(reward)
			if err := s.loanRepo.Update(ctx, loan); err != nil {
				return err
			}
			perUser[loan.UserID] = perUser[loan.UserID].Add(reward)
			distributed = distributed.Add(reward)
		}

		for userID, reward := range perUser {
			if err := s.userRepo.AddStakingRewards(ctx, userID, reward); err != nil {
				return err
			}
			if _, err := s.txnRepo.Create(ctx, &domain.Transaction{
				UserID: userID,
				Type:   domain.TxStakingReward,
				Asset:  domain.AssetXEC,
				Amount: reward,
			}); err != nil {
				return err
			}
		}

		stamp := s.now().UTC()
		pool.LastRewardDistribution = &stamp
		pool.TotalRewardsDistributed = pool.TotalRewardsDistributed.Add(distributed)
		if err := s.stakingRepo.Update(ctx, pool); err != nil {
			return err
		}

		result.Distributed = distributed
		result.Recipients = len(perUser)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for userID, reward := range perUser {
		s.notifier.NotifyUser(userID, "staking:reward", map[string]any{
			"userId": userID,
			"amount": reward,
		})
	}

	if result.Recipients > 0 {
		zap.L().Info("staking rewards distributed",
			zap.String("total", result.Distributed.String()),
			zap.Int("recipients", result.Recipients))
	}
	return result, nil
}

// CalculateUserStakingShare returns the user's fraction of the pool held as
// open XEC collateral.
func (s *Service) CalculateUserStakingShare(ctx context.Context, userID int64) (decimal.Decimal, error) {
	pool, err := s.stakingRepo.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !pool.Total.IsPositive() {
		return decimal.Zero, nil
	}

	loans, err := s.loanRepo.FindByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, loan := range loans {
		if loan.Status.Terminal() || loan.CollateralType != domain.AssetXEC {
			continue
		}
		sum = sum.Add(loan.CollateralAmount)
	}
	return sum.Div(pool.Total), nil
}

// EffectiveInterestRate nets the staking yield off the borrowing cost, never
// below zero.
func (s *Service) EffectiveInterestRate(hourlyRate decimal.Decimal) decimal.Decimal {
	yieldPerHour := s.dailyYieldRate.Div(hoursPerDay)
	return decimal.Max(decimal.Zero, hourlyRate.Sub(yieldPerHour))
}

// Stats is the public snapshot of the pool used by config and stats
// endpoints.
type Stats struct {
	PlatformBase            decimal.Decimal `json:"platform_base"`
	UserContributed         decimal.Decimal `json:"user_contributed"`
	Total                   decimal.Decimal `json:"total"`
	TotalRewardsDistributed decimal.Decimal `json:"total_rewards_distributed"`
	DailyYieldRate          decimal.Decimal `json:"daily_yield_rate"`
	APYPercent              decimal.Decimal `json:"apy_percent"`
	LastRewardDistribution  *time.Time      `json:"last_reward_distribution"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	pool, err := s.stakingRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		PlatformBase:            pool.PlatformBase,
		UserContributed:         pool.UserContributed,
		Total:                   pool.Total,
		TotalRewardsDistributed: pool.TotalRewardsDistributed,
		DailyYieldRate:          s.dailyYieldRate,
		APYPercent:              s.dailyYieldRate.Mul(decimal.NewFromInt(365)).Mul(decimal.NewFromInt(100)),
		LastRewardDistribution:  pool.LastRewardDistribution,
	}, nil
}
