package stakingrepo

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

// The staking pool is a singleton row; the schema bootstrap inserts it.
type Repository struct {
	db storage.Database
}

func New(db storage.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context) (*domain.StakingPool, error) {
	query := `
        SELECT platform_base, user_contributed, total, last_reward_distribution, total_rewards_distributed
        FROM staking_pool
        WHERE id = 1
    `
	var pool domain.StakingPool
	var lastDistribution sql.NullTime
	err := r.db.QueryRow(ctx, query).Scan(&pool.PlatformBase, &pool.UserContributed, &pool.Total,
		&lastDistribution, &pool.TotalRewardsDistributed)
	if err != nil {
		zap.L().Error("can't read staking pool", zap.Error(err))
		return nil, err
	}
	if lastDistribution.Valid {
		pool.LastRewardDistribution = &lastDistribution.Time
	}
	return &pool, nil
}

func (r *Repository) Update(ctx context.Context, pool *domain.StakingPool) error {
	query := `
        UPDATE staking_pool
        SET user_contributed = ?, total = ?, last_reward_distribution = ?, total_rewards_distributed = ?
        WHERE id = 1
    `
	var lastDistribution any
	if pool.LastRewardDistribution != nil {
		lastDistribution = *pool.LastRewardDistribution
	}
	_, err := r.db.Exec(ctx, query, pool.UserContributed, pool.Total, lastDistribution, pool.TotalRewardsDistributed)
	if err != nil {
		zap.L().Error("can't update staking pool", zap.Error(err))
	}
	return err
}
