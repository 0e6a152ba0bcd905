package pricerepo

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/storage"
)

// Durable price cache behind the oracle's in-memory snapshot.
type Repository struct {
	db storage.Database
}

func New(db storage.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, asset domain.Asset) (*domain.PricePoint, error) {
	query := `SELECT asset, price_usd, source, updated_at FROM price_cache WHERE asset = ?`
	var p domain.PricePoint
	err := r.db.QueryRow(ctx, query, asset).Scan(&p.Asset, &p.PriceUSD, &p.Source, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't read cached price", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Upsert(ctx context.Context, p *domain.PricePoint) error {
	query := `
        INSERT INTO price_cache (asset, price_usd, source, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (asset) DO UPDATE SET price_usd = excluded.price_usd, source = excluded.source, updated_at = excluded.updated_at
    `
	_, err := r.db.Exec(ctx, query, p.Asset, p.PriceUSD, p.Source, p.UpdatedAt)
	if err != nil {
		zap.L().Error("can't cache price", zap.Error(err))
	}
	return err
}

func (r *Repository) All(ctx context.Context) ([]domain.PricePoint, error) {
	rows, err := r.db.Query(ctx, `SELECT asset, price_usd, source, updated_at FROM price_cache`)
	if err != nil {
		zap.L().Error("can't list cached prices", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Asset, &p.PriceUSD, &p.Source, &p.UpdatedAt); err != nil {
			zap.L().Error("can't scan price row", zap.Error(err))
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
