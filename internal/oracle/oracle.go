package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/pkg/clients"
)

// coingeckoID is the CoinGecko identifier of the native coin. FIRMA is a
// USD peg and XECX shadows XEC, so only the native coin is fetched.
const coingeckoID = "ecash"

var defaultPrices = map[domain.Asset]decimal.Decimal{
	domain.AssetXEC:   decimal.RequireFromString("0.00003"),
	domain.AssetXECX:  decimal.RequireFromString("0.00003"),
	domain.AssetFIRMA: decimal.NewFromInt(1),
}

var firmaPrice = domain.PricePoint{
	Asset:    domain.AssetFIRMA,
	PriceUSD: decimal.NewFromInt(1),
	Source:   "pegged",
}

type PriceRepo interface {
	Get(ctx context.Context, asset domain.Asset) (*domain.PricePoint, error)
	Upsert(ctx context.Context, p *domain.PricePoint) error
	All(ctx context.Context) ([]domain.PricePoint, error)
}

type snapshot struct {
	xec       domain.PricePoint
	fetchedAt time.Time
}

type Service struct {
	repo    PriceRepo
	client  clients.HTTPClientI
	baseURL string
	ttl     time.Duration

	mu      sync.Mutex
	current atomic.Pointer[snapshot]

	now func() time.Time
}

func New(repo PriceRepo, client clients.HTTPClientI, baseURL string, ttl time.Duration) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		baseURL: baseURL,
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetPrice returns the USD price for the asset. FIRMA is the constant peg;
// XECX is priced as XEC. Stale snapshots trigger a feed fetch with durable
// cache and hard default fallbacks, so a price is always returned.
func (s *Service) GetPrice(ctx context.Context, asset domain.Asset) (decimal.Decimal, error) {
	if !asset.Valid() {
		return decimal.Zero, fmt.Errorf("unknown asset %q", asset)
	}
	if asset == domain.AssetFIRMA {
		return firmaPrice.PriceUSD, nil
	}

	snap := s.current.Load()
	if snap == nil || s.now().Sub(snap.fetchedAt) >= s.ttl {
		snap = s.refresh(ctx, false)
	}
	return snap.xec.PriceUSD, nil
}

func (s *Service) ToUSD(ctx context.Context, asset domain.Asset, amount decimal.Decimal) (decimal.Decimal, error) {
	price, err := s.GetPrice(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(price), nil
}

func (s *Service) FromUSD(ctx context.Context, asset domain.Asset, usd decimal.Decimal) (decimal.Decimal, error) {
	price, err := s.GetPrice(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsZero() {
		return decimal.Zero, nil
	}
	return usd.Div(price), nil
}

// AllPrices returns the snapshot used by tick broadcasts.
func (s *Service) AllPrices(ctx context.Context) map[domain.Asset]domain.PricePoint {
	snap := s.current.Load()
	if snap == nil || s.now().Sub(snap.fetchedAt) >= s.ttl {
		snap = s.refresh(ctx, false)
	}

	xecx := snap.xec
	xecx.Asset = domain.AssetXECX

	firma := firmaPrice
	firma.UpdatedAt = snap.xec.UpdatedAt

	return map[domain.Asset]domain.PricePoint{
		domain.AssetXEC:   snap.xec,
		domain.AssetXECX:  xecx,
		domain.AssetFIRMA: firma,
	}
}

// Refresh forces a feed fetch, ignoring the TTL. Used by the scheduler tick.
func (s *Service) Refresh(ctx context.Context) map[domain.Asset]domain.PricePoint {
	s.refresh(ctx, true)
	return s.AllPrices(ctx)
}

func (s *Service) refresh(ctx context.Context, force bool) *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if snap := s.current.Load(); !force && snap != nil && s.now().Sub(snap.fetchedAt) < s.ttl {
		return snap
	}

	point, err := s.fetchFeed()
	if err != nil {
		zap.L().Warn("price feed unavailable, falling back to durable cache", zap.Error(err))
		point = s.fallback(ctx)
	} else {
		s.persist(ctx, point)
	}

	snap := &snapshot{xec: *point, fetchedAt: s.now()}
	s.current.Store(snap)
	return snap
}

func (s *Service) fetchFeed() (*domain.PricePoint, error) {
	url := s.baseURL + "/simple/price?ids=" + coingeckoID + "&vs_currencies=usd"
	statusCode, body, _, err := s.client.Get(url, nil)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status %d", statusCode)
	}

	var payload map[string]map[string]json.Number
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("can't parse price feed response: %w", err)
	}

	raw, ok := payload[coingeckoID]["usd"]
	if !ok {
		return nil, errors.New("price feed response missing usd quote")
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return nil, fmt.Errorf("can't parse usd quote %q: %w", raw, err)
	}

	return &domain.PricePoint{
		Asset:     domain.AssetXEC,
		PriceUSD:  price,
		Source:    "coingecko",
		UpdatedAt: s.now().UTC(),
	}, nil
}

func (s *Service) persist(ctx context.Context, point *domain.PricePoint) {
	for _, asset := range []domain.Asset{domain.AssetXEC, domain.AssetXECX} {
		p := *point
		p.Asset = asset
		if err := s.repo.Upsert(ctx, &p); err != nil {
			zap.L().Error("can't persist fetched price", zap.Error(err))
		}
	}
}

func (s *Service) fallback(ctx context.Context) *domain.PricePoint {
	cached, err := s.repo.Get(ctx, domain.AssetXEC)
	if err == nil && cached != nil {
		return cached
	}
	return &domain.PricePoint{
		Asset:     domain.AssetXEC,
		PriceUSD:  defaultPrices[domain.AssetXEC],
		Source:    "default",
		UpdatedAt: s.now().UTC(),
	}
}
