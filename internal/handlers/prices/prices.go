package prices

import (
	"context"
	"net/http"
	"time"

	"github.com/loanzzz/loanzzz/internal/domain"
	loanservice "github.com/loanzzz/loanzzz/internal/service/loanservice"
	"github.com/loanzzz/loanzzz/internal/service/stakingservice"
	"github.com/loanzzz/loanzzz/pkg/utils"
)

type Oracle interface {
	AllPrices(ctx context.Context) map[domain.Asset]domain.PricePoint
}

type LoanStats interface {
	Stats(ctx context.Context) (*loanservice.Stats, error)
}

type StakingStats interface {
	Stats(ctx context.Context) (*stakingservice.Stats, error)
}

type PriceHandler struct {
	oracle    Oracle
	loanStats LoanStats
	staking   StakingStats
}

func New(oracle Oracle, loanStats LoanStats, staking StakingStats) *PriceHandler {
	return &PriceHandler{
		oracle:    oracle,
		loanStats: loanStats,
		staking:   staking,
	}
}

type pricePointDTO struct {
	PriceUSD  float64   `json:"price_usd"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetPrices godoc
//
//	@Summary	Current USD prices for all tracked assets
//	@Tags		Prices
//	@Produce	json
//	@Router		/api/prices [get]
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	points := h.oracle.AllPrices(r.Context())

	resp := make(map[string]pricePointDTO, len(points))
	for asset, point := range points {
		resp[string(asset)] = pricePointDTO{
			PriceUSD:  point.PriceUSD.InexactFloat64(),
			Source:    point.Source,
			UpdatedAt: point.UpdatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *PriceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	loanStats, err := h.loanStats.Stats(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	stakingStats, err := h.staking.Stats(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"loans":   loanStats,
		"staking": stakingStats,
	})
}
