package escrow

import (
	"context"
	"net/http"
	"strconv"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/dto"
	"github.com/loanzzz/loanzzz/internal/service/escrowservice"
	"github.com/loanzzz/loanzzz/pkg/utils"
)

const defaultListLimit = 50

type Service interface {
	Summary(ctx context.Context) (*escrowservice.Summary, error)
	Wallets(ctx context.Context) ([]domain.EscrowWallet, error)
	Transactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	Liquidations(ctx context.Context, limit int) ([]domain.Transaction, error)
}

type EscrowHandler struct {
	escrowService Service
}

func New(escrowService Service) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
	}
}

// GetSummary godoc
//
//	@Summary	Observed escrow balances per asset
//	@Tags		Escrow
//	@Produce	json
//	@Router		/api/escrow/summary [get]
func (h *EscrowHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.escrowService.Summary(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *EscrowHandler) GetWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.escrowService.Wallets(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	type walletDTO struct {
		Chain     string  `json:"chain"`
		Address   string  `json:"address"`
		Asset     string  `json:"asset"`
		Balance   float64 `json:"balance"`
		UpdatedAt string  `json:"updated_at"`
	}
	resp := make([]walletDTO, len(wallets))
	for i, wallet := range wallets {
		resp[i] = walletDTO{
			Chain:     wallet.Chain,
			Address:   wallet.Address,
			Asset:     string(wallet.Asset),
			Balance:   wallet.Balance.InexactFloat64(),
			UpdatedAt: wallet.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *EscrowHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.escrowService.Transactions(r.Context(), listLimit(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromTransactions(txns))
}

func (h *EscrowHandler) GetLiquidations(w http.ResponseWriter, r *http.Request) {
	txns, err := h.escrowService.Liquidations(r.Context(), listLimit(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromTransactions(txns))
}

func listLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultListLimit
}
