package deposits

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/dto"
	walletservice "github.com/loanzzz/loanzzz/internal/service/walletservice"
	"github.com/loanzzz/loanzzz/pkg/utils"
)

const defaultListLimit = 50

type Service interface {
	DepositXEC(ctx context.Context, userID int64, amount decimal.Decimal, txHash string) (*domain.Transaction, error)
	DepositFirma(ctx context.Context, userID int64, amount decimal.Decimal, txHash string) (*domain.Transaction, error)
	DepositUSDTSolana(ctx context.Context, userID int64, amountUSD decimal.Decimal, signature string) (*domain.Transaction, error)
	WithdrawXEC(ctx context.Context, userID int64, amount decimal.Decimal, address string) (*domain.Transaction, error)
	WithdrawFirma(ctx context.Context, userID int64, amount decimal.Decimal, address string) (*domain.Transaction, error)
	Deposits(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
	DepositAddresses(ctx context.Context, userID int64) (*walletservice.DepositAddresses, error)
}

type DepositHandler struct {
	walletService Service
}

func New(walletService Service) *DepositHandler {
	return &DepositHandler{
		walletService: walletService,
	}
}

// DepositXEC godoc
//
//	@Summary	Credit a confirmed XEC deposit
//	@Tags		Deposits
//	@Router		/api/deposits/xec [post]
func (h *DepositHandler) DepositXEC(w http.ResponseWriter, r *http.Request) {
	h.deposit(w, r, func(ctx context.Context, req dto.DepositRequestDTO) (*domain.Transaction, error) {
		return h.walletService.DepositXEC(ctx, req.UserID, decimal.NewFromFloat(req.Amount), req.TxHash)
	})
}

func (h *DepositHandler) DepositFirma(w http.ResponseWriter, r *http.Request) {
	h.deposit(w, r, func(ctx context.Context, req dto.DepositRequestDTO) (*domain.Transaction, error) {
		return h.walletService.DepositFirma(ctx, req.UserID, decimal.NewFromFloat(req.Amount), req.TxHash)
	})
}

// DepositUSDTSolana bridges USDT on Solana into FIRMA at the 1:1 peg.
func (h *DepositHandler) DepositUSDTSolana(w http.ResponseWriter, r *http.Request) {
	h.deposit(w, r, func(ctx context.Context, req dto.DepositRequestDTO) (*domain.Transaction, error) {
		return h.walletService.DepositUSDTSolana(ctx, req.UserID, decimal.NewFromFloat(req.Amount), req.Signature)
	})
}

func (h *DepositHandler) deposit(w http.ResponseWriter, r *http.Request,
	run func(ctx context.Context, req dto.DepositRequestDTO) (*domain.Transaction, error)) {
	var req dto.DepositRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	txn, err := run(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromTransaction(txn))
}

func (h *DepositHandler) WithdrawXEC(w http.ResponseWriter, r *http.Request) {
	h.withdraw(w, r, h.walletService.WithdrawXEC)
}

func (h *DepositHandler) WithdrawFirma(w http.ResponseWriter, r *http.Request) {
	h.withdraw(w, r, h.walletService.WithdrawFirma)
}

func (h *DepositHandler) withdraw(w http.ResponseWriter, r *http.Request,
	run func(ctx context.Context, userID int64, amount decimal.Decimal, address string) (*domain.Transaction, error)) {
	var req dto.WithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	txn, err := run(r.Context(), req.UserID, decimal.NewFromFloat(req.Amount), req.Address)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromTransaction(txn))
}

func (h *DepositHandler) GetDeposits(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	txns, err := h.walletService.Deposits(r.Context(), userID, limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromTransactions(txns))
}

func (h *DepositHandler) GetDepositAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	addrs, err := h.walletService.DepositAddresses(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.DepositAddressResponseDTO{
		XEC:    addrs.XEC,
		Solana: addrs.Solana,
	})
}

func (h *DepositHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, walletservice.ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, walletservice.ErrInvalidAmount),
		errors.Is(err, walletservice.ErrInsufficientBalance):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
