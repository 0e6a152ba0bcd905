package loans

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
	loanservice "github.com/loanzzz/loanzzz/internal/service/loanservice"
	"github.com/loanzzz/loanzzz/internal/service/stakingservice"
	"github.com/loanzzz/loanzzz/pkg/utils"
)

type Service interface {
	Config() loanservice.Config
	CalculateMaxBorrow(ctx context.Context, collatType domain.Asset, collatAmount decimal.Decimal, borrowType domain.Asset) (decimal.Decimal, error)
	CalculateLTV(ctx context.Context, borrowType domain.Asset, principal, accrued decimal.Decimal, collatType domain.Asset, collatAmount decimal.Decimal) (decimal.Decimal, error)
	CreateLoan(ctx context.Context, userID int64, collatType domain.Asset, collatAmount decimal.Decimal, borrowType domain.Asset, borrowAmount decimal.Decimal) (*domain.Loan, error)
	RepayLoan(ctx context.Context, loanID, userID int64, amount decimal.Decimal) (*loanservice.RepayResult, error)
	AddCollateral(ctx context.Context, loanID, userID int64, amount decimal.Decimal) (*domain.Loan, error)
	GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error)
	ListUserLoans(ctx context.Context, userID int64) ([]domain.Loan, error)
}

type StakingStats interface {
	Stats(ctx context.Context) (*stakingservice.Stats, error)
}

type LoanHandler struct {
	loanService Service
	staking     StakingStats
}

func New(loanService Service, staking StakingStats) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		staking:     staking,
	}
}

// GetConfig godoc
//
//	@Summary		Get lending terms
//	@Description	LTV thresholds, interest rate, supported assets, and staking pool stats.
//	@Tags			Loans
//	@Produce		json
//	@Router			/api/loans/config [get]
func (h *LoanHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.loanService.Config()

	stats, err := h.staking.Stats(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.LoanConfigResponseDTO{
		InitialLTV:          cfg.InitialLTV.InexactFloat64(),
		MarginCallLTV:       cfg.MarginCallLTV.InexactFloat64(),
		LiquidationLTV:      cfg.LiquidationLTV.InexactFloat64(),
		HourlyInterestRate:  cfg.HourlyInterestRate.InexactFloat64(),
		SupportedCollateral: assetStrings(cfg.SupportedCollateral),
		SupportedBorrow:     assetStrings(cfg.SupportedBorrow),
		StakingStats:        stats,
	})
}

// Calculate returns the max borrow for a collateral position and, when a
// borrow amount is given, the implied LTV.
func (h *LoanHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanCalculateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collatType, borrowType := domain.Asset(req.CollateralType), domain.Asset(req.BorrowType)
	if !collatType.Valid() || !borrowType.Valid() {
		utils.RespondWithError(w, http.StatusBadRequest, "unsupported asset type")
		return
	}

	maxBorrow, err := h.loanService.CalculateMaxBorrow(r.Context(), collatType, decimal.NewFromFloat(req.CollateralAmount), borrowType)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := dto.LoanCalculateResponseDTO{MaxBorrow: maxBorrow.InexactFloat64()}
	if req.BorrowAmount > 0 {
		ltv, err := h.loanService.CalculateLTV(r.Context(), borrowType,
			decimal.NewFromFloat(req.BorrowAmount), decimal.Zero,
			collatType, decimal.NewFromFloat(req.CollateralAmount))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		v := ltv.InexactFloat64()
		resp.LTV = &v
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// CreateLoan godoc
//
//	@Summary	Open a collateralised loan
//	@Tags		Loans
//	@Router		/api/loans [post]
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	loan, err := h.loanService.CreateLoan(r.Context(), req.UserID,
		domain.Asset(req.CollateralType), decimal.NewFromFloat(req.CollateralAmount),
		domain.Asset(req.BorrowType), decimal.NewFromFloat(req.BorrowAmount))
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromLoan(loan))
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	loan, err := h.loanService.GetLoan(r.Context(), loanID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromLoan(loan))
}

func (h *LoanHandler) GetUserLoans(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	loans, err := h.loanService.ListUserLoans(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromLoans(loans))
}

// Repay godoc
//
//	@Summary	Repay a loan, interest first
//	@Tags		Loans
//	@Router		/api/loans/{id}/repay [post]
func (h *LoanHandler) Repay(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var req dto.RepayLoanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.loanService.RepayLoan(r.Context(), loanID, req.UserID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.RepayLoanResponseDTO{
		RemainingDebt: result.RemainingDebt.InexactFloat64(),
		FullyRepaid:   result.FullyRepaid,
	})
}

func (h *LoanHandler) AddCollateral(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var req dto.AddCollateralRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loan, err := h.loanService.AddCollateral(r.Context(), loanID, req.UserID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromLoan(loan))
}

func (h *LoanHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, loanservice.ErrLoanNotFound), errors.Is(err, loanservice.ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, loanservice.ErrUnauthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, loanservice.ErrLTVExceeded),
		errors.Is(err, loanservice.ErrInsufficientBalance),
		errors.Is(err, loanservice.ErrTerminalLoan),
		errors.Is(err, loanservice.ErrInvalidAmount):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func assetStrings(assets []domain.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = string(a)
	}
	return out
}
