package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/internal/dto"
	authservice "github.com/loanzzz/loanzzz/internal/service/authservice"
	"github.com/loanzzz/loanzzz/pkg/utils"
)

type Service interface {
	AuthenticateEcash(ctx context.Context, address, signature, message string) (*domain.User, string, error)
	AuthenticateSolana(ctx context.Context, address, signature, message string) (*domain.User, string, error)
	LinkWallet(ctx context.Context, userID int64, walletType, address string) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// AuthEcash godoc
//
//	@Summary		Authenticate with an eCash wallet
//	@Description	Upsert the user keyed by their eCash address and return a session token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Router			/api/auth/ecash [post]
func (h *AuthHandler) AuthEcash(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletAuthRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.AuthenticateEcash(r.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AuthResponseDTO{User: dto.FromUser(user), Token: token})
}

// AuthSolana godoc
//
//	@Summary	Authenticate with a Solana wallet
//	@Tags		Auth
//	@Router		/api/auth/solana [post]
func (h *AuthHandler) AuthSolana(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletAuthRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.AuthenticateSolana(r.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AuthResponseDTO{User: dto.FromUser(user), Token: token})
}

// LinkWallet attaches a second chain address to an existing user.
func (h *AuthHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkWalletRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.WalletType == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id and wallet_type are required")
		return
	}

	user, err := h.authService.LinkWallet(r.Context(), req.UserID, req.WalletType, req.Address)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromUser(user))
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromUser(user))
}

func (h *AuthHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authservice.ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, authservice.ErrMissingAddress),
		errors.Is(err, authservice.ErrUnknownWallet),
		errors.Is(err, authservice.ErrAddressInUse):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
