package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandlers "github.com/loanzzz/loanzzz/internal/handlers/auth"
	deposithandlers "github.com/loanzzz/loanzzz/internal/handlers/deposits"
	escrowhandlers "github.com/loanzzz/loanzzz/internal/handlers/escrow"
	loanhandlers "github.com/loanzzz/loanzzz/internal/handlers/loans"
	pricehandlers "github.com/loanzzz/loanzzz/internal/handlers/prices"
	wshandlers "github.com/loanzzz/loanzzz/internal/handlers/ws"
	"github.com/loanzzz/loanzzz/internal/notifier"
	"github.com/loanzzz/loanzzz/internal/oracle"
	"github.com/loanzzz/loanzzz/internal/service"
	"github.com/loanzzz/loanzzz/pkg/utils"
)

type AuthHandler interface {
	AuthEcash(w http.ResponseWriter, r *http.Request)
	AuthSolana(w http.ResponseWriter, r *http.Request)
	LinkWallet(w http.ResponseWriter, r *http.Request)
	GetUser(w http.ResponseWriter, r *http.Request)
}

type LoanHandler interface {
	GetConfig(w http.ResponseWriter, r *http.Request)
	Calculate(w http.ResponseWriter, r *http.Request)
	CreateLoan(w http.ResponseWriter, r *http.Request)
	GetLoan(w http.ResponseWriter, r *http.Request)
	GetUserLoans(w http.ResponseWriter, r *http.Request)
	Repay(w http.ResponseWriter, r *http.Request)
	AddCollateral(w http.ResponseWriter, r *http.Request)
}

type DepositHandler interface {
	DepositXEC(w http.ResponseWriter, r *http.Request)
	DepositFirma(w http.ResponseWriter, r *http.Request)
	DepositUSDTSolana(w http.ResponseWriter, r *http.Request)
	WithdrawXEC(w http.ResponseWriter, r *http.Request)
	WithdrawFirma(w http.ResponseWriter, r *http.Request)
	GetDeposits(w http.ResponseWriter, r *http.Request)
	GetDepositAddress(w http.ResponseWriter, r *http.Request)
}

type PriceHandler interface {
	GetPrices(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
}

type EscrowHandler interface {
	GetSummary(w http.ResponseWriter, r *http.Request)
	GetWallets(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	GetLiquidations(w http.ResponseWriter, r *http.Request)
}

type WSHandler interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler    AuthHandler
	LoanHandler    LoanHandler
	DepositHandler DepositHandler
	PriceHandler   PriceHandler
	EscrowHandler  EscrowHandler
	WSHandler      WSHandler
}

func New(s *service.Services, oracleService *oracle.Service, hub *notifier.Hub) *Handlers {
	return &Handlers{
		AuthHandler:    authhandlers.New(s.AuthService),
		LoanHandler:    loanhandlers.New(s.LoanService, s.StakingService),
		DepositHandler: deposithandlers.New(s.WalletService),
		PriceHandler:   pricehandlers.New(oracleService, s.LoanService, s.StakingService),
		EscrowHandler:  escrowhandlers.New(s.EscrowService),
		WSHandler:      wshandlers.New(hub),
	}
}

func (h *Handlers) InitRoutes(r chi.Router, frontendURL string) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{frontendURL},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", h.WSHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/ecash", h.AuthHandler.AuthEcash)
			r.Post("/solana", h.AuthHandler.AuthSolana)
			r.Post("/link", h.AuthHandler.LinkWallet)
			r.Get("/user/{id}", h.AuthHandler.GetUser)
		})

		r.Route("/deposits", func(r chi.Router) {
			r.Post("/xec", h.DepositHandler.DepositXEC)
			r.Post("/usdt-solana", h.DepositHandler.DepositUSDTSolana)
			r.Post("/firma", h.DepositHandler.DepositFirma)
			r.Get("/address/{user_id}", h.DepositHandler.GetDepositAddress)
			r.Get("/{user_id}", h.DepositHandler.GetDeposits)
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/xec", h.DepositHandler.WithdrawXEC)
			r.Post("/firma", h.DepositHandler.WithdrawFirma)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/config", h.LoanHandler.GetConfig)
			r.Post("/calculate", h.LoanHandler.Calculate)
			r.Post("/", h.LoanHandler.CreateLoan)
			r.Get("/user/{user_id}", h.LoanHandler.GetUserLoans)
			r.Get("/{id}", h.LoanHandler.GetLoan)
			r.Post("/{id}/repay", h.LoanHandler.Repay)
			r.Post("/{id}/add-collateral", h.LoanHandler.AddCollateral)
		})

		r.Get("/prices", h.PriceHandler.GetPrices)
		r.Get("/stats", h.PriceHandler.GetStats)

		r.Route("/escrow", func(r chi.Router) {
			r.Get("/summary", h.EscrowHandler.GetSummary)
			r.Get("/wallets", h.EscrowHandler.GetWallets)
			r.Get("/transactions", h.EscrowHandler.GetTransactions)
			r.Get("/liquidations", h.EscrowHandler.GetLiquidations)
		})
	})

	return r
}
