package service

import (
	"github.com/loanzzz/loanzzz/internal/config"
	"github.com/loanzzz/loanzzz/internal/notifier"
	"github.com/loanzzz/loanzzz/internal/oracle"
	"github.com/loanzzz/loanzzz/internal/repo"
	"github.com/loanzzz/loanzzz/internal/service/escrowservice"
	"github.com/loanzzz/loanzzz/internal/storage"
	pkgauth "github.com/loanzzz/loanzzz/pkg/auth"

	authservice "github.com/loanzzz/loanzzz/internal/service/authservice"
	loanservice "github.com/loanzzz/loanzzz/internal/service/loanservice"
	riskservice "github.com/loanzzz/loanzzz/internal/service/riskservice"
	stakingservice "github.com/loanzzz/loanzzz/internal/service/stakingservice"
	walletservice "github.com/loanzzz/loanzzz/internal/service/walletservice"
)

type Services struct {
	AuthService    *authservice.Service
	LoanService    *loanservice.Service
	RiskService    *riskservice.Service
	StakingService *stakingservice.Service
	WalletService  *walletservice.Service
	EscrowService  *escrowservice.Service
}

type Deps struct {
	Repo          *repo.Repositories
	Oracle        *oracle.Service
	Hub           *notifier.Hub
	TXManager     storage.TXManager
	JWT           pkgauth.JWTServiceInterface
	XECIndexer    escrowservice.XECIndexer
	SolanaIndexer escrowservice.SolanaIndexer
	Config        *config.Config
}

func New(d Deps) *Services {
	cfg := d.Config

	stakingService := stakingservice.New(d.Repo.StakingRepo, d.Repo.LoanRepo, d.Repo.UserRepo,
		d.Repo.TransactionRepo, d.Hub, d.TXManager, cfg.DailyYieldRateDec())

	loanService := loanservice.New(d.Repo.LoanRepo, d.Repo.UserRepo, d.Repo.TransactionRepo,
		d.Oracle, stakingService, d.Hub, d.TXManager, loanservice.Limits{
			InitialLTV:     cfg.InitialLTVDec(),
			MarginCallLTV:  cfg.MarginCallLTVDec(),
			LiquidationLTV: cfg.LiquidationLTVDec(),
			HourlyRate:     cfg.HourlyInterestRateDec(),
		})

	riskService := riskservice.New(d.Repo.LoanRepo, d.Repo.UserRepo, d.Repo.TransactionRepo,
		d.Oracle, stakingService, d.Hub, d.TXManager, riskservice.Limits{
			MarginCallLTV:  cfg.MarginCallLTVDec(),
			LiquidationLTV: cfg.LiquidationLTVDec(),
			LiquidationFee: cfg.LiquidationFeeDec(),
		})

	walletService := walletservice.New(d.Repo.UserRepo, d.Repo.TransactionRepo, d.Oracle, d.Hub,
		d.TXManager, walletservice.DepositAddresses{
			XEC:    cfg.EscrowXECAddress,
			Solana: cfg.EscrowSolanaAddress,
		})

	escrowService := escrowservice.New(d.Repo.EscrowRepo, d.Repo.TransactionRepo,
		d.XECIndexer, d.SolanaIndexer, d.Hub, escrowservice.Addresses{
			XEC:    cfg.EscrowXECAddress,
			Solana: cfg.EscrowSolanaAddress,
		})

	authService := authservice.New(d.Repo.UserRepo, d.JWT)

	return &Services{
		AuthService:    authService,
		LoanService:    loanService,
		RiskService:    riskService,
		StakingService: stakingService,
		WalletService:  walletService,
		EscrowService:  escrowService,
	}
}
