package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/config"
	"github.com/loanzzz/loanzzz/internal/handlers"
	"github.com/loanzzz/loanzzz/internal/indexer"
	"github.com/loanzzz/loanzzz/internal/notifier"
	"github.com/loanzzz/loanzzz/internal/oracle"
	"github.com/loanzzz/loanzzz/internal/repo"
	"github.com/loanzzz/loanzzz/internal/scheduler"
	"github.com/loanzzz/loanzzz/internal/service"
	"github.com/loanzzz/loanzzz/internal/storage"
	pkgauth "github.com/loanzzz/loanzzz/pkg/auth"
	"github.com/loanzzz/loanzzz/pkg/clients"
	"github.com/loanzzz/loanzzz/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg   *config.Config
	db    *sql.DB
	api   *handlers.Handlers
	srv   *service.Services
	repo  *repo.Repositories
	hub   *notifier.Hub
	ticks *scheduler.Service

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		zap.L().Error("open ledger database failed: ", zap.Error(err))
		return fmt.Errorf("can't open ledger database: %w", err)
	}
	if err := storage.RunMigrations(db); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}

	txManager := storage.NewTXManager(db)
	conn := storage.New(db)

	jwtService := pkgauth.NewJWTService(cfg.JWTSecret)
	httpClient := clients.NewHTTPClient()

	a.cfg = cfg
	a.db = db
	a.repo = repo.New(conn, txManager)
	a.hub = notifier.NewHub(jwtService)

	oracleService := oracle.New(a.repo.PriceRepo, httpClient, cfg.CoinGeckoURL, cfg.PriceTTL)

	a.srv = service.New(service.Deps{
		Repo:          a.repo,
		Oracle:        oracleService,
		Hub:           a.hub,
		TXManager:     txManager,
		JWT:           jwtService,
		XECIndexer:    indexer.NewChronikClient(httpClient, cfg.ChronikURL),
		SolanaIndexer: indexer.NewSolanaClient(httpClient, cfg.SolanaRPCURL),
		Config:        cfg,
	})
	a.api = handlers.New(a.srv, oracleService, a.hub)
	a.ticks = scheduler.New(oracleService, a.srv.LoanService, a.srv.RiskService,
		a.srv.StakingService, a.srv.EscrowService, a.hub)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.ticks.Start(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router, a.cfg.FrontendURL)
	server := http.Server{
		Addr:    a.cfg.Address(),
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address()))
		if err := server.ListenAndServe(); err != nil {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			zap.L().Warn("can't close ledger database", zap.Error(err))
		}
	}

	return appErr
}
