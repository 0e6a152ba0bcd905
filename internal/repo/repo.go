package repo

import (
	"github.com/loanzzz/loanzzz/internal/storage"

	escrowrepo "github.com/loanzzz/loanzzz/internal/repo/escrow-repo"
	loanrepo "github.com/loanzzz/loanzzz/internal/repo/loan-repo"
	pricerepo "github.com/loanzzz/loanzzz/internal/repo/price-repo"
	stakingrepo "github.com/loanzzz/loanzzz/internal/repo/staking-repo"
	transactionrepo "github.com/loanzzz/loanzzz/internal/repo/transaction-repo"
	userrepo "github.com/loanzzz/loanzzz/internal/repo/user-repo"
)

type Repositories struct {
	UserRepo        *userrepo.Repository
	LoanRepo        *loanrepo.Repository
	TransactionRepo *transactionrepo.Repository
	StakingRepo     *stakingrepo.Repository
	EscrowRepo      *escrowrepo.Repository
	PriceRepo       *pricerepo.Repository
}

func New(conn storage.Database, txManager storage.TXManager) *Repositories {
	return &Repositories{
		UserRepo:        userrepo.New(conn, txManager),
		LoanRepo:        loanrepo.New(conn, txManager),
		TransactionRepo: transactionrepo.New(conn),
		StakingRepo:     stakingrepo.New(conn),
		EscrowRepo:      escrowrepo.New(conn),
		PriceRepo:       pricerepo.New(conn),
	}
}
