package authservice

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/internal/domain"
	"github.com/loanzzz/loanzzz/pkg/auth"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAddressInUse   = errors.New("address already linked to another user")
	ErrUnknownWallet  = errors.New("unknown wallet type")
	ErrMissingAddress = errors.New("address is required")
)

const sessionTTL = 24 * time.Hour

type UserRepo interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEcashAddress(ctx context.Context, address string) (*domain.User, error)
	FindBySolanaAddress(ctx context.Context, address string) (*domain.User, error)
	SetEcashAddress(ctx context.Context, userID int64, address string) error
	SetSolanaAddress(ctx context.Context, userID int64, address string) error
}

type Service struct {
	userRepo   UserRepo
	jwtService auth.JWTServiceInterface
}

func New(userRepo UserRepo, jwtService auth.JWTServiceInterface) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// AuthenticateEcash upserts the user keyed by their eCash address and issues
// a session token. The address is authoritative; a provided signature is not
// verified or stored, only noted in a debug log line.
func (s *Service) AuthenticateEcash(ctx context.Context, address, signature, message string) (*domain.User, string, error) {
	if address == "" {
		return nil, "", ErrMissingAddress
	}
	if signature != "" {
		zap.L().Debug("ecash auth carried a signature", zap.String("address", address), zap.Int("messageLen", len(message)))
	}

	user, err := s.userRepo.FindByEcashAddress(ctx, address)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		user, err = s.userRepo.Create(ctx, &domain.User{EcashAddress: address})
		if err != nil {
			return nil, "", err
		}
		zap.L().Info("new user registered via ecash wallet", zap.Int64("userID", user.ID))
	}

	token, err := s.token(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AuthenticateSolana upserts the user keyed by their Solana address.
func (s *Service) AuthenticateSolana(ctx context.Context, address, signature, message string) (*domain.User, string, error) {
	if address == "" {
		return nil, "", ErrMissingAddress
	}
	if signature != "" {
		zap.L().Debug("solana auth carried a signature", zap.String("address", address), zap.Int("messageLen", len(message)))
	}

	user, err := s.userRepo.FindBySolanaAddress(ctx, address)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		user, err = s.userRepo.Create(ctx, &domain.User{SolanaAddress: address})
		if err != nil {
			return nil, "", err
		}
		zap.L().Info("new user registered via solana wallet", zap.Int64("userID", user.ID))
	}

	token, err := s.token(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LinkWallet attaches a second chain address to an existing user. Addresses
// stay globally unique across users.
func (s *Service) LinkWallet(ctx context.Context, userID int64, walletType, address string) (*domain.User, error) {
	if address == "" {
		return nil, ErrMissingAddress
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	switch walletType {
	case "ecash", "xec":
		existing, err := s.userRepo.FindByEcashAddress(ctx, address)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, ErrAddressInUse
		}
		if err := s.userRepo.SetEcashAddress(ctx, userID, address); err != nil {
			return nil, err
		}
	case "solana":
		existing, err := s.userRepo.FindBySolanaAddress(ctx, address)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, ErrAddressInUse
		}
		if err := s.userRepo.SetSolanaAddress(ctx, userID, address); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownWallet
	}

	return s.userRepo.FindByID(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) token(userID int64) (string, error) {
	token, err := s.jwtService.GenerateJWT(userID, time.Now().Add(sessionTTL))
	if err != nil {
		zap.L().Error("can't generate token: ", zap.Error(err))
		return "", err
	}
	return token, nil
}
