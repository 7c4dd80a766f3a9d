package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
)

// AuthResult is what every successful authentication hands back. The wallet
// public key is populated only by signup, where it is shown exactly once.
type AuthResult struct {
	User            *domain.User
	Token           string
	WalletPublicKey string
}

type AuthService interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
	SigninWithWallet(ctx context.Context, req *domain.SigninRequest) (*AuthResult, error)
	SigninWithPassword(ctx context.Context, role domain.Role, req *domain.SigninPasswordRequest) (*AuthResult, error)
	CreateLoginCode(ctx context.Context) (*domain.Session, error)
	VerifyLoginCode(ctx context.Context, req *domain.VerifyLoginCodeRequest) (*AuthResult, error)
}

type SignupService interface {
	RegisterPhone(ctx context.Context, req *domain.RegisterPhoneRequest) (*domain.Session, error)
	VerifyPhone(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.Session, error)
	Signup(ctx context.Context, req *domain.SignupRequest) (*AuthResult, error)
	CreateRecoveryCode(ctx context.Context, req *domain.RegisterPhoneRequest) (*domain.Session, error)
	VerifyRecoveryCode(ctx context.Context, req *domain.VerifyCodeRequest) (*AuthResult, error)
}

type ReservationService interface {
	CreateReservationCode(ctx context.Context, userID uuid.UUID, req *domain.ReservationCodeRequest) (string, []domain.Reservation, error)
	ResolveReservationCode(ctx context.Context, userID uuid.UUID, code string) ([]domain.Reservation, error)
}
