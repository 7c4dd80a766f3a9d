package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/platform/auth"
	"github.com/tixhive/auth-api/internal/platform/ledger"
	"github.com/tixhive/auth-api/internal/platform/password"
	"github.com/tixhive/auth-api/internal/platform/wallet"
	"github.com/tixhive/auth-api/internal/repo/postgres"
	"github.com/tixhive/auth-api/internal/session"
	"github.com/tixhive/auth-api/pkg/events"
	"github.com/tixhive/auth-api/pkg/logger"

	"github.com/google/uuid"
)

// signinChallenge is the fixed message a wallet signs to prove key
// possession during signin. Wallets only ever sign this constant or a
// server-issued login code, never caller-supplied text.
var signinChallenge = base58.Encode([]byte("SECRET"))

type AuthServiceImpl struct {
	users  postgres.UsersRepo
	engine *session.Engine
	ledger ledger.Client
	bus    events.Publisher

	secret        []byte
	tokenTTL      time.Duration
	networkSuffix string
}

func NewAuthService(
	users postgres.UsersRepo,
	engine *session.Engine,
	ledgerClient ledger.Client,
	bus events.Publisher,
	secret []byte,
	tokenTTL time.Duration,
	networkSuffix string,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:         users,
		engine:        engine,
		ledger:        ledgerClient,
		bus:           bus,
		secret:        secret,
		tokenTTL:      tokenTTL,
		networkSuffix: networkSuffix,
	}
}

// CheckUsername reports availability: the name must be free locally and the
// derived named account must be free on the ledger.
func (s *AuthServiceImpl) CheckUsername(ctx context.Context, username string) (bool, error) {
	exists, err := s.users.ExistsUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return false, nil
	}

	available, err := s.ledger.CheckAvailableAccountID(ctx, s.namedAccountID(username))
	if err != nil {
		return false, err
	}
	return available, nil
}

// SigninWithWallet authenticates a seller by wallet signature, provisioning
// a local row on first contact. The submitted public key must be registered
// on the ledger account, and the signature must cover the fixed challenge.
func (s *AuthServiceImpl) SigninWithWallet(ctx context.Context, req *domain.SigninRequest) (*AuthResult, error) {
	if err := s.verifyWalletProof(ctx, req.WalletID, req.PubKey, signinChallenge, req.Signature); err != nil {
		return nil, err
	}

	u, err := s.users.FindByWalletID(ctx, req.WalletID)
	switch {
	case err == nil:
		// known wallet, nothing to provision
	case errors.Is(err, domain.ErrUserNotFound):
		u, err = s.provisionSeller(ctx, req)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("find by wallet: %w", err)
	}

	token, err := auth.Issue(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *AuthServiceImpl) provisionSeller(ctx context.Context, req *domain.SigninRequest) (*domain.User, error) {
	// Sellers bring their own named account; implicit accounts are reserved
	// for the buyer signup flow.
	if !wallet.IsNamedAccount(req.WalletID) {
		return nil, domain.ErrBadNamedAccount
	}

	if exists, err := s.users.ExistsUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if exists {
		return nil, domain.ErrUsernameTaken
	}
	if req.Email != nil {
		if _, err := s.users.FindByEmail(ctx, *req.Email); err == nil {
			return nil, domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}
	if req.PhoneNumber != nil {
		if _, err := s.users.FindByPhone(ctx, *req.PhoneNumber); err == nil {
			return nil, domain.ErrPhoneTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}
	if req.Name != nil {
		if _, err := s.users.FindByName(ctx, *req.Name); err == nil {
			return nil, domain.ErrNameTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	balance, err := s.ledger.GetAccountBalance(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	var passwordHash *string
	if req.Password != nil {
		h, err := password.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = &h
	}

	u := &domain.User{
		ID:            uuid.New(),
		Name:          req.Name,
		Username:      req.Username,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		Role:          domain.RoleSeller,
		WalletID:      req.WalletID,
		WalletBalance: balance,
		Status:        domain.StatusUnverified,
		CreatedAt:     time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Provisioned seller account", "wallet_id", u.WalletID)
	return u, nil
}

// SigninWithPassword authenticates by username and password. The resolved
// account must hold exactly the requested role.
func (s *AuthServiceImpl) SigninWithPassword(ctx context.Context, role domain.Role, req *domain.SigninPasswordRequest) (*AuthResult, error) {
	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrWrongCredentials
		}
		return nil, err
	}

	if err := domain.Authorize([]domain.Role{role}, u.Role); err != nil {
		return nil, err
	}
	if u.PasswordHash == nil {
		return nil, domain.ErrNoPassword
	}

	ok, err := password.Verify(*u.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, domain.ErrWrongCredentials
	}

	token, err := auth.Issue(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

// CreateLoginCode opens a passwordless login session and returns it; the
// code is displayed by the requesting device and signed by the phone.
func (s *AuthServiceImpl) CreateLoginCode(ctx context.Context) (*domain.Session, error) {
	return s.engine.Issue(ctx, domain.KindLogin, "", nil)
}

// VerifyLoginCode completes passwordless login: the phone submits the code
// it signed with a key registered for its wallet. On success the credential
// is also published on the code's channel for the waiting device.
func (s *AuthServiceImpl) VerifyLoginCode(ctx context.Context, req *domain.VerifyLoginCodeRequest) (*AuthResult, error) {
	// Liveness first, so a dead code fails before any ledger round-trips.
	if _, err := s.engine.Peek(ctx, domain.KindLogin, req.Code); err != nil {
		return nil, err
	}

	u, err := s.users.FindByWalletID(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	if err := s.verifyWalletProof(ctx, req.WalletID, req.PubKey, req.Code, req.Signature); err != nil {
		return nil, err
	}

	if _, err := s.engine.VerifyByCode(ctx, domain.KindLogin, req.Code, &u.ID); err != nil {
		return nil, err
	}

	token, err := auth.Issue(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.bus.Publish(ctx, events.LoginSubject(req.Code), events.LoggedInEvent{
		Event: events.LoggedIn,
		Token: token,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish login event", "error", err)
	}

	return &AuthResult{User: u, Token: token}, nil
}

// verifyWalletProof checks that pubKey is registered on the ledger account
// and that signature covers message under that key.
func (s *AuthServiceImpl) verifyWalletProof(ctx context.Context, walletID, pubKey, message, signature string) error {
	keys, err := s.ledger.GetAccountKeys(ctx, walletID)
	if err != nil {
		return err
	}
	registered := false
	for _, k := range keys {
		if k.PublicKey == pubKey {
			registered = true
			break
		}
	}
	if !registered {
		return domain.ErrWrongWalletKey
	}

	ok, err := s.ledger.VerifySignature(ctx, message, pubKey, signature)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrBadSignature
	}
	return nil
}

func (s *AuthServiceImpl) namedAccountID(username string) string {
	return username + "." + s.networkSuffix
}
