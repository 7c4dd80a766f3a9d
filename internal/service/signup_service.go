package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/platform/auth"
	"github.com/tixhive/auth-api/internal/platform/ledger"
	"github.com/tixhive/auth-api/internal/platform/mailer"
	"github.com/tixhive/auth-api/internal/platform/password"
	"github.com/tixhive/auth-api/internal/platform/sms"
	"github.com/tixhive/auth-api/internal/repo/postgres"
	"github.com/tixhive/auth-api/internal/session"
	"github.com/tixhive/auth-api/pkg/events"
	"github.com/tixhive/auth-api/pkg/logger"
)

type SignupServiceImpl struct {
	users  postgres.UsersRepo
	engine *session.Engine
	ledger ledger.Client
	sender sms.Sender
	mail   mailer.Service
	bus    events.Publisher

	secret        []byte
	tokenTTL      time.Duration
	networkSuffix string
	depositAmount string
}

func NewSignupService(
	users postgres.UsersRepo,
	engine *session.Engine,
	ledgerClient ledger.Client,
	sender sms.Sender,
	mail mailer.Service,
	bus events.Publisher,
	secret []byte,
	tokenTTL time.Duration,
	networkSuffix string,
	depositAmount string,
) *SignupServiceImpl {
	return &SignupServiceImpl{
		users:         users,
		engine:        engine,
		ledger:        ledgerClient,
		sender:        sender,
		mail:          mail,
		bus:           bus,
		secret:        secret,
		tokenTTL:      tokenTTL,
		networkSuffix: networkSuffix,
		depositAmount: depositAmount,
	}
}

// RegisterPhone opens a signup session for an unclaimed phone number. The
// code is delivered by SMS before the session row is written: a failed send
// leaves nothing behind.
func (s *SignupServiceImpl) RegisterPhone(ctx context.Context, req *domain.RegisterPhoneRequest) (*domain.Session, error) {
	if _, err := s.users.FindByPhone(ctx, req.PhoneNumber); err == nil {
		return nil, domain.ErrPhoneTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	sess, err := s.engine.Prepare(domain.KindSignup, req.PhoneNumber, nil)
	if err != nil {
		return nil, err
	}
	if err := s.sender.Send(ctx, req.PhoneNumber, "Your verification code: "+sess.Code); err != nil {
		return nil, fmt.Errorf("deliver signup code: %w", err)
	}
	if err := s.engine.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// VerifyPhone consumes the signup session; the returned session is the proof
// Signup later requires.
func (s *SignupServiceImpl) VerifyPhone(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.Session, error) {
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.engine.Verify(ctx, domain.KindSignup, id, req.Code, nil)
}

// Signup completes a buyer account on top of a verified phone session: it
// reserves the username, creates the named wallet on the ledger under a
// freshly generated key, seals the secret key under the caller's passphrase,
// and only then writes the local row. The local insert is the commit point;
// ledger effects before a failure are logged, never rolled back.
func (s *SignupServiceImpl) Signup(ctx context.Context, req *domain.SignupRequest) (*AuthResult, error) {
	if exists, err := s.users.ExistsUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if exists {
		return nil, domain.ErrUsernameTaken
	}
	walletID := req.Username + "." + s.networkSuffix
	available, err := s.ledger.CheckAvailableAccountID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.ErrUsernameTaken
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := s.engine.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Kind != domain.KindSignup || !sess.IsUsed {
		return nil, domain.ErrSessionNotVerified
	}
	if _, err := s.users.FindByPhone(ctx, sess.PhoneNumber); err == nil {
		return nil, domain.ErrPhoneTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// The key material comes from a generated implicit account, but the
	// wallet itself is created under the checked handle. Anything else would
	// leave username.suffix unclaimed.
	account, err := s.ledger.GenerateImplicitAccount(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.ledger.CreateAccount(ctx, walletID, account.PublicKey, s.depositAmount)
	if err != nil {
		return nil, err
	}
	if created.Status != ledger.TxSuccess {
		logger.ErrorContext(ctx, "Wallet creation rejected by ledger",
			"account_id", walletID,
			"tx_hash", created.TxHash,
		)
		return nil, domain.ErrWalletCreationFailed
	}

	cipher, err := s.ledger.AESEncrypt(ctx, req.Secret, account.SecretKey)
	if err != nil {
		logger.ErrorContext(ctx, "Secret sealing failed after wallet creation",
			"account_id", walletID,
		)
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

	phone := sess.PhoneNumber
	u := &domain.User{
		ID:                 uuid.New(),
		Name:               req.Name,
		Username:           req.Username,
		PhoneNumber:        &phone,
		Email:              req.Email,
		PasswordHash:       passwordHash,
		EncryptedSecretKey: &cipher,
		Role:               domain.RoleBuyer,
		WalletID:           walletID,
		WalletBalance:      s.depositAmount,
		Status:             domain.StatusPhoneVerified,
		CreatedAt:          time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		logger.ErrorContext(ctx, "User insert failed after wallet creation",
			"account_id", walletID,
		)
		return nil, err
	}

	token, err := auth.Issue(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.bus.Publish(ctx, events.AccountCreated, events.AccountEvent{AccountID: u.WalletID, At: now}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish account.created", "error", err)
	}
	if err := s.bus.Publish(ctx, events.AccountFunded, events.AccountEvent{AccountID: u.WalletID, At: now}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish account.funded", "error", err)
	}

	return &AuthResult{User: u, Token: token, WalletPublicKey: account.PublicKey}, nil
}

// CreateRecoveryCode opens a recovery session for an existing account. SMS
// delivery must succeed before the session is written; the email copy is
// best-effort.
func (s *SignupServiceImpl) CreateRecoveryCode(ctx context.Context, req *domain.RegisterPhoneRequest) (*domain.Session, error) {
	u, err := s.users.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	sess, err := s.engine.Prepare(domain.KindRecovery, req.PhoneNumber, &u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sender.Send(ctx, req.PhoneNumber, "Your recovery code: "+sess.Code); err != nil {
		return nil, fmt.Errorf("deliver recovery code: %w", err)
	}
	if u.Email != nil {
		name := u.Username
		if u.Name != nil {
			name = *u.Name
		}
		if err := s.mail.SendRecoveryCode(*u.Email, name, sess.Code); err != nil {
			logger.WarnContext(ctx, "Recovery email not sent", "error", err)
		}
	}
	if err := s.engine.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// VerifyRecoveryCode consumes the recovery session and signs the owner back
// in.
func (s *SignupServiceImpl) VerifyRecoveryCode(ctx context.Context, req *domain.VerifyCodeRequest) (*AuthResult, error) {
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := s.engine.Verify(ctx, domain.KindRecovery, id, req.Code, nil)
	if err != nil {
		return nil, err
	}
	if sess.UserID == nil {
		return nil, domain.ErrUserNotFound
	}

	u, err := s.users.FindByID(ctx, *sess.UserID)
	if err != nil {
		return nil, err
	}

	// Consuming a recovery code proves phone possession; lift an account
	// still marked unverified.
	if u.Status == domain.StatusUnverified {
		if err := s.users.UpdateStatus(ctx, u.ID, domain.StatusPhoneVerified); err != nil {
			return nil, err
		}
		u.Status = domain.StatusPhoneVerified
	}

	token, err := auth.Issue(u.ID, u.Role, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}
