package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
)

// Store persists verification sessions. Consume must be atomic: under
// concurrent verification of the same session exactly one caller wins and
// the rest see domain.ErrSessionConsumed.
type Store interface {
	Create(ctx context.Context, s *domain.Session) error
	// Consume marks the session used if the code matches and the session is
	// live. The session must be of the given kind; one flow can never burn
	// another flow's session. bindUser, when non-nil, is written to the
	// session row on success.
	Consume(ctx context.Context, kind domain.SessionKind, id uuid.UUID, code string, bindUser *uuid.UUID) (*domain.Session, error)
	// ConsumeByCode consumes the newest live session of the given kind
	// matching code.
	ConsumeByCode(ctx context.Context, kind domain.SessionKind, code string, bindUser *uuid.UUID) (*domain.Session, error)
	// GetByCode returns the newest session of the given kind matching code
	// without consuming it.
	GetByCode(ctx context.Context, kind domain.SessionKind, code string) (*domain.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
}

// Params controls code shape and lifetime for one session kind. A zero TTL
// means sessions of that kind never expire on their own; they die when
// consumed.
type Params struct {
	Alphabet string
	Length   int
	TTL      time.Duration
}

// Codes that go out over SMS avoid lookalike characters.
const (
	AlphabetReadable = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	AlphabetNumeric  = "0123456789"
)

// Engine issues and verifies one-time codes. One engine serves all kinds;
// per-kind parameters decide alphabet and expiry.
type Engine struct {
	store Store
	kinds map[domain.SessionKind]Params
	now   func() time.Time
}

func NewEngine(store Store, kinds map[domain.SessionKind]Params) *Engine {
	return &Engine{
		store: store,
		kinds: kinds,
		now:   time.Now,
	}
}

// Prepare builds a session with a fresh code without persisting it. Flows
// that deliver the code out-of-band (SMS, email) call Prepare, deliver, then
// Save; a failed delivery leaves no session the user cannot redeem.
func (e *Engine) Prepare(kind domain.SessionKind, phoneNumber string, userID *uuid.UUID) (*domain.Session, error) {
	p, ok := e.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("session: unknown kind %q", kind)
	}

	code, err := generateCode(p.Alphabet, p.Length)
	if err != nil {
		return nil, fmt.Errorf("session: generate code: %w", err)
	}

	s := &domain.Session{
		ID:          uuid.New(),
		Kind:        kind,
		Code:        code,
		PhoneNumber: phoneNumber,
		UserID:      userID,
		CreatedAt:   e.now(),
	}
	if p.TTL > 0 {
		exp := s.CreatedAt.Add(p.TTL)
		s.ExpiresAt = &exp
	}
	return s, nil
}

// Save persists a prepared session.
func (e *Engine) Save(ctx context.Context, s *domain.Session) error {
	if err := e.store.Create(ctx, s); err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	return nil
}

// Issue prepares and persists in one step, for flows that hand the code back
// synchronously.
func (e *Engine) Issue(ctx context.Context, kind domain.SessionKind, phoneNumber string, userID *uuid.UUID) (*domain.Session, error) {
	s, err := e.Prepare(kind, phoneNumber, userID)
	if err != nil {
		return nil, err
	}
	if err := e.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup returns a session by id regardless of state.
func (e *Engine) Lookup(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return e.store.GetByID(ctx, id)
}

// Verify consumes the session identified by id if it is of the expected kind
// and code matches. A kind mismatch reads as not found. Error precedence:
// unknown session, then already consumed, then expired, then code mismatch.
func (e *Engine) Verify(ctx context.Context, kind domain.SessionKind, id uuid.UUID, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	return e.store.Consume(ctx, kind, id, code, bindUser)
}

// VerifyByCode consumes the newest live session of kind matching code.
func (e *Engine) VerifyByCode(ctx context.Context, kind domain.SessionKind, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	return e.store.ConsumeByCode(ctx, kind, code, bindUser)
}

// Peek returns the newest session of kind matching code without consuming
// it, applying the same liveness checks as Verify.
func (e *Engine) Peek(ctx context.Context, kind domain.SessionKind, code string) (*domain.Session, error) {
	s, err := e.store.GetByCode(ctx, kind, code)
	if err != nil {
		return nil, err
	}
	if s.IsUsed {
		return nil, domain.ErrSessionConsumed
	}
	if s.ExpiresAt != nil && !e.now().Before(*s.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}
	return s, nil
}

func generateCode(alphabet string, length int) (string, error) {
	if alphabet == "" || length <= 0 {
		return "", fmt.Errorf("bad code parameters")
	}
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
