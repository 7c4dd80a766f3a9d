package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
)

// memStore mirrors the postgres store's consume semantics: state checks
// before code comparison, single atomic flip to used.
type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Session
	now  func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{rows: make(map[uuid.UUID]*domain.Session), now: now}
}

func (m *memStore) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memStore) Consume(_ context.Context, kind domain.SessionKind, id uuid.UUID, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.Kind != kind {
		return nil, domain.ErrSessionNotFound
	}
	return m.consumeLocked(s, code, bindUser)
}

func (m *memStore) ConsumeByCode(_ context.Context, kind domain.SessionKind, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.newestLocked(kind, code)
	if s == nil {
		return nil, domain.ErrSessionNotFound
	}
	return m.consumeLocked(s, code, bindUser)
}

func (m *memStore) consumeLocked(s *domain.Session, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	if s.IsUsed {
		return nil, domain.ErrSessionConsumed
	}
	if s.ExpiresAt != nil && !m.now().Before(*s.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}
	if s.Code != code {
		return nil, domain.ErrCodeMismatch
	}
	s.IsUsed = true
	at := m.now()
	s.UsedAt = &at
	if bindUser != nil {
		s.UserID = bindUser
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetByCode(_ context.Context, kind domain.SessionKind, code string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.newestLocked(kind, code); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memStore) newestLocked(kind domain.SessionKind, code string) *domain.Session {
	var newest *domain.Session
	for _, s := range m.rows {
		if s.Kind != kind || s.Code != code {
			continue
		}
		if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
			newest = s
		}
	}
	return newest
}

func testEngine(t *testing.T, now func() time.Time) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore(now)
	e := NewEngine(store, map[domain.SessionKind]Params{
		domain.KindSignup:   {Alphabet: AlphabetReadable, Length: 6},
		domain.KindRecovery: {Alphabet: AlphabetReadable, Length: 6},
		domain.KindLogin:    {Alphabet: AlphabetNumeric, Length: 6, TTL: 5 * time.Minute},
	})
	e.now = now
	return e, store
}

func TestIssueCodeShape(t *testing.T) {
	e, _ := testEngine(t, time.Now)

	s, err := e.Issue(context.Background(), domain.KindLogin, "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(s.Code) != 6 {
		t.Fatalf("code length = %d, want 6", len(s.Code))
	}
	for _, c := range s.Code {
		if !strings.ContainsRune(AlphabetNumeric, c) {
			t.Fatalf("code %q contains %q outside alphabet", s.Code, c)
		}
	}
	if s.ExpiresAt == nil {
		t.Fatal("login session should carry an expiry")
	}

	s2, err := e.Issue(context.Background(), domain.KindSignup, "+15551234567", nil)
	if err != nil {
		t.Fatalf("issue signup: %v", err)
	}
	if s2.ExpiresAt != nil {
		t.Fatal("signup session should not expire")
	}
}

func TestVerifySingleUse(t *testing.T) {
	e, _ := testEngine(t, time.Now)
	ctx := context.Background()

	s, err := e.Issue(ctx, domain.KindSignup, "+15551234567", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := e.Verify(ctx, domain.KindSignup, s.ID, s.Code, nil)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if !got.IsUsed {
		t.Fatal("session should be marked used")
	}

	if _, err := e.Verify(ctx, domain.KindSignup, s.ID, s.Code, nil); !errors.Is(err, domain.ErrSessionConsumed) {
		t.Fatalf("second verify = %v, want ErrSessionConsumed", err)
	}
}

func TestVerifyWrongCodeThenCorrect(t *testing.T) {
	e, store := testEngine(t, time.Now)
	ctx := context.Background()

	s, err := e.Issue(ctx, domain.KindRecovery, "+15551234567", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := e.Verify(ctx, domain.KindRecovery, s.ID, "WRONG1", nil); !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("wrong code = %v, want ErrCodeMismatch", err)
	}
	if store.rows[s.ID].IsUsed {
		t.Fatal("failed verify must not consume the session")
	}

	if _, err := e.Verify(ctx, domain.KindRecovery, s.ID, s.Code, nil); err != nil {
		t.Fatalf("correct code after mismatch: %v", err)
	}
}

func TestVerifyUnknownSession(t *testing.T) {
	e, _ := testEngine(t, time.Now)

	_, err := e.Verify(context.Background(), domain.KindSignup, uuid.New(), "123456", nil)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestVerifyKindScoped(t *testing.T) {
	e, store := testEngine(t, time.Now)
	ctx := context.Background()

	s, err := e.Issue(ctx, domain.KindRecovery, "+15551234567", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// The right id and code under the wrong kind must read as not found and
	// must not consume the session.
	if _, err := e.Verify(ctx, domain.KindSignup, s.ID, s.Code, nil); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("cross-kind verify = %v, want ErrSessionNotFound", err)
	}
	if store.rows[s.ID].IsUsed {
		t.Fatal("cross-kind verify consumed the session")
	}

	if _, err := e.Verify(ctx, domain.KindRecovery, s.ID, s.Code, nil); err != nil {
		t.Fatalf("verify under the right kind: %v", err)
	}
}

func TestVerifyLazyExpiry(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	now := func() time.Time { return clock }

	e, _ := testEngine(t, now)
	ctx := context.Background()

	s, err := e.Issue(ctx, domain.KindLogin, "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Just inside the window.
	clock = base.Add(299 * time.Second)
	if _, err := e.Peek(ctx, domain.KindLogin, s.Code); err != nil {
		t.Fatalf("peek at T+299s: %v", err)
	}

	clock = base.Add(301 * time.Second)
	if _, err := e.Verify(ctx, domain.KindLogin, s.ID, s.Code, nil); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("verify at T+301s = %v, want ErrSessionExpired", err)
	}
	// Even the correct code is rejected once expired.
	if _, err := e.Peek(ctx, domain.KindLogin, s.Code); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("peek at T+301s = %v, want ErrSessionExpired", err)
	}
}

func TestConcurrentVerifyExactlyOneWins(t *testing.T) {
	e, _ := testEngine(t, time.Now)
	ctx := context.Background()

	s, err := e.Issue(ctx, domain.KindSignup, "+15551234567", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Verify(ctx, domain.KindSignup, s.ID, s.Code, nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, consumed int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrSessionConsumed):
			consumed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if consumed != attempts-1 {
		t.Fatalf("consumed = %d, want %d", consumed, attempts-1)
	}
}

func TestVerifyByCodeBindsUser(t *testing.T) {
	e, _ := testEngine(t, time.Now)
	ctx := context.Background()

	s, err := e.Issue(ctx, domain.KindLogin, "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID := uuid.New()
	got, err := e.VerifyByCode(ctx, domain.KindLogin, s.Code, &userID)
	if err != nil {
		t.Fatalf("verify by code: %v", err)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Fatal("user id was not bound on consumption")
	}
}

func TestUnknownKind(t *testing.T) {
	e, _ := testEngine(t, time.Now)

	if _, err := e.Issue(context.Background(), domain.KindReservation, "", nil); err == nil {
		t.Fatal("expected error for unconfigured kind")
	}
}
