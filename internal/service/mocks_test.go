package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/platform/ledger"
	"github.com/tixhive/auth-api/internal/session"
)

// ---------- users ----------

type mockUsersRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*domain.User
	createErr error
}

func newMockUsersRepo() *mockUsersRepo {
	return &mockUsersRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUsersRepo) add(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *mockUsersRepo) Create(_ context.Context, u *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUsersRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUsersRepo) findBy(pred func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUsersRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.findBy(func(u *domain.User) bool { return u.Username == username })
}

func (m *mockUsersRepo) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	return m.findBy(func(u *domain.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone })
}

func (m *mockUsersRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.findBy(func(u *domain.User) bool { return u.Email != nil && *u.Email == email })
}

func (m *mockUsersRepo) FindByName(_ context.Context, name string) (*domain.User, error) {
	return m.findBy(func(u *domain.User) bool { return u.Name != nil && *u.Name == name })
}

func (m *mockUsersRepo) FindByWalletID(_ context.Context, walletID string) (*domain.User, error) {
	return m.findBy(func(u *domain.User) bool { return u.WalletID == walletID })
}

func (m *mockUsersRepo) ExistsUsername(_ context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(context.Background(), username)
	return err == nil, nil
}

func (m *mockUsersRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	return nil
}

// ---------- sessions ----------

type mockSessionStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Session
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{rows: make(map[uuid.UUID]*domain.Session)}
}

func (m *mockSessionStore) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *mockSessionStore) Consume(_ context.Context, kind domain.SessionKind, id uuid.UUID, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.Kind != kind {
		return nil, domain.ErrSessionNotFound
	}
	return m.consumeLocked(s, code, bindUser)
}

func (m *mockSessionStore) ConsumeByCode(_ context.Context, kind domain.SessionKind, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.newestLocked(kind, code)
	if s == nil {
		return nil, domain.ErrSessionNotFound
	}
	return m.consumeLocked(s, code, bindUser)
}

func (m *mockSessionStore) consumeLocked(s *domain.Session, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	if s.IsUsed {
		return nil, domain.ErrSessionConsumed
	}
	if s.ExpiresAt != nil && !time.Now().Before(*s.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}
	if s.Code != code {
		return nil, domain.ErrCodeMismatch
	}
	s.IsUsed = true
	now := time.Now()
	s.UsedAt = &now
	if bindUser != nil {
		s.UserID = bindUser
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionStore) GetByCode(_ context.Context, kind domain.SessionKind, code string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.newestLocked(kind, code); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionStore) newestLocked(kind domain.SessionKind, code string) *domain.Session {
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

func testEngine(store session.Store) *session.Engine {
	return session.NewEngine(store, map[domain.SessionKind]session.Params{
		domain.KindSignup:      {Alphabet: session.AlphabetReadable, Length: 6},
		domain.KindRecovery:    {Alphabet: session.AlphabetReadable, Length: 6},
		domain.KindLogin:       {Alphabet: session.AlphabetNumeric, Length: 6, TTL: 5 * time.Minute},
		domain.KindReservation: {Alphabet: session.AlphabetNumeric, Length: 6},
	})
}

// ---------- ledger ----------

type mockLedger struct {
	availableIDs   map[string]bool
	accountKeys    map[string][]ledger.AccountKey
	balances       map[string]string
	signatureOK    bool
	createStatus   ledger.TxStatus
	createErr      error
	generated      *ledger.ImplicitAccount
	createdAccount string
	verifyCalls    int
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		availableIDs: make(map[string]bool),
		accountKeys:  make(map[string][]ledger.AccountKey),
		balances:     make(map[string]string),
		signatureOK:  true,
		createStatus: ledger.TxSuccess,
		generated: &ledger.ImplicitAccount{
			AccountID: "98793cd91a3f870fb126f66285808c7e094afcfc4eda8a970f6648cdf0dbd6de",
			PublicKey: "ed25519:mockpub",
			SecretKey: "ed25519:mocksecret",
		},
	}
}

func (m *mockLedger) CheckAvailableAccountID(_ context.Context, accountID string) (bool, error) {
	avail, ok := m.availableIDs[accountID]
	if !ok {
		return true, nil
	}
	return avail, nil
}

func (m *mockLedger) GenerateImplicitAccount(_ context.Context) (*ledger.ImplicitAccount, error) {
	return m.generated, nil
}

func (m *mockLedger) CreateAccount(_ context.Context, accountID, _, _ string) (*ledger.CreateAccountResult, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdAccount = accountID
	return &ledger.CreateAccountResult{Status: m.createStatus, TxHash: "mock-tx"}, nil
}

func (m *mockLedger) GetAccountKeys(_ context.Context, accountID string) ([]ledger.AccountKey, error) {
	return m.accountKeys[accountID], nil
}

func (m *mockLedger) GetAccountBalance(_ context.Context, accountID string) (string, error) {
	if b, ok := m.balances[accountID]; ok {
		return b, nil
	}
	return "0", nil
}

func (m *mockLedger) VerifySignature(_ context.Context, _, _, _ string) (bool, error) {
	m.verifyCalls++
	return m.signatureOK, nil
}

func (m *mockLedger) AESEncrypt(_ context.Context, _, data string) (string, error) {
	return "sealed:" + data, nil
}

// ---------- delivery and events ----------

type mockSMS struct {
	mu      sync.Mutex
	sent    []string
	lastTo  string
	sendErr error
}

func (m *mockSMS) Send(_ context.Context, phoneNumber, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = phoneNumber
	m.sent = append(m.sent, body)
	return nil
}

type mockMailer struct {
	lastEmail string
	lastCode  string
	sendErr   error
}

func (m *mockMailer) SendRecoveryCode(toEmail, _, code string) error {
	m.lastEmail = toEmail
	m.lastCode = code
	return m.sendErr
}

type mockBus struct {
	mu        sync.Mutex
	published map[string][]interface{}
}

func newMockBus() *mockBus {
	return &mockBus{published: make(map[string][]interface{})}
}

func (m *mockBus) Publish(_ context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[subject] = append(m.published[subject], data)
	return nil
}

func (m *mockBus) Close() error { return nil }
