package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tixhive/auth-api/internal/domain"
)

const sessionColumns = `id, kind, code, phone_number, user_id, used_at IS NOT NULL, created_at, expires_at, used_at`

// Consume queries and their failure-classification counterparts. The UPDATE
// predicates carry every liveness check; the classify queries re-read the row
// so the caller learns which check lost.
const (
	consumeByIDQuery = `
UPDATE sessions
SET used_at = now(), user_id = COALESCE($4, user_id)
WHERE id = $1
  AND kind = $2
  AND code = $3
  AND used_at IS NULL
  AND (expires_at IS NULL OR expires_at > now())
RETURNING ` + sessionColumns

	consumeByCodeQuery = `
UPDATE sessions
SET used_at = now(), user_id = COALESCE($3, user_id)
WHERE id = (
    SELECT id FROM sessions
    WHERE kind = $1
      AND code = $2
      AND used_at IS NULL
      AND (expires_at IS NULL OR expires_at > now())
    ORDER BY created_at DESC
    LIMIT 1
)
RETURNING ` + sessionColumns

	classifyByIDQuery = `
SELECT code, used_at, expires_at FROM sessions WHERE id = $1 AND kind = $2`

	classifyByCodeQuery = `
SELECT code, used_at, expires_at FROM sessions
WHERE kind = $1 AND code = $2
ORDER BY created_at DESC
LIMIT 1`
)

// SessionsRepoImpl satisfies session.Store. Consumption is a single UPDATE
// whose predicate carries all liveness checks, so concurrent verifiers race
// on the row and exactly one wins.
type SessionsRepoImpl struct{ pool *pgxpool.Pool }

func NewSessionsRepo(pool *pgxpool.Pool) *SessionsRepoImpl { return &SessionsRepoImpl{pool: pool} }

func (r *SessionsRepoImpl) Create(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO sessions (id, kind, code, phone_number, user_id, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, s.ID, string(s.Kind), s.Code, s.PhoneNumber, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

func (r *SessionsRepoImpl) Consume(ctx context.Context, kind domain.SessionKind, id uuid.UUID, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := r.scanSession(r.pool.QueryRow(ctx, consumeByIDQuery, id, string(kind), code, bindUser))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return nil, r.classify(ctx, classifyByIDQuery, id, string(kind))
}

func (r *SessionsRepoImpl) ConsumeByCode(ctx context.Context, kind domain.SessionKind, code string, bindUser *uuid.UUID) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := r.scanSession(r.pool.QueryRow(ctx, consumeByCodeQuery, string(kind), code, bindUser))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return nil, r.classify(ctx, classifyByCodeQuery, string(kind), code)
}

func (r *SessionsRepoImpl) GetByCode(ctx context.Context, kind domain.SessionKind, code string) (*domain.Session, error) {
	const q = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE kind = $1 AND code = $2
ORDER BY created_at DESC
LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := r.scanSession(r.pool.QueryRow(ctx, q, string(kind), code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SessionsRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := r.scanSession(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// classify explains a failed consume. Precedence: missing row, then already
// used, then expired, then wrong code. Both classify queries bind exactly two
// parameters; the fixed arity keeps call sites honest.
func (r *SessionsRepoImpl) classify(ctx context.Context, q string, a, b any) error {
	var (
		stored  string
		usedAt  *time.Time
		expires *time.Time
	)
	err := r.pool.QueryRow(ctx, q, a, b).Scan(&stored, &usedAt, &expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSessionNotFound
		}
		return err
	}
	switch {
	case usedAt != nil:
		return domain.ErrSessionConsumed
	case expires != nil && !expires.After(time.Now()):
		return domain.ErrSessionExpired
	default:
		return domain.ErrCodeMismatch
	}
}

func (r *SessionsRepoImpl) scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s    domain.Session
		kind string
	)
	if err := row.Scan(&s.ID, &kind, &s.Code, &s.PhoneNumber, &s.UserID, &s.IsUsed, &s.CreatedAt, &s.ExpiresAt, &s.UsedAt); err != nil {
		return nil, err
	}
	s.Kind = domain.SessionKind(kind)
	return &s, nil
}
