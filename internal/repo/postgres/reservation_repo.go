package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tixhive/auth-api/internal/domain"
)

type ReservationsRepo interface {
	CreateBatch(ctx context.Context, reservations []domain.Reservation) error
	FindByCode(ctx context.Context, code string) ([]domain.Reservation, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error)
	ExistsTicketReservation(ctx context.Context, eventID, ticketID uuid.UUID) (bool, error)
}

type ReservationsRepoImpl struct{ pool *pgxpool.Pool }

func NewReservationsRepo(pool *pgxpool.Pool) *ReservationsRepoImpl {
	return &ReservationsRepoImpl{pool: pool}
}

// CreateBatch inserts all rows in one transaction; a code either covers every
// requested reservation or none.
func (r *ReservationsRepoImpl) CreateBatch(ctx context.Context, reservations []domain.Reservation) error {
	const q = `
INSERT INTO reservations (id, code, event_id, ticket_id, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, res := range reservations {
		if _, err := tx.Exec(ctx, q, res.ID, res.Code, res.EventID, res.TicketID, res.UserID, res.CreatedAt); err != nil {
			return mapReservationConflict(err)
		}
	}
	return tx.Commit(ctx)
}

// mapReservationConflict turns a (event_id, ticket_id) uniqueness violation
// into the domain error; two racing requests for the same ticket must not
// surface as an internal failure.
func mapReservationConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "reservations_event_id_ticket_id_key" {
		return domain.ErrAlreadyReserved
	}
	return err
}

func (r *ReservationsRepoImpl) FindByCode(ctx context.Context, code string) ([]domain.Reservation, error) {
	const q = `
SELECT id, code, event_id, ticket_id, user_id, created_at
FROM reservations
WHERE code = $1
ORDER BY created_at`
	return r.query(ctx, q, code)
}

func (r *ReservationsRepoImpl) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
SELECT id, code, event_id, ticket_id, user_id, created_at
FROM reservations
WHERE user_id = $1
ORDER BY created_at`
	return r.query(ctx, q, userID)
}

func (r *ReservationsRepoImpl) ExistsTicketReservation(ctx context.Context, eventID, ticketID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM reservations WHERE event_id=$1 AND ticket_id=$2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var exists bool
	if err := r.pool.QueryRow(ctx, q, eventID, ticketID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReservationsRepoImpl) query(ctx context.Context, q string, arg any) ([]domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.Code, &res.EventID, &res.TicketID, &res.UserID, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
