package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/repo/postgres"
	"github.com/tixhive/auth-api/internal/session"
)

type ReservationServiceImpl struct {
	reservations postgres.ReservationsRepo
	engine       *session.Engine
}

func NewReservationService(reservations postgres.ReservationsRepo, engine *session.Engine) *ReservationServiceImpl {
	return &ReservationServiceImpl{reservations: reservations, engine: engine}
}

// CreateReservationCode mints one code covering every requested (event,
// ticket) pair for the caller. The rows are inserted as one batch; a
// half-written code never exists.
func (s *ReservationServiceImpl) CreateReservationCode(ctx context.Context, userID uuid.UUID, req *domain.ReservationCodeRequest) (string, []domain.Reservation, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return "", nil, fmt.Errorf("invalid event id")
	}

	rows := make([]domain.Reservation, 0, len(req.Reservations))
	now := time.Now()
	for _, nr := range req.Reservations {
		ticketID, err := uuid.Parse(nr.TicketID)
		if err != nil {
			return "", nil, fmt.Errorf("invalid ticket id")
		}
		taken, err := s.reservations.ExistsTicketReservation(ctx, eventID, ticketID)
		if err != nil {
			return "", nil, err
		}
		if taken {
			return "", nil, domain.ErrAlreadyReserved
		}
		rows = append(rows, domain.Reservation{
			ID:        uuid.New(),
			EventID:   eventID,
			TicketID:  ticketID,
			UserID:    userID,
			CreatedAt: now,
		})
	}

	sess, err := s.engine.Issue(ctx, domain.KindReservation, "", &userID)
	if err != nil {
		return "", nil, err
	}
	for i := range rows {
		rows[i].Code = sess.Code
	}
	if err := s.reservations.CreateBatch(ctx, rows); err != nil {
		return "", nil, err
	}
	return sess.Code, rows, nil
}

// ResolveReservationCode returns the reservations behind a code, but only to
// their owner and only when they all target one event.
func (s *ReservationServiceImpl) ResolveReservationCode(ctx context.Context, userID uuid.UUID, code string) ([]domain.Reservation, error) {
	rows, err := s.reservations.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoReservationsForCode
	}

	eventID := rows[0].EventID
	for _, r := range rows {
		if r.UserID != userID {
			return nil, domain.ErrReservationWrongOwner
		}
		if r.EventID != eventID {
			return nil, domain.ErrReservationEventMix
		}
	}
	return rows, nil
}
