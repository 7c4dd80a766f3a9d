package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionKind discriminates the four one-time-code flows that share the
// sessions table and the verification engine.
type SessionKind string

const (
	KindSignup      SessionKind = "signup"
	KindRecovery    SessionKind = "recovery"
	KindLogin       SessionKind = "login"
	KindReservation SessionKind = "reservation"
)

// Session is one open (or consumed) verification-code session. A session is
// mutated exactly once, at successful verification; expired sessions are
// detected lazily at verification time, never swept.
type Session struct {
	ID          uuid.UUID   `json:"id"`
	Kind        SessionKind `json:"kind"`
	Code        string      `json:"-"`
	PhoneNumber string      `json:"phone_number,omitempty"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"`
	IsUsed      bool        `json:"is_used"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	UsedAt      *time.Time  `json:"used_at,omitempty"`
}

// Reservation is one (event, ticket, user) row minted under a shared
// reservation code. Event and ticket ids are opaque references here; their
// lifecycle is owned elsewhere.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	EventID   uuid.UUID `json:"event_id"`
	TicketID  uuid.UUID `json:"ticket_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
