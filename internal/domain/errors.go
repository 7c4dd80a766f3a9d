package domain

import "errors"

// Auth failures.
var (
	ErrNoAuthHeader      = errors.New("authorization header is missing")
	ErrInvalidAuthHeader = errors.New("authorization header is not a bearer token")
	ErrTokenCreation     = errors.New("failed to create token")
	ErrTokenInvalid      = errors.New("token is invalid or expired")
	ErrBadEncodedRole    = errors.New("token carries an unknown role")
	ErrNoPermission      = errors.New("no permission for this resource")
	ErrWrongCredentials  = errors.New("wrong credentials")
	ErrNoPassword        = errors.New("account has no password set")
	ErrUnknownRole       = errors.New("unknown user role")
	ErrUnknownUserStatus = errors.New("unknown user status")
)

// Session failures. Verification checks session state before the submitted
// code: not-found beats mismatch, expired beats mismatch.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionConsumed    = errors.New("session already consumed")
	ErrSessionExpired     = errors.New("session expired")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrSessionNotVerified = errors.New("session is not verified")
)

// User / wallet failures.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username is not available")
	ErrEmailTaken           = errors.New("email is not available")
	ErrNameTaken            = errors.New("name is not available")
	ErrPhoneTaken           = errors.New("phone number is not available")
	ErrMissingWalletID      = errors.New("wallet id is required")
	ErrBadSignature         = errors.New("signature did not verify")
	ErrWrongWalletKey       = errors.New("public key is not registered for this wallet")
	ErrBadImplicitAccount   = errors.New("derived account id is not an implicit account")
	ErrBadNamedAccount      = errors.New("wallet id is not a named account")
	ErrWalletCreationFailed = errors.New("wallet creation failed")
)

// Reservation failures.
var (
	ErrNoReservationsForCode = errors.New("no reservations for code")
	ErrReservationWrongOwner = errors.New("reservations belong to another user")
	ErrReservationEventMix   = errors.New("reservations span multiple events")
	ErrAlreadyReserved       = errors.New("reservation already exists for user")
)
