package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/pkg/logger"
)

// ErrorResponse is the JSON error envelope. Code is a stable machine string;
// Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "something went wrong", CodeInternalError)
}

// errorMapping pins each domain failure to a status and machine code.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
	{domain.ErrSessionConsumed, http.StatusConflict, "SESSION_CONSUMED"},
	{domain.ErrSessionExpired, http.StatusGone, "SESSION_EXPIRED"},
	{domain.ErrCodeMismatch, http.StatusUnauthorized, "CODE_MISMATCH"},
	{domain.ErrSessionNotVerified, http.StatusForbidden, "SESSION_NOT_VERIFIED"},

	{domain.ErrNoAuthHeader, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrInvalidAuthHeader, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "INVALID_TOKEN"},
	{domain.ErrBadEncodedRole, http.StatusUnauthorized, "INVALID_TOKEN"},
	{domain.ErrNoPermission, http.StatusForbidden, CodeForbidden},
	{domain.ErrWrongCredentials, http.StatusUnauthorized, "WRONG_CREDENTIALS"},
	{domain.ErrNoPassword, http.StatusUnauthorized, "WRONG_CREDENTIALS"},

	{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
	{domain.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{domain.ErrNameTaken, http.StatusConflict, "NAME_TAKEN"},
	{domain.ErrPhoneTaken, http.StatusConflict, "PHONE_TAKEN"},
	{domain.ErrMissingWalletID, http.StatusBadRequest, CodeInvalidInput},
	{domain.ErrBadSignature, http.StatusUnauthorized, "BAD_SIGNATURE"},
	{domain.ErrWrongWalletKey, http.StatusUnauthorized, "WRONG_WALLET_KEY"},
	{domain.ErrBadNamedAccount, http.StatusBadRequest, "BAD_ACCOUNT_ID"},
	{domain.ErrWalletCreationFailed, http.StatusBadGateway, "WALLET_CREATION_FAILED"},

	{domain.ErrNoReservationsForCode, http.StatusNotFound, "RESERVATION_NOT_FOUND"},
	{domain.ErrReservationWrongOwner, http.StatusForbidden, "RESERVATION_WRONG_OWNER"},
	{domain.ErrReservationEventMix, http.StatusConflict, "RESERVATION_EVENT_MIX"},
	{domain.ErrAlreadyReserved, http.StatusConflict, "ALREADY_RESERVED"},
}

// MapError translates a service failure into the envelope. Unrecognized
// errors are reported generically and logged by the caller.
func MapError(w http.ResponseWriter, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			WriteError(w, m.status, m.err.Error(), m.code)
			return
		}
	}
	logger.Error("Unhandled service error", "error", err)
	InternalError(w)
}
