package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/utils"
)

// User is the local identity record. The wallet secret key is stored only in
// encrypted form; the public key is never stored at all.
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Name               *string    `json:"name,omitempty"`
	Username           string     `json:"username"`
	PhoneNumber        *string    `json:"phone_number,omitempty"`
	Email              *string    `json:"email,omitempty"`
	PasswordHash       *string    `json:"-"`
	EncryptedSecretKey *string    `json:"-"`
	Role               Role       `json:"role"`
	WalletID           string     `json:"wallet_id"`
	WalletBalance      string     `json:"wallet_balance"`
	Status             UserStatus `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
}

var usernameRe = regexp.MustCompile(`^[a-z0-9_-]{2,32}$`)

// ---------- request payloads ----------

type CheckUsernameRequest struct {
	Username string `json:"username"`
}

func (r *CheckUsernameRequest) Validate() error {
	if !usernameRe.MatchString(r.Username) {
		return fmt.Errorf("invalid username")
	}
	return nil
}

// SigninRequest covers the seller wallet signin/signup flow. The wallet id is
// always required; pub key and signature are required when the wallet is
// already known.
type SigninRequest struct {
	Name        *string `json:"name,omitempty"`
	Username    string  `json:"username"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	WalletID    string  `json:"wallet_id"`
	PubKey      string  `json:"pub_key"`
	Signature   string  `json:"signature"`
}

func (r *SigninRequest) Normalize() {
	r.Username = utils.NormalizeString(r.Username)
	if r.Email != nil {
		e := utils.NormalizeEmail(*r.Email)
		r.Email = &e
	}
	if r.PhoneNumber != nil {
		p := utils.NormalizePhone(*r.PhoneNumber)
		r.PhoneNumber = &p
	}
}

func (r *SigninRequest) Validate() error {
	if !usernameRe.MatchString(r.Username) {
		return fmt.Errorf("invalid username")
	}
	if r.WalletID == "" {
		return ErrMissingWalletID
	}
	if r.Email != nil && !utils.IsValidEmail(*r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.PhoneNumber != nil && !utils.IsValidPhone(*r.PhoneNumber) {
		return fmt.Errorf("invalid phone format")
	}
	return nil
}

type SigninPasswordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *SigninPasswordRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

type RegisterPhoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (r *RegisterPhoneRequest) Normalize() {
	r.PhoneNumber = utils.NormalizePhone(r.PhoneNumber)
}

func (r *RegisterPhoneRequest) Validate() error {
	if !utils.IsValidPhone(r.PhoneNumber) {
		return fmt.Errorf("invalid phone format")
	}
	return nil
}

type VerifyCodeRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

func (r *VerifyCodeRequest) Validate() error {
	if _, err := uuid.Parse(r.SessionID); err != nil {
		return fmt.Errorf("invalid session id")
	}
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	return nil
}

// SignupRequest completes a phone-verified buyer signup; Secret is the
// passphrase-derived value the wallet secret key is sealed under.
type SignupRequest struct {
	SessionID string  `json:"session_id"`
	Name      *string `json:"name,omitempty"`
	Username  string  `json:"username"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Secret    string  `json:"secret"`
}

func (r *SignupRequest) Normalize() {
	r.Username = utils.NormalizeString(r.Username)
	if r.Email != nil {
		e := utils.NormalizeEmail(*r.Email)
		r.Email = &e
	}
}

func (r *SignupRequest) Validate() error {
	if _, err := uuid.Parse(r.SessionID); err != nil {
		return fmt.Errorf("invalid session id")
	}
	if !usernameRe.MatchString(r.Username) {
		return fmt.Errorf("invalid username")
	}
	if r.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	if r.Email != nil && !utils.IsValidEmail(*r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password != nil && len(*r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type VerifyLoginCodeRequest struct {
	Code      string `json:"code"`
	WalletID  string `json:"wallet_id"`
	PubKey    string `json:"pub_key"`
	Signature string `json:"signature"`
}

func (r *VerifyLoginCodeRequest) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	if r.WalletID == "" {
		return ErrMissingWalletID
	}
	if r.PubKey == "" {
		return fmt.Errorf("pub_key is required")
	}
	if r.Signature == "" {
		return fmt.Errorf("signature is required")
	}
	return nil
}

type NewReservation struct {
	TicketID string `json:"ticket_id"`
}

type ReservationCodeRequest struct {
	EventID      string           `json:"event_id"`
	Reservations []NewReservation `json:"reservations"`
}

func (r *ReservationCodeRequest) Validate() error {
	if _, err := uuid.Parse(r.EventID); err != nil {
		return fmt.Errorf("invalid event id")
	}
	if len(r.Reservations) == 0 {
		return fmt.Errorf("at least one reservation is required")
	}
	for _, res := range r.Reservations {
		if _, err := uuid.Parse(res.TicketID); err != nil {
			return fmt.Errorf("invalid ticket id")
		}
	}
	return nil
}

type ResolveReservationRequest struct {
	Code string `json:"code"`
}

func (r *ResolveReservationRequest) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	return nil
}

// UserInfo is the public projection of a User.
type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	WalletID    string    `json:"wallet_id"`
	Status      string    `json:"status"`
}

func (u *User) ToUserInfo() *UserInfo {
	info := &UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role.String(),
		WalletID: u.WalletID,
		Status:   u.Status.String(),
	}
	if u.Name != nil {
		info.Name = *u.Name
	}
	if u.PhoneNumber != nil {
		info.PhoneNumber = *u.PhoneNumber
	}
	if u.Email != nil {
		info.Email = *u.Email
	}
	return info
}
