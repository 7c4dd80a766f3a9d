package domain

import "fmt"

// Role is the closed set of user roles. Values are stable because they are
// persisted as smallints.
type Role int16

const (
	RoleAdmin      Role = 0
	RoleSeller     Role = 1
	RoleBuyer      Role = 2
	RoleSuperAdmin Role = 4
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSeller:
		return "seller"
	case RoleBuyer:
		return "buyer"
	case RoleSuperAdmin:
		return "superadmin"
	default:
		return fmt.Sprintf("role(%d)", int16(r))
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBuyer, RoleSuperAdmin:
		return true
	}
	return false
}

// ParseRole maps a lowercase role name to a Role. Unknown names are a hard
// error, never coerced.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "seller":
		return RoleSeller, nil
	case "buyer":
		return RoleBuyer, nil
	case "superadmin":
		return RoleSuperAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// RoleFromInt16 maps a persisted smallint to a Role.
func RoleFromInt16(n int16) (Role, error) {
	r := Role(n)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRole, n)
	}
	return r, nil
}

// Authorize performs an exact membership test of got against required.
// There is no role hierarchy: a superadmin does not pass an admin-only gate
// unless superadmin is explicitly listed.
func Authorize(required []Role, got Role) error {
	for _, r := range required {
		if r == got {
			return nil
		}
	}
	return ErrNoPermission
}

// UserStatus is the closed set of account verification states.
type UserStatus int16

const (
	StatusUnverified    UserStatus = 0
	StatusPhoneVerified UserStatus = 1
)

func (s UserStatus) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusPhoneVerified:
		return "phone_verified"
	default:
		return fmt.Sprintf("status(%d)", int16(s))
	}
}

func (s UserStatus) Valid() bool {
	return s == StatusUnverified || s == StatusPhoneVerified
}

func ParseUserStatus(s string) (UserStatus, error) {
	switch s {
	case "unverified":
		return StatusUnverified, nil
	case "phone_verified":
		return StatusPhoneVerified, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUserStatus, s)
	}
}

func UserStatusFromInt16(n int16) (UserStatus, error) {
	s := UserStatus(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownUserStatus, n)
	}
	return s, nil
}
