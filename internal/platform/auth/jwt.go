package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
)

// Claims is the credential payload. The role travels as its lowercase string
// form and must round-trip through the closed Role enum on validation.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue mints a signed bearer credential for the subject. The codec is
// stateless; expiry is the only built-in invalidation.
func Issue(subjectID uuid.UUID, role domain.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenCreation, err)
	}
	return signed, nil
}

// Validate verifies signature and expiry before any claim is trusted, then
// parses the embedded subject and role.
func Validate(tokenString string, secret []byte) (uuid.UUID, domain.Role, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return uuid.Nil, 0, domain.ErrTokenInvalid
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return uuid.Nil, 0, domain.ErrTokenInvalid
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return uuid.Nil, 0, domain.ErrBadEncodedRole
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, 0, domain.ErrTokenInvalid
	}

	return subjectID, role, nil
}
