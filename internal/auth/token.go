package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeAdmin   UserType = "admin"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the session payload. A student session carries StudentID, an
// admin session carries AdminID.
type Claims struct {
	UserType  UserType `json:"user_type"`
	StudentID uint     `json:"student_id,omitempty"`
	AdminID   uint     `json:"admin_id,omitempty"`
	jwt.RegisteredClaims
}

// NewToken signs a session token for the actor with HS256.
func NewToken(secret []byte, a Actor, ttl time.Duration) (string, error) {
	if err := a.validate(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		UserType:  a.Type,
		StudentID: a.StudentID,
		AdminID:   a.AdminID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies the signature and expiry and returns the session actor.
func ParseToken(secret []byte, raw string) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	a := Actor{Type: claims.UserType, StudentID: claims.StudentID, AdminID: claims.AdminID}
	if err := a.validate(); err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return a, nil
}
