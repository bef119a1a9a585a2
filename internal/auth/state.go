package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// stateTTL はOAuth stateトークンの有効期間。
const stateTTL = 10 * time.Minute

// stateClaims はstateトークンに埋め込む連携要求者。
type stateClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// StateSigner はHS256で署名したstateトークンを発行・検証する。
type StateSigner struct {
	secret []byte
	now    func() time.Time
}

// NewStateSigner はStateSignerを生成する。
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret), now: time.Now}
}

// Issue はemailを埋め込んだstateトークンを発行する。
func (s *StateSigner) Issue(email string) (string, error) {
	now := s.now()
	claims := stateClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return token, nil
}

// Verify はstateトークンを検証し、埋め込まれたemailを返す。
func (s *StateSigner) Verify(state string) (string, error) {
	claims := &stateClaims{}
	_, err := jwt.ParseWithClaims(state, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid state: %w", err)
	}
	if claims.Email == "" {
		return "", errors.New("invalid state: missing email")
	}
	return claims.Email, nil
}
