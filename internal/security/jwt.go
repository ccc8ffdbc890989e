package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired or not valid yet")
)

// Используется SigningMethodHS256
type JWTSigner struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWTSigner(secret []byte, issuer string, ttl, clockSkew time.Duration, now func() time.Time) *JWTSigner {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &JWTSigner{
		secret:    secret,
		issuer:    issuer,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       now,
	}
}

func (s *JWTSigner) TTL() time.Duration {
	return s.ttl
}

type AccessClaims struct {
	jwt.StandardClaims // включает поля Issuer, ExpiresAt, NotBefore, IssuedAt, Subject
}

// SignAccessToken выпускает JWT с sub=userID и exp=now+ttl
func (s *JWTSigner) SignAccessToken(userID string, now time.Time) (string, error) {
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			NotBefore: now.Add(-s.clockSkew).Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// ParseAndValidate возвращает sub (userID) валидного токена.
// Временные клеймы проверяем сами по s.now: библиотека сверяет их
// только с wall clock.
func (s *JWTSigner) ParseAndValidate(tokenStr string) (string, error) {
	claims := &AccessClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return "", ErrInvalidToken
	}

	now := s.now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-s.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(s.clockSkew) // даём люфт на «часы»
	if now.Before(nbf) || now.After(exp) {
		return "", ErrTokenExpired
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
