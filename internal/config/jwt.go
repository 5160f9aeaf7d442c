package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT signs the tokens that tie a game session to the client that created
// it.
type JWT struct {
	secret        []byte
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func loadSecret() ([]byte, error) {
	secret, ok := os.LookupEnv("SESSION_SECRET")
	if ok {
		return []byte(secret), nil
	}
	secretFile, ok := os.LookupEnv("SESSION_SECRET_FILE")
	if !ok {
		// sessions live in memory, so a per-process secret is enough
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("unable to generate session secret: %w", err)
		}
		return b, nil
	}
	data, err := os.ReadFile(secretFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read session secret file: %w", err)
	}
	return []byte(strings.TrimSpace(string(data))), nil
}

func NewJWT() (*JWT, error) {
	secret, err := loadSecret()
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is empty")
	}
	lifetime, err := lookupDuration("SESSION_TOKEN_LIFETIME", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	return NewJWTWithSecret(secret, lifetime), nil
}

func NewJWTWithSecret(secret []byte, lifetime time.Duration) *JWT {
	return &JWT{
		secret:        secret,
		signingMethod: jwt.SigningMethodHS256,
		tokenLifetime: lifetime,
	}
}

func (j *JWT) Sign(sessionID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenLifetime)),
		},
	}
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.secret)
}

func (j *JWT) Parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("malformed claims")
	}
	return claims, nil
}

func (j *JWT) Lifetime() time.Duration {
	return j.tokenLifetime
}
