package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"escrowchain/crypto"
)

const authClockSkew = 2 * time.Minute

// authenticate resolves the caller from a bearer JWT whose subject is the
// caller's bech32 account.
func (s *Server) authenticate(r *http.Request) ([20]byte, error) {
	var zero [20]byte
	if len(s.secret) == 0 {
		return zero, errors.New("auth secret not configured")
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return zero, errors.New("missing bearer token")
	}
	opts := []jwt.ParserOption{
		jwt.WithLeeway(authClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer := strings.TrimSpace(s.cfg.AuthIssuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return zero, err
	}
	if !token.Valid {
		return zero, errors.New("token invalid")
	}
	account, err := crypto.ParseAccount(strings.TrimSpace(claims.Subject))
	if err != nil {
		return zero, fmt.Errorf("subject: %w", err)
	}
	return account, nil
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// IssueToken signs an HS256 token naming account as the caller.
func IssueToken(secret []byte, issuer string, account [20]byte, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("rpc: secret required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := jwt.RegisteredClaims{
		Subject:   crypto.FormatAccount(account),
		Issuer:    strings.TrimSpace(issuer),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
