package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Link purposes
const (
	PurposeUnsubscribe = "digest_unsubscribe"
)

var ErrInvalidLink = errors.New("invalid or expired link")

// LinkClaims identify the user and action a signed email link is for
type LinkClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// LinkSigner issues and verifies HS256 tokens embedded in email links
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner creates a signer whose tokens live for ttl
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token binding userID to purpose
func (s *LinkSigner) Sign(userID int64, purpose string) (string, error) {
	now := s.now()
	claims := LinkClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign link: %w", err)
	}
	return token, nil
}

// Verify checks a token's signature, expiry and purpose and returns its user ID
func (s *LinkSigner) Verify(token, purpose string) (int64, error) {
	claims := &LinkClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if claims.Purpose != purpose {
		return 0, ErrInvalidLink
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidLink
	}
	return userID, nil
}
