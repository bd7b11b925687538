package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"venueflow/pkg/domain"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 12 * time.Hour

const issuerName = "venueflow"

// ErrInvalidToken is returned for malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload carrying the principal.
type Claims struct {
	StaffNo string      `json:"staff_no"`
	Name    string      `json:"name"`
	Role    domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the principal encoded in the claims.
func (c Claims) Principal() domain.Principal {
	return domain.Principal{StaffNo: c.StaffNo, Name: c.Name, Role: c.Role}
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer for secret. A non-positive ttl uses DefaultTokenTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for p and returns it with its expiry.
func (i *Issuer) Issue(p domain.Principal) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		StaffNo: p.StaffNo,
		Name:    p.Name,
		Role:    p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.StaffNo,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies token and returns its principal.
func (i *Issuer) Parse(token string) (domain.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuerName), jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	p := claims.Principal()
	if p.StaffNo == "" || !p.Role.Valid() {
		return domain.Principal{}, ErrInvalidToken
	}
	return p, nil
}
