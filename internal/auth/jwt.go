package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role required for the admin API.
const RoleAdmin = "admin"

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("jwt secret must not be empty")

// Claims defines the payload carried by tokens issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier checks HMAC signed access tokens minted by the external auth
// service. The directory API never issues tokens of its own.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier constructs a verifier for the shared secret. leeway tolerates
// clock drift between the issuer and this service.
func NewVerifier(secret string, leeway time.Duration) *Verifier {
	if leeway < 0 {
		leeway = 0
	}
	return &Verifier{secret: []byte(secret), leeway: leeway}
}

// ParseToken verifies the token signature, expiry and payload integrity.
func (v *Verifier) ParseToken(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrEmptySecret
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithLeeway(v.leeway))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
