package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ashasetu/ashasetu-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and foreign issuers.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned only for tokens whose signature checks out.
	ErrTokenExpired = errors.New("token expired")
)

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

// Issuer mints and authenticates bearer tokens carrying an account id.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    Clock
}

// NewIssuer validates the JWT configuration. A nil clock falls back to time.Now.
func NewIssuer(cfg config.JWTConfig, clock Clock) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL(),
		now:    clock,
	}, nil
}

// TTL reports the lifetime given to new tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for accountID that expires after the configured TTL.
func (i *Issuer) Issue(accountID uuid.UUID) (string, error) {
	if accountID == uuid.Nil {
		return "", fmt.Errorf("account id is required")
	}
	now := i.now().UTC()

	claims := AccessTokenClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// Authenticate verifies the signature first, then expiry, and returns the account id.
// Segments must be canonical base64url, so unused trailing bits cannot vary.
func (i *Issuer) Authenticate(tokenString string) (uuid.UUID, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		// jwt/v5 only runs claim validation once the signature has verified.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AccountID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing account id", ErrInvalidToken)
	}
	return claims.AccountID, nil
}
