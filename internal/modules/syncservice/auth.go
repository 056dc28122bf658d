package syncservice

import (
	"crypto/subtle"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// tokenType distinguishes an access token from a refresh token so one
// cannot be replayed as the other.
type tokenType string

const (
	tokenTypeAccess  tokenType = "access"
	tokenTypeRefresh tokenType = "refresh"
)

type claims struct {
	Type tokenType `json:"type"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates the service's JWTs and compares
// client-supplied password hashes.
type Authenticator struct {
	signingKey      []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewAuthenticator creates an Authenticator using signingKey to sign
// and verify tokens, with the default 15-minute/30-day token lifetimes.
func NewAuthenticator(signingKey []byte) *Authenticator {
	return &Authenticator{signingKey: signingKey, accessTokenTTL: accessTokenTTL, refreshTokenTTL: refreshTokenTTL}
}

// WithTTLs overrides the access and refresh token lifetimes, returning
// the same Authenticator for chaining.
func (a *Authenticator) WithTTLs(access, refresh time.Duration) *Authenticator {
	if access > 0 {
		a.accessTokenTTL = access
	}
	if refresh > 0 {
		a.refreshTokenTTL = refresh
	}
	return a
}

// ErrPasswordMismatch is returned by VerifyPassword when the supplied
// hash does not match the stored one.
var ErrPasswordMismatch = errors.New("syncservice: password mismatch")

// VerifyPassword compares a client-supplied SHA-256 hex digest against
// the stored one in constant time.
func (a *Authenticator) VerifyPassword(stored, supplied string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// TokenPair is the access/refresh pair returned on login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  int64
	RefreshExpiresAt int64
}

// IssueTokenPair mints a fresh access+refresh token pair for userID.
func (a *Authenticator) IssueTokenPair(userID string) (TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(a.accessTokenTTL)
	refreshExp := now.Add(a.refreshTokenTTL)

	access, err := a.sign(userID, tokenTypeAccess, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := a.sign(userID, tokenTypeRefresh, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp.Unix(),
		RefreshExpiresAt: refreshExp.Unix(),
	}, nil
}

func (a *Authenticator) sign(userID string, typ tokenType, expiresAt time.Time) (string, error) {
	c := claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(a.signingKey)
}

var (
	// ErrInvalidToken covers parse failure, bad signature, and expiry.
	ErrInvalidToken = errors.New("syncservice: invalid token")
	// ErrWrongTokenType is returned when an access token is presented
	// where a refresh token is required, or vice versa.
	ErrWrongTokenType = errors.New("syncservice: wrong token type")
)

// ParseToken validates tok and returns its subject (userID), enforcing
// that its type matches want.
func (a *Authenticator) ParseToken(tok string, want tokenType) (string, error) {
	parsed, err := jwt.ParseWithClaims(tok, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok {
		return "", ErrInvalidToken
	}
	if c.Type != want {
		return "", ErrWrongTokenType
	}
	return c.Subject, nil
}

// userIDPattern validates the non-email userId syntax: 3-50
// alphanumeric/underscore/hyphen characters (email addresses are
// accepted via a separate, permissive check).
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidUserID reports whether id is an email address or 3-50
// alphanumeric/underscore/hyphen characters.
func ValidUserID(id string) bool {
	return emailPattern.MatchString(id) || userIDPattern.MatchString(id)
}
