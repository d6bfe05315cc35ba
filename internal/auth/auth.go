package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stackfast/config"
)

// ErrUnauthorized is returned when a request carries no valid session.
var ErrUnauthorized = errors.New("unauthorized")

// Claims is the payload of a StackFast session token. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// User is the authenticated caller.
type User struct {
	ID   string
	Name string
}

// Authenticator resolves the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (User, error)
}

// Verifier checks HS256 session tokens taken from the Authorization header
// or the session cookie.
type Verifier struct {
	secret     []byte
	issuer     string
	cookieName string
	ttl        time.Duration
	now        func() time.Time
}

// NewVerifier builds a verifier from the auth configuration.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	cookie := cfg.CookieName
	if cookie == "" {
		cookie = "session"
	}
	return &Verifier{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		cookieName: cookie,
		ttl:        cfg.TokenTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a token for userID.
func (v *Verifier) Issue(userID, name string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is empty")
	}
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   v.issuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Name: name,
	}
	if v.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(v.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims, nil
}

// Authenticate implements Authenticator. A bearer token wins over the cookie.
func (v *Verifier) Authenticate(r *http.Request) (User, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		if c, err := r.Cookie(v.cookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return User{}, fmt.Errorf("%w: no session token", ErrUnauthorized)
	}

	claims, err := v.Verify(raw)
	if err != nil {
		return User{}, err
	}
	return User{ID: claims.Subject, Name: claims.Name}, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type contextKey struct{}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}
