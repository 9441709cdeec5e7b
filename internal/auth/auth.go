// Package auth decides whether a request comes from the site administrator.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/multilingual-news-api/internal/config"
)

// AccessEmailHeader is set by the access proxy in front of the admin UI.
const AccessEmailHeader = "Cf-Access-Authenticated-User-Email"

const anonymous = "anonymous"

// Principal describes the caller of a request.
type Principal struct {
	Admin bool
	Actor string
}

// Anonymous is the principal of unauthenticated callers.
var Anonymous = Principal{Actor: anonymous}

// Claims carried by admin bearer tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves request principals.
type Authenticator struct {
	adminEmail string
	secret     []byte
	devMode    bool
}

// New creates an Authenticator from configuration.
func New(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		adminEmail: strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		secret:     []byte(cfg.JWTSecret),
		devMode:    cfg.DevMode,
	}
}

// Resolve returns the principal for r. Dev mode treats everyone as admin.
// Otherwise the access proxy header or a bearer token must name the
// configured admin. Failed checks yield Anonymous rather than an error.
func (a *Authenticator) Resolve(r *http.Request) Principal {
	if a.devMode {
		actor := a.adminEmail
		if actor == "" {
			actor = "dev"
		}
		return Principal{Admin: true, Actor: actor}
	}

	if email := strings.ToLower(strings.TrimSpace(r.Header.Get(AccessEmailHeader))); email != "" {
		if a.adminEmail != "" && email == a.adminEmail {
			return Principal{Admin: true, Actor: email}
		}
		return Anonymous
	}

	if token, ok := bearerToken(r); ok {
		claims, err := a.ParseToken(token)
		if err != nil {
			return Anonymous
		}
		email := strings.ToLower(claims.Email)
		if (a.adminEmail != "" && email == a.adminEmail) || claims.Role == "admin" {
			actor := email
			if actor == "" {
				actor = claims.Subject
			}
			return Principal{Admin: true, Actor: actor}
		}
	}

	return Anonymous
}

// IssueToken signs an admin token for email valid for ttl.
func (a *Authenticator) IssueToken(email string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func (a *Authenticator) ParseToken(token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[7:])
	return token, token != ""
}
