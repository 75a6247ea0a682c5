package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrUnauthorized = errors.New("unauthorized")

// DefaultOperator names the single operator configured by token hash alone.
const DefaultOperator = "operator"

// Authenticator verifies operator tokens and issues session JWTs. Accounts
// come from the database when one is configured, otherwise from a single
// bcrypt hash.
type Authenticator struct {
	db           *sqlx.DB
	fallbackHash string
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
	log          *zap.SugaredLogger
}

func NewAuthenticator(db *sqlx.DB, fallbackHash, secret string, ttl time.Duration, log *zap.SugaredLogger) *Authenticator {
	return &Authenticator{
		db:           db,
		fallbackHash: fallbackHash,
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
		log:          log,
	}
}

// Login checks name and token and returns a signed session token with its expiry.
func (a *Authenticator) Login(ctx context.Context, name, token string) (string, time.Time, error) {
	name = strings.TrimSpace(name)
	switch {
	case a.db != nil:
		if _, err := ValidateOperatorToken(ctx, a.db, name, token, a.log); err != nil {
			return "", time.Time{}, err
		}
	case a.fallbackHash != "":
		if name == "" {
			name = DefaultOperator
		}
		if name != DefaultOperator || !VerifyOperatorToken(a.fallbackHash, token) {
			return "", time.Time{}, ErrUnauthorized
		}
	default:
		a.log.Warn("[ADMIN] Operator login attempted but no operator accounts are configured")
		return "", time.Time{}, ErrUnauthorized
	}
	return a.Issue(name)
}

// Issue signs a session token for an already verified operator.
func (a *Authenticator) Issue(name string) (string, time.Time, error) {
	exp := a.now().Add(a.ttl)
	claims := jwt.MapClaims{"operator": name, "exp": exp.Unix(), "iat": a.now().Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates a session token and returns the operator name.
func (a *Authenticator) Parse(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}
	name, ok := claims["operator"].(string)
	if !ok || name == "" {
		return "", ErrUnauthorized
	}
	return name, nil
}
