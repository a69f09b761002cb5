package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kataras/jwt"
)

var (
	ErrMalformed = errors.New("token is malformed")
	ErrExpired   = errors.New("token has expired")
	ErrRevoked   = errors.New("token has been revoked")
)

// Revocations reports whether a token was invalidated before its natural
// expiry. Implementations key on Fingerprint(token).
type Revocations interface {
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
}

type Config struct {
	Secret    []byte
	Issuer    string
	TTL       time.Duration
	ClockSkew time.Duration
}

// Claims is the signed claim set. Timestamps have one second resolution.
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Codec struct {
	cfg         Config
	revocations Revocations
}

// NewCodec builds a codec. revocations may be nil when revocation is off.
func NewCodec(cfg Config, revocations Revocations) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Codec{cfg: cfg, revocations: revocations}, nil
}

func (c *Codec) RevocationEnabled() bool {
	return c.revocations != nil
}

// Issue signs {iss, sub, iat, exp} with exp = iat + ttl, iat being now
// truncated to the second.
func (c *Codec) Issue(subject string, now time.Time) (string, Claims, error) {
	if subject == "" {
		return "", Claims{}, errors.New("token subject is empty")
	}
	issuedAt := now.Unix()
	expiry := issuedAt + int64(c.cfg.TTL/time.Second)
	if expiry <= issuedAt {
		expiry = issuedAt + 1
	}
	signed, err := jwt.Sign(jwt.HS256, c.cfg.Secret, jwt.Claims{
		Issuer:   c.cfg.Issuer,
		Subject:  subject,
		IssuedAt: issuedAt,
		Expiry:   expiry,
	})
	if err != nil {
		return "", Claims{}, err
	}
	return string(signed), Claims{
		Subject:   subject,
		Issuer:    c.cfg.Issuer,
		IssuedAt:  time.Unix(issuedAt, 0),
		ExpiresAt: time.Unix(expiry, 0),
	}, nil
}

// Validate verifies the signature before looking at any claim, then checks
// issuer, expiry against now and finally the revocation list.
func (c *Codec) Validate(ctx context.Context, token string, now time.Time) (Claims, error) {
	if token == "" {
		return Claims{}, ErrMalformed
	}
	verified, err := jwt.Verify(jwt.HS256, c.cfg.Secret, []byte(token), clockValidator{now: now, skew: c.cfg.ClockSkew})
	if err != nil {
		if errors.Is(err, ErrExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	std := verified.StandardClaims
	if std.Subject == "" || std.Issuer != c.cfg.Issuer {
		return Claims{}, ErrMalformed
	}
	if c.revocations != nil {
		revoked, err := c.revocations.IsRevoked(ctx, Fingerprint(token))
		if err != nil {
			return Claims{}, fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return Claims{}, ErrRevoked
		}
	}
	return Claims{
		Subject:   std.Subject,
		Issuer:    std.Issuer,
		IssuedAt:  time.Unix(std.IssuedAt, 0),
		ExpiresAt: time.Unix(std.Expiry, 0),
	}, nil
}

// Fingerprint is the revocation key of a token: the hex SHA-256 of its string.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// clockValidator replaces the library's wall-clock claim checks with checks
// against the caller supplied time. It only runs after the signature and the
// payload have been verified.
type clockValidator struct {
	now  time.Time
	skew time.Duration
}

func (v clockValidator) ValidateToken(_ []byte, claims jwt.Claims, _ error) error {
	if claims.Expiry == 0 || claims.IssuedAt == 0 {
		return ErrMalformed
	}
	now := v.now.Unix()
	skew := int64(v.skew / time.Second)
	if claims.IssuedAt > now+skew {
		return ErrMalformed
	}
	if claims.NotBefore > 0 && claims.NotBefore > now+skew {
		return ErrMalformed
	}
	if now >= claims.Expiry+skew {
		return ErrExpired
	}
	return nil
}
