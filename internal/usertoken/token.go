package usertoken

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer   = "solecart"
	defaultAudience = "solecart-api"
	defaultLeeway   = 30 * time.Second
	defaultTTL      = 24 * time.Hour

	minSecretLength = 16
)

var (
	ErrSecretTooShort = errors.New("token secret must be at least 16 bytes")
	ErrSubjectMissing = errors.New("token subject missing")
)

// Config configures access-token signing and verification.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
	TTL      time.Duration
}

func (c Config) normalized() (Config, error) {
	if len(c.Secret) < minSecretLength {
		return c, ErrSecretTooShort
	}
	c.Issuer = strings.TrimSpace(c.Issuer)
	if c.Issuer == "" {
		c.Issuer = defaultIssuer
	}
	c.Audience = strings.TrimSpace(c.Audience)
	if c.Audience == "" {
		c.Audience = defaultAudience
	}
	if c.Leeway <= 0 {
		c.Leeway = defaultLeeway
	}
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	return c, nil
}

// Signer issues HS256 access tokens whose subject is the account id.
type Signer struct {
	cfg Config
	now func() time.Time
}

func NewSigner(cfg Config) (*Signer, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	return &Signer{cfg: cfg, now: time.Now}, nil
}

// Sign returns a signed token for subject.
func (s *Signer) Sign(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrSubjectMissing
	}
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.cfg.Issuer,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

// Verifier validates access tokens and extracts the subject.
type Verifier struct {
	cfg Config
}

func NewVerifier(cfg Config) (*Verifier, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg}, nil
}

// VerifySubject validates the token and returns the account id it was issued for.
func (v *Verifier) VerifySubject(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
	)
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrSubjectMissing
	}
	return subject, nil
}
