package service

import (
	"strconv"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/pkg/cryptox"
	"github.com/fastplanner/planner/pkg/jwtx"
)

const (
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultResetTTL   = 30 * time.Minute

	tokenTypeBearer = "Bearer"
)

// TokenService issues and verifies credentials. It never touches the store:
// persisting refresh and reset fingerprints is the caller's job.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// NewTokenService builds a TokenService around an HS256 secret with the
// default lifetimes.
func NewTokenService(secret []byte, issuer string) (*TokenService, error) {
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewVerifierHS256(secret, issuer, 0)
	if err != nil {
		return nil, err
	}
	return &TokenService{
		Signer:     signer,
		Verifier:   verifier,
		Issuer:     issuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: DefaultRefreshTTL,
		ResetTTL:   DefaultResetTTL,
	}, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

func (s *TokenService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTTL
}

// IssueAccessToken signs a short-lived access token for u. Users carry no
// global role, so the role claim is always the least privileged one.
func (s *TokenService) IssueAccessToken(u domain.User) (string, error) {
	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(u.ID, 10),
		u.Email,
		u.Name,
		domain.RoleGuest.String(),
		s.accessTTL(),
		s.Issuer,
		s.now(),
	)
	return s.Signer.Sign(claims)
}

// VerifyAccessToken checks signature, algorithm, issuer and expiry. Every
// failure is reported as ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(token string) (domain.Identity, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UserID: id,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   domain.Role(claims.Role),
	}, nil
}

// GenerateRefreshTokenValue returns a fresh opaque refresh token.
func (s *TokenService) GenerateRefreshTokenValue() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize512)
}

// GenerateResetToken returns a single-use password reset token and its expiry.
func (s *TokenService) GenerateResetToken() (domain.ResetToken, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.ResetToken{}, err
	}
	return domain.ResetToken{Token: token, ExpiresAt: s.now().Add(s.resetTTL())}, nil
}

// pair assembles the client-facing response for an access/refresh couple.
func (s *TokenService) pair(access, refresh string) domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.accessTTL() / time.Second),
	}
}
