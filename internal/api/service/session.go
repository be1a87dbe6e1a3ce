package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/cryptox"
	"github.com/fastplanner/planner/pkg/idx"
	"github.com/fastplanner/planner/pkg/notify"
	"github.com/fastplanner/planner/pkg/slogx"
)

// RecoverMessage is returned by RecoverPassword whether or not the address
// belongs to an account.
const RecoverMessage = "If that email is registered, a password reset link has been sent."

// ResetMessage is returned by a successful ResetPassword.
const ResetMessage = "Password has been reset."

type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	ProfilePicture *string
	UserAgent      string
}

// SessionService owns the session lifecycle. A session exists exactly as
// long as its refresh token row exists and is unexpired.
type SessionService struct {
	Store    store.Store
	Tokens   *TokenService
	Notifier notify.Notifier

	// ResetURL is the page that receives ?token= from reset emails.
	ResetURL string

	// SendTimeout bounds one background reset email.
	SendTimeout time.Duration

	wg sync.WaitGroup
}

func (s *SessionService) now() time.Time { return s.Tokens.now() }

// Register creates the account and its first session in one transaction.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return domain.Session{}, ErrValidation
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.Session{}, internal("hash password", err)
	}

	now := s.now()
	u := domain.User{
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: in.ProfilePicture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var refresh string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return internal("lookup user", err)
		}

		id, err := tx.Users().CreateUser(ctx, u)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return internal("create user", err)
		}
		u.ID = id

		refresh, err = s.createRefreshToken(ctx, tx, u.ID, in.UserAgent)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			log.Info("registration rejected: email taken")
		}
		return domain.Session{}, err
	}

	access, err := s.Tokens.IssueAccessToken(u)
	if err != nil {
		return domain.Session{}, internal("sign access token", err)
	}

	log.Info("user registered", slog.Int64("user_id", u.ID))
	return domain.Session{TokenPair: s.Tokens.pair(access, refresh), User: u.Public()}, nil
}

// Login opens an additional session. Unknown email and wrong password are
// indistinguishable to the caller, including in time spent hashing.
func (s *SessionService) Login(ctx context.Context, email, password, userAgent string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnVerify(password)
			log.Info("login failed", slog.String("reason", "unknown_email"))
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, internal("lookup user", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		log.Info("login failed", slog.String("reason", "bad_password"), slog.Int64("user_id", u.ID))
		return domain.Session{}, ErrInvalidCredentials
	}

	refresh, err := s.createRefreshToken(ctx, s.Store, u.ID, userAgent)
	if err != nil {
		return domain.Session{}, err
	}

	access, err := s.Tokens.IssueAccessToken(u)
	if err != nil {
		return domain.Session{}, internal("sign access token", err)
	}

	log.Info("user logged in", slog.Int64("user_id", u.ID))
	return domain.Session{TokenPair: s.Tokens.pair(access, refresh), User: u.Public()}, nil
}

// Refresh redeems a refresh token for a new pair. The old token is deleted
// in the same transaction that inserts its replacement; of two concurrent
// calls with the same token at most one succeeds.
func (s *SessionService) Refresh(ctx context.Context, refreshToken, userAgent string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	if refreshToken == "" {
		return domain.TokenPair{}, ErrRefreshNotFound
	}
	fp := cryptox.FingerprintToken(refreshToken)
	now := s.now()

	var (
		u       domain.User
		next    string
		expired bool
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRefreshNotFound
			}
			return internal("lookup refresh token", err)
		}

		if rt.Expired(now) {
			// Commit the cleanup, report the expiry after.
			expired = true
			if err := tx.RefreshTokens().DeleteRefreshToken(ctx, fp); err != nil && !errors.Is(err, store.ErrNotFound) {
				return internal("delete expired refresh token", err)
			}
			return nil
		}

		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRefreshNotFound
			}
			return internal("consume refresh token", err)
		}

		u, err = tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			return internal("load user", err)
		}

		ua := userAgent
		if ua == "" {
			ua = rt.UserAgent
		}
		next, err = s.createRefreshToken(ctx, tx, u.ID, ua)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			log.Info("refresh rejected", slog.String("reason", "not_found"))
		}
		return domain.TokenPair{}, err
	}
	if expired {
		log.Info("refresh rejected", slog.String("reason", "expired"))
		return domain.TokenPair{}, ErrRefreshExpired
	}

	access, err := s.Tokens.IssueAccessToken(u)
	if err != nil {
		return domain.TokenPair{}, internal("sign access token", err)
	}

	log.Debug("refresh token rotated", slog.Int64("user_id", u.ID))
	return s.Tokens.pair(access, next), nil
}

// Logout ends one session. It never fails: a missing token is already
// logged out and store failures are only logged.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Error("logout: delete refresh token", slog.Any("error", err))
	}
}

// Profile returns the public view of a user.
func (s *SessionService) Profile(ctx context.Context, userID int64) (domain.PublicUser, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PublicUser{}, ErrInvalidToken
		}
		return domain.PublicUser{}, internal("load user", err)
	}
	return u.Public(), nil
}

// RecoverPassword stores a reset token for a known address and mails it in
// the background. The result is the same for known and unknown addresses.
func (s *SessionService) RecoverPassword(ctx context.Context, email string) (string, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("password recovery for unknown email")
			return RecoverMessage, nil
		}
		return "", internal("lookup user", err)
	}

	rt, err := s.Tokens.GenerateResetToken()
	if err != nil {
		return "", internal("generate reset token", err)
	}
	if err := s.Store.Users().SetResetToken(ctx, u.ID, cryptox.FingerprintToken(rt.Token), rt.ExpiresAt); err != nil {
		return "", internal("store reset token", err)
	}

	msg := notify.Message{
		To:      u.Email,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Use this link to reset your password: %s\nIt expires at %s.", s.resetLink(rt.Token), rt.ExpiresAt.Format(time.RFC1123)),
	}
	s.dispatch(log.With(slog.Int64("user_id", u.ID)), msg)

	log.Info("password reset requested", slog.Int64("user_id", u.ID))
	return RecoverMessage, nil
}

// ResetPassword consumes a reset token. The new hash, the cleared token and
// the deletion of every session of the user commit together.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	log := slogx.FromContext(ctx)

	if token == "" || newPassword == "" {
		return "", ErrValidation
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return "", internal("hash password", err)
	}

	var (
		userID  int64
		revoked int64
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByResetToken(ctx, cryptox.FingerprintToken(token), s.now())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return internal("lookup reset token", err)
		}
		userID = u.ID

		if err := tx.Users().ResetPassword(ctx, u.ID, hash); err != nil {
			return internal("reset password", err)
		}
		revoked, err = tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID)
		if err != nil {
			return internal("revoke sessions", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			log.Info("password reset rejected")
		}
		return "", err
	}

	log.Info("password reset", slog.Int64("user_id", userID), slog.Int64("sessions_revoked", revoked))
	return ResetMessage, nil
}

// Wait blocks until every background email has been handed off.
func (s *SessionService) Wait() { s.wg.Wait() }

func (s *SessionService) dispatch(log *slog.Logger, msg notify.Message) {
	if s.Notifier == nil {
		log.Warn("no notifier configured, reset email dropped")
		return
	}

	timeout := s.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.Notifier.Send(ctx, msg); err != nil {
			log.Error("send reset email", slog.Any("error", err))
		}
	}()
}

func (s *SessionService) resetLink(token string) string {
	base := s.ResetURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// createRefreshToken persists a new refresh token for userID and returns
// its raw value. A fingerprint collision is retried once.
func (s *SessionService) createRefreshToken(ctx context.Context, st store.Store, userID int64, userAgent string) (string, error) {
	now := s.now()
	for attempt := 0; ; attempt++ {
		raw, err := s.Tokens.GenerateRefreshTokenValue()
		if err != nil {
			return "", internal("generate refresh token", err)
		}

		err = st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.NewAt(now).String(),
			UserID:    userID,
			TokenHash: cryptox.FingerprintToken(raw),
			UserAgent: userAgent,
			ExpiresAt: now.Add(s.Tokens.refreshTTL()),
			CreatedAt: now,
		})
		switch {
		case err == nil:
			return raw, nil
		case errors.Is(err, store.ErrAlreadyExists) && attempt == 0:
			continue
		default:
			return "", internal("store refresh token", err)
		}
	}
}
