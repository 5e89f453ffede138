package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/logging"
	"github.com/dmitrijs2005/testmart/internal/server/config"
	"github.com/dmitrijs2005/testmart/internal/server/confirm"
	"github.com/dmitrijs2005/testmart/internal/server/models"
	"github.com/dmitrijs2005/testmart/internal/server/notify"
	"github.com/dmitrijs2005/testmart/internal/server/passwords"
	"github.com/dmitrijs2005/testmart/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/testmart/internal/server/repositories/users"
	"github.com/dmitrijs2005/testmart/internal/timex"
	"github.com/go-playground/validator/v10"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
	DummyVerify(password string)
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// ConfirmationCodec issues and checks confirmation tokens.
type ConfirmationCodec interface {
	Issue(userID, purpose string, issuedAt time.Time) string
	Verify(userID, purpose, token string, now time.Time, consumedBefore *time.Time) (time.Time, error)
}

// AccessToken is what a successful login returns.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// AccountService runs the identity lifecycle: registration, login, logout,
// email confirmation and account deletion. It keeps no mutable state of its
// own; all of it lives behind the repository manager.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	codec       ConfirmationCodec
	notifier    notify.Notifier
	log         logging.Logger
	validate    *validator.Validate
	now         timex.Clock

	policy           passwords.Policy
	requireConfirmed bool
	lockoutThreshold int
	lockoutDuration  time.Duration
	applicationURL   string
	notifyTimeout    time.Duration
}

// NewAccountService wires the service from its collaborators and the server
// configuration.
func NewAccountService(
	m repomanager.RepositoryManager,
	hasher PasswordHasher,
	tokens TokenIssuer,
	codec ConfirmationCodec,
	notifier notify.Notifier,
	cfg *config.Config,
	log logging.Logger,
) *AccountService {
	return &AccountService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		codec:       codec,
		notifier:    notifier,
		log:         log.With("module", "accounts"),
		validate:    validator.New(),
		now:         timex.SystemClock,
		policy:      cfg.PasswordPolicy(),

		requireConfirmed: cfg.RequireConfirmedAccount,
		lockoutThreshold: cfg.LockoutThreshold,
		lockoutDuration:  cfg.LockoutDuration,
		applicationURL:   cfg.ApplicationURL,
		notifyTimeout:    cfg.NotificationTimeout,
	}
}

// Register creates an unconfirmed user and mails the confirmation link.
// Policy violations and a taken email come back as *common.ValidationError.
// A failed delivery is logged and does not fail the registration.
func (s *AccountService) Register(ctx context.Context, email, password string) (string, error) {
	email = common.NormalizeEmail(email)

	var msgs []string
	if err := s.validate.Var(email, "required,email,max=256"); err != nil {
		msgs = append(msgs, fmt.Sprintf("Email '%s' is invalid.", email))
	}
	if err := s.policy.Validate(password); err != nil {
		var ve *common.ValidationError
		if !errors.As(err, &ve) {
			return "", err
		}
		msgs = append(msgs, ve.Messages...)
	}
	if len(msgs) > 0 {
		return "", common.NewValidationError(msgs...)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return "", common.ErrorInternal
	}

	now := s.now().UTC()
	user := &models.User{Email: email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		created, err := repo.Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.NewValidationError(fmt.Sprintf("Email '%s' is already taken.", email))
		}
		s.log.Error(ctx, "user creation failed", "error", err)
		return "", common.ErrorInternal
	}

	s.log.Info(ctx, "new user created", "user_id", user.ID)

	if err := s.SendConfirmation(ctx, user); err != nil {
		s.log.Warn(ctx, "confirmation email not sent", "user_id", user.ID, "error", err)
	}

	return user.ID, nil
}

// SendConfirmation issues a fresh confirm-email token for user and delivers
// the link. Delivery runs detached from the caller's cancellation, bounded by
// the notification timeout.
func (s *AccountService) SendConfirmation(ctx context.Context, user *models.User) error {
	token := s.codec.Issue(user.ID, common.PurposeConfirmEmail, s.now())
	link := notify.ConfirmationLink(s.applicationURL, user.ID, token)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	return s.notifier.Send(sendCtx, user.Email, notify.ConfirmationSubject, notify.ConfirmationBody(link))
}

// Login checks the credentials under the user's row lock and returns an
// access token. Every rejection is common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AccessToken, error) {
	email = common.NormalizeEmail(email)
	now := s.now().UTC()

	var (
		user    *models.User
		outcome error
	)

	err := s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.LockByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(password)
			outcome = errLoginUnknownUser
			return nil
		}
		if err != nil {
			return err
		}

		if u.IsLockedOut(now) {
			s.hasher.DummyVerify(password)
			outcome = errLoginLockedOut
			return nil
		}

		if s.requireConfirmed && !u.EmailConfirmed {
			s.hasher.DummyVerify(password)
			outcome = errLoginUnconfirmed
			return nil
		}

		ok, err := s.hasher.Verify(u.PasswordHash, password)
		if err != nil {
			return err
		}
		if !ok {
			s.registerFailure(u, now)
			outcome = errLoginBadPassword
			return repo.Update(ctx, u)
		}

		u.FailedLoginCount = 0
		u.LockoutUntil = nil
		u.LastLoginAt = &now
		u.UpdatedAt = now
		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "login failed", "error", err)
		return nil, common.ErrorInternal
	}
	if outcome != nil {
		s.log.Info(ctx, "login rejected", "reason", outcome.Error())
		return nil, common.ErrorUnauthorized
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		s.log.Error(ctx, "access token signing failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &AccessToken{Token: token, ExpiresAt: exp}, nil
}

// Login rejection reasons. They are logged, never returned.
var (
	errLoginUnknownUser = errors.New("unknown user")
	errLoginLockedOut   = errors.New("locked out")
	errLoginUnconfirmed = errors.New("email not confirmed")
	errLoginBadPassword = errors.New("wrong password")
)

func (s *AccountService) registerFailure(u *models.User, now time.Time) {
	u.UpdatedAt = now
	if s.lockoutThreshold <= 0 {
		return
	}
	u.FailedLoginCount++
	if u.FailedLoginCount >= s.lockoutThreshold {
		until := now.Add(s.lockoutDuration)
		u.LockoutUntil = &until
		u.FailedLoginCount = 0
	}
}

// Logout has no server-side state to clear: access tokens stay valid until
// they expire.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	s.log.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// ConfirmEmail redeems a confirm-email token. Every rejection is
// common.ErrorConfirmationFailed.
func (s *AccountService) ConfirmEmail(ctx context.Context, userID, token string) error {
	now := s.now().UTC()
	var outcome error

	err := s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.LockByID(ctx, userID)
		if errors.Is(err, common.ErrorNotFound) {
			outcome = err
			return nil
		}
		if err != nil {
			return err
		}
		if u.EmailConfirmed {
			outcome = errAlreadyConfirmed
			return nil
		}

		issuedAt, err := s.codec.Verify(u.ID, common.PurposeConfirmEmail, token, now, u.ConfirmationConsumedAt)
		if confirm.IsRejection(err) {
			outcome = err
			return nil
		}
		if err != nil {
			return err
		}

		u.EmailConfirmed = true
		u.ConfirmationConsumedAt = &issuedAt
		u.UpdatedAt = now
		return repo.Update(ctx, u)
	})
	if err != nil {
		s.log.Error(ctx, "email confirmation failed", "error", err)
		return common.ErrorInternal
	}
	if outcome != nil {
		s.log.Info(ctx, "email confirmation rejected", "user_id", userID, "reason", outcome.Error())
		return common.ErrorConfirmationFailed
	}

	s.log.Info(ctx, "email confirmed", "user_id", userID)
	return nil
}

var errAlreadyConfirmed = errors.New("already confirmed")

// DeleteAccount removes the user irrecoverably. Outstanding confirmation
// tokens die with the record; issued access tokens do not.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	err := s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		return repo.Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.log.Error(ctx, "account deletion failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.log.Info(ctx, "user account deleted", "user_id", userID)
	return nil
}
