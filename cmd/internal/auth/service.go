package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"quest/cmd/identity"
	"quest/cmd/internal/auth/session"
)

// Result is returned by every operation that hands a token back to the client.
// Account never carries the credential.
type Result struct {
	Token   string
	Account identity.Account
}

// ResetResult is the answer to a password reset request.
// ExistingAccount reveals whether the email is registered.
type ResetResult struct {
	Sent            bool
	ExistingAccount bool
}

// Service implements the client-facing auth operations.
type Service struct {
	log      *slog.Logger
	accounts identity.Store
	sessions session.Store
	gate     *session.Authenticator

	notifier ResetNotifier
	observer Observer
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithResetNotifier overrides the default no-op reset notifier.
func WithResetNotifier(n ResetNotifier) Option {
	return func(s *Service) {
		if s == nil || n == nil {
			return
		}
		s.notifier = n
	}
}

// WithObserver attaches an outcome observer (metrics).
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if s == nil || o == nil {
			return
		}
		s.observer = o
	}
}

// NewService constructs a Service over the given stores.
func NewService(log *slog.Logger, accounts identity.Store, sessions session.Store, opts ...Option) (*Service, error) {
	if accounts == nil || sessions == nil {
		return nil, errors.New("auth: nil store")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		log:      log,
		accounts: accounts,
		sessions: sessions,
		gate:     session.NewAuthenticator(sessions, accounts),
		notifier: NoopResetNotifier{},
		observer: noopObserver{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Signup creates an account and opens its first session.
// A duplicate email fails with identity.ErrAlreadyExists.
func (s *Service) Signup(ctx context.Context, name, email, plain string) (Result, error) {
	const op = "signup"

	acct, err := s.accounts.Create(ctx, identity.CreateAccountInput{
		Email:    email,
		Name:     name,
		Password: plain,
	})
	if err != nil {
		if identity.IsAlreadyExists(err) || identity.IsInvalidInput(err) {
			s.observer.AuthOperation(op, ResultRejected)
			s.log.Info("auth.signup.rejected", "reason", reasonOf(err))
			return Result{}, err
		}
		s.observer.AuthOperation(op, ResultError)
		return Result{}, fmt.Errorf("auth: signup: %w", err)
	}

	res, err := s.open(ctx, acct)
	if err != nil {
		// The account exists; the client can recover with Login.
		s.observer.AuthOperation(op, ResultError)
		s.log.Error("auth.signup.open_session.fail", "err", err, "user_id", acct.ID)
		return Result{}, fmt.Errorf("auth: signup: %w", err)
	}

	s.observer.AuthOperation(op, ResultOK)
	s.log.Info("auth.signup.success", "user_id", acct.ID)
	return res, nil
}

// Login verifies the credential and opens a new session.
// Earlier sessions for the same account stay valid.
func (s *Service) Login(ctx context.Context, email, plain string) (Result, error) {
	const op = "login"

	acct, err := s.accounts.VerifyCredential(ctx, email, plain)
	if err != nil {
		if identity.IsInvalidCredentials(err) {
			s.observer.AuthOperation(op, ResultRejected)
			s.log.Info("auth.login.fail")
			return Result{}, err
		}
		s.observer.AuthOperation(op, ResultError)
		return Result{}, fmt.Errorf("auth: login: %w", err)
	}

	res, err := s.open(ctx, acct)
	if err != nil {
		s.observer.AuthOperation(op, ResultError)
		s.log.Error("auth.login.open_session.fail", "err", err, "user_id", acct.ID)
		return Result{}, fmt.Errorf("auth: login: %w", err)
	}

	s.observer.AuthOperation(op, ResultOK)
	s.log.Info("auth.login.success", "user_id", acct.ID)
	return res, nil
}

// CurrentSession echoes the presented token with its account's current view.
// It fails with session.ErrMissingCredentials, session.ErrInvalidSession or
// session.ErrAccountGone.
func (s *Service) CurrentSession(ctx context.Context, token string) (Result, error) {
	acct, err := s.Authenticate(ctx, token)
	if err != nil {
		return Result{}, err
	}
	return Result{Token: token, Account: acct}, nil
}

// Authenticate gates a protected operation on token.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.Account, error) {
	const op = "authenticate"

	acct, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		if isGateFailure(err) {
			s.observer.AuthOperation(op, ResultRejected)
			s.log.Debug("auth.gate.rejected", "reason", reasonOf(err))
			return identity.Account{}, err
		}
		s.observer.AuthOperation(op, ResultError)
		return identity.Account{}, fmt.Errorf("auth: authenticate: %w", err)
	}

	s.observer.AuthOperation(op, ResultOK)
	return acct, nil
}

// RequestPasswordReset always reports Sent. ExistingAccount tells the caller
// whether the email is registered. Nothing about the account is modified.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (ResetResult, error) {
	const op = "reset"

	acct, err := s.accounts.Lookup(ctx, email)
	switch {
	case err == nil:
	case identity.IsNotFound(err):
		s.observer.AuthOperation(op, ResultOK)
		s.log.Info("auth.reset.requested", "existing", false)
		return ResetResult{Sent: true, ExistingAccount: false}, nil
	default:
		s.observer.AuthOperation(op, ResultError)
		return ResetResult{}, fmt.Errorf("auth: reset: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, PasswordResetMessage{
		AccountID: acct.ID,
		Email:     acct.Email,
	}); err != nil {
		// Delivery is best-effort; the response does not change.
		s.log.Error("auth.reset.send.fail", "err", err, "user_id", acct.ID)
	}

	s.observer.AuthOperation(op, ResultOK)
	s.log.Info("auth.reset.requested", "existing", true, "user_id", acct.ID)
	return ResetResult{Sent: true, ExistingAccount: true}, nil
}

func (s *Service) open(ctx context.Context, acct identity.Account) (Result, error) {
	opened, err := s.sessions.Open(ctx, acct.Email)
	if err != nil {
		return Result{}, err
	}
	s.observer.SessionOpened()
	s.log.Debug("auth.session.opened", "user_id", acct.ID, "session_id", opened.SessionID)
	return Result{Token: opened.Token, Account: acct}, nil
}

func isGateFailure(err error) bool {
	return errors.Is(err, session.ErrMissingCredentials) ||
		errors.Is(err, session.ErrInvalidSession) ||
		errors.Is(err, session.ErrAccountGone)
}

func reasonOf(err error) string {
	switch {
	case identity.IsAlreadyExists(err):
		return "duplicate"
	case identity.IsInvalidInput(err):
		return "invalid_input"
	case errors.Is(err, session.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, session.ErrInvalidSession):
		return "invalid_session"
	case errors.Is(err, session.ErrAccountGone):
		return "account_gone"
	default:
		return "other"
	}
}
