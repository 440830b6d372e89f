package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/geocoder89/quicknotes/internal/domain/user"
	"github.com/go-playground/validator/v10"
)

// bcrypt only reads the first 72 bytes
const maxPasswordBytes = 72

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// AuthObserver receives one call per signup/login attempt.
type AuthObserver interface {
	ObserveAuth(op, result string)
}

type AuthResult struct {
	Token string      `json:"token"`
	User  user.Public `json:"user"`
}

type SignupInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type Authenticator struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	validate *validator.Validate
	log      *slog.Logger
	observer AuthObserver
	now      func() time.Time

	// compared against when the email is unknown so both login failure
	// paths cost one hash verification
	dummyHash string
}

type AuthenticatorOption func(*Authenticator)

func WithAuthObserver(o AuthObserver) AuthenticatorOption {
	return func(a *Authenticator) { a.observer = o }
}

func WithAuthClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) { a.now = now }
}

func NewAuthenticator(users UserStore, hasher PasswordHasher, tokens TokenIssuer, log *slog.Logger, opts ...AuthenticatorOption) (*Authenticator, error) {
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash("quicknotes-login-timing")
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Authenticator) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = user.NormalizeEmail(in.Email)

	if err := a.validate.Struct(in); err != nil {
		a.observe("signup", "invalid")
		return AuthResult{}, apperr.ErrMissingFields
	}

	if len(in.Password) > maxPasswordBytes {
		a.observe("signup", "invalid")
		return AuthResult{}, apperr.ErrPasswordTooLong
	}

	_, err := a.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		a.observe("signup", "conflict")
		return AuthResult{}, apperr.ErrEmailTaken
	case !errors.Is(err, user.ErrNotFound):
		a.observe("signup", "error")
		return AuthResult{}, apperr.Internal("Server Error", err)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		a.observe("signup", "error")
		return AuthResult{}, apperr.Internal("Could not create user", err)
	}

	u, err := a.users.Create(ctx, user.New(in.Name, in.Email, hash, a.now().UTC()))
	if err != nil {
		// a concurrent signup can still win the unique index
		if errors.Is(err, user.ErrEmailTaken) {
			a.observe("signup", "conflict")
			return AuthResult{}, apperr.ErrEmailTaken
		}
		a.observe("signup", "error")
		return AuthResult{}, apperr.Internal("Could not create user", err)
	}

	res, err := a.issue(u)
	if err != nil {
		a.observe("signup", "error")
		return AuthResult{}, err
	}

	a.log.InfoContext(ctx, "user signed up", "user_id", u.ID)
	a.observe("signup", "ok")
	return res, nil
}

func (a *Authenticator) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Email = user.NormalizeEmail(in.Email)

	if err := a.validate.Struct(in); err != nil {
		a.observe("login", "invalid")
		return AuthResult{}, apperr.ErrMissingFields
	}

	u, err := a.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			a.observe("login", "error")
			return AuthResult{}, apperr.Internal("Server Error", err)
		}
		_ = a.hasher.Check(a.dummyHash, in.Password)
		a.observe("login", "invalid_credentials")
		return AuthResult{}, apperr.ErrInvalidCredentials
	}

	if err := a.hasher.Check(u.PasswordHash, in.Password); err != nil {
		a.observe("login", "invalid_credentials")
		return AuthResult{}, apperr.ErrInvalidCredentials
	}

	res, err := a.issue(u)
	if err != nil {
		a.observe("login", "error")
		return AuthResult{}, err
	}

	a.observe("login", "ok")
	return res, nil
}

// VerifyToken resolves the owner id carried by a bearer token. It never
// touches the user store.
func (a *Authenticator) VerifyToken(token string) (string, error) {
	ownerID, err := a.tokens.Verify(token)
	if err != nil {
		return "", apperr.ErrInvalidToken
	}
	return ownerID, nil
}

func (a *Authenticator) issue(u user.User) (AuthResult, error) {
	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		return AuthResult{}, apperr.Internal("Could not generate token", err)
	}
	return AuthResult{Token: token, User: u.Public()}, nil
}

func (a *Authenticator) observe(op, result string) {
	if a.observer != nil {
		a.observer.ObserveAuth(op, result)
	}
}
