package db

import (
	"context"
	"errors"

	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/geocoder89/quicknotes/internal/config"
	"github.com/geocoder89/quicknotes/internal/service"
)

type Signupper interface {
	Signup(ctx context.Context, in service.SignupInput) (service.AuthResult, error)
}

// EnsureSeedUser registers the configured dev user through the normal signup
// path. An existing account with that email is left untouched.
func EnsureSeedUser(ctx context.Context, auth Signupper, cfg config.Config) (bool, error) {
	if cfg.SeedUserEmail == "" || cfg.SeedUserPassword == "" {
		return false, nil
	}

	name := cfg.SeedUserName
	if name == "" {
		name = "Demo User"
	}

	_, err := auth.Signup(ctx, service.SignupInput{
		Name:     name,
		Email:    cfg.SeedUserEmail,
		Password: cfg.SeedUserPassword,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
