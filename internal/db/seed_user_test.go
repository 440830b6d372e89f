package db_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/quicknotes/internal/auth"
	"github.com/geocoder89/quicknotes/internal/config"
	"github.com/geocoder89/quicknotes/internal/db"
	"github.com/geocoder89/quicknotes/internal/repo/memory"
	"github.com/geocoder89/quicknotes/internal/security"
	"github.com/geocoder89/quicknotes/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureSeedUser(t *testing.T) {
	users := memory.NewUsersRepo()
	authn, err := service.NewAuthenticator(users, security.NewBcryptHasher(bcrypt.MinCost),
		auth.NewManager("s", time.Hour), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx := context.Background()

	created, err := db.EnsureSeedUser(ctx, authn, config.Config{})
	require.NoError(t, err)
	assert.False(t, created, "no seed configured")

	cfg := config.Config{SeedUserEmail: "Demo@X.com", SeedUserPassword: "pw"}

	created, err = db.EnsureSeedUser(ctx, authn, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.EnsureSeedUser(ctx, authn, cfg)
	require.NoError(t, err)
	assert.False(t, created, "second run is a no-op")

	res, err := authn.Login(ctx, service.LoginInput{Email: "demo@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Demo User", res.User.Name)
}
