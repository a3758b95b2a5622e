package auth_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"reelrate/proj/internal/clients/backend"
	"reelrate/proj/internal/clients/backend/backendtest"
	"reelrate/proj/internal/services/auth"
	"reelrate/proj/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*auth.AuthService, *backendtest.Server, *session.Store) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess, err := session.New(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	api := backend.New(log, srv.URL(), 5*time.Second, 1, 0, 0)
	return auth.New(log, api, sess), srv, sess
}

func TestLoginStoresTokenAndLoadsProfile(t *testing.T) {
	svc, srv, sess := newService(t)
	srv.SeedUser("alice", "s3cret")

	user, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, sess.HasToken())
	assert.True(t, svc.IsLoggedIn())
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "bob", "hunter2"))
	assert.False(t, svc.IsLoggedIn(), "register must not log in by itself")

	_, err := svc.Login(ctx, "bob", "hunter2")
	require.NoError(t, err)
	assert.True(t, svc.IsLoggedIn())
}

func TestInvalidTokenPurgesSession(t *testing.T) {
	svc, _, sess := newService(t)
	require.NoError(t, sess.SetToken("stale-or-forged"))

	_, err := svc.LoadProfile(context.Background())
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
	assert.False(t, sess.HasToken(), "token slot must be purged")
	assert.Nil(t, svc.CurrentUser())
	assert.False(t, svc.IsLoggedIn())
}

func TestLoadProfileWithoutToken(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.LoadProfile(context.Background())
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestLogout(t *testing.T) {
	svc, srv, sess := newService(t)
	srv.SeedUser("alice", "s3cret")
	_, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout())
	assert.False(t, sess.HasToken())
	assert.Nil(t, svc.CurrentUser())
}
