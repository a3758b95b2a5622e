package auth

import (
	"context"
	"log/slog"
	"sync"

	"reelrate/proj/internal/domain/models"
	"reelrate/proj/internal/session"
)

type BackendProvider interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthService owns the current user identity and the login/register/logout
// actions. The identity is replaced wholesale on every profile fetch.
type AuthService struct {
	log     *slog.Logger
	api     BackendProvider
	session *session.Store

	mu   sync.RWMutex
	user *models.User
}

func New(log *slog.Logger, api BackendProvider, sess *session.Store) *AuthService {
	return &AuthService{
		log:     log,
		api:     api,
		session: sess,
	}
}

func (a *AuthService) Register(ctx context.Context, username, password string) error {
	const op = "auth.AuthService.Register"
	log := a.log.With("op", op, "username", username)
	if err := a.api.Register(ctx, username, password); err != nil {
		log.Error("Error calling backend.Register", "errMsg", err.Error())
		return err
	}
	return nil
}

// Login exchanges credentials for a token, persists it and immediately
// fetches the profile so the caller ends up fully logged in or not at all.
func (a *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	const op = "auth.AuthService.Login"
	log := a.log.With("op", op, "username", username)
	token, err := a.api.Login(ctx, username, password)
	if err != nil {
		log.Error("Error calling backend.Login", "errMsg", err.Error())
		return nil, err
	}
	if err := a.session.SetToken(token); err != nil {
		log.Error("Error persisting token", "errMsg", err.Error())
		return nil, err
	}
	return a.LoadProfile(ctx)
}

// LoadProfile fetches the identity behind the current token. Any failure,
// whatever the cause, purges both the user and the token: "no user, no
// token" is the single canonical logged-out state.
func (a *AuthService) LoadProfile(ctx context.Context) (*models.User, error) {
	const op = "auth.AuthService.LoadProfile"
	log := a.log.With("op", op)
	token := a.session.Token()
	if token == "" {
		a.setUser(nil)
		return nil, session.ErrNoToken
	}
	user, err := a.api.CurrentUser(ctx, token)
	if err != nil {
		log.Warn("profile fetch failed, purging session", "errMsg", err.Error())
		a.setUser(nil)
		if clearErr := a.session.Clear(); clearErr != nil {
			log.Error("Error clearing token slot", "errMsg", clearErr.Error())
		}
		return nil, ErrSessionExpired
	}
	a.setUser(user)
	return user, nil
}

func (a *AuthService) Logout() error {
	a.setUser(nil)
	return a.session.Clear()
}

func (a *AuthService) CurrentUser() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

func (a *AuthService) IsLoggedIn() bool {
	return a.session.HasToken() && a.CurrentUser() != nil
}

func (a *AuthService) setUser(user *models.User) {
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
}
