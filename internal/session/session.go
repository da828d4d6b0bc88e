// Package session caches the signed-in identity in the local store and
// gates checkout and payment entry on its presence.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grocify/storefront/internal/storage"
)

const RoleAdmin = "ADMIN"

// User is the minimal cached profile, persisted under the user key.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthResult is what the backend returns from login and signup.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (AuthResult, error)
	Signup(ctx context.Context, username, password, role string) (AuthResult, error)
}

// Manager owns the cached credential. It is constructed at session start
// and injected into whichever components need the guard, so tests can run
// isolated sessions.
type Manager struct {
	log   *slog.Logger
	store storage.Store
	api   AuthAPI
}

func NewManager(log *slog.Logger, store storage.Store, api AuthAPI) *Manager {
	return &Manager{log: log, store: store, api: api}
}

func (m *Manager) Login(ctx context.Context, username, password string) (User, error) {
	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		return User{}, err
	}
	return m.cache(ctx, res)
}

func (m *Manager) Signup(ctx context.Context, username, password, role string) (User, error) {
	res, err := m.api.Signup(ctx, username, password, role)
	if err != nil {
		return User{}, err
	}
	return m.cache(ctx, res)
}

func (m *Manager) cache(ctx context.Context, res AuthResult) (User, error) {
	u := User{Username: res.Username, Role: res.Role}
	raw, err := json.Marshal(u)
	if err != nil {
		return User{}, err
	}
	if err := m.store.Set(ctx, storage.KeyToken, []byte(res.Token)); err != nil {
		return User{}, err
	}
	if err := m.store.Set(ctx, storage.KeyUser, raw); err != nil {
		return User{}, err
	}
	m.log.Info("signed in", "username", u.Username, "role", u.Role)
	return u, nil
}

// Logout drops the cached credential and profile.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx, storage.KeyToken); err != nil {
		return err
	}
	return m.store.Delete(ctx, storage.KeyUser)
}

// Token returns the cached bearer credential. A token whose exp claim has
// passed is treated as absent. The signature is not verified here; the
// client holds no key and the backend checks it on every call.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	raw, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	tok := string(raw)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
			return "", false
		}
	}
	return tok, true
}

// Current returns the cached profile when both the profile and a usable
// token are present. Malformed cached data reads as signed out.
func (m *Manager) Current(ctx context.Context) (User, bool) {
	raw, err := m.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return User{}, false
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil || u.Username == "" {
		return User{}, false
	}
	if _, ok := m.Token(ctx); !ok {
		return User{}, false
	}
	return u, true
}

func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, ok := m.Current(ctx)
	return ok
}

func (m *Manager) IsAdmin(ctx context.Context) bool {
	u, ok := m.Current(ctx)
	return ok && u.Role == RoleAdmin
}
