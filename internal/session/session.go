// Package session issues and checks the opaque bearer tokens that stand in
// for credentials on authenticated requests. Tokens are random values backed
// by rows in the store; nothing is encoded in the token itself.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"e2echat/internal/models"
	"e2echat/internal/store"
)

// TTL is the fixed lifetime of a session from creation.
const TTL = 24 * time.Hour

const tokenBytes = 32

type Manager struct {
	store store.Store
}

func NewManager(s store.Store) *Manager {
	return &Manager{store: s}
}

// newToken returns a URL-safe random token with tokenBytes of entropy.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create mints a new session for username, valid for TTL from now.
// Concurrent sessions for the same user are allowed.
func (m *Manager) Create(username string) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		Username:  username,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(TTL),
	}
	if err := m.store.CreateSession(sess); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	return sess, nil
}

// Validate resolves token to its session. Expired tokens are reported
// exactly like unknown ones: store.ErrNotFound. Callers cannot tell the
// two apart.
func (m *Manager) Validate(token string) (*models.Session, error) {
	sess, err := m.store.GetSession(token)
	if err != nil {
		return nil, err
	}
	if !time.Now().UTC().Before(sess.ExpiresAt) {
		return nil, store.ErrNotFound
	}
	return sess, nil
}

// Revoke deletes the session. Revoking a token that no longer exists is a
// no-op success.
func (m *Manager) Revoke(token string) error {
	err := m.store.DeleteSession(token)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// PurgeExpired removes sessions past their expiry. Expired rows are already
// invisible to Validate; this just reclaims them.
func (m *Manager) PurgeExpired() (int64, error) {
	return m.store.DeleteExpiredSessions()
}
