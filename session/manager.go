// Package session manages the client's authenticated session state: the
// encrypted bearer token in one of two storage scopes, the cached profile
// blob, and the persisted UI theme preference.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/shifahealth/portal-go/security"
	"github.com/shifahealth/portal-go/storage"
)

// ErrNoToken is returned by the TokenSource when neither scope holds a
// valid token.
var ErrNoToken = errors.New("session: no token available")

// Profile is the cached account+hospital identity blob. It is written on
// login and profile fetches, and read as a fallback identity source when
// the profile endpoint is unreachable.
type Profile struct {
	AccountID    string `json:"account_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	HospitalID   string `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
}

// Manager persists and retrieves the auth token, encrypted at rest.
//
// Two scopes exist: the session scope (lost when the process exits) and the
// persistent scope (survives restarts, chosen by "remember me"). At most
// one scope holds a token at a time: SetToken clears both scopes before
// writing, so toggling remember never leaves a stale copy behind.
type Manager struct {
	session    storage.Store
	persistent storage.Store
	encryptor  *security.Encryptor
	logger     *slog.Logger

	// OnTokenDiscarded is invoked after a stored token failed decryption
	// and was removed from both scopes. Optional; set it before first use.
	OnTokenDiscarded func(reason string)
}

// NewManager creates a manager over the two storage scopes.
func NewManager(sessionScope, persistentScope storage.Store, encryptor *security.Encryptor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		session:    sessionScope,
		persistent: persistentScope,
		encryptor:  encryptor,
		logger:     logger,
	}
}

// Token returns the decrypted bearer token, or "" when no scope holds one.
// The session scope wins over the persistent scope. A value that fails to
// decrypt (corrupted, tampered, or written under another key) is deleted
// from both scopes and treated as absent, never as a fatal error.
func (m *Manager) Token(ctx context.Context) (string, error) {
	for _, scope := range []storage.Store{m.session, m.persistent} {
		encrypted, err := scope.Get(ctx, storage.SlotAuthToken)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		token, err := m.encryptor.Decrypt(encrypted)
		if err != nil {
			var decErr *security.DecryptionError
			if errors.As(err, &decErr) {
				m.logger.Warn("Discarding stored token that failed decryption",
					"reason", decErr.Reason)
				if rmErr := m.RemoveToken(ctx); rmErr != nil {
					return "", rmErr
				}
				if m.OnTokenDiscarded != nil {
					m.OnTokenDiscarded(decErr.Reason)
				}
				return "", nil
			}
			return "", err
		}
		return token, nil
	}
	return "", nil
}

// SetToken encrypts token and writes it to the persistent scope when
// remember is true, otherwise to the session scope. Both scopes are
// cleared first so the alternate scope never keeps a stale copy.
func (m *Manager) SetToken(ctx context.Context, token string, remember bool) error {
	if token == "" {
		return errors.New("session: refusing to store empty token")
	}

	if err := m.RemoveToken(ctx); err != nil {
		return err
	}

	encrypted, err := m.encryptor.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	scope := m.session
	if remember {
		scope = m.persistent
	}
	if err := scope.Set(ctx, storage.SlotAuthToken, encrypted); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// RemoveToken deletes the token from both scopes. Idempotent.
func (m *Manager) RemoveToken(ctx context.Context) error {
	for _, scope := range []storage.Store{m.session, m.persistent} {
		if err := scope.Delete(ctx, storage.SlotAuthToken); err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
	}
	return nil
}

// HasToken reports whether a valid token is stored in either scope.
func (m *Manager) HasToken(ctx context.Context) bool {
	token, err := m.Token(ctx)
	return err == nil && token != ""
}

// TokenSource returns an oauth2.TokenSource view of the stored bearer
// token, so standard transports can authenticate with it. The source
// re-reads storage on every call and returns ErrNoToken when logged out.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m}
}

type managerTokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.manager.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// SaveProfile caches the profile blob in the scope that currently holds
// the token, falling back to the session scope when logged out.
func (m *Manager) SaveProfile(ctx context.Context, profile *Profile) error {
	blob, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return m.activeScope(ctx).Set(ctx, storage.SlotProfile, string(blob))
}

// Profile returns the cached profile blob, or storage.ErrNotFound when no
// scope holds one.
func (m *Manager) Profile(ctx context.Context) (*Profile, error) {
	for _, scope := range []storage.Store{m.session, m.persistent} {
		blob, err := scope.Get(ctx, storage.SlotProfile)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var profile Profile
		if err := json.Unmarshal([]byte(blob), &profile); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached profile: %w", err)
		}
		return &profile, nil
	}
	return nil, storage.ErrNotFound
}

// ClearProfile removes the cached profile from both scopes.
func (m *Manager) ClearProfile(ctx context.Context) error {
	for _, scope := range []storage.Store{m.session, m.persistent} {
		if err := scope.Delete(ctx, storage.SlotProfile); err != nil {
			return err
		}
	}
	return nil
}

// SetTheme persists the UI theme preference. The theme survives logout and
// is stored unencrypted in the persistent scope.
func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	return m.persistent.Set(ctx, storage.SlotTheme, theme)
}

// Theme returns the persisted UI theme preference, or "" when unset.
func (m *Manager) Theme(ctx context.Context) string {
	theme, err := m.persistent.Get(ctx, storage.SlotTheme)
	if err != nil {
		return ""
	}
	return theme
}

// activeScope returns the scope currently holding the token, defaulting to
// the session scope.
func (m *Manager) activeScope(ctx context.Context) storage.Store {
	if _, err := m.persistent.Get(ctx, storage.SlotAuthToken); err == nil {
		return m.persistent
	}
	return m.session
}
