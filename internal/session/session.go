// Package session holds the signed-in identity: the bearer token and the
// (user id, account id) pair derived from it. The realtime subscription's
// lifetime is tied exactly to this triple staying valid.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "ai-companion-chat/client/pkg/errors"
)

const tokenFile = "session-token.json"

// Claims are the backend-issued token claims the client cares about. The
// token is verified server-side; the client only reads it.
type Claims struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Session is the current identity triple. Safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	token     string
	userID    string
	accountID string
}

// New returns an empty, signed-out session
func New() *Session {
	return &Session{}
}

// Token implements api.TokenSource
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the signed-in user id, empty when signed out
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// AccountID returns the billing account id, empty when signed out
func (s *Session) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// SignedIn reports whether a usable identity triple is present
func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.userID != "" && s.accountID != ""
}

// SignIn installs a backend token, deriving user and account ids from its
// claims. An expired token is rejected.
func (s *Session) SignIn(token string) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = claims.UserID
	s.accountID = claims.AccountID
	return nil
}

// SignOut clears the identity triple
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = ""
	s.accountID = ""
}

// ParseClaims reads the token claims without signature verification; the
// backend signed it and the client has no key, so claims are advisory.
// Expiry is still enforced so a dead session fails fast locally.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, apperrors.NewUnauthorizedError("malformed session token").WithCause(err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.NewUnauthorizedError("session token expired")
	}
	return claims, nil
}

type storedToken struct {
	Token string `json:"token"`
}

// Save persists the token under dir so a later invocation resumes the
// session.
func (s *Session) Save(dir string) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(storedToken{Token: token})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, tokenFile), data, 0o600)
}

// Load resumes a persisted session. A missing file or a stale token leaves
// the session signed out without error.
func (s *Session) Load(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, tokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}
	if stored.Token == "" {
		return nil
	}
	if err := s.SignIn(stored.Token); err != nil {
		// expired or malformed: stay signed out
		return nil
	}
	return nil
}

// Clear removes the persisted token
func Clear(dir string) error {
	err := os.Remove(filepath.Join(dir, tokenFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
