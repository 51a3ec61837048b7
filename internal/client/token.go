package client

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token attached to outgoing requests. The
// source is injected into the client explicitly so that credentials never
// live in ambient storage.
type TokenSource interface {
	// Token returns the current bearer token, or "" when no session exists.
	Token() (string, error)
	// Invalidate discards the current token after the server rejects it.
	Invalidate()
}

// StaticTokenSource holds a token in memory. Invalidate clears it.
type StaticTokenSource struct {
	mu    sync.Mutex
	token string
}

// NewStaticTokenSource creates a source that returns the given token until
// it is invalidated.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *StaticTokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// SetToken replaces the stored token, e.g. after a fresh login.
func (s *StaticTokenSource) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// FileTokenSource reads the token from a file on every call so an external
// login flow can rotate it. Invalidate removes the file.
type FileTokenSource struct {
	Path string
}

func (s *FileTokenSource) Token() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTokenSource) Invalidate() {
	_ = os.Remove(s.Path)
}

// tokenUsable reports whether the token looks attachable: non-empty and, when
// it carries an exp claim, not yet expired. The signature is not verified
// here; that is the server's job. The local check only avoids sending a
// token the server is guaranteed to reject.
func tokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		// Opaque tokens are passed through untouched.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(now)
}
