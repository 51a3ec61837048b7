package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenUsable(t *testing.T) {
	now := time.Now()

	if tokenUsable("", now) {
		t.Error("empty token must not be usable")
	}
	if !tokenUsable("opaque-session-token", now) {
		t.Error("non-JWT tokens pass through")
	}

	live := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	liveStr, _ := live.SignedString([]byte("k"))
	if !tokenUsable(liveStr, now) {
		t.Error("unexpired JWT must be usable")
	}

	dead := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	deadStr, _ := dead.SignedString([]byte("k"))
	if tokenUsable(deadStr, now) {
		t.Error("expired JWT must not be usable")
	}

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"})
	noExpStr, _ := noExp.SignedString([]byte("k"))
	if !tokenUsable(noExpStr, now) {
		t.Error("JWT without exp claim passes through")
	}
}

func TestStaticTokenSource(t *testing.T) {
	src := NewStaticTokenSource("abc")
	if tok, _ := src.Token(); tok != "abc" {
		t.Fatalf("expected abc, got %q", tok)
	}
	src.Invalidate()
	if tok, _ := src.Token(); tok != "" {
		t.Errorf("expected empty token after invalidate, got %q", tok)
	}
	src.SetToken("fresh")
	if tok, _ := src.Token(); tok != "fresh" {
		t.Errorf("expected fresh token, got %q", tok)
	}
}

func TestFileTokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	src := &FileTokenSource{Path: path}

	if tok, err := src.Token(); err != nil || tok != "" {
		t.Fatalf("missing file should yield empty token, got %q err=%v", tok, err)
	}

	os.WriteFile(path, []byte("file-token\n"), 0o600)
	if tok, _ := src.Token(); tok != "file-token" {
		t.Errorf("expected trimmed token, got %q", tok)
	}

	src.Invalidate()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalidate should remove the token file")
	}
}
