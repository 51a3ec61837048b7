package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tok := signedToken(t, time.Now().Add(time.Hour))
	c := New(srv.URL, NewStaticTokenSource(tok), WithDispatchSpacing(0))
	if _, err := c.Get(context.Background(), "/medications"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer "+tok {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestClient_SkipsExpiredToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tok := signedToken(t, time.Now().Add(-time.Hour))
	c := New(srv.URL, NewStaticTokenSource(tok), WithDispatchSpacing(0))
	c.Get(context.Background(), "/medications")
	if gotAuth != "" {
		t.Errorf("expected no auth header for expired token, got %q", gotAuth)
	}
}

func TestClient_Unauthorized_ClearsTokenAndRequiresLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"token rejected"}`))
	}))
	defer srv.Close()

	src := NewStaticTokenSource(signedToken(t, time.Now().Add(time.Hour)))
	c := New(srv.URL, src, WithDispatchSpacing(0))
	_, err := c.Get(context.Background(), "/medications")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindAuth || !apiErr.LoginRequired {
		t.Errorf("expected auth error requiring login, got kind=%s login=%v", apiErr.Kind, apiErr.LoginRequired)
	}
	if tok, _ := src.Token(); tok != "" {
		t.Error("expected token to be cleared after 401")
	}
}

func TestClient_AdminUnauthorized_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"transient"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	src := NewStaticTokenSource(signedToken(t, time.Now().Add(time.Hour)))
	c := New(srv.URL, src, WithDispatchSpacing(0))
	if _, err := c.Get(context.Background(), "/admin/users"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
	if tok, _ := src.Token(); tok == "" {
		t.Error("admin retries must not clear the token")
	}
}

func TestClient_AdminUnauthorized_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"still broken"}`))
	}))
	defer srv.Close()

	src := NewStaticTokenSource(signedToken(t, time.Now().Add(time.Hour)))
	c := New(srv.URL, src, WithDispatchSpacing(0))
	_, err := c.Get(context.Background(), "/admin/users")
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts before giving up, got %d", n)
	}
}

func TestClient_ValidationErrorJoinsFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"field":"name","message":"is required"},{"field":"dose","message":"must be positive"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, NewStaticTokenSource(""), WithDispatchSpacing(0))
	_, err := c.Post(context.Background(), "/medications", map[string]string{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindValidation {
		t.Errorf("expected validation kind, got %s", apiErr.Kind)
	}
	want := "name: is required; dose: must be positive"
	if apiErr.Message != want {
		t.Errorf("expected %q, got %q", want, apiErr.Message)
	}
}

func TestClient_RateLimitIncludesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"slow down"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, NewStaticTokenSource(""), WithDispatchSpacing(0))
	_, err := c.Get(context.Background(), "/medications")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != KindRateLimit || apiErr.RetryAfter != 42 {
		t.Errorf("expected rate limit with retry-after 42, got kind=%s retryAfter=%d", apiErr.Kind, apiErr.RetryAfter)
	}
}

func TestClient_NotFoundAndServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"no such record"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"boom"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, NewStaticTokenSource(""), WithDispatchSpacing(0))

	_, err := c.Get(context.Background(), "/missing")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	_, err = c.Get(context.Background(), "/broken")
	if !IsKind(err, KindServer) {
		t.Errorf("expected server error, got %v", err)
	}
	if err.Error() != "boom" {
		t.Errorf("expected detail message, got %q", err.Error())
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", NewStaticTokenSource(""), WithDispatchSpacing(0))
	_, err := c.Get(context.Background(), "/medications")
	if !IsKind(err, KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClient_ConcurrencyBound(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, NewStaticTokenSource(""), WithDispatchSpacing(0))
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			c.Get(context.Background(), "/medications")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Errorf("expected at most 3 in-flight requests, observed %d", p)
	}
}
