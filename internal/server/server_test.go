package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/wishx/internal/shared"
)

func TestOAuthHandler(t *testing.T) {
	t.Run("Collects Code", func(t *testing.T) {
		h := NewOAuthHandler("s1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=s1", nil))

		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Signed in") {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
		result := <-h.Result()
		if result.Error() != nil || result.Code != "abc" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Rejects State Mismatch", func(t *testing.T) {
		h := NewOAuthHandler("s1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=evil", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrOAuthRejected) {
			t.Errorf("expected ErrOAuthRejected, got %v", result.Error())
		}
	})

	t.Run("Consent Denied", func(t *testing.T) {
		h := NewOAuthHandler("")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrOAuthRejected) || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("unexpected error %v", result.Error())
		}
	})

	t.Run("Only First Callback Counts", func(t *testing.T) {
		h := NewOAuthHandler("")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/callback?code=one", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=two", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be refused, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Code != "one" {
			t.Errorf("expected first code, got %q", result.Code)
		}
	})
}

func TestWithState(t *testing.T) {
	got, err := WithState("https://accounts.google.com/o/oauth2/v2/auth?client_id=x&response_type=code", "s1")
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("state") != "s1" || u.Query().Get("client_id") != "x" {
		t.Errorf("unexpected url %s", got)
	}

	if _, err := WithState("://bad", "s1"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(mw("first"), mw("second"))
	r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("pong"))
	}))

	t.Run("Middleware Order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" || strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected result %q %v", rec.Body.String(), order)
		}
	})

	t.Run("Method Filtering", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestLoopback(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns Code", func(t *testing.T) {
		h := NewOAuthHandler("s1")
		lb := Loopback{Addr: "127.0.0.1:0", Timeout: 2 * time.Second}

		code, err := lb.WaitForCode(ctx, h, func(addr string) {
			go http.Get("http://" + addr + CallbackPath + "?code=abc&state=s1")
		})
		if err != nil || code != "abc" {
			t.Errorf("unexpected result %q (%v)", code, err)
		}
	})

	t.Run("Propagates Rejection", func(t *testing.T) {
		h := NewOAuthHandler("s1")
		lb := Loopback{Addr: "127.0.0.1:0", Timeout: 2 * time.Second}

		_, err := lb.WaitForCode(ctx, h, func(addr string) {
			go http.Get("http://" + addr + CallbackPath + "?error=access_denied&state=s1")
		})
		if !errors.Is(err, shared.ErrOAuthRejected) {
			t.Errorf("expected ErrOAuthRejected, got %v", err)
		}
	})

	t.Run("Times Out", func(t *testing.T) {
		lb := Loopback{Addr: "127.0.0.1:0", Timeout: 20 * time.Millisecond}
		if _, err := lb.WaitForCode(ctx, NewOAuthHandler(""), nil); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		lb := Loopback{Addr: "127.0.0.1:0", Timeout: time.Second}
		if _, err := lb.WaitForCode(canceled, NewOAuthHandler(""), nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Address In Use", func(t *testing.T) {
		busy := httptest.NewServer(http.NotFoundHandler())
		defer busy.Close()

		lb := Loopback{Addr: strings.TrimPrefix(busy.URL, "http://")}
		if _, err := lb.WaitForCode(ctx, NewOAuthHandler(""), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
