package cookie_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"authgate/pkg/cookie"
)

const testSecret = "this-is-a-32-byte-or-longer-key!"

func TestNew(t *testing.T) {
	m := cookie.New()
	if m == nil {
		t.Fatal("New() returned nil")
	}
}

func TestPlainCookies(t *testing.T) {
	m := cookie.New()

	t.Run("get non-existent cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := m.Get(r, "missing")
		if !errors.Is(err, cookie.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and get cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.Set(w, "name", "value", 3600)

		resp := w.Result()
		cookies := resp.Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}

		c := cookies[0]
		if c.Name != "name" || c.Value != "value" {
			t.Errorf("cookie = %s=%s, want name=value", c.Name, c.Value)
		}
		if c.MaxAge != 3600 {
			t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
		}

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(c)

		val, err := m.Get(r, "name")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if val != "value" {
			t.Errorf("Get() = %q, want %q", val, "value")
		}
	})

	t.Run("delete cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.Delete(w, "name")

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}
		if cookies[0].MaxAge != -1 {
			t.Errorf("MaxAge = %d, want -1", cookies[0].MaxAge)
		}
	})
}

func TestSignedCookies(t *testing.T) {
	m := cookie.New(cookie.WithSecret(testSecret))

	t.Run("requires secret", func(t *testing.T) {
		noSecret := cookie.New()
		w := httptest.NewRecorder()
		if err := noSecret.SetSigned(w, "sid", "value", 3600); !errors.Is(err, cookie.ErrNoSecret) {
			t.Errorf("expected ErrNoSecret, got %v", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		w := httptest.NewRecorder()
		if err := m.SetSigned(w, "sid", "session-id-value", 3600); err != nil {
			t.Fatalf("SetSigned() error: %v", err)
		}

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(cookies[0])

		val, err := m.GetSigned(r, "sid")
		if err != nil {
			t.Fatalf("GetSigned() error: %v", err)
		}
		if val != "session-id-value" {
			t.Errorf("GetSigned() = %q, want %q", val, "session-id-value")
		}
	})

	t.Run("tampered value fails verification", func(t *testing.T) {
		w := httptest.NewRecorder()
		if err := m.SetSigned(w, "sid", "original", 3600); err != nil {
			t.Fatalf("SetSigned() error: %v", err)
		}

		c := w.Result().Cookies()[0]
		c.Value = "dGFtcGVyZWQ." + c.Value[len(c.Value)-10:]

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(c)

		if _, err := m.GetSigned(r, "sid"); !errors.Is(err, cookie.ErrBadSig) {
			t.Errorf("expected ErrBadSig, got %v", err)
		}
	})

	t.Run("foreign secret fails verification", func(t *testing.T) {
		w := httptest.NewRecorder()
		if err := m.SetSigned(w, "sid", "value", 3600); err != nil {
			t.Fatalf("SetSigned() error: %v", err)
		}

		other := cookie.New(cookie.WithSecret("a-completely-different-32b-secret"))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(w.Result().Cookies()[0])

		if _, err := other.GetSigned(r, "sid"); !errors.Is(err, cookie.ErrBadSig) {
			t.Errorf("expected ErrBadSig, got %v", err)
		}
	})
}
