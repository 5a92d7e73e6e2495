package shome

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var testCred = Credential{
	Username:     "user",
	PasswordHash: HashPassword("secret"),
	DeviceID:     "deadbeefcafef00d",
}

// newTestClient points a client at the given test server with the settle
// delay shortened so the suite stays fast.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(srv.URL, testCred,
		WithHTTPClient(srv.Client()),
		WithSettleDelay(time.Millisecond))
}

func writeSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "sess-1"})
	http.SetCookie(w, &http.Cookie{Name: "WMONID", Value: "mon-1"})
}

func TestLogin(t *testing.T) {
	var loginReq *http.Request
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		loginReq = r.Clone(context.Background())
		w.Write([]byte(`{"homeId":"H1","ihdId":"WP001.12","userId":"user","accessToken":"tok-1"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	session := c.Session()
	if session.AccessToken != "tok-1" {
		t.Errorf("AccessToken = %s", session.AccessToken)
	}
	if session.WallpadID != "WP001.12" {
		t.Errorf("WallpadID = %s", session.WallpadID)
	}

	if loginReq == nil {
		t.Fatal("login endpoint never called")
	}
	if loginReq.Method != http.MethodPut {
		t.Errorf("login method = %s", loginReq.Method)
	}
	if got := loginReq.Header.Get("Cookie"); got != "JSESSIONID=sess-1; WMONID=mon-1" {
		t.Errorf("login Cookie header = %q", got)
	}
	if got := loginReq.Header.Get("User-Agent"); got != "okhttp/3.12.0" {
		t.Errorf("User-Agent = %q", got)
	}
	q := loginReq.URL.Query()
	if q.Get("password") != testCred.PasswordHash {
		t.Error("login did not carry the password hash")
	}
	if q.Get("hashData") == "" {
		t.Error("login request unsigned")
	}
}

func TestLoginMissingCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Set-Cookie headers at all.
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.Login(context.Background())
	if !errors.Is(err, ErrSessionSetup) {
		t.Errorf("expected ErrSessionSetup, got %v", err)
	}
}

func TestDoNotLoggedIn(t *testing.T) {
	c := NewClient("http://unused", testCred)
	err := c.Do(context.Background(), CategoryInfo(CategoryLight, "d1", time.Now()), nil)
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestDoRetriesOnceOnAuthError(t *testing.T) {
	var logins, infoCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		n := logins.Add(1)
		if n == 1 {
			w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok-old"}`))
			return
		}
		w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok-new"}`))
	})
	mux.HandleFunc("/v18/settings/light/d1", func(w http.ResponseWriter, r *http.Request) {
		infoCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"deviceInfoList":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	var out LightStatus
	if err := c.Do(context.Background(), CategoryInfo(CategoryLight, "d1", time.Now()), &out); err != nil {
		t.Fatalf("Do() error after re-login: %v", err)
	}
	if logins.Load() != 2 {
		t.Errorf("expected 2 logins, got %d", logins.Load())
	}
	if infoCalls.Load() != 2 {
		t.Errorf("expected 2 info calls, got %d", infoCalls.Load())
	}
}

func TestDoConcurrentAuthErrorsShareOneLogin(t *testing.T) {
	var logins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		n := logins.Add(1)
		if n == 1 {
			w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok-old"}`))
			return
		}
		w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok-new"}`))
	})
	mux.HandleFunc("/v18/settings/light/d1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"deviceInfoList":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	const workers = 8
	errs := make(chan error, workers)
	var start sync.WaitGroup
	start.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			start.Done()
			start.Wait()
			errs <- c.Do(context.Background(), CategoryInfo(CategoryLight, "d1", time.Now()), nil)
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Do() error: %v", err)
		}
	}

	// Initial login plus exactly one shared re-login for the whole burst.
	if logins.Load() != 2 {
		t.Errorf("expected 2 logins, got %d", logins.Load())
	}
}

func TestDoGivesUpAfterSecondAuthError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok"}`))
	})
	mux.HandleFunc("/v18/settings/light/d1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	err := c.Do(context.Background(), CategoryInfo(CategoryLight, "d1", time.Now()), nil)
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired, got %v", err)
	}
}

func TestDoSurfacesHTTPStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok"}`))
	})
	mux.HandleFunc("/v18/settings/light/d1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	err := c.Do(context.Background(), CategoryInfo(CategoryLight, "d1", time.Now()), nil)
	var statusErr HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d", statusErr.Status)
	}
}
