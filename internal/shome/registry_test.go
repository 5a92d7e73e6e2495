package shome

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistrySharesClientPerUsername(t *testing.T) {
	var logins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg := NewRegistry(func(cred Credential) *Client {
		return NewClient(srv.URL, cred,
			WithHTTPClient(srv.Client()),
			WithSettleDelay(time.Millisecond))
	})

	const workers = 8
	clients := make([]*Client, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := reg.Get(context.Background(), testCred)
			if err != nil {
				t.Errorf("Get() error: %v", err)
				return
			}
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if clients[i] != clients[0] {
			t.Fatal("concurrent Get() returned different clients for the same username")
		}
	}
	if logins.Load() != 1 {
		t.Errorf("expected exactly 1 login, got %d", logins.Load())
	}

	// A second account gets its own client.
	other := testCred
	other.Username = "other"
	c2, err := reg.Get(context.Background(), other)
	if err != nil {
		t.Fatalf("Get(other) error: %v", err)
	}
	if c2 == clients[0] {
		t.Error("different usernames must not share a client")
	}
}

func TestRegistryFailedLoginNotCached(t *testing.T) {
	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v18/users/checkAppVersion", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeSessionCookies(w)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v18/users/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ihdId":"WP001.12","accessToken":"tok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg := NewRegistry(func(cred Credential) *Client {
		return NewClient(srv.URL, cred,
			WithHTTPClient(srv.Client()),
			WithSettleDelay(time.Millisecond))
	})

	if _, err := reg.Get(context.Background(), testCred); err == nil {
		t.Fatal("expected first Get() to fail")
	}
	if _, err := reg.Get(context.Background(), testCred); err != nil {
		t.Fatalf("second Get() should recover: %v", err)
	}
}
