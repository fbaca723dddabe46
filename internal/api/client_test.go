// internal/api/client_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:8080")

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected baseURL=http://localhost:8080, got %s", c.baseURL)
	}
	if c.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8080/")
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
}

func TestFromServerURL(t *testing.T) {
	cases := map[string]string{
		"ws://localhost:8080/ws":        "http://localhost:8080",
		"wss://relay.example.com/ws":    "https://relay.example.com",
		"ws://localhost:8080/game/ws":   "http://localhost:8080/game",
		"http://localhost:8080/ws?x=1":  "http://localhost:8080",
		"https://relay.example.com/ws/": "https://relay.example.com/ws",
	}
	for in, want := range cases {
		c, err := FromServerURL(in)
		if err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if c.BaseURL() != want {
			t.Errorf("%s: expected %s, got %s", in, want, c.BaseURL())
		}
	}
}

func TestFromServerURL_BadScheme(t *testing.T) {
	if _, err := FromServerURL("ftp://localhost/ws"); err == nil {
		t.Error("expected error for ftp scheme")
	}
	if _, err := FromServerURL("://"); err == nil {
		t.Error("expected error for unparsable url")
	}
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(url)
	if err := c.Healthcheck(context.Background()); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.Healthcheck(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestHealthcheck_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(server.URL).Healthcheck(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
