package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewUpstreamClientUsesTimeout(t *testing.T) {
	client := NewUpstreamClient(45 * time.Second)
	if client.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", client.Timeout)
	}
	if fallback := NewUpstreamClient(0); fallback.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %s", fallback.Timeout)
	}
}

func TestUpstreamClientSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := NewUpstreamClient(time.Second).Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if !strings.HasPrefix(got, "gl-gateway/") {
		t.Fatalf("unexpected user agent %q", got)
	}
}
