package throttle

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowBurstThenReject(t *testing.T) {
	l := New(1, 2)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow("a") {
		t.Fatalf("third request in the same instant should be rejected")
	}
	if !l.Allow("b") {
		t.Fatalf("other clients have their own bucket")
	}

	fixed = fixed.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("token should refill after a second")
	}
}

func TestSweepForgetsIdleClients(t *testing.T) {
	l := New(1, 1)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	l.Allow("a")
	fixed = fixed.Add(time.Hour)
	l.Allow("b")
	if l.Len() != 1 {
		t.Fatalf("idle client not swept: %d tracked", l.Len())
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, 1)
	h := l.Middleware(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	if got := ClientKey(req); got != "192.0.2.7" {
		t.Fatalf("remote addr: %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientKey(req); got != "203.0.113.9" {
		t.Fatalf("forwarded: %q", got)
	}
}
