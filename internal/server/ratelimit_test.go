package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"timetracker/internal/server"
)

func tokenRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/", strings.NewReader(`{"username":"alice","password":"pw-alice"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateLimitFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnv(t, server.Options{RateLimit: 1, RateWindow: time.Minute, Redis: client})
	env.user("alice")

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, tokenRequest("192.0.2.1:1234"))
		expectStatus(t, rec, http.StatusOK)
		if rec.Header().Get("X-RateLimit-Error") == "" {
			t.Fatal("expected X-RateLimit-Error when redis is down")
		}
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	env := newTestEnv(t, server.Options{RateLimit: 1, RateWindow: time.Minute})
	env.user("alice")

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, tokenRequest("192.0.2.1:1234"))
		expectStatus(t, rec, http.StatusOK)
		if rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatal("limiter headers set without redis")
		}
	}
}

func TestRateLimitWithRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	env := newTestEnv(t, server.Options{RateLimit: 2, RateWindow: 2 * time.Second, Redis: client})
	env.user("alice")

	// A per-run address keeps reruns within one window from colliding.
	ip := "198.51.100." + strconv.Itoa(time.Now().Second()+1)
	t.Cleanup(func() { client.Del(context.Background(), "rl:2:"+ip) })

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, tokenRequest(ip+":4000"))
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, want)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "2" {
			t.Fatalf("request %d: X-RateLimit-Limit = %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
		if want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "2" {
			t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
		}
	}

	other := httptest.NewRecorder()
	env.handler.ServeHTTP(other, tokenRequest("203.0.113.9:4000"))
	expectStatus(t, other, http.StatusOK)
	client.Del(context.Background(), "rl:2:203.0.113.9")

	time.Sleep(2100 * time.Millisecond)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, tokenRequest(ip+":4000"))
	expectStatus(t, rec, http.StatusOK)
}
