package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/empower/empower/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	handler := newTestServer(&mockIngester{}).setupHandler()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "empower", w.Header().Get("Server"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Set-Cookie"), "health checks should not create sessions")
}

func TestMetrics(t *testing.T) {
	handler := newTestServer(&mockIngester{}).setupHandler()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}

func TestSessionCookie(t *testing.T) {
	srv := newTestServer(&mockIngester{})
	handler := srv.setupHandler()

	req := httptest.NewRequest("GET", "/api/session", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.Equal(t, 1, srv.sessions.Len())

	// presenting the cookie reuses the session and doesn't reissue it
	req = httptest.NewRequest("GET", "/api/session", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, 1, srv.sessions.Len())

	// an unknown cookie gets replaced
	req = httptest.NewRequest("GET", "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "stale"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Len(t, w.Result().Cookies(), 1)
	assert.NotEqual(t, "stale", w.Result().Cookies()[0].Value)
	assert.Equal(t, 2, srv.sessions.Len())
}

func TestSessionCleanup(t *testing.T) {
	srv := newTestServer(&mockIngester{})
	srv.sessions = session.NewStore(50 * time.Millisecond)
	srv.cleanupInterval = 10 * time.Millisecond
	handler := srv.setupHandler()

	// cookieless clients get a new session on every request
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/api/session", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
	require.Equal(t, 100, srv.sessions.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.cleanupSessions(ctx)
	}()

	assert.Eventually(t, func() bool {
		return srv.sessions.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop after the context was canceled")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestServer(&mockIngester{}).setupHandler()

	req := httptest.NewRequest("GET", "/api/ingest", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
