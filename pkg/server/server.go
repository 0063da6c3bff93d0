package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/empower/empower/pkg/ingest"
	"github.com/empower/empower/pkg/log"
	"github.com/empower/empower/pkg/session"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	sessionCookie = "empower_session"

	defaultSessionTTL = 24 * time.Hour
)

type contextKey string

const sessionContextKey contextKey = "session"

// ingester runs one ingestion. It is satisfied by *ingest.Pipeline.
type ingester interface {
	Run(ctx context.Context) (*ingest.Result, error)
}

// Server exposes the ingestion and the per-user session state over HTTP.
// It is the thin layer the dashboard pages talk to.
type Server struct {
	pipeline ingester
	sessions *session.Store

	listenAddr    string
	httpServer    *http.Server
	serverName    string
	secureCookies bool
	previewRows   int

	cleanupInterval time.Duration
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(p *ingest.Pipeline) *Server {
	srv := &Server{
		pipeline:    p,
		sessions:    session.NewStore(defaultSessionTTL),
		serverName:  "empower",
		previewRows: 5,

		cleanupInterval: 30 * time.Minute,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	secureCookies := lflag.Bool("secure-cookies", false, "Only send the session cookie over HTTPS")
	serverName := lflag.String("server-name", srv.serverName, "Value of the Server response header")
	sessionTTL := lflag.Duration("session-ttl", defaultSessionTTL, "How long an idle session is kept before it is dropped. 0 keeps sessions forever.")

	lflag.Do(func() {
		if *sessionTTL < 0 {
			panic("session-ttl cannot be negative")
		}
		srv.sessions = session.NewStore(*sessionTTL)
		srv.listenAddr = *listenAddr
		srv.secureCookies = *secureCookies
		srv.serverName = *serverName
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/ingest", s.handleIngest)
	apiMux.HandleFunc("GET /api/session", s.handleGetSession)
	apiMux.HandleFunc("GET /api/session/data", s.handleGetSessionData)
	apiMux.HandleFunc("POST /api/navigate", s.handleNavigate)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.sessionMiddleware(apiMux))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.listenAddr,
		Handler:     s.setupHandler(),
		ReadTimeout: 15 * time.Second,
		// an ingestion fetches every file sequentially before responding
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  15 * time.Second,
	}

	go s.cleanupSessions(ctx)

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// cleanupSessions drops idle sessions every cleanupInterval until ctx is
// done.
func (s *Server) cleanupSessions(ctx context.Context) {
	if s.sessions.TTL() <= 0 || s.cleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.CleanupExpired(now); n > 0 {
				log.Ctx(ctx).DebugContext(ctx, "removed expired sessions",
					slog.Int("removed", n),
					slog.Int("remaining", s.sessions.Len()),
				)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, struct {
		Error string `json:"error"`
	}{Error: msg}, code)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware attaches the caller's session to the request, issuing a
// new session cookie when the caller doesn't present a known one.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
		sess := s.sessions.GetOrCreate(id)
		if sess.ID() != id {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secureCookies,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(s.sessions.TTL() / time.Second),
			})
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		ctx = log.WithSession(ctx, sess.ID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) getSession(r *http.Request) *session.Session {
	if sess, ok := r.Context().Value(sessionContextKey).(*session.Session); ok {
		return sess
	}
	// we want to have a stack trace when this happens
	panic("no session in context")
}
