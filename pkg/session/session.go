package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/empower/empower/pkg/ingest"
	"github.com/empower/empower/pkg/types"
	"github.com/google/uuid"
)

var (
	// ErrNoData is returned when navigating before any ingestion succeeded.
	ErrNoData = errors.New("no data loaded")

	// ErrUnknownPage is returned when navigating to a page that doesn't exist.
	ErrUnknownPage = errors.New("unknown page")
)

// State is what downstream pages read from a session.
type State struct {
	UploadedData types.Table        `json:"uploaded_data"`
	ColumnNames  []string           `json:"column_names"`
	WeatherData  types.WeatherTable `json:"weather_data"`
	Page         types.Page         `json:"page"`
	LoadedAt     time.Time          `json:"loaded_at"`
}

// Loaded returns true once an ingestion has been stored.
func (s State) Loaded() bool {
	return !s.LoadedAt.IsZero()
}

// Session holds one dashboard user's ingested data.
type Session struct {
	id string

	mu       sync.RWMutex
	state    State
	lastSeen time.Time
}

// ID returns the session's identifier.
func (s *Session) ID() string {
	return s.id
}

// Store replaces the session's data with a successful ingestion. The page
// selector is kept.
func (s *Session) Store(res *ingest.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UploadedData = res.Table
	s.state.ColumnNames = res.ColumnNames
	s.state.WeatherData = res.Weather
	s.state.LoadedAt = time.Now()
}

// Navigate selects the downstream page.
func (s *Session) Navigate(page string) (types.Page, error) {
	p, err := types.ParsePage(page)
	if err != nil {
		return types.PageNone, fmt.Errorf("%w: %w", ErrUnknownPage, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Loaded() {
		return types.PageNone, ErrNoData
	}
	s.state.Page = p
	return p, nil
}

// Snapshot returns the session's current state. The tables are shared and
// must not be modified.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns when the session was last requested.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// Store keeps sessions in memory until they have been idle for longer than
// its ttl.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore creates an empty Store whose sessions expire after ttl without a
// request.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// TTL returns how long a session may sit idle.
func (st *Store) TTL() time.Duration {
	return st.ttl
}

// Get returns the session for id, if it exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok || st.expired(s, time.Now()) {
		return nil, false
	}
	return s, true
}

// GetOrCreate returns the session for id or creates a new one with a fresh
// id when id is missing or expired. Either way the session counts as
// seen now.
func (st *Store) GetOrCreate(id string) *Session {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok && !st.expired(s, now) {
		s.touch(now)
		return s
	}
	delete(st.sessions, id)
	s := &Session{id: uuid.NewString(), lastSeen: now}
	st.sessions[s.id] = s
	return s
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.LastSeen()) > st.ttl
}

// CleanupExpired removes every session idle for longer than the ttl and
// returns how many were removed.
func (st *Store) CleanupExpired(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	var removed int
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
