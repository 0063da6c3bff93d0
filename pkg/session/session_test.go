package session

import (
	"testing"
	"time"

	"github.com/empower/empower/pkg/ingest"
	"github.com/empower/empower/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result() *ingest.Result {
	v := 42.5
	return &ingest.Result{
		Table: types.Table{
			Columns: []string{"treadmill"},
			Index:   []time.Time{time.Unix(1609459200, 0).UTC()},
			Rows:    [][]*float64{{&v}},
		},
		ColumnNames: []string{"treadmill"},
		Weather: types.WeatherTable{
			Columns: []string{"time", "temperature"},
			Rows:    [][]string{{"1609459200", "4.2"}},
		},
	}
}

func TestStore(t *testing.T) {
	st := NewStore(time.Hour)

	s := st.GetOrCreate("")
	_, err := uuid.Parse(s.ID())
	require.NoError(t, err, "session ids should be uuids")
	assert.Equal(t, 1, st.Len())

	again := st.GetOrCreate(s.ID())
	assert.Same(t, s, again)

	got, ok := st.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	other := st.GetOrCreate("not-a-session")
	assert.NotEqual(t, "not-a-session", other.ID(), "unknown ids must not be adopted")
	assert.NotSame(t, s, other)
	assert.Equal(t, 2, st.Len())

	_, ok = st.Get("missing")
	assert.False(t, ok)
}

func TestSession(t *testing.T) {
	t.Run("Navigate Before Load", func(t *testing.T) {
		s := NewStore(time.Hour).GetOrCreate("")
		_, err := s.Navigate(string(types.PagePowerForecasting))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, types.PageNone, s.Snapshot().Page)
	})

	t.Run("Store And Navigate", func(t *testing.T) {
		s := NewStore(time.Hour).GetOrCreate("")
		assert.False(t, s.Snapshot().Loaded())

		s.Store(result())
		state := s.Snapshot()
		require.True(t, state.Loaded())
		assert.Equal(t, []string{"treadmill"}, state.ColumnNames)
		assert.Equal(t, []string{"time", "temperature"}, state.WeatherData.Columns)
		assert.Len(t, state.UploadedData.Index, 1)

		for _, p := range types.Pages {
			got, err := s.Navigate(string(p))
			require.NoError(t, err)
			assert.Equal(t, p, got)
			assert.Equal(t, p, s.Snapshot().Page)
		}
	})

	t.Run("Unknown Page", func(t *testing.T) {
		s := NewStore(time.Hour).GetOrCreate("")
		s.Store(result())
		_, err := s.Navigate(string(types.PageTheftDetection))
		require.NoError(t, err)

		_, err = s.Navigate("Settings")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownPage)
		assert.Equal(t, types.PageTheftDetection, s.Snapshot().Page, "a bad page must not clear the selection")
	})

	t.Run("Store Keeps Page", func(t *testing.T) {
		s := NewStore(time.Hour).GetOrCreate("")
		s.Store(result())
		_, err := s.Navigate(string(types.PageEnergyOptimization))
		require.NoError(t, err)

		s.Store(result())
		assert.Equal(t, types.PageEnergyOptimization, s.Snapshot().Page)
	})
}

func TestExpiry(t *testing.T) {
	st := NewStore(time.Hour)
	idle := st.GetOrCreate("")
	fresh := st.GetOrCreate("")
	require.Equal(t, 2, st.Len())

	// backdate one session past the ttl
	idle.touch(time.Now().Add(-2 * time.Hour))

	t.Run("Expired Id Not Reused", func(t *testing.T) {
		s := st.GetOrCreate(idle.ID())
		assert.NotEqual(t, idle.ID(), s.ID())
		_, ok := st.Get(idle.ID())
		assert.False(t, ok)
	})

	t.Run("Cleanup", func(t *testing.T) {
		assert.Equal(t, 0, st.CleanupExpired(time.Now()))
		assert.Equal(t, 2, st.Len())

		assert.Equal(t, 2, st.CleanupExpired(time.Now().Add(2*time.Hour)))
		assert.Equal(t, 0, st.Len())
		_, ok := st.Get(fresh.ID())
		assert.False(t, ok)
	})

	t.Run("Requests Keep Sessions Alive", func(t *testing.T) {
		st := NewStore(time.Hour)
		s := st.GetOrCreate("")
		s.touch(time.Now().Add(-50 * time.Minute))
		again := st.GetOrCreate(s.ID())
		assert.Same(t, s, again)
		assert.WithinDuration(t, time.Now(), s.LastSeen(), time.Minute)
		assert.Equal(t, 0, st.CleanupExpired(time.Now().Add(30*time.Minute)))
	})

	t.Run("Zero TTL Never Expires", func(t *testing.T) {
		st := NewStore(0)
		s := st.GetOrCreate("")
		s.touch(time.Now().Add(-1000 * time.Hour))
		assert.Equal(t, 0, st.CleanupExpired(time.Now()))
		assert.Same(t, s, st.GetOrCreate(s.ID()))
	})
}
