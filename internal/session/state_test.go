package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehome/cinehome/internal/api"
)

// fakeRemote records calls and fails on demand
type fakeRemote struct {
	data     *api.UserData
	dataErr  error
	failNext bool
	calls    []string
}

func (f *fakeRemote) maybeFail(call string) error {
	f.calls = append(f.calls, call)
	if f.failNext {
		f.failNext = false
		return errors.New("remote unavailable")
	}
	return nil
}

func (f *fakeRemote) UserData(ctx context.Context, userID string) (*api.UserData, error) {
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	return f.data, nil
}

func (f *fakeRemote) AddFavorite(ctx context.Context, userID, videoID string) error {
	return f.maybeFail("add_favorite:" + videoID)
}

func (f *fakeRemote) RemoveFavorite(ctx context.Context, userID, videoID string) error {
	return f.maybeFail("remove_favorite:" + videoID)
}

func (f *fakeRemote) AddToWatchlist(ctx context.Context, userID, videoID string) error {
	return f.maybeFail("add_watchlist:" + videoID)
}

func (f *fakeRemote) RemoveFromWatchlist(ctx context.Context, userID, videoID string) error {
	return f.maybeFail("remove_watchlist:" + videoID)
}

func (f *fakeRemote) AddRecent(ctx context.Context, userID, videoID string) error {
	return f.maybeFail("add_recent:" + videoID)
}

func (f *fakeRemote) SetProgress(ctx context.Context, userID, videoID string, percent int) error {
	return f.maybeFail(fmt.Sprintf("set_progress:%s:%d", videoID, percent))
}

func newTestState(remote *fakeRemote) *State {
	return NewState(remote, "u1", nil)
}

func TestState_Hydrate(t *testing.T) {
	t.Run("replaces all collections", func(t *testing.T) {
		remote := &fakeRemote{data: &api.UserData{
			Favorites:     []string{"a", "b"},
			Watchlist:     []string{"c"},
			RecentVideos:  []string{"b", "a"},
			WatchProgress: map[string]int{"a": 42},
		}}
		s := newTestState(remote)

		require.NoError(t, s.Hydrate(context.Background()))
		assert.Equal(t, []string{"a", "b"}, s.Favorites())
		assert.Equal(t, []string{"c"}, s.Watchlist())
		assert.Equal(t, []string{"b", "a"}, s.Recents())
		assert.Equal(t, 42, s.Progress("a"))
	})

	t.Run("missing fields default to empty", func(t *testing.T) {
		remote := &fakeRemote{data: &api.UserData{}}
		s := newTestState(remote)

		require.NoError(t, s.Hydrate(context.Background()))
		assert.Empty(t, s.Favorites())
		assert.Empty(t, s.Watchlist())
		assert.Empty(t, s.Recents())
		assert.Empty(t, s.ProgressMap())
	})

	t.Run("failure keeps prior values and is non-fatal", func(t *testing.T) {
		remote := &fakeRemote{dataErr: errors.New("boom")}
		s := newTestState(remote)

		err := s.Hydrate(context.Background())
		require.Error(t, err)
		assert.Empty(t, s.Favorites())
	})

	t.Run("drops duplicates and over-long recents", func(t *testing.T) {
		recents := make([]string, 0, 25)
		for i := 0; i < 25; i++ {
			recents = append(recents, fmt.Sprintf("v%d", i))
		}
		remote := &fakeRemote{data: &api.UserData{
			Favorites:    []string{"a", "a", "b"},
			RecentVideos: recents,
		}}
		s := newTestState(remote)

		require.NoError(t, s.Hydrate(context.Background()))
		assert.Equal(t, []string{"a", "b"}, s.Favorites())
		assert.Len(t, s.Recents(), MaxRecents)
	})
}

func TestState_ToggleFavorite(t *testing.T) {
	t.Run("double toggle round-trips", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)

		added, err := s.ToggleFavorite(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, added)
		assert.True(t, s.IsFavorite("a"))

		added, err = s.ToggleFavorite(context.Background(), "a")
		require.NoError(t, err)
		assert.False(t, added)
		assert.False(t, s.IsFavorite("a"))

		assert.Equal(t, []string{"add_favorite:a", "remove_favorite:a"}, remote.calls)
	})

	t.Run("reverts the add on remote failure", func(t *testing.T) {
		remote := &fakeRemote{failNext: true}
		s := newTestState(remote)

		_, err := s.ToggleFavorite(context.Background(), "a")
		require.Error(t, err)
		assert.False(t, s.IsFavorite("a"))
	})

	t.Run("reverts the remove on remote failure", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)
		_, err := s.ToggleFavorite(context.Background(), "a")
		require.NoError(t, err)

		remote.failNext = true
		_, err = s.ToggleFavorite(context.Background(), "a")
		require.Error(t, err)
		assert.True(t, s.IsFavorite("a"))
	})
}

func TestState_ToggleWatchlist(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestState(remote)

	added, err := s.ToggleWatchlist(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, s.InWatchlist("x"))

	added, err = s.ToggleWatchlist(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, s.InWatchlist("x"))
}

func TestState_RecordRecent(t *testing.T) {
	t.Run("re-inserting moves to the head without duplicating", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)

		require.NoError(t, s.RecordRecent(context.Background(), "a"))
		require.NoError(t, s.RecordRecent(context.Background(), "b"))
		require.NoError(t, s.RecordRecent(context.Background(), "a"))

		assert.Equal(t, []string{"a", "b"}, s.Recents())
	})

	t.Run("caps at twenty most-recent entries", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)

		for i := 0; i < 21; i++ {
			require.NoError(t, s.RecordRecent(context.Background(), fmt.Sprintf("v%d", i)))
		}

		recents := s.Recents()
		require.Len(t, recents, MaxRecents)
		assert.Equal(t, "v20", recents[0])
		assert.Equal(t, "v1", recents[MaxRecents-1])
		assert.NotContains(t, recents, "v0")
	})

	t.Run("restores the prior sequence on remote failure", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)
		require.NoError(t, s.RecordRecent(context.Background(), "a"))
		require.NoError(t, s.RecordRecent(context.Background(), "b"))

		remote.failNext = true
		require.Error(t, s.RecordRecent(context.Background(), "c"))
		assert.Equal(t, []string{"b", "a"}, s.Recents())
	})
}

func TestState_SetProgress(t *testing.T) {
	t.Run("rounds and stores", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)

		require.NoError(t, s.SetProgress(context.Background(), "a", 41.6))
		assert.Equal(t, 42, s.Progress("a"))
		assert.Equal(t, []string{"set_progress:a:42"}, remote.calls)
	})

	t.Run("clamps out-of-range values", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)

		require.NoError(t, s.SetProgress(context.Background(), "a", 120))
		assert.Equal(t, 100, s.Progress("a"))

		require.NoError(t, s.SetProgress(context.Background(), "a", -3))
		assert.Equal(t, 0, s.Progress("a"))
	})

	t.Run("ignores non-finite input", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)

		require.NoError(t, s.SetProgress(context.Background(), "a", math.NaN()))
		require.NoError(t, s.SetProgress(context.Background(), "a", math.Inf(1)))
		assert.Empty(t, remote.calls)
		assert.Equal(t, 0, s.Progress("a"))
	})

	t.Run("restores the prior value on remote failure", func(t *testing.T) {
		remote := &fakeRemote{}
		s := newTestState(remote)
		require.NoError(t, s.SetProgress(context.Background(), "a", 40))

		remote.failNext = true
		require.Error(t, s.SetProgress(context.Background(), "a", 50))
		assert.Equal(t, 40, s.Progress("a"))
	})

	t.Run("removes the entry when the first write fails", func(t *testing.T) {
		remote := &fakeRemote{failNext: true}
		s := newTestState(remote)

		require.Error(t, s.SetProgress(context.Background(), "a", 10))
		assert.Equal(t, 0, s.Progress("a"))
		assert.False(t, s.InProgress("a"))
	})
}

func TestState_InProgress(t *testing.T) {
	tests := []struct {
		name     string
		percent  float64
		expected bool
	}{
		{"zero is not started", 0, false},
		{"one percent counts", 1, true},
		{"ninety-four counts", 94, true},
		{"ninety-five is completed", 95, false},
		{"hundred is completed", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			s := newTestState(remote)
			if tt.percent > 0 {
				require.NoError(t, s.SetProgress(context.Background(), "a", tt.percent))
			}
			assert.Equal(t, tt.expected, s.InProgress("a"))
		})
	}
}

func TestState_Snapshot(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestState(remote)
	_, err := s.ToggleFavorite(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, s.RecordRecent(context.Background(), "a"))
	require.NoError(t, s.SetProgress(context.Background(), "a", 30))

	snap := s.Snapshot()
	assert.Equal(t, []string{"a"}, snap.Favorites)
	assert.Equal(t, []string{"a"}, snap.RecentVideos)
	assert.Equal(t, 30, snap.WatchProgress["a"])

	// Mutating the snapshot must not leak back into the cache
	snap.Favorites[0] = "z"
	snap.WatchProgress["a"] = 99
	assert.True(t, s.IsFavorite("a"))
	assert.Equal(t, 30, s.Progress("a"))
}
