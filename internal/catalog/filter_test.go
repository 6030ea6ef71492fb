package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeState is a fixed-membership StateView
type fakeState struct {
	favorites map[string]bool
	watchlist map[string]bool
	progress  map[string]int
	recents   []string
}

func (f *fakeState) IsFavorite(id string) bool  { return f.favorites[id] }
func (f *fakeState) InWatchlist(id string) bool { return f.watchlist[id] }
func (f *fakeState) InProgress(id string) bool {
	p := f.progress[id]
	return p > 0 && p < 95
}
func (f *fakeState) Recents() []string { return f.recents }

func emptyState() *fakeState {
	return &fakeState{
		favorites: map[string]bool{},
		watchlist: map[string]bool{},
		progress:  map[string]int{},
	}
}

func testVideos() []Video {
	return []Video{
		{ID: "a", Name: "My_Clip.mp4"},
		{ID: "b", Name: "road-trip.webm"},
		{ID: "c", Name: "some.show.s01e01.mkv"},
	}
}

func ids(videos []Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

func TestFilter_Views(t *testing.T) {
	t.Run("all preserves catalog order", func(t *testing.T) {
		out := Filter(testVideos(), ViewAll, emptyState(), "")
		assert.Equal(t, []string{"a", "b", "c"}, ids(out))
	})

	t.Run("favorites intersects in catalog order", func(t *testing.T) {
		state := emptyState()
		state.favorites["c"] = true
		state.favorites["a"] = true

		out := Filter(testVideos(), ViewFavorites, state, "")
		assert.Equal(t, []string{"a", "c"}, ids(out))
	})

	t.Run("favorites on empty state is empty", func(t *testing.T) {
		out := Filter(testVideos(), ViewFavorites, emptyState(), "")
		assert.Empty(t, out)
	})

	t.Run("watchlist intersects in catalog order", func(t *testing.T) {
		state := emptyState()
		state.watchlist["b"] = true

		out := Filter(testVideos(), ViewWatchlist, state, "")
		assert.Equal(t, []string{"b"}, ids(out))
	})

	t.Run("recent follows the recency sequence, not catalog order", func(t *testing.T) {
		state := emptyState()
		state.recents = []string{"c", "a"}

		out := Filter(testVideos(), ViewRecent, state, "")
		assert.Equal(t, []string{"c", "a"}, ids(out))
	})

	t.Run("recent drops ids no longer in the catalog", func(t *testing.T) {
		state := emptyState()
		state.recents = []string{"deleted", "b"}

		out := Filter(testVideos(), ViewRecent, state, "")
		assert.Equal(t, []string{"b"}, ids(out))
	})

	t.Run("continue keeps only partially watched videos", func(t *testing.T) {
		state := emptyState()
		state.progress["a"] = 94
		state.progress["b"] = 95
		state.progress["c"] = 0

		out := Filter(testVideos(), ViewContinue, state, "")
		assert.Equal(t, []string{"a"}, ids(out))
	})
}

func TestFilter_Search(t *testing.T) {
	t.Run("case-insensitive substring over display names", func(t *testing.T) {
		out := Filter(testVideos(), ViewAll, emptyState(), "my clip")
		require.Len(t, out, 1)
		assert.Equal(t, "a", out[0].ID)
	})

	t.Run("matches the separator-normalized name", func(t *testing.T) {
		// "road-trip" displays as "road trip"; the raw hyphen does not match
		out := Filter(testVideos(), ViewAll, emptyState(), "road trip")
		require.Len(t, out, 1)
		assert.Equal(t, "b", out[0].ID)

		out = Filter(testVideos(), ViewAll, emptyState(), "road-trip")
		assert.Empty(t, out)
	})

	t.Run("applies after the view selection", func(t *testing.T) {
		state := emptyState()
		state.favorites["a"] = true
		state.favorites["b"] = true

		out := Filter(testVideos(), ViewFavorites, state, "clip")
		assert.Equal(t, []string{"a"}, ids(out))
	})

	t.Run("no match yields empty without touching the input", func(t *testing.T) {
		videos := testVideos()
		out := Filter(videos, ViewAll, emptyState(), "zzz")
		assert.Empty(t, out)
		assert.Len(t, videos, 3)
	})
}

func TestFilter_Deterministic(t *testing.T) {
	state := emptyState()
	state.favorites["a"] = true
	state.favorites["c"] = true
	state.recents = []string{"b", "a"}
	state.progress["b"] = 50

	for _, view := range Views() {
		first := Filter(testVideos(), view, state, "s")
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Filter(testVideos(), view, state, "s"), "view %s", view)
		}
	}
}

func TestParseView(t *testing.T) {
	assert.Equal(t, ViewFavorites, ParseView("favorites"))
	assert.Equal(t, ViewContinue, ParseView("Continue"))
	assert.Equal(t, ViewAll, ParseView("bogus"))
	assert.Equal(t, "watchlist", ViewWatchlist.String())
}

func TestSearch_Fuzzy(t *testing.T) {
	t.Run("subsequence matches rank", func(t *testing.T) {
		out := Search(testVideos(), "mclp")
		require.NotEmpty(t, out)
		assert.Equal(t, "a", out[0].ID)
	})

	t.Run("empty query keeps input order", func(t *testing.T) {
		out := Search(testVideos(), "")
		assert.Equal(t, []string{"a", "b", "c"}, ids(out))
	})
}
