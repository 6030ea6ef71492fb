package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehome/cinehome/internal/api"
)

type fakeLister struct {
	records []api.VideoRecord
	err     error
	calls   int
}

func (f *fakeLister) ListVideos(ctx context.Context) ([]api.VideoRecord, error) {
	f.calls++
	return f.records, f.err
}

func (f *fakeLister) StreamURL(videoID string) string {
	return "http://localhost:5000/api/videos/stream/" + videoID
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"underscore and extension", "My_Clip.mp4", "My Clip"},
		{"dots as separators", "some.show.s01e01.mkv", "some show s01e01"},
		{"dashes", "road-trip-2024.webm", "road trip 2024"},
		{"no extension", "plain", "plain"},
		{"mixed separators", "a_b-c.d.avi", "a b c d"},
		{"leading dot kept", ".hidden", " hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayName(tt.raw))
		})
	}
}

func TestCatalog_Load(t *testing.T) {
	t.Run("resolves stream URLs at fetch time", func(t *testing.T) {
		lister := &fakeLister{records: []api.VideoRecord{
			{ID: "a", Name: "My_Clip.mp4", Size: 1024},
		}}
		c := New(lister, nil)

		require.NoError(t, c.Load(context.Background()))
		videos := c.Videos()
		require.Len(t, videos, 1)
		assert.Equal(t, "http://localhost:5000/api/videos/stream/a", videos[0].URL)
		assert.Equal(t, "My Clip", videos[0].DisplayName())
	})

	t.Run("fetches only once", func(t *testing.T) {
		lister := &fakeLister{}
		c := New(lister, nil)

		require.NoError(t, c.Load(context.Background()))
		require.NoError(t, c.Load(context.Background()))
		assert.Equal(t, 1, lister.calls)
	})

	t.Run("reload refetches", func(t *testing.T) {
		lister := &fakeLister{}
		c := New(lister, nil)

		require.NoError(t, c.Load(context.Background()))
		require.NoError(t, c.Reload(context.Background()))
		assert.Equal(t, 2, lister.calls)
	})

	t.Run("empty library is flagged as empty, not unloaded", func(t *testing.T) {
		lister := &fakeLister{records: []api.VideoRecord{}}
		c := New(lister, nil)

		assert.False(t, c.Empty())
		require.NoError(t, c.Load(context.Background()))
		assert.True(t, c.Empty())
		assert.True(t, c.Loaded())
	})

	t.Run("fetch failure leaves the catalog unloaded", func(t *testing.T) {
		lister := &fakeLister{err: errors.New("boom")}
		c := New(lister, nil)

		require.Error(t, c.Load(context.Background()))
		assert.False(t, c.Loaded())
	})
}
