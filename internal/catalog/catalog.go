package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cinehome/cinehome/internal/api"
)

// Lister is the slice of the API client the catalog needs
type Lister interface {
	ListVideos(ctx context.Context) ([]api.VideoRecord, error)
	StreamURL(videoID string) string
}

// Video is one catalog entry. URL is the playable stream locator, resolved
// at fetch time rather than lazily.
type Video struct {
	ID        string
	Name      string
	Size      int64
	CreatedAt string
	URL       string
}

// DisplayName derives the human-readable title from the raw filename:
// one trailing extension is stripped, then separator characters become
// spaces. "My_Clip.mp4" renders as "My Clip".
func DisplayName(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-':
			return ' '
		}
		return r
	}, name)
}

// DisplayName returns the video's derived title
func (v Video) DisplayName() string {
	return DisplayName(v.Name)
}

// Catalog holds the full video list for the session, fetched once
type Catalog struct {
	mu     sync.RWMutex
	lister Lister
	logger *slog.Logger
	videos []Video
	loaded bool
}

// New creates an empty catalog backed by the given lister
func New(lister Lister, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{lister: lister, logger: logger}
}

// Load fetches the video list. The first successful fetch wins; later calls
// are no-ops unless Reload is used.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload refetches the video list unconditionally
func (c *Catalog) Reload(ctx context.Context) error {
	records, err := c.lister.ListVideos(ctx)
	if err != nil {
		return fmt.Errorf("failed to load video catalog: %w", err)
	}

	videos := make([]Video, 0, len(records))
	for _, r := range records {
		videos = append(videos, Video{
			ID:        r.ID,
			Name:      r.Name,
			Size:      r.Size,
			CreatedAt: r.CreatedAt,
			URL:       c.lister.StreamURL(r.ID),
		})
	}

	c.mu.Lock()
	c.videos = videos
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", "videos", len(videos))
	return nil
}

// Videos returns a copy of the full catalog in server order
func (c *Catalog) Videos() []Video {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Video, len(c.videos))
	copy(out, c.videos)
	return out
}

// Empty reports whether the library itself has no videos. This is distinct
// from a filter producing no results.
func (c *Catalog) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded && len(c.videos) == 0
}

// Loaded reports whether a fetch has completed
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
