package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinehome/cinehome/internal/catalog"
	"github.com/cinehome/cinehome/internal/notify"
	"github.com/cinehome/cinehome/internal/session"
)

// Status is the controller's view of playback
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return "idle"
	}
}

// ProgressStore is the slice of the user state the controller reads and
// writes around playback
type ProgressStore interface {
	RecordRecent(ctx context.Context, videoID string) error
	SetProgress(ctx context.Context, videoID string, percent float64) error
	Progress(videoID string) int
}

// Options tune controller behavior
type Options struct {
	Fullscreen       bool
	Volume           int
	AutoAdvanceDelay time.Duration // pause before auto-playing the next video
	StartRetryDelay  time.Duration // pause before the single start retry
}

// DefaultOptions mirror the shipped config defaults
func DefaultOptions() Options {
	return Options{
		Volume:           100,
		AutoAdvanceDelay: 2 * time.Second,
		StartRetryDelay:  time.Second,
	}
}

// Controller owns the active playback list and an index into it, and keeps
// watch progress flowing back into the user state. Index −1 means nothing
// is active. The index never wraps: walking past either end leaves it
// unchanged and emits a notice.
type Controller struct {
	mu       sync.Mutex
	backend  Player
	store    ProgressStore
	notifier notify.Notifier
	logger   *slog.Logger
	opts     Options

	queue     []catalog.Video
	index     int
	currentID string
	status    Status

	// resumePercent is consumed by the first progress sample that carries
	// a known duration
	resumePercent int

	advanceTimer *time.Timer
}

// NewController wires a controller over a player backend. The backend's
// callbacks are claimed by the controller.
func NewController(backend Player, store ProgressStore, notifier notify.Notifier, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Logged(logger)
	}
	if opts.AutoAdvanceDelay <= 0 {
		opts.AutoAdvanceDelay = DefaultOptions().AutoAdvanceDelay
	}

	c := &Controller{
		backend:  backend,
		store:    store,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		index:    -1,
		status:   StatusIdle,
	}

	backend.OnProgressUpdate(c.handleProgress)
	backend.OnPlaybackEnd(c.handleEnd)
	backend.OnError(c.handleError)
	return c
}

// SetQueue replaces the playback list. Any active playback is stopped and
// the index resets to −1; a stale index into a recomputed list must never
// survive.
func (c *Controller) SetQueue(ctx context.Context, videos []catalog.Video) {
	c.mu.Lock()
	c.cancelAdvanceLocked()
	queue := make([]catalog.Video, len(videos))
	copy(queue, videos)
	c.queue = queue
	c.index = -1
	c.currentID = ""
	c.status = StatusIdle
	c.mu.Unlock()

	if err := c.backend.Stop(ctx); err != nil {
		c.logger.Warn("failed to stop playback on queue change", "error", err)
	}
}

// Play starts the video at position i in the queue. Out-of-range indexes
// are ignored. On a start failure it retries once, then gives up with a
// notice, leaving the index where it was.
func (c *Controller) Play(ctx context.Context, i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.queue) {
		c.mu.Unlock()
		return nil
	}
	video := c.queue[i]
	c.cancelAdvanceLocked()
	c.status = StatusLoading
	c.mu.Unlock()

	if err := c.backend.Stop(ctx); err != nil {
		c.logger.Warn("failed to stop previous playback", "error", err)
	}

	if err := c.store.RecordRecent(ctx, video.ID); err != nil {
		c.logger.Warn("failed to record recent entry", "video_id", video.ID, "error", err)
	}

	resume := 0
	if pct := c.store.Progress(video.ID); pct > 0 && pct < session.CompleteThreshold {
		resume = pct
	}

	opts := PlayOptions{
		Volume:     c.opts.Volume,
		Fullscreen: c.opts.Fullscreen,
		Title:      video.DisplayName(),
	}

	err := c.backend.Play(ctx, video.URL, opts)
	if err != nil {
		c.logger.Warn("playback failed to start, retrying", "video_id", video.ID, "error", err)
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(c.opts.StartRetryDelay):
			err = c.backend.Play(ctx, video.URL, opts)
		}
	}
	if err != nil {
		c.mu.Lock()
		c.status = StatusIdle
		c.mu.Unlock()
		c.notifier.Notify(notify.LevelError, fmt.Sprintf("Unable to play %q", video.DisplayName()))
		c.logger.Error("playback failed to start", "video_id", video.ID, "error", err)
		return fmt.Errorf("failed to start playback: %w", err)
	}

	c.mu.Lock()
	c.index = i
	c.currentID = video.ID
	c.resumePercent = resume
	c.status = StatusPlaying
	c.mu.Unlock()

	c.logger.Info("playback started", "video_id", video.ID, "index", i, "resume_percent", resume)
	return nil
}

// Next advances to the following video. At the end of the list the index
// stays put and a notice is emitted.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.index < 0 || len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}
	if c.index+1 >= len(c.queue) {
		c.mu.Unlock()
		c.notifier.Notify(notify.LevelInfo, "End of playlist")
		return nil
	}
	next := c.index + 1
	c.mu.Unlock()
	return c.Play(ctx, next)
}

// Previous steps back one video, with the same boundary behavior as Next
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	if c.index < 0 || len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}
	if c.index == 0 {
		c.mu.Unlock()
		c.notifier.Notify(notify.LevelInfo, "Beginning of playlist")
		return nil
	}
	prev := c.index - 1
	c.mu.Unlock()
	return c.Play(ctx, prev)
}

// TogglePause flips between playing and paused
func (c *Controller) TogglePause(ctx context.Context) error {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()

	switch status {
	case StatusPlaying:
		return c.Pause(ctx)
	case StatusPaused:
		return c.Resume(ctx)
	default:
		return nil
	}
}

// Pause suspends playback
func (c *Controller) Pause(ctx context.Context) error {
	if err := c.backend.SetPaused(ctx, true); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	c.mu.Lock()
	if c.status == StatusPlaying {
		c.status = StatusPaused
	}
	c.mu.Unlock()
	return nil
}

// Resume continues paused playback
func (c *Controller) Resume(ctx context.Context) error {
	if err := c.backend.SetPaused(ctx, false); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	c.mu.Lock()
	if c.status == StatusPaused {
		c.status = StatusPlaying
	}
	c.mu.Unlock()
	return nil
}

// AdjustVolume changes the player volume by delta percentage points
func (c *Controller) AdjustVolume(ctx context.Context, delta int) error {
	return c.backend.AdjustVolume(ctx, delta)
}

// SeekBy moves the playback position by delta, clamped at zero
func (c *Controller) SeekBy(ctx context.Context, delta time.Duration) error {
	progress, err := c.backend.GetProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to read position: %w", err)
	}
	target := progress.CurrentTime + delta
	if target < 0 {
		target = 0
	}
	return c.backend.Seek(ctx, target)
}

// PlaybackProgress samples the backend's current position
func (c *Controller) PlaybackProgress(ctx context.Context) (*PlaybackProgress, error) {
	return c.backend.GetProgress(ctx)
}

// Close stops playback and returns the controller to idle
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	c.cancelAdvanceLocked()
	c.index = -1
	c.currentID = ""
	c.status = StatusIdle
	c.mu.Unlock()
	return c.backend.Stop(ctx)
}

// Status returns the controller's playback state
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Index returns the active position in the queue, −1 when idle
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Current returns the active video, if any
func (c *Controller) Current() (catalog.Video, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < 0 || c.index >= len(c.queue) {
		return catalog.Video{}, false
	}
	return c.queue[c.index], true
}

// Queue returns a copy of the playback list
func (c *Controller) Queue() []catalog.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]catalog.Video, len(c.queue))
	copy(out, c.queue)
	return out
}

// handleProgress consumes one position sample from the backend. The first
// sample with a known duration performs the deferred resume seek; later
// samples feed the watch-progress store. Samples without a duration carry
// no usable percentage and are dropped.
func (c *Controller) handleProgress(p PlaybackProgress) {
	c.mu.Lock()
	id := c.currentID
	resume := c.resumePercent
	if p.Duration > 0 {
		c.resumePercent = 0
	}
	if c.status == StatusPlaying && p.Paused {
		c.status = StatusPaused
	} else if c.status == StatusPaused && !p.Paused {
		c.status = StatusPlaying
	}
	c.mu.Unlock()

	if id == "" || p.Duration <= 0 {
		return
	}

	if resume > 0 {
		target := time.Duration(float64(p.Duration) * float64(resume) / 100)
		if err := c.backend.Seek(context.Background(), target); err != nil {
			c.logger.Warn("failed to restore playback position", "video_id", id, "error", err)
		}
		return
	}

	if err := c.store.SetProgress(context.Background(), id, p.Percentage); err != nil {
		c.logger.Warn("failed to record watch progress", "video_id", id, "error", err)
	}
}

// handleEnd marks the video complete and schedules the auto-advance, or
// reports the end of the playlist when there is no successor.
func (c *Controller) handleEnd() {
	c.mu.Lock()
	id := c.currentID
	next := -1
	if c.index >= 0 && c.index+1 < len(c.queue) {
		next = c.index + 1
	}
	c.status = StatusEnded
	c.cancelAdvanceLocked()
	if next >= 0 {
		c.advanceTimer = time.AfterFunc(c.opts.AutoAdvanceDelay, func() {
			if err := c.Play(context.Background(), next); err != nil {
				c.logger.Warn("auto-advance failed", "index", next, "error", err)
			}
		})
	}
	c.mu.Unlock()

	if id != "" {
		if err := c.store.SetProgress(context.Background(), id, 100); err != nil {
			c.logger.Warn("failed to record completion", "video_id", id, "error", err)
		}
	}

	if next < 0 {
		c.notifier.Notify(notify.LevelInfo, "Playlist ended")
	}
}

func (c *Controller) handleError(err error) {
	c.logger.Error("player error", "error", err)
	c.notifier.Notify(notify.LevelError, fmt.Sprintf("Playback error: %v", err))
}

func (c *Controller) cancelAdvanceLocked() {
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
		c.advanceTimer = nil
	}
}
