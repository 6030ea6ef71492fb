package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cinehome/cinehome/internal/api"
)

const (
	// MaxRecents caps the recently-watched sequence
	MaxRecents = 20

	// CompleteThreshold is the percentage at and above which a video counts
	// as finished and drops out of continue-watching
	CompleteThreshold = 95
)

// RemoteStore is the slice of the API client the state cache persists through
type RemoteStore interface {
	UserData(ctx context.Context, userID string) (*api.UserData, error)
	AddFavorite(ctx context.Context, userID, videoID string) error
	RemoveFavorite(ctx context.Context, userID, videoID string) error
	AddToWatchlist(ctx context.Context, userID, videoID string) error
	RemoveFromWatchlist(ctx context.Context, userID, videoID string) error
	AddRecent(ctx context.Context, userID, videoID string) error
	SetProgress(ctx context.Context, userID, videoID string, percent int) error
}

// State is the in-memory mirror of the four per-user collections. All
// mutation goes through its methods: changes are applied locally first for
// immediate UI feedback, then persisted; a terminal remote failure reverts
// the local change and returns the error. Local state is authoritative for
// the session, the remote store is a mirror.
type State struct {
	mu     sync.RWMutex
	remote RemoteStore
	userID string
	logger *slog.Logger

	favorites []string
	watchlist []string
	recents   []string
	progress  map[string]int
}

// NewState creates an empty state cache for the given user
func NewState(remote RemoteStore, userID string, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		remote:   remote,
		userID:   userID,
		logger:   logger,
		progress: make(map[string]int),
	}
}

// UserID returns the session's user id
func (s *State) UserID() string {
	return s.userID
}

// Hydrate replaces all four collections from the bulk endpoint. Missing
// fields default to their empty form. Failure leaves the previous values in
// place and is non-fatal to the caller.
func (s *State) Hydrate(ctx context.Context) error {
	data, err := s.remote.UserData(ctx, s.userID)
	if err != nil {
		s.logger.Error("failed to hydrate user state", "error", err)
		return fmt.Errorf("hydrate failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.favorites = dedupe(data.Favorites)
	s.watchlist = dedupe(data.Watchlist)
	s.recents = dedupe(data.RecentVideos)
	if len(s.recents) > MaxRecents {
		s.recents = s.recents[:MaxRecents]
	}

	s.progress = make(map[string]int, len(data.WatchProgress))
	for id, pct := range data.WatchProgress {
		s.progress[id] = clampPercent(pct)
	}

	s.logger.Debug("user state hydrated",
		"favorites", len(s.favorites),
		"watchlist", len(s.watchlist),
		"recents", len(s.recents),
		"progress", len(s.progress),
	)
	return nil
}

// ToggleFavorite flips local membership first, then persists. The returned
// bool reports whether the video is a favorite after the call. On remote
// failure the local flip is reverted.
func (s *State) ToggleFavorite(ctx context.Context, videoID string) (bool, error) {
	s.mu.Lock()
	added := !contains(s.favorites, videoID)
	if added {
		s.favorites = append(s.favorites, videoID)
	} else {
		s.favorites = remove(s.favorites, videoID)
	}
	s.mu.Unlock()

	var err error
	if added {
		err = s.remote.AddFavorite(ctx, s.userID, videoID)
	} else {
		err = s.remote.RemoveFavorite(ctx, s.userID, videoID)
	}
	if err != nil {
		s.mu.Lock()
		if added {
			s.favorites = remove(s.favorites, videoID)
		} else if !contains(s.favorites, videoID) {
			s.favorites = append(s.favorites, videoID)
		}
		s.mu.Unlock()
		s.logger.Error("failed to persist favorite toggle", "video_id", videoID, "error", err)
		return !added, fmt.Errorf("favorite update failed: %w", err)
	}

	return added, nil
}

// ToggleWatchlist is symmetric to ToggleFavorite
func (s *State) ToggleWatchlist(ctx context.Context, videoID string) (bool, error) {
	s.mu.Lock()
	added := !contains(s.watchlist, videoID)
	if added {
		s.watchlist = append(s.watchlist, videoID)
	} else {
		s.watchlist = remove(s.watchlist, videoID)
	}
	s.mu.Unlock()

	var err error
	if added {
		err = s.remote.AddToWatchlist(ctx, s.userID, videoID)
	} else {
		err = s.remote.RemoveFromWatchlist(ctx, s.userID, videoID)
	}
	if err != nil {
		s.mu.Lock()
		if added {
			s.watchlist = remove(s.watchlist, videoID)
		} else if !contains(s.watchlist, videoID) {
			s.watchlist = append(s.watchlist, videoID)
		}
		s.mu.Unlock()
		s.logger.Error("failed to persist watchlist toggle", "video_id", videoID, "error", err)
		return !added, fmt.Errorf("watchlist update failed: %w", err)
	}

	return added, nil
}

// RecordRecent moves the video to the head of the recent sequence, capping
// at MaxRecents, then persists. The order drives the "recently watched"
// view, most-recent-first.
func (s *State) RecordRecent(ctx context.Context, videoID string) error {
	s.mu.Lock()
	prev := make([]string, len(s.recents))
	copy(prev, s.recents)

	s.recents = remove(s.recents, videoID)
	s.recents = append([]string{videoID}, s.recents...)
	if len(s.recents) > MaxRecents {
		s.recents = s.recents[:MaxRecents]
	}
	s.mu.Unlock()

	if err := s.remote.AddRecent(ctx, s.userID, videoID); err != nil {
		s.mu.Lock()
		s.recents = prev
		s.mu.Unlock()
		s.logger.Error("failed to persist recent entry", "video_id", videoID, "error", err)
		return fmt.Errorf("recent update failed: %w", err)
	}

	return nil
}

// SetProgress stores the rounded, clamped watch percentage and persists it.
// Non-finite input is ignored; it happens when the player reports before
// the duration is known.
func (s *State) SetProgress(ctx context.Context, videoID string, percent float64) error {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return nil
	}

	rounded := clampPercent(int(math.Round(percent)))

	s.mu.Lock()
	prev, had := s.progress[videoID]
	s.progress[videoID] = rounded
	s.mu.Unlock()

	if err := s.remote.SetProgress(ctx, s.userID, videoID, rounded); err != nil {
		s.mu.Lock()
		if had {
			s.progress[videoID] = prev
		} else {
			delete(s.progress, videoID)
		}
		s.mu.Unlock()
		s.logger.Error("failed to persist progress", "video_id", videoID, "percent", rounded, "error", err)
		return fmt.Errorf("progress update failed: %w", err)
	}

	return nil
}

// IsFavorite reports whether the video is in the favorite set
func (s *State) IsFavorite(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.favorites, videoID)
}

// InWatchlist reports whether the video is in the watchlist
func (s *State) InWatchlist(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.watchlist, videoID)
}

// Favorites returns a copy of the favorite set
func (s *State) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// Watchlist returns a copy of the watchlist
func (s *State) Watchlist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.watchlist))
	copy(out, s.watchlist)
	return out
}

// Recents returns a copy of the recent sequence, most-recent-first
func (s *State) Recents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.recents))
	copy(out, s.recents)
	return out
}

// Progress returns the recorded percentage for a video, zero when none
func (s *State) Progress(videoID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress[videoID]
}

// ProgressMap returns a copy of the full progress mapping
func (s *State) ProgressMap() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.progress))
	for id, pct := range s.progress {
		out[id] = pct
	}
	return out
}

// InProgress reports whether the video is eligible for continue-watching:
// started but not near-complete.
func (s *State) InProgress(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pct := s.progress[videoID]
	return pct > 0 && pct < CompleteThreshold
}

// Snapshot returns the full state as a bulk blob for the sync endpoint
func (s *State) Snapshot() *api.UserData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := &api.UserData{
		Favorites:     make([]string, len(s.favorites)),
		Watchlist:     make([]string, len(s.watchlist)),
		RecentVideos:  make([]string, len(s.recents)),
		WatchProgress: make(map[string]int, len(s.progress)),
	}
	copy(data.Favorites, s.favorites)
	copy(data.Watchlist, s.watchlist)
	copy(data.RecentVideos, s.recents)
	for id, pct := range s.progress {
		data.WatchProgress[id] = pct
	}
	return data
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func clampPercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
