package player

import (
	"context"
	"time"
)

// Player abstracts a media player backend
type Player interface {
	// Play starts playback of the given stream URL. Any current playback
	// is stopped first.
	Play(ctx context.Context, url string, options PlayOptions) error
	Stop(ctx context.Context) error

	SetPaused(ctx context.Context, paused bool) error
	Seek(ctx context.Context, position time.Duration) error
	AdjustVolume(ctx context.Context, delta int) error

	GetProgress(ctx context.Context) (*PlaybackProgress, error)

	// Callbacks; invoked from the player's monitoring goroutine
	OnProgressUpdate(callback func(progress PlaybackProgress))
	OnPlaybackEnd(callback func())
	OnError(callback func(err error))

	IsPlaying() bool
	IsPaused() bool
}

// PlayOptions contains options for starting playback
type PlayOptions struct {
	StartTime  time.Duration
	Volume     int // 0-100
	Fullscreen bool
	Title      string
}

// PlaybackProgress is one sample of the playback position
type PlaybackProgress struct {
	CurrentTime time.Duration
	Duration    time.Duration
	Percentage  float64 // 0.0 - 100.0
	Paused      bool
	Volume      int
	EOF         bool
}

// PlaybackState represents the backend's coarse state
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateStopped PlaybackState = "stopped"
	StateLoading PlaybackState = "loading"
	StateError   PlaybackState = "error"
)

func (s PlaybackState) String() string {
	return string(s)
}
