package gesture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinehome/cinehome/internal/api"
)

const defaultPollInterval = 1500 * time.Millisecond

// Classifier is the slice of the API client the bridge talks to
type Classifier interface {
	DetectGesture(ctx context.Context, frame []byte) (*api.DetectResponse, error)
	ProcessGesture(ctx context.Context, gesture string) (*api.ProcessResponse, error)
}

// Target receives the playback operations gestures map onto. Satisfied by
// the playback controller.
type Target interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	AdjustVolume(ctx context.Context, delta int) error
}

// Bridge polls the camera, classifies frames remotely, and applies the
// resulting actions to the playback target. The loop is synchronous: one
// frame is captured, classified, and applied before the next poll, so at
// most one classification call is ever in flight.
type Bridge struct {
	source     Classifier
	frames     FrameSource
	target     Target
	active     func() bool
	logger     *slog.Logger
	interval   time.Duration
	volumeStep int

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewBridge wires a gesture bridge. active gates action application: while
// it reports false (player panel closed) classified actions are discarded.
func NewBridge(frames FrameSource, classifier Classifier, target Target, active func() bool, interval time.Duration, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if active == nil {
		active = func() bool { return true }
	}
	return &Bridge{
		source:     classifier,
		frames:     frames,
		target:     target,
		active:     active,
		logger:     logger,
		interval:   interval,
		volumeStep: 10,
	}
}

// Start launches the polling loop. A second Start while the loop is
// running is refused.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("gesture bridge already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true

	go func() {
		defer close(b.done)
		b.run(runCtx)
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	b.logger.Info("gesture bridge started", "interval", b.interval)
	return nil
}

// Stop cancels the loop and waits for it to exit
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Running reports whether the loop is active
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// run is the cooperative polling loop. Classification and mapping errors
// are logged and the loop continues; only cancellation or a gone frame
// source ends it.
func (b *Bridge) run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Debug("gesture bridge stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := b.poll(ctx); err != nil {
				if errors.Is(err, ErrSourceGone) {
					b.logger.Info("frame source gone, stopping gesture bridge")
					return
				}
				b.logger.Debug("gesture poll failed", "error", err)
			}
		}
	}
}

// poll performs one capture-classify-apply cycle
func (b *Bridge) poll(ctx context.Context) error {
	if !b.frames.Ready() {
		return nil
	}

	frame, err := b.frames.Capture(ctx)
	if err != nil {
		return err
	}

	detected, err := b.source.DetectGesture(ctx, frame)
	if err != nil {
		return fmt.Errorf("gesture detection failed: %w", err)
	}
	if detected.Gesture == "" {
		return nil
	}

	processed, err := b.source.ProcessGesture(ctx, detected.Gesture)
	if err != nil {
		return fmt.Errorf("gesture mapping failed: %w", err)
	}
	if processed.Action == "" {
		// disabled server-side or within the cooldown window
		return nil
	}

	action, ok := ParseAction(processed.Action)
	if !ok {
		b.logger.Debug("ignoring unsupported gesture action", "action", processed.Action)
		return nil
	}

	if !b.active() {
		b.logger.Debug("discarding gesture action, player closed", "action", action)
		return nil
	}

	return b.apply(ctx, action, processed.Step)
}

// apply dispatches one action onto the target. The switch is exhaustive
// over the Action enum.
func (b *Bridge) apply(ctx context.Context, action Action, step int) error {
	if step <= 0 {
		step = b.volumeStep
	}

	b.logger.Info("applying gesture action", "action", action)

	switch action {
	case ActionPlay:
		return b.target.Resume(ctx)
	case ActionPause:
		return b.target.Pause(ctx)
	case ActionVolumeUp:
		return b.target.AdjustVolume(ctx, step)
	case ActionVolumeDown:
		return b.target.AdjustVolume(ctx, -step)
	case ActionNext:
		return b.target.Next(ctx)
	case ActionPrevious:
		return b.target.Previous(ctx)
	case ActionNone:
		return nil
	}
	return nil
}
