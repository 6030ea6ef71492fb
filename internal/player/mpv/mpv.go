package mpv

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/diniamo/gopv"

	"github.com/cinehome/cinehome/internal/config"
	"github.com/cinehome/cinehome/internal/player"
)

// MPVPlayer implements player.Player over mpv's JSON IPC socket
type MPVPlayer struct {
	mu sync.RWMutex

	client     *gopv.Client
	cmd        *exec.Cmd
	socketPath string

	state      player.PlaybackState
	currentURL string

	onProgress func(player.PlaybackProgress)
	onEnd      func()
	onError    func(error)

	ctx          context.Context
	cancel       context.CancelFunc
	clientClosed bool

	debug          bool
	loadUserConfig bool
}

// New creates an mpv-backed player. Fails when no mpv binary is on PATH.
func New(cfg *config.PlayerConfig, debug bool) (*MPVPlayer, error) {
	if _, err := exec.LookPath("mpv"); err != nil {
		return nil, fmt.Errorf("mpv not found in PATH: %w", err)
	}

	loadUserConfig := false
	if cfg != nil {
		loadUserConfig = cfg.LoadUserConfig
	}

	return &MPVPlayer{
		state:          player.StateStopped,
		debug:          debug,
		loadUserConfig: loadUserConfig,
	}, nil
}

// Play launches mpv against the stream URL. It returns once the process is
// started; IPC connection and state transitions happen asynchronously and
// failures surface through the error callback.
func (p *MPVPlayer) Play(ctx context.Context, url string, options player.PlayOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != player.StateStopped {
		if err := p.stopLocked(); err != nil {
			return fmt.Errorf("failed to stop existing playback: %w", err)
		}
	}

	socketPath, err := socketPath()
	if err != nil {
		return fmt.Errorf("failed to allocate IPC socket: %w", err)
	}
	p.socketPath = socketPath

	args := p.buildArgs(url, options)
	p.cmd = exec.Command("mpv", args...)

	// Detach mpv from the terminal so it cannot interfere with the TUI
	p.cmd.Stdin = nil
	p.cmd.Stdout = nil
	p.cmd.Stderr = nil

	if err := p.cmd.Start(); err != nil {
		p.cleanupSocketLocked()
		return fmt.Errorf("failed to start mpv: %w", err)
	}

	p.currentURL = url
	p.state = player.StateLoading
	p.clientClosed = false

	p.ctx, p.cancel = context.WithCancel(context.Background())
	go p.connect(ctx, socketPath)

	return nil
}

// connect waits for the IPC socket, attaches the gopv client, and starts
// the monitoring goroutines
func (p *MPVPlayer) connect(ctx context.Context, socketPath string) {
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := p.waitForSocket(initCtx, socketPath); err != nil {
		p.failStartup(fmt.Errorf("timeout waiting for mpv IPC at %s: %w", socketPath, err))
		return
	}

	client, err := gopv.Connect(socketPath, func(err error) {
		p.mu.RLock()
		callback := p.onError
		p.mu.RUnlock()
		if callback != nil {
			callback(err)
		}
	})
	if err != nil {
		p.failStartup(fmt.Errorf("failed to connect to mpv IPC at %s: %w", socketPath, err))
		return
	}

	p.mu.Lock()
	p.client = client
	p.state = player.StatePlaying
	monitorCtx := p.ctx
	p.mu.Unlock()

	go p.monitorProgress(monitorCtx)
	go p.monitorProcess()
}

func (p *MPVPlayer) failStartup(err error) {
	p.mu.Lock()
	callback := p.onError
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.state = player.StateError
	p.cleanupSocketLocked()
	p.mu.Unlock()

	if callback != nil {
		callback(err)
	}
}

// Stop quits mpv and releases resources
func (p *MPVPlayer) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *MPVPlayer) stopLocked() error {
	if p.state == player.StateStopped {
		return nil
	}
	if p.clientClosed {
		return nil
	}
	p.clientClosed = true
	p.state = player.StateStopped

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	// Ask mpv to quit, but don't wait on it; the process kill below covers
	// a wedged IPC connection. gopv closes itself on EOF from the dead
	// process, so we never call Close directly.
	if p.client != nil {
		client := p.client
		p.client = nil
		go func() {
			done := make(chan struct{})
			go func() {
				_, _ = client.Request("quit")
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
			}
		}()
	}

	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.currentURL = ""
	p.cleanupSocketLocked()

	return nil
}

// SetPaused pauses or resumes playback
func (p *MPVPlayer) SetPaused(ctx context.Context, paused bool) error {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("player not initialized")
	}
	if _, err := client.Request("set_property", "pause", paused); err != nil {
		return fmt.Errorf("failed to set pause state: %w", err)
	}

	p.mu.Lock()
	if paused && p.state == player.StatePlaying {
		p.state = player.StatePaused
	} else if !paused && p.state == player.StatePaused {
		p.state = player.StatePlaying
	}
	p.mu.Unlock()
	return nil
}

// Seek jumps to an absolute position
func (p *MPVPlayer) Seek(ctx context.Context, position time.Duration) error {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("player not initialized")
	}
	if _, err := client.Request("set_property", "time-pos", position.Seconds()); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// AdjustVolume changes the volume by delta percentage points
func (p *MPVPlayer) AdjustVolume(ctx context.Context, delta int) error {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("player not initialized")
	}
	if _, err := client.Request("add", "volume", delta); err != nil {
		return fmt.Errorf("failed to adjust volume: %w", err)
	}
	return nil
}

// GetProgress samples the current playback position
func (p *MPVPlayer) GetProgress(ctx context.Context) (*player.PlaybackProgress, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.client == nil {
		return nil, fmt.Errorf("player not initialized")
	}
	if p.state == player.StateStopped {
		return nil, fmt.Errorf("player is stopped")
	}
	return p.progressLocked()
}

func (p *MPVPlayer) progressLocked() (*player.PlaybackProgress, error) {
	var timePos, duration, volume float64
	var paused, eof bool
	var failures int

	if result, err := p.client.Request("get_property", "time-pos"); err == nil {
		if val, ok := result.(float64); ok {
			timePos = val
		}
	} else {
		failures++
	}
	if result, err := p.client.Request("get_property", "duration"); err == nil {
		if val, ok := result.(float64); ok {
			duration = val
		}
	} else {
		failures++
	}
	if result, err := p.client.Request("get_property", "pause"); err == nil {
		if val, ok := result.(bool); ok {
			paused = val
		}
	} else {
		failures++
	}
	if result, err := p.client.Request("get_property", "eof-reached"); err == nil {
		if val, ok := result.(bool); ok {
			eof = val
		}
	} else {
		failures++
	}
	if result, err := p.client.Request("get_property", "volume"); err == nil {
		if val, ok := result.(float64); ok {
			volume = val
		} else {
			volume = 100
		}
	}

	if failures >= 3 {
		return nil, fmt.Errorf("IPC connection failed (%d property reads failed)", failures)
	}

	var percentage float64
	if duration > 0 {
		percentage = (timePos / duration) * 100
	}

	return &player.PlaybackProgress{
		CurrentTime: time.Duration(timePos * float64(time.Second)),
		Duration:    time.Duration(duration * float64(time.Second)),
		Percentage:  percentage,
		Paused:      paused,
		Volume:      int(volume),
		EOF:         eof,
	}, nil
}

// OnProgressUpdate sets the progress update callback
func (p *MPVPlayer) OnProgressUpdate(callback func(progress player.PlaybackProgress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress = callback
}

// OnPlaybackEnd sets the playback end callback
func (p *MPVPlayer) OnPlaybackEnd(callback func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnd = callback
}

// OnError sets the error callback
func (p *MPVPlayer) OnError(callback func(err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = callback
}

// IsPlaying reports whether playback is active
func (p *MPVPlayer) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == player.StatePlaying
}

// IsPaused reports whether playback is paused
func (p *MPVPlayer) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == player.StatePaused
}

// monitorProgress polls the position once a second and drives callbacks.
// The context is captured at spawn time; Stop cancels it.
func (p *MPVPlayer) monitorProgress(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.RLock()
			if p.client == nil {
				p.mu.RUnlock()
				return
			}
			progress, err := p.progressLocked()
			callback := p.onProgress
			endCallback := p.onEnd
			p.mu.RUnlock()

			if err != nil {
				continue
			}

			if callback != nil {
				callback(*progress)
			}
			if progress.EOF && endCallback != nil {
				endCallback()
				return
			}
		}
	}
}

// monitorProcess waits for the mpv process and reports unexpected exits
func (p *MPVPlayer) monitorProcess() {
	p.mu.RLock()
	cmd := p.cmd
	p.mu.RUnlock()
	if cmd == nil {
		return
	}

	err := cmd.Wait()

	p.mu.RLock()
	callback := p.onError
	state := p.state
	p.mu.RUnlock()

	if err != nil && callback != nil && state != player.StateStopped {
		callback(fmt.Errorf("mpv exited unexpectedly: %w", err))
	}

	_ = p.Stop(context.Background())
}

func (p *MPVPlayer) buildArgs(url string, opts player.PlayOptions) []string {
	args := []string{
		fmt.Sprintf("--input-ipc-server=%s", p.socketPath),
		"--idle=yes",
		"--no-ytdl",
	}

	if !p.loadUserConfig {
		args = append(args, "--no-config")
	}
	if !p.debug {
		args = append(args, "--msg-level=all=warn")
	}
	if opts.StartTime > 0 {
		args = append(args, fmt.Sprintf("--start=%f", opts.StartTime.Seconds()))
	}
	if opts.Volume > 0 {
		args = append(args, fmt.Sprintf("--volume=%d", opts.Volume))
	}
	if opts.Fullscreen {
		args = append(args, "--fullscreen")
	}
	if opts.Title != "" {
		args = append(args, fmt.Sprintf("--force-media-title=%s", opts.Title))
	}

	// URL must be last
	args = append(args, url)
	return args
}

// waitForSocket waits for mpv to create its IPC socket
func (p *MPVPlayer) waitForSocket(ctx context.Context, path string) error {
	timeout := time.After(5 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	time.Sleep(300 * time.Millisecond)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("socket %s never appeared", path)
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				// Give mpv a moment to start accepting connections
				time.Sleep(200 * time.Millisecond)
				return nil
			}
		}
	}
}

func (p *MPVPlayer) cleanupSocketLocked() {
	if p.socketPath != "" {
		_ = os.Remove(p.socketPath)
		p.socketPath = ""
	}
}

func socketPath() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("cinehome-mpv-%s.sock", hex.EncodeToString(b))), nil
}
