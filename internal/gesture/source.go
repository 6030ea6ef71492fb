package gesture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/cinehome/cinehome/internal/config"
)

// ErrSourceGone marks a frame source that will never produce another
// frame. The bridge ends its loop on this error; any other capture error
// is transient.
var ErrSourceGone = errors.New("frame source gone")

// FrameSource produces single camera frames for classification
type FrameSource interface {
	// Ready reports whether a capture attempt makes sense right now
	Ready() bool
	// Capture grabs one encoded frame
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// CameraSource captures single MJPEG frames from a V4L2 device by
// shelling out to ffmpeg. One process per frame keeps the camera free
// between polls.
type CameraSource struct {
	mu         sync.Mutex
	device     string
	ffmpegPath string
	closed     bool
}

// NewCameraSource creates a source for the configured camera device
func NewCameraSource(cfg *config.GestureConfig) *CameraSource {
	device := "/dev/video0"
	ffmpegPath := "ffmpeg"
	if cfg != nil {
		if cfg.Device != "" {
			device = cfg.Device
		}
		if cfg.FFmpegPath != "" {
			ffmpegPath = cfg.FFmpegPath
		}
	}
	return &CameraSource{device: device, ffmpegPath: ffmpegPath}
}

// Ready reports whether the device node exists and the source is open
func (s *CameraSource) Ready() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	_, err := os.Stat(s.device)
	return err == nil
}

// Capture grabs one frame as JPEG bytes
func (s *CameraSource) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSourceGone
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-f", "video4linux2",
		"-i", s.device,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("frame capture failed: %w (%s)", err, firstLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("frame capture produced no data")
	}
	return stdout.Bytes(), nil
}

// Close marks the source gone; later captures return ErrSourceGone
func (s *CameraSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
