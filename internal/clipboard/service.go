// Package clipboard copies stream URLs to the system clipboard, with a
// command-line fallback for environments where the native path fails.
package clipboard

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// Service writes text to the system clipboard
type Service struct {
	logger *slog.Logger
}

// NewService creates a clipboard service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Copy places text on the system clipboard. The native binding is tried
// first; on failure a platform clipboard tool is used.
func (s *Service) Copy(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		s.logger.Debug("copied to clipboard")
		return nil
	} else {
		s.logger.Warn("native clipboard write failed, trying fallback", "error", err)
	}

	cmd, err := fallbackCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard fallback failed: %w", err)
	}
	return nil
}

func fallbackCommand() (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbcopy"), nil
	case "linux":
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return exec.Command("wl-copy"), nil
		}
		if _, err := exec.LookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard"), nil
		}
		if _, err := exec.LookPath("xsel"); err == nil {
			return exec.Command("xsel", "--clipboard", "--input"), nil
		}
		return nil, fmt.Errorf("no clipboard tool found (install wl-clipboard, xclip, or xsel)")
	default:
		return nil, fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
}
