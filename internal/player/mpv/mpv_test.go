package mpv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehome/cinehome/internal/player"
)

func TestBuildArgs(t *testing.T) {
	t.Run("URL comes last", func(t *testing.T) {
		p := &MPVPlayer{socketPath: "/tmp/test.sock"}
		args := p.buildArgs("http://localhost:5000/api/videos/stream/a", player.PlayOptions{})

		require.NotEmpty(t, args)
		assert.Equal(t, "http://localhost:5000/api/videos/stream/a", args[len(args)-1])
		assert.Contains(t, args, "--input-ipc-server=/tmp/test.sock")
		assert.Contains(t, args, "--idle=yes")
		assert.Contains(t, args, "--no-config")
	})

	t.Run("honors play options", func(t *testing.T) {
		p := &MPVPlayer{socketPath: "/tmp/test.sock", loadUserConfig: true, debug: true}
		args := p.buildArgs("http://host/v", player.PlayOptions{
			StartTime:  90 * time.Second,
			Volume:     80,
			Fullscreen: true,
			Title:      "My Clip",
		})

		assert.NotContains(t, args, "--no-config")
		assert.NotContains(t, args, "--msg-level=all=warn")
		assert.Contains(t, args, "--volume=80")
		assert.Contains(t, args, "--fullscreen")
		assert.Contains(t, args, "--force-media-title=My Clip")

		var hasStart bool
		for _, a := range args {
			if strings.HasPrefix(a, "--start=90") {
				hasStart = true
			}
		}
		assert.True(t, hasStart)
	})
}

func TestSocketPath(t *testing.T) {
	first, err := socketPath()
	require.NoError(t, err)
	second, err := socketPath()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(first, ".sock"))
	assert.Contains(t, first, "cinehome-mpv-")
}

func TestMonitorProgressStopsOnCancellation(t *testing.T) {
	p := &MPVPlayer{state: player.StateStopped}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.monitorProgress(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor loop did not exit after cancellation")
	}
}
