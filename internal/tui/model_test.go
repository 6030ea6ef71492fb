package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehome/cinehome/internal/catalog"
	"github.com/cinehome/cinehome/internal/notify"
	"github.com/cinehome/cinehome/internal/session"
)

func newTestModel() Model {
	return New(Deps{
		Catalog: catalog.New(nil, nil),
		State:   session.NewState(nil, "u1", nil),
	})
}

func TestUpdate_ToggleFailureSurfacesNotice(t *testing.T) {
	tests := []struct {
		kind     string
		expected string
	}{
		{"favorite", "Couldn't update favorites"},
		{"watchlist", "Couldn't update the watchlist"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			m := newTestModel()

			_, cmd := m.Update(toggleDoneMsg{kind: tt.kind, err: errors.New("remote unavailable")})
			require.NotNil(t, cmd, "a failed toggle must produce a notice")

			notice, ok := cmd().(Notice)
			require.True(t, ok)
			assert.Equal(t, notify.LevelError, notice.level)
			assert.Equal(t, tt.expected, notice.text)
		})
	}
}

func TestUpdate_ToggleSuccessIsSilent(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(toggleDoneMsg{kind: "favorite", added: true})
	assert.Nil(t, cmd)
}

func TestUpdate_NoticeExpiry(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(Notice{level: notify.LevelInfo, text: "Stream URL copied"})
	model := updated.(Model)
	assert.Equal(t, "Stream URL copied", model.notice)

	// A stale expiry (from an earlier notice) must not clear a newer one
	updated, _ = model.Update(noticeExpiredMsg{id: model.noticeID - 1})
	model = updated.(Model)
	assert.Equal(t, "Stream URL copied", model.notice)

	updated, _ = model.Update(noticeExpiredMsg{id: model.noticeID})
	model = updated.(Model)
	assert.Empty(t, model.notice)
}
