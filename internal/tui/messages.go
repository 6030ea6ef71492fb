package tui

import (
	"github.com/cinehome/cinehome/internal/chat"
	"github.com/cinehome/cinehome/internal/notify"
	"github.com/cinehome/cinehome/internal/player"
)

// catalogLoadedMsg arrives after the initial catalog fetch
type catalogLoadedMsg struct {
	err error
}

// stateHydratedMsg arrives after the user state bulk fetch
type stateHydratedMsg struct {
	err error
}

// playStartedMsg reports the outcome of a play command
type playStartedMsg struct {
	index int
	err   error
}

// toggleDoneMsg reports a favorite/watchlist toggle outcome
type toggleDoneMsg struct {
	kind  string // "favorite" or "watchlist"
	added bool
	err   error
}

// chatReplyMsg carries the assistant's answer
type chatReplyMsg struct {
	reply string
}

// chatHistoryMsg carries the loaded transcript
type chatHistoryMsg struct {
	exchanges []chat.Exchange
	err       error
}

// Notice shows a transient message in the footer
type Notice struct {
	level notify.Level
	text  string
}

// noticeExpiredMsg clears the footer notice
type noticeExpiredMsg struct {
	id int
}

// progressTickMsg refreshes the playing view
type progressTickMsg struct{}

// progressSampleMsg carries one playback position sample
type progressSampleMsg struct {
	sample *player.PlaybackProgress
}

// copiedMsg reports the result of a clipboard copy
type copiedMsg struct {
	err error
}
