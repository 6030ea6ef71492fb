package tui

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cinehome/cinehome/internal/catalog"
	"github.com/cinehome/cinehome/internal/chat"
	"github.com/cinehome/cinehome/internal/clipboard"
	"github.com/cinehome/cinehome/internal/gesture"
	"github.com/cinehome/cinehome/internal/notify"
	"github.com/cinehome/cinehome/internal/player"
	"github.com/cinehome/cinehome/internal/session"
	"github.com/cinehome/cinehome/internal/tui/styles"
)

const noticeDuration = 4 * time.Second

// focus identifies which panel has the keyboard
type focus int

const (
	focusLibrary focus = iota
	focusPlaying
	focusChat
)

// Deps carries everything the TUI drives
type Deps struct {
	Catalog    *catalog.Catalog
	State      *session.State
	Controller *player.Controller
	Chat       *chat.Service
	Bridge     *gesture.Bridge // nil when gesture control is disabled
	Clipboard  *clipboard.Service
	PlayerOpen *atomic.Bool // gates gesture actions
	Notices    chan Notice
	Logger     *slog.Logger
}

// Notifier returns a notify.Notifier that surfaces notices in the TUI
// footer
func Notifier(ch chan Notice) notify.Notifier {
	return notify.Func(func(level notify.Level, message string) {
		select {
		case ch <- Notice{level: level, text: message}:
		default:
		}
	})
}

// Model is the root bubbletea model
type Model struct {
	deps Deps

	width  int
	height int
	focus  focus

	// library
	view      catalog.View
	filtered  []catalog.Video
	cursor    int
	search    textinput.Model
	searching bool
	query     string
	loadErr   error
	loaded    bool

	// playing
	sample *player.PlaybackProgress

	// chat
	chatInput   textinput.Model
	transcript  []chat.Exchange
	chatWaiting bool
	chatLoaded  bool

	// footer notice
	notice      string
	noticeLevel notify.Level
	noticeID    int
}

// New creates the root model
func New(deps Deps) Model {
	search := textinput.New()
	search.Placeholder = "type to filter..."
	search.Prompt = "/ "
	search.CharLimit = 100
	search.PromptStyle = styles.SubtitleStyle
	search.Cursor.Style = styles.SubtitleStyle

	chatInput := textinput.New()
	chatInput.Placeholder = "ask the assistant..."
	chatInput.Prompt = "> "
	chatInput.CharLimit = 500
	chatInput.PromptStyle = styles.ChatUserStyle

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return Model{
		deps:      deps,
		view:      catalog.ViewAll,
		search:    search,
		chatInput: chatInput,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCatalog(),
		m.hydrateState(),
		m.listenNotices(),
		textinput.Blink,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 24 {
			m.search.Width = m.width - 24
			m.chatInput.Width = m.width - 24
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case catalogLoadedMsg:
		m.loaded = true
		m.loadErr = msg.err
		m.refilter()
		return m, nil

	case stateHydratedMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("user state unavailable, starting empty", "error", msg.err)
		}
		m.refilter()
		return m, nil

	case playStartedMsg:
		if msg.err == nil {
			m.focus = focusPlaying
			m.deps.PlayerOpen.Store(true)
			return m, m.tickProgress()
		}
		return m, nil

	case toggleDoneMsg:
		m.refilter()
		if msg.err != nil {
			text := "Couldn't update favorites"
			if msg.kind == "watchlist" {
				text = "Couldn't update the watchlist"
			}
			return m, m.notify(notify.LevelError, text)
		}
		return m, nil

	case chatReplyMsg:
		m.chatWaiting = false
		if len(m.transcript) > 0 {
			m.transcript[len(m.transcript)-1].Reply = msg.reply
		}
		return m, nil

	case chatHistoryMsg:
		m.chatLoaded = true
		if msg.err == nil {
			m.transcript = msg.exchanges
		}
		return m, nil

	case Notice:
		m.notice = msg.text
		m.noticeLevel = msg.level
		m.noticeID++
		id := m.noticeID
		return m, tea.Batch(
			m.listenNotices(),
			tea.Tick(noticeDuration, func(time.Time) tea.Msg {
				return noticeExpiredMsg{id: id}
			}),
		)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case progressTickMsg:
		if m.focus != focusPlaying {
			return m, nil
		}
		return m, tea.Batch(m.sampleProgress(), m.tickProgress())

	case progressSampleMsg:
		m.sample = msg.sample
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			return m, m.notify(notify.LevelError, "Copy failed: "+msg.err.Error())
		}
		return m, m.notify(notify.LevelInfo, "Stream URL copied")
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	switch m.focus {
	case focusChat:
		return m.handleChatKey(msg)
	case focusPlaying:
		return m.handlePlayingKey(msg)
	default:
		return m.handleLibraryKey(msg)
	}
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "esc":
			m.searching = false
			m.query = ""
			m.search.SetValue("")
			m.search.Blur()
			m.refilter()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.query = m.search.Value()
			m.refilter()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q":
		return m, m.quit()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}

	case "left", "h", "shift+tab":
		m.view = prevView(m.view)
		m.cursor = 0
		m.refilter()

	case "right", "l", "tab":
		m.view = nextView(m.view)
		m.cursor = 0
		m.refilter()

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "enter":
		if _, ok := m.selected(); ok {
			return m, m.play(m.cursor)
		}

	case "f":
		if video, ok := m.selected(); ok {
			return m, m.toggleFavorite(video.ID)
		}

	case "w":
		if video, ok := m.selected(); ok {
			return m, m.toggleWatchlist(video.ID)
		}

	case "y":
		if video, ok := m.selected(); ok {
			return m, m.copyURL(video.URL)
		}

	case "g":
		return m, m.toggleBridge()

	case "c":
		m.focus = focusChat
		m.chatInput.Focus()
		var history tea.Cmd
		if !m.chatLoaded {
			history = m.loadChatHistory()
		}
		return m, tea.Batch(textinput.Blink, history)
	}

	return m, nil
}

func (m Model) handlePlayingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.focus = focusLibrary
		m.deps.PlayerOpen.Store(false)
		m.sample = nil
		return m, m.closePlayer()

	case " ", "space":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.TogglePause(ctx)
		})

	case "n":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.Next(ctx)
		})

	case "b":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.Previous(ctx)
		})

	case "right":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.SeekBy(ctx, 10*time.Second)
		})

	case "left":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.SeekBy(ctx, -10*time.Second)
		})

	case "+", "=":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.AdjustVolume(ctx, 5)
		})

	case "-":
		return m, m.controllerCmd(func(ctx context.Context) error {
			return m.deps.Controller.AdjustVolume(ctx, -5)
		})

	case "f":
		if video, ok := m.deps.Controller.Current(); ok {
			return m, m.toggleFavorite(video.ID)
		}

	case "w":
		if video, ok := m.deps.Controller.Current(); ok {
			return m, m.toggleWatchlist(video.ID)
		}

	case "c":
		m.focus = focusChat
		m.chatInput.Focus()
		var history tea.Cmd
		if !m.chatLoaded {
			history = m.loadChatHistory()
		}
		return m, tea.Batch(textinput.Blink, history)

	case "g":
		return m, m.toggleBridge()
	}

	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chatInput.Blur()
		if _, playing := m.deps.Controller.Current(); playing && m.deps.PlayerOpen.Load() {
			m.focus = focusPlaying
		} else {
			m.focus = focusLibrary
		}
		return m, nil

	case "enter":
		message := m.chatInput.Value()
		if message == "" || m.chatWaiting {
			return m, nil
		}
		m.chatInput.SetValue("")
		m.chatWaiting = true
		m.transcript = append(m.transcript, chat.Exchange{Message: message})
		return m, m.sendChat(message)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// refilter recomputes the visible list. The playback queue is a snapshot
// taken at play time, so recomputing here never disturbs active playback.
func (m *Model) refilter() {
	m.filtered = catalog.Filter(m.deps.Catalog.Videos(), m.view, m.deps.State, m.query)
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (catalog.Video, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return catalog.Video{}, false
	}
	return m.filtered[m.cursor], true
}

func nextView(v catalog.View) catalog.View {
	views := catalog.Views()
	for i, candidate := range views {
		if candidate == v {
			return views[(i+1)%len(views)]
		}
	}
	return catalog.ViewAll
}

func prevView(v catalog.View) catalog.View {
	views := catalog.Views()
	for i, candidate := range views {
		if candidate == v {
			return views[(i+len(views)-1)%len(views)]
		}
	}
	return catalog.ViewAll
}

// commands

func (m Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		return catalogLoadedMsg{err: m.deps.Catalog.Load(context.Background())}
	}
}

func (m Model) hydrateState() tea.Cmd {
	return func() tea.Msg {
		return stateHydratedMsg{err: m.deps.State.Hydrate(context.Background())}
	}
}

func (m Model) listenNotices() tea.Cmd {
	return func() tea.Msg {
		return <-m.deps.Notices
	}
}

func (m Model) notify(level notify.Level, text string) tea.Cmd {
	return func() tea.Msg {
		return Notice{level: level, text: text}
	}
}

func (m Model) play(index int) tea.Cmd {
	queue := make([]catalog.Video, len(m.filtered))
	copy(queue, m.filtered)
	return func() tea.Msg {
		ctx := context.Background()
		m.deps.Controller.SetQueue(ctx, queue)
		err := m.deps.Controller.Play(ctx, index)
		return playStartedMsg{index: index, err: err}
	}
}

func (m Model) closePlayer() tea.Cmd {
	return func() tea.Msg {
		if err := m.deps.Controller.Close(context.Background()); err != nil {
			m.deps.Logger.Warn("failed to close player", "error", err)
		}
		return nil
	}
}

func (m Model) controllerCmd(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(context.Background()); err != nil {
			m.deps.Logger.Warn("playback command failed", "error", err)
		}
		return nil
	}
}

func (m Model) toggleFavorite(videoID string) tea.Cmd {
	return func() tea.Msg {
		added, err := m.deps.State.ToggleFavorite(context.Background(), videoID)
		return toggleDoneMsg{kind: "favorite", added: added, err: err}
	}
}

func (m Model) toggleWatchlist(videoID string) tea.Cmd {
	return func() tea.Msg {
		added, err := m.deps.State.ToggleWatchlist(context.Background(), videoID)
		return toggleDoneMsg{kind: "watchlist", added: added, err: err}
	}
}

func (m Model) copyURL(url string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: m.deps.Clipboard.Copy(url)}
	}
}

func (m Model) toggleBridge() tea.Cmd {
	if m.deps.Bridge == nil {
		return m.notify(notify.LevelWarning, "Gesture control is disabled")
	}
	return func() tea.Msg {
		if m.deps.Bridge.Running() {
			m.deps.Bridge.Stop()
			return Notice{level: notify.LevelInfo, text: "Gesture control off"}
		}
		if err := m.deps.Bridge.Start(context.Background()); err != nil {
			return Notice{level: notify.LevelError, text: "Gesture control failed to start"}
		}
		return Notice{level: notify.LevelInfo, text: "Gesture control on"}
	}
}

func (m Model) sendChat(message string) tea.Cmd {
	return func() tea.Msg {
		return chatReplyMsg{reply: m.deps.Chat.Send(context.Background(), message)}
	}
}

func (m Model) loadChatHistory() tea.Cmd {
	return func() tea.Msg {
		exchanges, err := m.deps.Chat.History(context.Background())
		return chatHistoryMsg{exchanges: exchanges, err: err}
	}
}

func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func (m Model) sampleProgress() tea.Cmd {
	return func() tea.Msg {
		sample, err := m.deps.Controller.PlaybackProgress(context.Background())
		if err != nil {
			return progressSampleMsg{sample: nil}
		}
		return progressSampleMsg{sample: sample}
	}
}

func (m Model) quit() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Bridge != nil {
			m.deps.Bridge.Stop()
		}
		if err := m.deps.Controller.Close(context.Background()); err != nil {
			m.deps.Logger.Warn("failed to stop playback on quit", "error", err)
		}
		return tea.Quit()
	}
}
