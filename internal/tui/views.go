package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/cinehome/cinehome/internal/catalog"
	"github.com/cinehome/cinehome/internal/notify"
	"github.com/cinehome/cinehome/internal/player"
	"github.com/cinehome/cinehome/internal/tui/styles"
)

var viewTitles = map[catalog.View]string{
	catalog.ViewAll:       "All",
	catalog.ViewFavorites: "Favorites",
	catalog.ViewRecent:    "Recent",
	catalog.ViewContinue:  "Continue",
	catalog.ViewWatchlist: "Watchlist",
}

func (m Model) View() string {
	var body string
	switch m.focus {
	case focusPlaying:
		body = m.playingView()
	case focusChat:
		body = m.chatView()
	default:
		body = m.libraryView()
	}

	var footer string
	if m.notice != "" {
		style := styles.NoticeInfoStyle
		if m.noticeLevel == notify.LevelError {
			style = styles.NoticeErrorStyle
		}
		footer = "\n" + style.Render("  "+m.notice)
	}

	return styles.AppStyle.Render(body + footer)
}

func (m Model) libraryView() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("  CINEHOME  "))
	b.WriteString("\n\n")

	// view tabs
	var tabs []string
	for _, v := range catalog.Views() {
		style := styles.TabStyle
		if v == m.view {
			style = styles.ActiveTabStyle
		}
		tabs = append(tabs, style.Render(viewTitles[v]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	if m.searching || m.query != "" {
		b.WriteString(styles.SearchBoxStyle.Render(m.search.View()))
		b.WriteString("\n\n")
	}

	switch {
	case !m.loaded:
		b.WriteString(styles.EmptyStyle.Render("Loading library..."))
	case m.loadErr != nil:
		b.WriteString(styles.NoticeErrorStyle.Render("  Could not reach the server: " + m.loadErr.Error()))
	case m.deps.Catalog.Empty():
		b.WriteString(styles.EmptyStyle.Render("The library is empty. Upload videos with: cinehome videos upload <file>"))
	case len(m.filtered) == 0 && m.query != "":
		b.WriteString(styles.EmptyStyle.Render(fmt.Sprintf("No results for %q", m.query)))
	case len(m.filtered) == 0:
		b.WriteString(styles.EmptyStyle.Render("Nothing in " + viewTitles[m.view] + " yet"))
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n\n")
	help := "enter play • / filter • tab views • f fav • w watchlist • y copy url • c chat • g gestures • q quit"
	b.WriteString(styles.HelpStyle.Render("  " + help))

	return b.String()
}

func (m Model) renderList() string {
	var b strings.Builder

	visible := len(m.filtered)
	maxRows := m.height - 12
	if maxRows < 5 {
		maxRows = 5
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := start + maxRows
	if end > visible {
		end = visible
	}

	for i := start; i < end; i++ {
		video := m.filtered[i]

		marks := ""
		if m.deps.State.IsFavorite(video.ID) {
			marks += styles.FavoriteMarkStyle.Render(" ♥")
		}
		if m.deps.State.InWatchlist(video.ID) {
			marks += styles.WatchlistMarkStyle.Render(" +")
		}
		if pct := m.deps.State.Progress(video.ID); m.deps.State.InProgress(video.ID) {
			marks += styles.ProgressStyle.Render(fmt.Sprintf(" %d%%", pct))
		}

		meta := styles.MetadataStyle.Render("  " + humanize.Bytes(uint64(video.Size)))

		line := video.DisplayName() + marks + meta
		if i == m.cursor {
			b.WriteString(styles.SelectedItemStyle.Render("> " + line))
		} else {
			b.WriteString(styles.NormalItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if visible > end-start {
		b.WriteString(styles.MetadataStyle.Render(fmt.Sprintf("  %d of %d", m.cursor+1, visible)))
	}

	return b.String()
}

func (m Model) playingView() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("  NOW PLAYING  "))
	b.WriteString("\n\n")

	video, ok := m.deps.Controller.Current()
	if !ok {
		b.WriteString(styles.EmptyStyle.Render("Nothing is playing"))
	} else {
		b.WriteString(styles.SubtitleStyle.Render("  " + video.DisplayName()))
		b.WriteString("\n")

		status := m.deps.Controller.Status().String()
		position := fmt.Sprintf("%d of %d", m.deps.Controller.Index()+1, len(m.deps.Controller.Queue()))
		b.WriteString(styles.MetadataStyle.Render("  " + status + " • " + position))
		b.WriteString("\n\n")

		if m.sample != nil && m.sample.Duration > 0 {
			b.WriteString("  " + renderProgressBar(m.sample, 40))
			b.WriteString("\n")
			b.WriteString(styles.MetadataStyle.Render(fmt.Sprintf(
				"  %s / %s • volume %d%%",
				formatDuration(m.sample.CurrentTime),
				formatDuration(m.sample.Duration),
				m.sample.Volume,
			)))
		}
	}

	b.WriteString("\n\n")
	help := "space pause • n next • b prev • ←/→ seek • +/- volume • f fav • w watchlist • c chat • esc close"
	b.WriteString(styles.HelpStyle.Render("  " + help))

	return b.String()
}

func (m Model) chatView() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("  ASSISTANT  "))
	b.WriteString("\n\n")

	if len(m.transcript) == 0 && !m.chatWaiting {
		b.WriteString(styles.EmptyStyle.Render("Ask for a recommendation or about the current video"))
		b.WriteString("\n")
	}

	shown := m.transcript
	maxExchanges := (m.height - 10) / 3
	if maxExchanges > 0 && len(shown) > maxExchanges {
		shown = shown[len(shown)-maxExchanges:]
	}

	for _, e := range shown {
		b.WriteString(styles.ChatUserStyle.Render("  you: ") + e.Message)
		b.WriteString("\n")
		if e.Reply != "" {
			b.WriteString(styles.ChatAssistantStyle.Render("  assistant: " + e.Reply))
		} else {
			b.WriteString(styles.MetadataStyle.Render("  assistant is thinking..."))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(styles.SearchBoxStyle.Render(m.chatInput.View()))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("  enter send • esc back"))

	return b.String()
}

func renderProgressBar(sample *player.PlaybackProgress, width int) string {
	filled := int(sample.Percentage / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressStyle.Render(bar)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
