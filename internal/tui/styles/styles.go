package styles

import "github.com/charmbracelet/lipgloss"

// Oxocarbon palette, base16 oxocarbon-dark
var (
	Black  = lipgloss.Color("#161616")
	Base01 = lipgloss.Color("#393939")
	Base03 = lipgloss.Color("#767676")
	Base04 = lipgloss.Color("#dde1e6")
	Base05 = lipgloss.Color("#f2f4f8")
	White  = lipgloss.Color("#ffffff")

	Teal    = lipgloss.Color("#3ddbd9")
	Blue    = lipgloss.Color("#78a9ff")
	Pink    = lipgloss.Color("#ee5396")
	Red     = lipgloss.Color("#ff5252")
	Green   = lipgloss.Color("#42be65")
	Purple  = lipgloss.Color("#be95ff")
	Mauve   = lipgloss.Color("#d1aaff")
	SkyBlue = lipgloss.Color("#82cfff")
)

var (
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Purple).
			Padding(0, 1).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Mauve).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Base03).
			Italic(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(Base04).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(Black).
			Background(Purple).
			Padding(0, 1).
			Bold(true)

	NormalItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(Base05)

	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(Purple).
				Bold(true)

	MetadataStyle = lipgloss.NewStyle().
			Foreground(Base03)

	FavoriteMarkStyle = lipgloss.NewStyle().
				Foreground(Pink)

	WatchlistMarkStyle = lipgloss.NewStyle().
				Foreground(Teal)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(Green)

	NoticeInfoStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	NoticeErrorStyle = lipgloss.NewStyle().
				Foreground(Red).
				Bold(true)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(Base03).
			Italic(true).
			PaddingLeft(2)

	ChatUserStyle = lipgloss.NewStyle().
			Foreground(SkyBlue).
			Bold(true)

	ChatAssistantStyle = lipgloss.NewStyle().
				Foreground(Base05)

	SearchBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Base01).
			Padding(0, 1)
)
