package catalog

import "strings"

// View selects which slice of the catalog is shown
type View int

const (
	ViewAll View = iota
	ViewFavorites
	ViewRecent
	ViewContinue
	ViewWatchlist
)

var viewNames = map[View]string{
	ViewAll:       "all",
	ViewFavorites: "favorites",
	ViewRecent:    "recent",
	ViewContinue:  "continue",
	ViewWatchlist: "watchlist",
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return "all"
}

// Views lists every view in display order
func Views() []View {
	return []View{ViewAll, ViewFavorites, ViewRecent, ViewContinue, ViewWatchlist}
}

// ParseView maps a view name to its View, defaulting to ViewAll
func ParseView(name string) View {
	for v, n := range viewNames {
		if n == strings.ToLower(name) {
			return v
		}
	}
	return ViewAll
}

// StateView is the read-only slice of the user state the filter consults
type StateView interface {
	IsFavorite(videoID string) bool
	InWatchlist(videoID string) bool
	InProgress(videoID string) bool
	Recents() []string
}

// Filter produces the ordered sequence of videos for a view and search
// term. It is pure: identical inputs always yield the identical sequence.
// Category rules:
//
//	all        full catalog, catalog order
//	favorites  catalog ∩ favorites, catalog order
//	recent     catalog ∩ recents, ordered by recents position
//	continue   started but not near-complete, catalog order
//	watchlist  catalog ∩ watchlist, catalog order
//
// A non-empty search term then keeps only videos whose display name
// contains it case-insensitively, preserving order.
func Filter(videos []Video, view View, state StateView, search string) []Video {
	var out []Video

	switch view {
	case ViewFavorites:
		out = keep(videos, state.IsFavorite)
	case ViewWatchlist:
		out = keep(videos, state.InWatchlist)
	case ViewContinue:
		out = keep(videos, state.InProgress)
	case ViewRecent:
		out = byRecency(videos, state.Recents())
	default:
		out = make([]Video, len(videos))
		copy(out, videos)
	}

	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return out
	}

	matched := out[:0]
	for _, v := range out {
		if strings.Contains(strings.ToLower(v.DisplayName()), term) {
			matched = append(matched, v)
		}
	}
	return matched
}

func keep(videos []Video, pred func(string) bool) []Video {
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if pred(v.ID) {
			out = append(out, v)
		}
	}
	return out
}

// byRecency orders catalog entries by their position in the recents
// sequence, most-recent-first; videos absent from recents are dropped.
func byRecency(videos []Video, recents []string) []Video {
	byID := make(map[string]Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	out := make([]Video, 0, len(recents))
	for _, id := range recents {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
