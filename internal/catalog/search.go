package catalog

import "github.com/sahilm/fuzzy"

// videoSource adapts a video slice to the fuzzy matcher
type videoSource []Video

func (s videoSource) String(i int) string { return s[i].DisplayName() }
func (s videoSource) Len() int            { return len(s) }

// Search ranks videos by fuzzy match quality against the query. Unlike
// Filter's substring matching this is for interactive search, where
// "mclp" should still surface "My Clip". An empty query returns the input
// order unchanged.
func Search(videos []Video, query string) []Video {
	if query == "" {
		out := make([]Video, len(videos))
		copy(out, videos)
		return out
	}

	matches := fuzzy.FindFrom(query, videoSource(videos))
	out := make([]Video, 0, len(matches))
	for _, m := range matches {
		out = append(out, videos[m.Index])
	}
	return out
}
