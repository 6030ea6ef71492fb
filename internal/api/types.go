package api

// RegisterResponse is returned by POST /api/auth/register
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// SessionResponse is returned by GET /api/auth/session/{id}
type SessionResponse struct {
	Valid bool `json:"valid"`
}

// VideoRecord describes one video as the server lists it
type VideoRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

// ListVideosResponse is returned by GET /api/videos/list
type ListVideosResponse struct {
	Videos []VideoRecord `json:"videos"`
}

// UploadedFile describes one file accepted by POST /api/videos/upload
type UploadedFile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

// UploadResponse is returned by POST /api/videos/upload
type UploadResponse struct {
	Status   string         `json:"status"`
	Uploaded []UploadedFile `json:"uploaded"`
	Count    int            `json:"count"`
}

// FavoritesResponse is returned by the favorites endpoints
type FavoritesResponse struct {
	Status    string   `json:"status,omitempty"`
	Favorites []string `json:"favorites"`
}

// WatchlistResponse is returned by the watchlist endpoints
type WatchlistResponse struct {
	Status    string   `json:"status,omitempty"`
	Watchlist []string `json:"watchlist"`
}

// RecentResponse is returned by the recent endpoints
type RecentResponse struct {
	Status       string   `json:"status,omitempty"`
	RecentVideos []string `json:"recentVideos"`
}

// ProgressResponse is returned by GET /api/user/{id}/progress
type ProgressResponse struct {
	WatchProgress map[string]int `json:"watchProgress"`
}

// UserData is the bulk state blob from GET /api/user/{id}/data.
// Any field the server omits defaults to its empty form.
type UserData struct {
	Favorites     []string       `json:"favorites"`
	Watchlist     []string       `json:"watchlist"`
	RecentVideos  []string       `json:"recentVideos"`
	WatchProgress map[string]int `json:"watchProgress"`
}

// StatsResponse is returned by GET /api/user/{id}/stats
type StatsResponse struct {
	TotalVideos       int     `json:"totalVideos"`
	TotalWatched      int     `json:"totalWatched"`
	TotalFavorites    int     `json:"totalFavorites"`
	WatchlistSize     int     `json:"watchlistSize"`
	PercentageWatched float64 `json:"percentageWatched"`
}

// DetectResponse is returned by POST /api/gesture/detect. Gesture is empty
// when no hand was recognized in the frame.
type DetectResponse struct {
	Status       string `json:"status"`
	Gesture      string `json:"gesture"`
	HandDetected bool   `json:"hand_detected"`
}

// ProcessResponse is returned by POST /api/gesture/process. Action is empty
// when the gesture maps to nothing or the server-side cooldown suppressed it.
type ProcessResponse struct {
	Action string `json:"action"`
	Step   int    `json:"step"`
	Reason string `json:"reason,omitempty"`
}

// GestureSettings mirrors the server-side gesture tuning knobs
type GestureSettings struct {
	Cooldown       float64 `json:"cooldown"`
	VolumeStep     int     `json:"volume_step"`
	BrightnessStep int     `json:"brightness_step"`
	Enabled        bool    `json:"enabled"`
}

// ChatResponse is returned by POST /api/chat/message
type ChatResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Response  string `json:"response,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ChatHistoryEntry is one exchange from GET /api/chat/history/{id}
type ChatHistoryEntry struct {
	Timestamp    string `json:"timestamp"`
	UserMessage  string `json:"user_message"`
	AIResponse   string `json:"ai_response"`
	CurrentVideo string `json:"current_video"`
}

// ChatHistoryResponse is returned by GET /api/chat/history/{id}
type ChatHistoryResponse struct {
	Status  string             `json:"status"`
	History []ChatHistoryEntry `json:"history"`
}

// ErrorResponse is the error body the server sends with non-2xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}

// Text returns the assistant's reply, whichever field the server used
func (r *ChatResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Response
}
