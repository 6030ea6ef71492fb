package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	apihttp "github.com/cinehome/cinehome/internal/api/http"
	"github.com/cinehome/cinehome/internal/config"
)

// Client talks to a CineHome media server. One method per backend resource;
// no business logic lives here beyond request construction and response
// parsing.
type Client struct {
	baseURL    string
	httpClient *apihttp.Client
	logger     *slog.Logger
}

// NewClient creates an API client for the configured server
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := apihttp.NewClient(apihttp.ClientConfig{
		Timeout:    cfg.Server.Timeout,
		MaxRetries: cfg.Server.MaxRetries,
		UserAgent:  "cinehome/1.0",
		Debug:      cfg.Advanced.Debug,
		Logger:     logger,
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.Server.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the server base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates a new server-side session and returns its user id
func (c *Client) Register(ctx context.Context) (string, error) {
	var out RegisterResponse
	if err := c.post(ctx, "/api/auth/register", map[string]string{}, &out); err != nil {
		return "", fmt.Errorf("register failed: %w", err)
	}
	if out.UserID == "" {
		return "", fmt.Errorf("register failed: server returned no user id")
	}
	return out.UserID, nil
}

// CheckSession reports whether the server still recognizes the user id
func (c *Client) CheckSession(ctx context.Context, userID string) (bool, error) {
	resp, err := c.httpClient.Get(ctx, c.baseURL+"/api/auth/session/"+url.PathEscape(userID))
	if err != nil {
		return false, fmt.Errorf("session check failed: %w", err)
	}
	// The server answers 401 with {valid:false} for unknown sessions
	var out SessionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return false, fmt.Errorf("session check failed: %w", err)
	}
	return out.Valid, nil
}

// ListVideos fetches the full server catalog
func (c *Client) ListVideos(ctx context.Context) ([]VideoRecord, error) {
	var out ListVideosResponse
	if err := c.get(ctx, "/api/videos/list", &out); err != nil {
		return nil, fmt.Errorf("list videos failed: %w", err)
	}
	return out.Videos, nil
}

// StreamURL returns the playable locator for a video. It is pure and
// synchronous: the result is embedded directly into the player's media
// source, so it must be a ready string, never a pending lookup.
func (c *Client) StreamURL(videoID string) string {
	return c.baseURL + "/api/videos/stream/" + url.PathEscape(videoID)
}

// DeleteVideo removes a video from the server library
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	resp, err := c.httpClient.Delete(ctx, c.baseURL+"/api/videos/delete/"+url.PathEscape(videoID), nil)
	if err != nil {
		return fmt.Errorf("delete video failed: %w", err)
	}
	if err := c.check(resp); err != nil {
		return fmt.Errorf("delete video failed: %w", err)
	}
	return nil
}

// Upload sends local video files to the server library
func (c *Client) Upload(ctx context.Context, userID, path string) (*UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer f.Close()

	resp, err := c.httpClient.PostFile(ctx, c.baseURL+"/api/videos/upload", "files", filepath.Base(path), f,
		map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if err := c.check(resp); err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	var out UploadResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	return &out, nil
}

// GetFavorites fetches the favorite set for a user
func (c *Client) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	var out FavoritesResponse
	if err := c.get(ctx, c.userPath(userID, "favorites"), &out); err != nil {
		return nil, fmt.Errorf("get favorites failed: %w", err)
	}
	return out.Favorites, nil
}

// AddFavorite marks a video as favorite
func (c *Client) AddFavorite(ctx context.Context, userID, videoID string) error {
	if err := c.post(ctx, c.userPath(userID, "favorites"), videoBody(videoID), nil); err != nil {
		return fmt.Errorf("add favorite failed: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a video as favorite
func (c *Client) RemoveFavorite(ctx context.Context, userID, videoID string) error {
	if err := c.del(ctx, c.userPath(userID, "favorites"), videoBody(videoID)); err != nil {
		return fmt.Errorf("remove favorite failed: %w", err)
	}
	return nil
}

// GetWatchlist fetches the watchlist for a user
func (c *Client) GetWatchlist(ctx context.Context, userID string) ([]string, error) {
	var out WatchlistResponse
	if err := c.get(ctx, c.userPath(userID, "watchlist"), &out); err != nil {
		return nil, fmt.Errorf("get watchlist failed: %w", err)
	}
	return out.Watchlist, nil
}

// AddToWatchlist adds a video to the watchlist
func (c *Client) AddToWatchlist(ctx context.Context, userID, videoID string) error {
	if err := c.post(ctx, c.userPath(userID, "watchlist"), videoBody(videoID), nil); err != nil {
		return fmt.Errorf("add to watchlist failed: %w", err)
	}
	return nil
}

// RemoveFromWatchlist removes a video from the watchlist
func (c *Client) RemoveFromWatchlist(ctx context.Context, userID, videoID string) error {
	if err := c.del(ctx, c.userPath(userID, "watchlist"), videoBody(videoID)); err != nil {
		return fmt.Errorf("remove from watchlist failed: %w", err)
	}
	return nil
}

// GetRecent fetches the most-recent-first watch sequence
func (c *Client) GetRecent(ctx context.Context, userID string) ([]string, error) {
	var out RecentResponse
	if err := c.get(ctx, c.userPath(userID, "recent"), &out); err != nil {
		return nil, fmt.Errorf("get recent failed: %w", err)
	}
	return out.RecentVideos, nil
}

// AddRecent records a video at the head of the recent sequence
func (c *Client) AddRecent(ctx context.Context, userID, videoID string) error {
	if err := c.post(ctx, c.userPath(userID, "recent"), videoBody(videoID), nil); err != nil {
		return fmt.Errorf("add recent failed: %w", err)
	}
	return nil
}

// GetProgress fetches the per-video watch percentages
func (c *Client) GetProgress(ctx context.Context, userID string) (map[string]int, error) {
	var out ProgressResponse
	if err := c.get(ctx, c.userPath(userID, "progress"), &out); err != nil {
		return nil, fmt.Errorf("get progress failed: %w", err)
	}
	return out.WatchProgress, nil
}

// SetProgress records the watch percentage for one video
func (c *Client) SetProgress(ctx context.Context, userID, videoID string, percent int) error {
	body := map[string]interface{}{"video_id": videoID, "progress": percent}
	if err := c.post(ctx, c.userPath(userID, "progress"), body, nil); err != nil {
		return fmt.Errorf("set progress failed: %w", err)
	}
	return nil
}

// UserData fetches all four user collections in one call
func (c *Client) UserData(ctx context.Context, userID string) (*UserData, error) {
	var out UserData
	if err := c.get(ctx, c.userPath(userID, "data"), &out); err != nil {
		return nil, fmt.Errorf("get user data failed: %w", err)
	}
	return &out, nil
}

// SyncUserData pushes a full state blob to the server
func (c *Client) SyncUserData(ctx context.Context, userID string, data *UserData) error {
	if err := c.post(ctx, c.userPath(userID, "data"), data, nil); err != nil {
		return fmt.Errorf("sync user data failed: %w", err)
	}
	return nil
}

// Stats fetches aggregate library statistics for a user
func (c *Client) Stats(ctx context.Context, userID string) (*StatsResponse, error) {
	var out StatsResponse
	if err := c.get(ctx, c.userPath(userID, "stats"), &out); err != nil {
		return nil, fmt.Errorf("get stats failed: %w", err)
	}
	return &out, nil
}

// DetectGesture submits one camera frame for classification. An empty
// Gesture in the response means no hand was recognized.
func (c *Client) DetectGesture(ctx context.Context, frame []byte) (*DetectResponse, error) {
	resp, err := c.httpClient.PostFile(ctx, c.baseURL+"/api/gesture/detect", "frame", "frame.jpg",
		bytes.NewReader(frame), nil)
	if err != nil {
		return nil, fmt.Errorf("detect gesture failed: %w", err)
	}
	if err := c.check(resp); err != nil {
		return nil, fmt.Errorf("detect gesture failed: %w", err)
	}

	var out DetectResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("detect gesture failed: %w", err)
	}
	return &out, nil
}

// ProcessGesture maps a gesture label to a player action. Action is empty
// when the label maps to nothing or the server cooldown suppressed it.
func (c *Client) ProcessGesture(ctx context.Context, gesture string) (*ProcessResponse, error) {
	var out ProcessResponse
	if err := c.post(ctx, "/api/gesture/process", map[string]string{"gesture": gesture}, &out); err != nil {
		return nil, fmt.Errorf("process gesture failed: %w", err)
	}
	return &out, nil
}

// GetGestureSettings fetches the server-side gesture tuning knobs
func (c *Client) GetGestureSettings(ctx context.Context) (*GestureSettings, error) {
	var out GestureSettings
	if err := c.get(ctx, "/api/gesture/settings", &out); err != nil {
		return nil, fmt.Errorf("get gesture settings failed: %w", err)
	}
	return &out, nil
}

// UpdateGestureSettings pushes new gesture tuning knobs
func (c *Client) UpdateGestureSettings(ctx context.Context, settings *GestureSettings) error {
	if err := c.post(ctx, "/api/gesture/settings", settings, nil); err != nil {
		return fmt.Errorf("update gesture settings failed: %w", err)
	}
	return nil
}

// Chat sends a message to the assistant. currentVideo may be empty when
// nothing is playing.
func (c *Client) Chat(ctx context.Context, userID, message, currentVideo string) (*ChatResponse, error) {
	body := map[string]interface{}{
		"message": message,
		"user_id": userID,
	}
	if currentVideo != "" {
		body["currentVideo"] = currentVideo
	}

	var out ChatResponse
	if err := c.post(ctx, "/api/chat/message", body, &out); err != nil {
		return nil, fmt.Errorf("chat failed: %w", err)
	}
	return &out, nil
}

// ChatHistory fetches the server-side chat transcript
func (c *Client) ChatHistory(ctx context.Context, userID string) ([]ChatHistoryEntry, error) {
	var out ChatHistoryResponse
	if err := c.get(ctx, "/api/chat/history/"+url.PathEscape(userID), &out); err != nil {
		return nil, fmt.Errorf("get chat history failed: %w", err)
	}
	return out.History, nil
}

func (c *Client) userPath(userID, resource string) string {
	return "/api/user/" + url.PathEscape(userID) + "/" + resource
}

func videoBody(videoID string) map[string]string {
	return map[string]string{"video_id": videoID}
}

// get performs a GET and decodes the JSON response into result
func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	resp, err := c.httpClient.Get(ctx, c.baseURL+endpoint)
	if err != nil {
		return fmt.Errorf("HTTP request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	return c.decode(resp, result)
}

// post performs a POST with a JSON body; result may be nil when the caller
// only cares about success
func (c *Client) post(ctx context.Context, endpoint string, body, result interface{}) error {
	resp, err := c.httpClient.Post(ctx, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("HTTP request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	return c.decode(resp, result)
}

// del performs a DELETE with a JSON body
func (c *Client) del(ctx context.Context, endpoint string, body interface{}) error {
	resp, err := c.httpClient.Delete(ctx, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("HTTP request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	return c.decode(resp, nil)
}

// decode surfaces the server-supplied error message on non-2xx statuses and
// otherwise unmarshals the body into result when one is expected
func (c *Client) decode(resp *resty.Response, result interface{}) error {
	if err := c.check(resp); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// check converts a non-2xx response into an error carrying the
// server-supplied message when the body has one
func (c *Client) check(resp *resty.Response) error {
	if resp.StatusCode() < 400 {
		return nil
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode(), errResp.Error)
	}
	return fmt.Errorf("server error: HTTP %d", resp.StatusCode())
}
