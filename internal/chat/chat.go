// Package chat drives the assistant panel: it posts messages with the
// current playback context, mirrors the transcript locally, and serves
// history for the panel.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinehome/cinehome/internal/api"
	"github.com/cinehome/cinehome/internal/database"
)

// FallbackReply is shown when the assistant cannot be reached
const FallbackReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."

// Assistant is the slice of the API client the chat service uses
type Assistant interface {
	Chat(ctx context.Context, userID, message, currentVideo string) (*api.ChatResponse, error)
	ChatHistory(ctx context.Context, userID string) ([]api.ChatHistoryEntry, error)
}

// Exchange is one question/answer pair in the transcript
type Exchange struct {
	Message      string
	Reply        string
	CurrentVideo string
	Timestamp    string
}

// Service posts chat messages and keeps the transcript
type Service struct {
	assistant    Assistant
	db           *gorm.DB
	userID       string
	currentVideo func() string
	logger       *slog.Logger
	historyLimit int
}

// NewService creates a chat service. currentVideo supplies the display
// name of the playing video for context, empty when nothing plays; db may
// be nil to skip the local transcript mirror.
func NewService(assistant Assistant, db *gorm.DB, userID string, currentVideo func() string, historyLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if currentVideo == nil {
		currentVideo = func() string { return "" }
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Service{
		assistant:    assistant,
		db:           db,
		userID:       userID,
		currentVideo: currentVideo,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

// Send posts a message and returns the assistant's reply. A failed call
// never surfaces as an error to the panel: it logs and answers with the
// canned fallback.
func (s *Service) Send(ctx context.Context, message string) string {
	video := s.currentVideo()

	resp, err := s.assistant.Chat(ctx, s.userID, message, video)
	reply := FallbackReply
	if err != nil {
		s.logger.Error("chat request failed", "error", err)
	} else if text := resp.Text(); text != "" {
		reply = text
	}

	s.mirror(message, reply, video)
	return reply
}

// History returns the transcript, preferring the server-side history and
// falling back to the local mirror when the server cannot provide it.
func (s *Service) History(ctx context.Context) ([]Exchange, error) {
	entries, err := s.assistant.ChatHistory(ctx, s.userID)
	if err != nil {
		s.logger.Warn("failed to fetch chat history, using local transcript", "error", err)
		return s.localHistory()
	}

	out := make([]Exchange, 0, len(entries))
	for _, e := range entries {
		out = append(out, Exchange{
			Message:      e.UserMessage,
			Reply:        e.AIResponse,
			CurrentVideo: e.CurrentVideo,
			Timestamp:    e.Timestamp,
		})
	}
	if len(out) > s.historyLimit {
		out = out[len(out)-s.historyLimit:]
	}
	return out, nil
}

// mirror stores one exchange in the local transcript
func (s *Service) mirror(message, reply, video string) {
	if s.db == nil {
		return
	}

	record := &database.ChatMessage{
		ID:           uuid.NewString(),
		UserID:       s.userID,
		UserMessage:  message,
		AIResponse:   reply,
		CurrentVideo: video,
	}
	if err := s.db.Create(record).Error; err != nil {
		s.logger.Warn("failed to mirror chat exchange", "error", err)
	}
}

func (s *Service) localHistory() ([]Exchange, error) {
	if s.db == nil {
		return nil, fmt.Errorf("no chat history available")
	}

	// Newest tail, like the server path, delivered oldest-first
	var records []database.ChatMessage
	err := s.db.Where("user_id = ?", s.userID).
		Order("created_at desc").
		Limit(s.historyLimit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read local transcript: %w", err)
	}

	out := make([]Exchange, len(records))
	for i, r := range records {
		out[len(records)-1-i] = Exchange{
			Message:      r.UserMessage,
			Reply:        r.AIResponse,
			CurrentVideo: r.CurrentVideo,
			Timestamp:    r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return out, nil
}
