package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cinehome/cinehome/internal/database"
)

// Registrar is the slice of the API client the identity manager needs
type Registrar interface {
	Register(ctx context.Context) (string, error)
	CheckSession(ctx context.Context, userID string) (bool, error)
}

// Manager obtains and persists the opaque user identity for a server. The
// identity is created once, stored locally, and reused on later runs; it is
// only replaced when the server stops recognizing it.
type Manager struct {
	db        *gorm.DB
	registrar Registrar
	serverURL string
	logger    *slog.Logger
}

// NewManager creates an identity manager. db may be nil, in which case a
// fresh session is registered every run.
func NewManager(db *gorm.DB, registrar Registrar, serverURL string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		db:        db,
		registrar: registrar,
		serverURL: serverURL,
		logger:    logger,
	}
}

// EnsureIdentity returns the user id for this server, registering a new
// session when none is stored or the stored one has expired server-side.
func (m *Manager) EnsureIdentity(ctx context.Context) (string, error) {
	if stored, err := m.load(); err == nil && stored != "" {
		valid, err := m.registrar.CheckSession(ctx, stored)
		if err != nil {
			// The server may simply not implement session validation;
			// keep the stored identity rather than churning registrations.
			m.logger.Warn("session validation failed, keeping stored identity", "error", err)
			return stored, nil
		}
		if valid {
			m.logger.Debug("reusing stored session", "user_id", stored)
			return stored, nil
		}
		m.logger.Info("stored session expired, registering a new one")
	}

	userID, err := m.registrar.Register(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to register session: %w", err)
	}

	if err := m.save(userID); err != nil {
		m.logger.Warn("failed to persist session identity", "error", err)
	}

	m.logger.Info("registered new session", "user_id", userID)
	return userID, nil
}

func (m *Manager) load() (string, error) {
	if m.db == nil {
		return "", nil
	}

	var s database.Session
	err := m.db.Where("server_url = ?", m.serverURL).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.UserID, nil
}

func (m *Manager) save(userID string) error {
	if m.db == nil {
		return nil
	}

	var s database.Session
	err := m.db.Where("server_url = ?", m.serverURL).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m.db.Create(&database.Session{ServerURL: m.serverURL, UserID: userID}).Error
	}
	if err != nil {
		return err
	}

	s.UserID = userID
	return m.db.Save(&s).Error
}
