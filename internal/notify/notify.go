package notify

import (
	"errors"
	"fmt"

	"ipbot/internal/config"
	"ipbot/internal/types"

	"go.uber.org/zap"
)

// NotifierType represents the type of notifier
type NotifierType string

const (
	NotifierTelegram NotifierType = "telegram"
)

// Notifier represents notifier interface
type Notifier interface {
	// NotifyIPChange sends an IP change notification
	NotifyIPChange(change *types.IPChange) error
}

// Manager dispatches notifications to the configured notifiers
type Manager struct {
	logger    *zap.Logger
	notifiers map[NotifierType]Notifier
}

// NewManager creates new notifier manager
func NewManager(cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger:    logger,
		notifiers: make(map[NotifierType]Notifier),
	}

	telegram, err := NewTelegramNotifier(&cfg.Telegram, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
	}
	m.notifiers[NotifierTelegram] = telegram

	return m, nil
}

// NotifyIPChange dispatches an IP change notification to all notifiers
func (m *Manager) NotifyIPChange(change *types.IPChange) error {
	var errs []error

	for name, n := range m.notifiers {
		if err := n.NotifyIPChange(change); err != nil {
			m.logger.Error("Failed to send notification",
				zap.String("notifier", string(name)),
				zap.String("change", change.Summary()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
