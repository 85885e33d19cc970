package monitor

import (
	"context"
	"time"

	"ipbot/internal/config"
	"ipbot/internal/history"
	"ipbot/internal/notify"
	"ipbot/internal/state"
	"ipbot/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IPFetcher resolves the current public IP address
type IPFetcher interface {
	FetchIP(ctx context.Context) (string, error)
}

// Monitor runs the public IP watch loop
type Monitor struct {
	config   *config.Config
	logger   *zap.Logger
	fetcher  IPFetcher
	notifier notify.Notifier
	state    *state.File
	history  *history.Store
	lastIP   string
}

// NewMonitor creates a new Monitor instance. The history store may be
// nil when the change journal is disabled.
func NewMonitor(cfg *config.Config, fetcher IPFetcher, notifier notify.Notifier,
	store *history.Store, logger *zap.Logger) (*Monitor, error) {

	m := &Monitor{
		config:   cfg,
		logger:   logger,
		fetcher:  fetcher,
		notifier: notifier,
		state:    state.NewFile(cfg.StateFile),
		history:  store,
	}

	// Load last known state
	last, err := m.state.Load()
	if err != nil {
		logger.Warn("Failed to load last state", zap.Error(err))
	} else if last.IP != "" {
		m.lastIP = last.IP
		logger.Info("Loaded last known IP",
			zap.String("ip", last.IP),
			zap.Time("updated_at", last.UpdatedAt))
	}

	return m, nil
}

// Start begins the watch loop. It performs an immediate check, then one
// synchronous check per tick until the context is canceled.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("Starting IP watch loop",
		zap.Int("check_interval", m.config.CheckInterval),
		zap.Strings("providers", m.config.Providers))

	m.checkOnce(ctx)

	ticker := time.NewTicker(time.Duration(m.config.CheckInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkOnce(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop releases resources held by the monitor
func (m *Monitor) Stop() error {
	m.logger.Info("Stopping IP watch loop...")
	if m.history != nil {
		return m.history.Close()
	}
	return nil
}

// checkOnce performs a single check iteration. Lookup and notification
// failures are logged and left for the next tick; persisted state only
// advances after a successful notification.
func (m *Monitor) checkOnce(ctx context.Context) {
	currentIP, err := m.fetcher.FetchIP(ctx)
	if err != nil {
		m.logger.Error("IP lookup failed", zap.Error(err))
		return
	}

	if currentIP == m.lastIP {
		m.logger.Debug("Public IP unchanged", zap.String("ip", currentIP))
		return
	}

	change := &types.IPChange{
		ID:        uuid.New().String(),
		OldIP:     m.lastIP,
		NewIP:     currentIP,
		ChangedAt: time.Now(),
	}

	m.logger.Info("Public IP change detected",
		zap.String("change", change.Summary()))

	if err := m.notifier.NotifyIPChange(change); err != nil {
		// Keep the old state so the change is re-sent next tick
		m.logger.Error("Failed to send notification", zap.Error(err))
		return
	}

	m.lastIP = currentIP

	if err := m.state.Save(types.IPState{IP: currentIP, UpdatedAt: change.ChangedAt}); err != nil {
		m.logger.Error("Failed to save state", zap.Error(err))
	}

	if m.history != nil {
		if err := m.history.Record(ctx, *change); err != nil {
			m.logger.Error("Failed to record IP change", zap.Error(err))
		}
	}
}
