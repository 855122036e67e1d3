package bridge

import (
	"context"
	"time"
)

// Run is the reconciliation loop: the single control loop that owns
// configuration polling and drives connect, retry, and reconfiguration.
//
// Two tickers:
//   - configInterval: re-read the broker configuration from the config
//     store and rebuild the session on a material change
//   - retryInterval: re-attempt Connect whenever the session is not
//     Connected and the configuration permits one
//
// Run blocks until ctx is cancelled, then closes the session and returns.
// Load failures keep the previous configuration snapshot; no failure in
// the loop is fatal.
func (m *Manager) Run(ctx context.Context, configInterval, retryInterval time.Duration) {
	desired := m.loadConfig(ctx)
	if m.State() != StateConnected && desired.Connectable() {
		m.Connect(desired)
	}

	configTick := time.NewTicker(configInterval)
	defer configTick.Stop()
	retryTick := time.NewTicker(retryInterval)
	defer retryTick.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return

		case <-configTick.C:
			next, err := m.source.LoadBrokerConfig(ctx)
			if err != nil {
				m.log.Error("failed to load mqtt config", "error", err)
				continue
			}
			if MaterialChange(desired, next) && m.hasSession() {
				m.Reconfigure(next)
			}
			desired = next

		case <-retryTick.C:
			if m.State() != StateConnected && desired.Connectable() {
				m.Connect(desired)
			}
		}
	}
}

// loadConfig reads the broker configuration once, returning the zero
// (disabled) snapshot on failure so the loop starts in a waiting state.
func (m *Manager) loadConfig(ctx context.Context) BrokerConfig {
	cfg, err := m.source.LoadBrokerConfig(ctx)
	if err != nil {
		m.log.Error("failed to load mqtt config", "error", err)
		return BrokerConfig{}
	}
	m.log.Info("loaded mqtt config",
		"broker", cfg.Broker,
		"port", cfg.Port,
		"tls", cfg.TLSEnabled,
		"auth", cfg.Username != "",
		"topics", cfg.TopicPatterns,
		"enabled", cfg.Enabled,
	)
	return cfg
}

// hasSession reports whether a session object currently exists, in any
// state. Reconfiguration only tears down when there is something to tear
// down; otherwise the retry tick performs the first connect.
func (m *Manager) hasSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}
