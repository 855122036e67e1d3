package bridge

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/atrium-controls/storage-bridge/internal/infrastructure/logging"
)

// ConfigSource is the boundary to the external config store.
//
// LoadBrokerConfig returns the current desired broker parameters.
// UpdateStatus mirrors a connection status transition; failures are
// logged and swallowed by the Manager, never fatal.
type ConfigSource interface {
	LoadBrokerConfig(ctx context.Context) (BrokerConfig, error)
	UpdateStatus(ctx context.Context, status string, connected bool) error
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked on the transport's delivery goroutine and must not
// block for unbounded time. A returned error is logged but does not affect
// message acknowledgment.
type MessageHandler func(topic string, payload []byte) error

// Manager owns the broker session lifecycle: connect, authenticate,
// negotiate TLS, subscribe, detect disconnects, and apply configuration
// changes by tearing down and rebuilding the session.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Session state and the
//     active configuration share one mutex so reconfiguration cannot race
//     transport callbacks.
type Manager struct {
	source  ConfigSource
	handler MessageHandler
	log     *logging.Logger

	mu     sync.Mutex
	state  State
	cfg    BrokerConfig
	client pahomqtt.Client

	// newClient builds a paho client from options. Replaced in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
}

// NewManager creates a Manager in the Disconnected state. No connection is
// attempted until Connect or Run is called.
func NewManager(source ConfigSource, handler MessageHandler, log *logging.Logger) *Manager {
	return &Manager{
		source:    source,
		handler:   handler,
		log:       log,
		state:     StateDisconnected,
		newClient: pahomqtt.NewClient,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ActiveConfig returns the configuration of the current session, or the
// zero value if no session has been built yet.
func (m *Manager) ActiveConfig() BrokerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Connect builds a session from cfg and issues the connect request.
//
// Valid only from Disconnected or Error; a call while Connecting or
// Connected is an idempotent no-op. A disabled configuration or an empty
// broker address returns immediately without transitioning — that is not
// an error, the bridge is simply waiting to be configured.
//
// Any session object left over from a lost connection is disconnected
// before the replacement is built, so a superseded client can never keep
// auto-reconnecting in the background.
//
// The connect outcome is asynchronous: on accept the session transitions
// to Connected and subscribes every configured topic pattern in order; on
// reject or timeout it transitions to Error. Both outcomes are mirrored to
// the config store's status field.
func (m *Manager) Connect(cfg BrokerConfig) {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return
	}
	if !cfg.Enabled {
		m.mu.Unlock()
		m.log.Info("mqtt disabled in configuration, not connecting")
		return
	}
	if cfg.Broker == "" {
		m.mu.Unlock()
		m.log.Warn("mqtt broker not configured, waiting")
		return
	}

	opts := m.buildOptions(cfg)
	client := m.newClient(opts)

	// A dropped session keeps auto-reconnecting inside the transport;
	// tear it down before replacing it or it comes back connected but
	// unsubscribed.
	old := m.client
	m.client = client
	m.cfg = cfg
	m.state = StateConnecting
	m.mu.Unlock()

	if old != nil {
		old.Disconnect(defaultDisconnectQuiesce)
	}

	m.log.Info("connecting to mqtt broker",
		"broker", cfg.Broker,
		"port", cfg.Port,
		"tls", cfg.TLSEnabled,
	)
	m.recordStatus(StatusConnecting, false)

	token := client.Connect()
	go m.awaitConnect(client, token)
}

// awaitConnect resolves the asynchronous reject/timeout half of a connect
// request. The accept half is handled by handleConnected, which paho
// invokes directly.
func (m *Manager) awaitConnect(client pahomqtt.Client, token pahomqtt.Token) {
	ok := token.WaitTimeout(defaultConnectTimeout)
	err := token.Error()
	if ok && err == nil {
		return
	}
	if err == nil {
		err = ErrConnectTimeout
	}

	m.mu.Lock()
	if m.client != client {
		// Session superseded by a reconfigure while the request was in
		// flight; the outcome belongs to a dead session.
		m.mu.Unlock()
		return
	}
	m.state = StateError
	m.mu.Unlock()

	m.log.Error("failed to connect to mqtt broker", "error", err)
	m.recordStatus(StatusError, false)
}

// handleConnected runs on broker accept, for both the initial connect and
// every transport-level reconnect. It re-issues all subscriptions because
// sessions are clean.
func (m *Manager) handleConnected(client pahomqtt.Client) {
	m.mu.Lock()
	if m.client != client {
		m.mu.Unlock()
		return
	}
	m.state = StateConnected
	cfg := m.cfg
	m.mu.Unlock()

	m.log.Info("connected to mqtt broker", "broker", cfg.Broker, "port", cfg.Port)
	m.recordStatus(StatusConnected, true)

	for _, pattern := range cfg.TopicPatterns {
		if err := m.subscribe(client, pattern, byte(cfg.QoS)); err != nil {
			m.log.Error("subscription failed", "topic", pattern, "error", err)
			continue
		}
		m.log.Info("subscribed", "topic", pattern, "qos", cfg.QoS)
	}
}

// subscribe issues one subscription request and waits for its ack.
func (m *Manager) subscribe(client pahomqtt.Client, pattern string, qos byte) error {
	token := client.Subscribe(pattern, qos, m.wrapHandler())
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// handleConnectionLost runs when an established session closes
// unexpectedly. Graceful teardown (Reconfigure, Close) does not come
// through here.
func (m *Manager) handleConnectionLost(client pahomqtt.Client, err error) {
	m.mu.Lock()
	if m.client != client {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("unexpected disconnect from mqtt broker", "error", err)
	}
	m.recordStatus(StatusDisconnected, false)
}

// Reconfigure applies a new configuration snapshot.
//
// If the broker address, port, or TLS flag differs from the active
// session's configuration, the session is torn down (explicit close, then
// the transport loop stops) and rebuilt with cfg. Otherwise the session is
// left untouched even if other fields — topic patterns, QoS, credentials —
// differ; those take effect on the next rebuild.
func (m *Manager) Reconfigure(cfg BrokerConfig) {
	m.mu.Lock()
	if !MaterialChange(m.cfg, cfg) {
		m.mu.Unlock()
		return
	}
	client := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if client != nil {
		m.log.Info("mqtt config changed, rebuilding session",
			"broker", cfg.Broker,
			"port", cfg.Port,
			"tls", cfg.TLSEnabled,
		)
		client.Disconnect(defaultDisconnectQuiesce)
	}

	m.Connect(cfg)
}

// Close tears down the session as best-effort cleanup on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if client != nil {
		client.Disconnect(defaultDisconnectQuiesce)
	}
	m.recordStatus(StatusDisconnected, false)
}

// wrapHandler adapts the MessageHandler to paho's callback with panic
// recovery; a panicking handler must not kill the delivery goroutine.
func (m *Manager) wrapHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("message handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		if err := m.handler(msg.Topic(), msg.Payload()); err != nil {
			m.log.Warn("message handler returned error",
				"topic", msg.Topic(),
				"error", err,
			)
		}
	}
}

// recordStatus mirrors a status transition to the config store. Failures
// are logged and swallowed; status mirroring is never allowed to affect
// the session itself.
func (m *Manager) recordStatus(status string, connected bool) {
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if err := m.source.UpdateStatus(ctx, status, connected); err != nil {
		m.log.Error("failed to update connection status",
			"status", status,
			"error", err,
		)
	}
}
