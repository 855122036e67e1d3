package bridge

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the broker's
	// accept/reject answer to a connect request.
	defaultConnectTimeout = 10 * time.Second

	// defaultSubscribeTimeout is the maximum time to wait for a
	// subscription acknowledgment.
	defaultSubscribeTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations
	// on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// reconnectMaxDelay bounds the transport's reconnect backoff for an
	// established session that drops. The backoff starts at one second.
	reconnectMaxDelay = 60 * time.Second

	// statusWriteTimeout bounds status mirror writes to the config store.
	statusWriteTimeout = 5 * time.Second

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildOptions creates paho MQTT options from a broker config snapshot.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on the TLS flag)
//   - Client ID and credentials (if a username is set)
//   - Clean session, keepalive, connect timeout
//   - Auto-reconnect with bounded backoff for established sessions;
//     failed initial connects are not retried by the transport — the
//     reconciliation loop owns that retry
//   - TLS configuration (if enabled)
//   - Session lifecycle callbacks
func (m *Manager) buildOptions(cfg BrokerConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.TLSEnabled {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker, cfg.Port))

	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
		m.log.Info("mqtt authentication configured", "username", cfg.Username)
	}

	// Start fresh on every connect; the bridge re-subscribes itself.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(reconnectMaxDelay)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	opts.SetOnConnectHandler(m.handleConnected)
	opts.SetConnectionLostHandler(m.handleConnectionLost)

	if cfg.TLSEnabled {
		opts.SetTLSConfig(m.buildTLSConfig(cfg))
	}

	return opts
}

// buildTLSConfig derives the TLS settings from a broker config snapshot.
//
// Three modes, in order of precedence:
//   - insecure: peer verification skipped entirely (logged as a warning,
//     this is security relevant)
//   - secure with a CA file: the file is read and parsed; if it is
//     missing, unreadable, or not valid PEM the bridge degrades to the
//     system trust store rather than failing closed
//   - secure without a CA file: system trust store
func (m *Manager) buildTLSConfig(cfg BrokerConfig) *tls.Config {
	tlsCfg := &tls.Config{
		MinVersion: tlsMinVersion,
	}

	if cfg.TLSInsecure {
		tlsCfg.InsecureSkipVerify = true
		m.log.Warn("TLS configured with INSECURE mode (certificate verification disabled)")
		return tlsCfg
	}

	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			m.log.Error("CA certificate not readable, falling back to system trust store",
				"path", cfg.CACertPath,
				"error", err,
			)
		} else {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				m.log.Error("CA certificate not valid PEM, falling back to system trust store",
					"path", cfg.CACertPath,
				)
			} else {
				tlsCfg.RootCAs = pool
				m.log.Info("TLS configured with CA certificate", "path", cfg.CACertPath)
				return tlsCfg
			}
		}
	}

	// Nil RootCAs means the system trust store.
	m.log.Info("TLS configured with system trust store")
	return tlsCfg
}
