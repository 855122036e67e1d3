package bridge

// BrokerConfig is one immutable snapshot of the broker connection
// parameters held in the config store.
//
// A snapshot is consumed by a single reconciliation cycle and superseded
// atomically by the next load; it is never mutated in place.
type BrokerConfig struct {
	// Broker is the hostname or IP of the MQTT broker. Empty means
	// "not configured yet" and suppresses connect attempts.
	Broker   string
	Port     int
	ClientID string

	// Username enables authentication when non-empty. Password may be
	// empty for anonymous auth.
	Username string
	Password string

	// TLSInsecure skips certificate verification entirely when TLSEnabled,
	// regardless of CACertPath.
	TLSEnabled  bool
	TLSInsecure bool
	CACertPath  string

	// TopicPatterns are subscribed in order at QoS on every connect.
	TopicPatterns []string
	QoS           int

	// Enabled gates all connect attempts without being an error state.
	Enabled bool
}

// Connectable reports whether this configuration permits a connect attempt.
func (c BrokerConfig) Connectable() bool {
	return c.Enabled && c.Broker != ""
}

// MaterialChange reports whether moving from old to next requires tearing
// down and rebuilding the session.
//
// Only the broker address, port, and TLS flag are material; topic-pattern
// and QoS edits are deliberately ignored here (see the package doc).
func MaterialChange(old, next BrokerConfig) bool {
	return old.Broker != next.Broker ||
		old.Port != next.Port ||
		old.TLSEnabled != next.TLSEnabled
}
