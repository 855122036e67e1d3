package configdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-controls/storage-bridge/internal/bridge"
	"github.com/atrium-controls/storage-bridge/internal/infrastructure/config"
)

// Default timeouts for config store operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Row defaults applied when columns are NULL or zero. A stored QoS or
// port of 0 is indistinguishable from unset in the legacy schema and
// takes the default.
const (
	defaultPort     = 1883
	defaultClientID = "storage-bridge"
	defaultQoS      = 1
)

// defaultTopicPattern is subscribed when no patterns are configured.
const defaultTopicPattern = "bacnet/#"

const loadConfigSQL = `
	SELECT broker, port, "clientId", username, password,
	       "tlsEnabled", "tlsInsecure", "caCertPath",
	       "topicPatterns", qos, enabled
	FROM "MqttConfig"
	WHERE id = 1
	LIMIT 1`

const (
	updateStatusSQL = `
		UPDATE "MqttConfig"
		SET "connectionStatus" = $1, "updatedAt" = NOW()
		WHERE id = 1`

	updateStatusConnectedSQL = `
		UPDATE "MqttConfig"
		SET "connectionStatus" = $1, "lastConnected" = NOW(), "updatedAt" = NOW()
		WHERE id = 1`
)

// Store is a connection to the external configuration database.
//
// Thread Safety:
//   - All methods are safe for concurrent use; pgxpool manages the
//     underlying connections.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection to the config store and verifies it
// with a ping.
func Connect(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	pool, err := dial(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return &Store{pool: pool}, nil
}

// dial builds a pgx pool for one Postgres endpoint and pings it.
func dial(ctx context.Context, cfg config.StoreConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		url.PathEscape(cfg.Database),
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// mqttConfigRow mirrors the nullable columns of the MqttConfig table.
type mqttConfigRow struct {
	Broker        *string
	Port          *int
	ClientID      *string
	Username      *string
	Password      *string
	TLSEnabled    *bool
	TLSInsecure   *bool
	CACertPath    *string
	TopicPatterns []string
	QoS           *int
	Enabled       *bool
}

// toBrokerConfig applies the row defaults of the legacy schema.
//
// enabled defaults to true when NULL: a row predating the enabled column
// means "was always on".
func (r mqttConfigRow) toBrokerConfig() bridge.BrokerConfig {
	cfg := bridge.BrokerConfig{
		Broker:        stringOr(r.Broker, ""),
		Port:          intOr(r.Port, defaultPort),
		ClientID:      stringOr(r.ClientID, defaultClientID),
		Username:      stringOr(r.Username, ""),
		Password:      stringOr(r.Password, ""),
		TLSEnabled:    boolOr(r.TLSEnabled, false),
		TLSInsecure:   boolOr(r.TLSInsecure, false),
		CACertPath:    stringOr(r.CACertPath, ""),
		TopicPatterns: r.TopicPatterns,
		QoS:           intOr(r.QoS, defaultQoS),
		Enabled:       true,
	}
	if len(cfg.TopicPatterns) == 0 {
		cfg.TopicPatterns = []string{defaultTopicPattern}
	}
	if r.Enabled != nil {
		cfg.Enabled = *r.Enabled
	}
	return cfg
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// LoadBrokerConfig reads the current desired broker parameters.
//
// Returns ErrNoConfig when the row does not exist yet; the caller keeps
// its previous snapshot in that case.
func (s *Store) LoadBrokerConfig(ctx context.Context) (bridge.BrokerConfig, error) {
	var row mqttConfigRow
	err := s.pool.QueryRow(ctx, loadConfigSQL).Scan(
		&row.Broker,
		&row.Port,
		&row.ClientID,
		&row.Username,
		&row.Password,
		&row.TLSEnabled,
		&row.TLSInsecure,
		&row.CACertPath,
		&row.TopicPatterns,
		&row.QoS,
		&row.Enabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return bridge.BrokerConfig{}, ErrNoConfig
	}
	if err != nil {
		return bridge.BrokerConfig{}, fmt.Errorf("loading mqtt config: %w", err)
	}

	return row.toBrokerConfig(), nil
}

// UpdateStatus mirrors a connection status transition into the store.
// When connected is true the last-connected timestamp is refreshed too.
func (s *Store) UpdateStatus(ctx context.Context, status string, connected bool) error {
	sql := updateStatusSQL
	if connected {
		sql = updateStatusConnectedSQL
	}

	if _, err := s.pool.Exec(ctx, sql, status); err != nil {
		return fmt.Errorf("updating connection status: %w", err)
	}
	return nil
}

// HealthCheck verifies the store connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := s.pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("configdb health check: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
