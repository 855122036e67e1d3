package timescale

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-controls/storage-bridge/internal/infrastructure/config"
	"github.com/atrium-controls/storage-bridge/internal/ingest"
)

// Default timeouts for sink operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

const insertReadingSQL = `
	INSERT INTO sensor_readings (
		time, site_id, equipment_type, equipment_id,
		device_id, device_name, device_ip,
		object_type, object_instance,
		point_id, point_name, haystack_name, dis,
		value, units, quality,
		poll_duration, poll_cycle
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9,
		$10, $11, $12, $13, $14, $15, $16, $17, $18
	)`

// Client writes normalized readings to TimescaleDB.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Reconnect swaps the pool
//     under a mutex; writes racing a reconnect fail with ErrNotConnected
//     and are handled like any other write failure.
type Client struct {
	cfg config.StoreConfig

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// Connect establishes a connection to TimescaleDB and verifies it with a
// ping.
func Connect(ctx context.Context, cfg config.StoreConfig) (*Client, error) {
	pool, err := dial(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return &Client{cfg: cfg, pool: pool}, nil
}

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

// InsertReading persists one reading as a single row.
//
// The write is bounded by defaultWriteTimeout; expiry is a write failure
// like any other. The reading is not retried on failure.
func (c *Client) InsertReading(ctx context.Context, r ingest.Reading) error {
	c.mu.Lock()
	pool := c.pool
	c.mu.Unlock()

	if pool == nil {
		return ErrNotConnected
	}

	writeCtx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := pool.Exec(writeCtx, insertReadingSQL,
		r.Time,
		r.SiteID,
		r.EquipmentType,
		r.EquipmentID,
		r.DeviceID,
		r.DeviceName,
		r.DeviceIP,
		r.ObjectType,
		r.ObjectInstance,
		r.PointID,
		r.PointName,
		r.HaystackName,
		r.Dis,
		r.Value,
		r.Units,
		r.Quality,
		r.PollDuration,
		r.PollCycle,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Reconnect tears down the pool and redials so the next write has a
// chance of succeeding. The failed write that triggered it is not
// replayed.
func (c *Client) Reconnect(ctx context.Context) error {
	pool, err := dial(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.mu.Lock()
	old := c.pool
	c.pool = pool
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// HealthCheck verifies the sink connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.Lock()
	pool := c.pool
	c.mu.Unlock()

	if pool == nil {
		return ErrNotConnected
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("timescale health check: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.mu.Lock()
	pool := c.pool
	c.pool = nil
	c.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}
