package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/atrium-controls/storage-bridge/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(context.Background(), config.MetricsConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.MetricsConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Token:   "token",
		Org:     "org",
		Bucket:  "bucket",
	}

	_, err := Connect(context.Background(), cfg)
	if err == nil {
		t.Fatal("Connect() error = nil for unreachable server")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}
