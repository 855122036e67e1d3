package bridge

import "testing"

func TestConnectable(t *testing.T) {
	tests := []struct {
		name string
		cfg  BrokerConfig
		want bool
	}{
		{"enabled with broker", BrokerConfig{Broker: "broker.local", Enabled: true}, true},
		{"disabled", BrokerConfig{Broker: "broker.local", Enabled: false}, false},
		{"no broker", BrokerConfig{Broker: "", Enabled: true}, false},
		{"zero value", BrokerConfig{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Connectable(); got != tt.want {
				t.Errorf("Connectable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaterialChange(t *testing.T) {
	base := BrokerConfig{
		Broker:        "broker.local",
		Port:          1883,
		ClientID:      "storage-bridge",
		Username:      "user",
		Password:      "pass",
		TLSEnabled:    false,
		TopicPatterns: []string{"bacnet/#"},
		QoS:           1,
		Enabled:       true,
	}

	tests := []struct {
		name   string
		mutate func(*BrokerConfig)
		want   bool
	}{
		{"identical", func(*BrokerConfig) {}, false},
		{"broker changed", func(c *BrokerConfig) { c.Broker = "other.local" }, true},
		{"port changed", func(c *BrokerConfig) { c.Port = 8883 }, true},
		{"tls toggled", func(c *BrokerConfig) { c.TLSEnabled = true }, true},
		{"topics changed", func(c *BrokerConfig) { c.TopicPatterns = []string{"x/#"} }, false},
		{"qos changed", func(c *BrokerConfig) { c.QoS = 2 }, false},
		{"credentials changed", func(c *BrokerConfig) { c.Username = "other"; c.Password = "other" }, false},
		{"client id changed", func(c *BrokerConfig) { c.ClientID = "other" }, false},
		{"ca path changed", func(c *BrokerConfig) { c.CACertPath = "/etc/ca.pem" }, false},
		{"tls insecure toggled", func(c *BrokerConfig) { c.TLSInsecure = true }, false},
		{"disabled", func(c *BrokerConfig) { c.Enabled = false }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			if got := MaterialChange(base, next); got != tt.want {
				t.Errorf("MaterialChange() = %v, want %v", got, tt.want)
			}
		})
	}
}
