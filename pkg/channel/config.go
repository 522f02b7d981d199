package channel

import (
	"errors"
	"net/url"
	"time"
)

// ClientConfig holds the configuration for creating a Client.
type ClientConfig struct {
	// URL is the websocket endpoint of the vehicle-control process.
	URL string

	// ReconnectDelay is the fixed wait between automatic reconnect
	// attempts. Default is 3s.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts bounds consecutive automatic reconnects with no
	// successful open in between. Past the bound the operator must call
	// Connect explicitly. Default is 10.
	MaxReconnectAttempts int

	// HeartbeatInterval is the period of the liveness ping while
	// connected. Default is 5s.
	HeartbeatInterval time.Duration

	// HandshakeTimeout bounds the websocket dial. Default is 5s.
	HandshakeTimeout time.Duration
}

// setDefaultConfig applies default values to unset fields.
func setDefaultConfig(cfg *ClientConfig) {
	if cfg.URL == "" {
		cfg.URL = "ws://localhost:8080"
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = 10
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 5 * time.Second
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
}

// Validate checks if the configuration is usable.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.New("channel url must use ws or wss scheme")
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.New("max reconnect attempts must not be negative")
	}
	return nil
}
