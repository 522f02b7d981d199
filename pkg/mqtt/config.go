package mqtt

import (
	"errors"
	"net/url"
	"time"
)

// PublisherConfig holds the configuration for creating a Publisher.
type PublisherConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// KeepAlive in seconds. Default is 60.
	KeepAlive uint16

	// ConnectTimeout for the initial connection. Default is 5s.
	ConnectTimeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification, for
	// brokers running self-signed certificates.
	InsecureSkipVerify bool

	// Last-will message, announced by the broker if the station drops
	// off without a clean disconnect. Optional.
	WillTopic   string
	WillPayload []byte
	WillQoS     byte
	WillRetain  bool
}

func setDefaultConfig(cfg *PublisherConfig) {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 60
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *PublisherConfig) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker url is required")
	}
	if _, err := url.Parse(c.BrokerURL); err != nil {
		return err
	}
	return nil
}
