package options

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/channel"
)

var _ IOptions = (*ChannelOptions)(nil)

// ChannelOptions configures the websocket channel to the vehicle-control
// process.
type ChannelOptions struct {
	// URL is the control process's websocket endpoint.
	URL string `json:"url" mapstructure:"url"`

	// ReconnectDelay is the fixed wait between automatic reconnects.
	ReconnectDelay time.Duration `json:"reconnect-delay" mapstructure:"reconnect-delay"`

	// MaxReconnectAttempts bounds consecutive automatic reconnects.
	MaxReconnectAttempts int `json:"max-reconnect-attempts" mapstructure:"max-reconnect-attempts"`

	// HeartbeatInterval is the liveness ping period while connected.
	HeartbeatInterval time.Duration `json:"heartbeat-interval" mapstructure:"heartbeat-interval"`
}

// NewChannelOptions creates ChannelOptions with default values.
func NewChannelOptions() *ChannelOptions {
	return &ChannelOptions{
		URL:                  "ws://localhost:8080",
		ReconnectDelay:       3 * time.Second,
		MaxReconnectAttempts: 10,
		HeartbeatInterval:    5 * time.Second,
	}
}

// Validate checks the option values.
func (o *ChannelOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if err := o.ToClientConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AddFlags registers channel flags on the given flag set.
func (o *ChannelOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.URL, "channel.url", o.URL, "Websocket endpoint of the vehicle control process.")
	fs.DurationVar(&o.ReconnectDelay, "channel.reconnect-delay", o.ReconnectDelay, "Fixed delay between automatic reconnect attempts.")
	fs.IntVar(&o.MaxReconnectAttempts, "channel.max-reconnect-attempts", o.MaxReconnectAttempts, "Maximum consecutive automatic reconnect attempts.")
	fs.DurationVar(&o.HeartbeatInterval, "channel.heartbeat-interval", o.HeartbeatInterval, "Liveness ping interval while connected.")
}

// ToClientConfig converts the options to a channel client configuration.
func (o *ChannelOptions) ToClientConfig() *channel.ClientConfig {
	return &channel.ClientConfig{
		URL:                  o.URL,
		ReconnectDelay:       o.ReconnectDelay,
		MaxReconnectAttempts: o.MaxReconnectAttempts,
		HeartbeatInterval:    o.HeartbeatInterval,
	}
}
