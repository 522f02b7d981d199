package options

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/mqtt"
)

var _ IOptions = (*MqttOptions)(nil)

// MqttOptions configures the optional event notifier egress. The notifier
// stays disabled while Broker is empty.
type MqttOptions struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// KeepAlive interval for the broker connection.
	KeepAlive time.Duration `json:"keep-alive" mapstructure:"keep-alive"`

	// ConnectTimeout for establishing the broker connection.
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`

	// InsecureSkipVerify disables TLS certificate verification. Only for
	// brokers running self-signed certificates.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// TopicRoot prefixes every published topic.
	TopicRoot string `json:"topic-root" mapstructure:"topic-root"`
}

// NewMqttOptions creates MqttOptions with default values. Broker is left
// empty so the notifier is opt-in.
func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		KeepAlive:      60 * time.Second,
		ConnectTimeout: 5 * time.Second,
		TopicRoot:      "groundstation/v1",
	}
}

// Enabled reports whether a broker has been configured.
func (o *MqttOptions) Enabled() bool {
	return o != nil && o.Broker != ""
}

// Validate checks the option values.
func (o *MqttOptions) Validate() []error {
	if o == nil || !o.Enabled() {
		return nil
	}

	var errs []error
	if err := o.ToPublisherConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AddFlags registers notifier flags on the given flag set.
func (o *MqttOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Broker, "mqtt.broker", o.Broker, "MQTT broker URL for event egress. Empty disables the notifier.")
	fs.StringVar(&o.Username, "mqtt.username", o.Username, "Username for MQTT authentication.")
	fs.StringVar(&o.Password, "mqtt.password", o.Password, "Password for MQTT authentication.")
	fs.StringVar(&o.ClientID, "mqtt.client-id", o.ClientID, "Explicit MQTT client ID (optional).")
	fs.DurationVar(&o.KeepAlive, "mqtt.keep-alive", o.KeepAlive, "MQTT keep-alive interval.")
	fs.DurationVar(&o.ConnectTimeout, "mqtt.connect-timeout", o.ConnectTimeout, "Timeout for establishing the MQTT connection.")
	fs.BoolVar(&o.InsecureSkipVerify, "mqtt.insecure-skip-verify", o.InsecureSkipVerify, "Skip TLS certificate verification.")
	fs.StringVar(&o.TopicRoot, "mqtt.topic-root", o.TopicRoot, "Topic prefix for published events.")
}

// ToPublisherConfig converts the options to a publisher configuration.
func (o *MqttOptions) ToPublisherConfig() *mqtt.PublisherConfig {
	return &mqtt.PublisherConfig{
		BrokerURL:          o.Broker,
		ClientID:           o.ClientID,
		Username:           o.Username,
		Password:           o.Password,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		ConnectTimeout:     o.ConnectTimeout,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
}
