package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/station"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/options"
)

// StationOptions aggregates every per-concern options struct the daemon
// accepts, via flags or a config file.
type StationOptions struct {
	Channel *options.ChannelOptions `json:"channel" mapstructure:"channel"`
	Http    *options.HttpOptions    `json:"http" mapstructure:"http"`
	Mqtt    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	Sim     *options.SimOptions     `json:"sim" mapstructure:"sim"`
	Log     *log.Options            `json:"log" mapstructure:"log"`
}

// NewStationOptions creates StationOptions with default values.
func NewStationOptions() *StationOptions {
	return &StationOptions{
		Channel: options.NewChannelOptions(),
		Http:    options.NewHttpOptions(),
		Mqtt:    options.NewMqttOptions(),
		Sim:     options.NewSimOptions(),
		Log:     log.NewOptions(),
	}
}

// AddFlags registers all option flags on the given flag set.
func (o *StationOptions) AddFlags(fs *pflag.FlagSet) {
	o.Channel.AddFlags(fs)
	o.Http.AddFlags(fs)
	o.Mqtt.AddFlags(fs)
	o.Sim.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Validate aggregates validation across every options struct.
func (o *StationOptions) Validate() error {
	var errs []error
	errs = append(errs, o.Channel.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Sim.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

// Config converts the options to a station configuration.
func (o *StationOptions) Config() *station.Config {
	return &station.Config{
		ChannelOptions: o.Channel,
		HttpOptions:    o.Http,
		MqttOptions:    o.Mqtt,
		SimOptions:     o.Sim,
	}
}
