package station

import (
	"fmt"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/notifier"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/server"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/sim"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/channel"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/mqtt"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/options"
)

// Config aggregates the per-concern options the station is built from.
type Config struct {
	ChannelOptions *options.ChannelOptions
	HttpOptions    *options.HttpOptions
	MqttOptions    *options.MqttOptions
	SimOptions     *options.SimOptions
}

// NewStation wires the channel client, fleet store, simulator, HTTP API
// and optional event notifier into a runnable station.
func (cfg *Config) NewStation(logger log.Logger) (*Station, error) {
	if logger == nil {
		logger = log.Std()
	}

	client, err := channel.NewClient(cfg.ChannelOptions.ToClientConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init channel client: %w", err)
	}

	store := fleet.NewStore(logger)

	simCfg := sim.DefaultConfig()
	simCfg.MinX = cfg.SimOptions.FieldMinX
	simCfg.MaxX = cfg.SimOptions.FieldMaxX
	simCfg.MinY = cfg.SimOptions.FieldMinY
	simCfg.MaxY = cfg.SimOptions.FieldMaxY

	st := &Station{
		logger:       logger.WithName("station"),
		channel:      client,
		store:        store,
		sim:          sim.New(simCfg, store),
		tickInterval: cfg.SimOptions.TickInterval,
		channelURL:   cfg.ChannelOptions.URL,
	}

	st.http = server.New(cfg.HttpOptions, store, st, logger)

	if cfg.MqttOptions.Enabled() {
		pub, err := mqtt.NewPublisher(cfg.MqttOptions.ToPublisherConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt publisher: %w", err)
		}
		st.notifier = notifier.New(pub, cfg.MqttOptions.TopicRoot, logger)
		store.OnTransition(st.notifier.NotifyTransition)
	}

	return st, nil
}
