package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

type pahoPublisher struct {
	cfg    *PublisherConfig
	logger log.Logger
	cm     *autopaho.ConnectionManager
}

var _ Publisher = (*pahoPublisher)(nil)

// NewPublisher creates an MQTT publisher. The connection is not opened
// until Start.
func NewPublisher(cfg *PublisherConfig, logger log.Logger) (Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mqtt config is required")
	}

	setDefaultConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	if logger == nil {
		logger = log.Std()
	}

	return &pahoPublisher{
		cfg:    cfg,
		logger: logger.WithName("mqtt"),
	}, nil
}

func (p *pahoPublisher) Start(ctx context.Context) error {
	brokerURL, _ := url.Parse(p.cfg.BrokerURL) // Already validated

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:       []*url.URL{brokerURL},
		KeepAlive:        p.cfg.KeepAlive,
		ReconnectBackoff: autopaho.NewConstantBackoff(3 * time.Second),
		ConnectTimeout:   p.cfg.ConnectTimeout,
		ConnectUsername:  p.cfg.Username,
		ConnectPassword:  []byte(p.cfg.Password),
		TlsCfg: &tls.Config{
			InsecureSkipVerify: p.cfg.InsecureSkipVerify,
		},
		WillMessage: p.willMessage(),
		ClientConfig: paho.ClientConfig{
			ClientID:      p.cfg.ClientID,
			OnClientError: p.onClientError,
		},
		OnConnectionUp: p.onConnectionUp,
		OnConnectError: p.onConnectError,
	}

	p.logger.Info("starting mqtt publisher", "broker", p.cfg.BrokerURL, "clientID", p.cfg.ClientID)

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return err
	}
	p.cm = cm
	return nil
}

func (p *pahoPublisher) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	if p.cm == nil {
		return fmt.Errorf("publisher not started")
	}

	_, err := p.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	})
	return err
}

func (p *pahoPublisher) AwaitConnection(ctx context.Context) error {
	if p.cm == nil {
		return fmt.Errorf("publisher not started")
	}
	return p.cm.AwaitConnection(ctx)
}

func (p *pahoPublisher) Disconnect(ctx context.Context) {
	if p.cm != nil {
		_ = p.cm.Disconnect(ctx)
		p.logger.Info("mqtt publisher disconnected")
	}
}

func (p *pahoPublisher) willMessage() *paho.WillMessage {
	if p.cfg.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   p.cfg.WillTopic,
		Payload: p.cfg.WillPayload,
		QoS:     p.cfg.WillQoS,
		Retain:  p.cfg.WillRetain,
	}
}

func (p *pahoPublisher) onConnectionUp(_ *autopaho.ConnectionManager, _ *paho.Connack) {
	p.logger.Info("mqtt connection established")
}

func (p *pahoPublisher) onConnectError(err error) {
	p.logger.Error(err, "mqtt connection failed, retrying")
}

func (p *pahoPublisher) onClientError(err error) {
	p.logger.Error(err, "mqtt client internal error")
}
