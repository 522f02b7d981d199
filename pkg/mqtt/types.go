// Package mqtt wraps the paho MQTT v5 client for the station's egress
// eventing. The ground station only publishes; inbound vehicle traffic
// travels over the websocket channel, not MQTT.
package mqtt

import "context"

// Publisher is the interface the notifier consumes. It abstracts the
// underlying paho implementation.
type Publisher interface {
	// Start initiates the broker connection. Non-blocking; the connection
	// is established (and re-established) in the background.
	Start(ctx context.Context) error

	// Publish sends a message to the given topic.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// AwaitConnection blocks until connected or ctx is done.
	AwaitConnection(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)
}
