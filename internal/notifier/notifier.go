// Package notifier republishes vehicle status transitions to an MQTT
// broker for external ops tooling. Egress only: it never feeds anything
// back into the fleet store.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/pkg/mqtt/paths"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/mqtt"
)

// queueSize bounds buffered transitions; when the broker is unreachable
// for long, the oldest pending events are dropped rather than blocking
// the store's mutation path.
const queueSize = 64

type EventNotifier struct {
	pub       mqtt.Publisher
	topicRoot string
	logger    log.Logger

	queue chan fleet.Transition
	done  chan struct{}
}

// New creates a notifier over the given publisher. Topics are
// <topicRoot>/events/<vehicle-id>.
func New(pub mqtt.Publisher, topicRoot string, logger log.Logger) *EventNotifier {
	if logger == nil {
		logger = log.Std()
	}
	return &EventNotifier{
		pub:       pub,
		topicRoot: topicRoot,
		logger:    logger.WithName("notifier"),
		queue:     make(chan fleet.Transition, queueSize),
		done:      make(chan struct{}),
	}
}

// Start connects the publisher and launches the drain loop. It returns
// once the connection is being established; publishing begins as soon as
// the broker accepts.
func (n *EventNotifier) Start(ctx context.Context) error {
	if err := n.pub.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt publisher: %w", err)
	}
	go n.drain(ctx)
	return nil
}

// Stop flushes nothing and disconnects; pending events are discarded.
func (n *EventNotifier) Stop() {
	close(n.done)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n.pub.Disconnect(ctx)
}

// NotifyTransition enqueues one status transition. Safe to call from the
// fleet store's listener path: it never blocks, dropping the event when
// the queue is full.
func (n *EventNotifier) NotifyTransition(tr fleet.Transition) {
	select {
	case n.queue <- tr:
	default:
		n.logger.Warn("event queue full, dropping transition", "vehicle", tr.VehicleID)
	}
}

// NotifyEmergencyStop publishes a global e-stop flag change. Unlike
// transitions this is not queued; safety state changes are rare and worth
// a direct publish attempt.
func (n *EventNotifier) NotifyEmergencyStop(ctx context.Context, engaged bool) {
	payload, _ := json.Marshal(map[string]any{
		"engaged": engaged,
		"at":      time.Now().UTC(),
	})

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	topic := paths.Join(n.topicRoot, paths.Estop)
	if err := n.pub.Publish(pubCtx, topic, 1, true, payload); err != nil {
		n.logger.Error(err, "publish e-stop change", "topic", topic)
	}
}

func (n *EventNotifier) drain(ctx context.Context) {
	for {
		select {
		case <-n.done:
			return
		case <-ctx.Done():
			return
		case tr := <-n.queue:
			n.publish(ctx, tr)
		}
	}
}

func (n *EventNotifier) publish(ctx context.Context, tr fleet.Transition) {
	payload, err := json.Marshal(tr)
	if err != nil {
		n.logger.Error(err, "encode transition", "vehicle", tr.VehicleID)
		return
	}

	topic := paths.Join(n.topicRoot, paths.Events, tr.VehicleID)

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.pub.Publish(pubCtx, topic, 1, false, payload); err != nil {
		n.logger.Error(err, "publish transition", "topic", topic)
	}
}
