// Package station is the composition root: it owns the channel client,
// the fleet store and the timers, and routes inbound messages and
// operator commands between them.
package station

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/notifier"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/pkg/metrics"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/server"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/sim"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/channel"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

type Station struct {
	logger log.Logger

	channel  channel.Client
	store    *fleet.Store
	sim      *sim.Simulator
	http     *server.Server
	notifier *notifier.EventNotifier

	tickInterval time.Duration
	channelURL   string
}

var _ server.Service = (*Station)(nil)

// Run starts everything and blocks until ctx is canceled or a server
// fails. Teardown is deterministic: subscriptions are disposed, timers
// stopped and the channel disconnected before Run returns.
func (st *Station) Run(ctx context.Context) error {
	unsubTelemetry := st.channel.Subscribe(channel.KindTelemetry, st.onTelemetry)
	unsubStatus := st.channel.Subscribe(channel.KindVehicleStatus, st.onVehicleStatus)
	unsubAll := st.channel.Subscribe(channel.KindAny, st.onAnyMessage)
	unsubConn := st.channel.OnStatusChange(st.onChannelStatus)
	defer func() {
		unsubTelemetry()
		unsubStatus()
		unsubAll()
		unsubConn()
	}()

	if st.notifier != nil {
		if err := st.notifier.Start(ctx); err != nil {
			return fmt.Errorf("failed to start notifier: %w", err)
		}
		defer st.notifier.Stop()
	}

	st.channel.Connect()
	defer st.channel.Disconnect()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return st.http.Start(ctx)
	})

	g.Go(func() error {
		return st.tickLoop(ctx)
	})

	st.logger.Info("ground station running", "channel", st.channelURL)
	return g.Wait()
}

// tickLoop drives the fallback physics and the global e-stop enforcement.
// It runs for the life of the station; the physics step becomes a no-op
// per vehicle while the real channel feeds telemetry.
func (st *Station) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(st.tickInterval)
	defer ticker.Stop()

	dt := st.tickInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if st.channel.Status() != channel.StatusConnected {
				st.sim.Step(dt)
			}
			st.store.Tick()
			metrics.VehiclesTracked.Set(float64(st.store.Count()))
		}
	}
}

// Dispatch sends one command over the channel and applies the optimistic
// local status transitions that go with it. Failures are reported to the
// caller and recorded in the operator log; commands are never retried.
func (st *Station) Dispatch(cmd channel.Command) error {
	kind := cmd.Kind()
	target := cmd.Target()

	if err := st.channel.Send(cmd); err != nil {
		metrics.CommandsSentTotal.WithLabelValues(kind, "failed").Inc()
		st.store.AppendLog(fleet.SeverityError, vehicleIDForLog(target),
			fmt.Sprintf("command %s failed: %v", kind, err))
		return err
	}

	metrics.CommandsSentTotal.WithLabelValues(kind, "success").Inc()
	st.store.AppendLog(fleet.SeverityInfo, vehicleIDForLog(target),
		fmt.Sprintf("command %s dispatched to %s", kind, target))

	st.applyOptimistic(cmd)
	return nil
}

// applyOptimistic mirrors the command's expected effect into the local
// snapshot ahead of any acknowledgment from the control process.
func (st *Station) applyOptimistic(cmd channel.Command) {
	target := cmd.Target()

	switch cmd.Kind() {
	case "start":
		st.forTargets(target, st.store.MarkStarted)
	case "stop":
		st.forTargets(target, st.store.MarkStopped)
	case "emergency_stop":
		st.forTargets(target, st.store.MarkEmergencyStopped)
	case "set_velocity":
		if v, ok := cmd["v_ref"].(float64); ok {
			st.forTargets(target, func(id string) { st.store.SetTargetSpeed(id, v) })
		}
	case "set_longitudinal_controller":
		if c, ok := cmd["controller"].(string); ok {
			st.forTargets(target, func(id string) {
				st.store.SetSelection(id, fleet.Selection{LongitudinalController: c})
			})
		}
	case "set_lateral_controller":
		if c, ok := cmd["controller"].(string); ok {
			st.forTargets(target, func(id string) {
				st.store.SetSelection(id, fleet.Selection{LateralController: c})
			})
		}
	case "set_local_observer":
		if o, ok := cmd["observer"].(string); ok {
			st.forTargets(target, func(id string) {
				st.store.SetSelection(id, fleet.Selection{LocalObserver: o})
			})
		}
	case "set_fleet_observer":
		if o, ok := cmd["observer"].(string); ok {
			st.forTargets(target, func(id string) {
				st.store.SetSelection(id, fleet.Selection{FleetObserver: o})
			})
		}
	}
}

func (st *Station) forTargets(target string, fn func(id string)) {
	if target != channel.Broadcast {
		fn(target)
		return
	}
	for _, v := range st.store.Snapshot() {
		fn(v.ID)
	}
}

// SetGlobalEmergencyStop engages or releases the fleet-wide e-stop. The
// local flag is always set first so the tick loop enforces the safe state
// even when the broadcast never reaches the control process.
func (st *Station) SetGlobalEmergencyStop(engaged bool) error {
	st.store.SetGlobalEmergencyStop(engaged)
	if st.notifier != nil {
		st.notifier.NotifyEmergencyStop(context.Background(), engaged)
	}
	if !engaged {
		return nil
	}
	return st.Dispatch(channel.EmergencyStop(channel.Broadcast))
}

// Connection implements server.Service.
func (st *Station) Connection() server.ConnectionInfo {
	return server.ConnectionInfo{
		Status:   st.channel.Status(),
		Attempts: st.channel.Attempts(),
		URL:      st.channelURL,
	}
}

// onTelemetry consumes telemetry and v2v_status frames.
func (st *Station) onTelemetry(kind channel.MessageKind, payload []byte) {
	msg, err := fleet.DecodeTelemetry(payload)
	if err != nil || msg.VehicleID == "" {
		metrics.DecodeFailuresTotal.Inc()
		st.logger.Warn("dropping undecodable frame", "kind", string(kind), err)
		return
	}
	st.store.ApplyTelemetry(msg)
}

func (st *Station) onVehicleStatus(kind channel.MessageKind, payload []byte) {
	msg, err := fleet.DecodeStatus(payload)
	if err != nil || msg.VehicleID == "" {
		metrics.DecodeFailuresTotal.Inc()
		st.logger.Warn("dropping undecodable frame", "kind", string(kind), err)
		return
	}
	st.store.ApplyStatus(msg)
	metrics.VehiclesTracked.Set(float64(st.store.Count()))
}

// onAnyMessage observes every inbound frame for accounting only.
func (st *Station) onAnyMessage(kind channel.MessageKind, _ []byte) {
	metrics.MessagesReceivedTotal.WithLabelValues(string(kind)).Inc()
}

func (st *Station) onChannelStatus(s channel.Status) {
	switch s {
	case channel.StatusConnected:
		metrics.ChannelConnectivityStatus.Set(1)
		st.store.AppendLog(fleet.SeverityInfo, "", "control channel connected")
	case channel.StatusConnecting:
		metrics.ChannelConnectivityStatus.Set(0)
		if st.channel.Attempts() > 0 {
			metrics.ReconnectAttemptsTotal.Inc()
		}
	default:
		metrics.ChannelConnectivityStatus.Set(0)
		st.store.AppendLog(fleet.SeverityWarn, "", "control channel disconnected")
	}
}

func vehicleIDForLog(target string) string {
	if target == channel.Broadcast {
		return ""
	}
	return target
}
