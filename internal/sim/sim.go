// Package sim provides the fallback kinematic simulator. It advances
// vehicle poses with a toy bicycle-model integrator so the dashboard stays
// alive when no control process is connected. The station skips the step
// entirely while the real channel is up.
package sim

import (
	"math"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
)

// Config holds the integrator parameters and field bounds.
type Config struct {
	// Wheelbase in meters, used for the steering-to-yaw-rate relation.
	Wheelbase float64

	// Acceleration bound in m/s^2 when converging on the target speed.
	Acceleration float64

	// MaxSteeringAngle in radians at full steering deflection.
	MaxSteeringAngle float64

	// Field bounds in meters. Positions are clamped, never wrapped.
	MinX, MaxX float64
	MinY, MaxY float64
}

// DefaultConfig matches the QCar test field.
func DefaultConfig() Config {
	return Config{
		Wheelbase:        0.256,
		Acceleration:     1.5,
		MaxSteeringAngle: 0.5,
		MinX:             -20,
		MaxX:             20,
		MinY:             -20,
		MaxY:             20,
	}
}

// Simulator integrates vehicle kinematics one tick at a time. All state
// lives in the fleet store; updates flow through the store's regular
// telemetry merge path.
type Simulator struct {
	cfg   Config
	store *fleet.Store
}

func New(cfg Config, store *fleet.Store) *Simulator {
	return &Simulator{cfg: cfg, store: store}
}

// Step advances every driving vehicle by dt seconds. Vehicles that are
// disconnected, idle, stopped or e-stopped do not move.
func (s *Simulator) Step(dt float64) {
	for _, v := range s.store.Snapshot() {
		if v.Status != fleet.StatusActive && v.Status != fleet.StatusManual {
			continue
		}

		t := v.Telemetry

		target := v.TargetSpeed
		if v.Status == fleet.StatusManual {
			target = t.Throttle * v.TargetSpeed
		}

		vel := approach(t.Velocity, target, s.cfg.Acceleration*dt)
		theta := t.Theta + vel/s.cfg.Wheelbase*math.Tan(t.Steering*s.cfg.MaxSteeringAngle)*dt
		x := clamp(t.X+vel*math.Cos(theta)*dt, s.cfg.MinX, s.cfg.MaxX)
		y := clamp(t.Y+vel*math.Sin(theta)*dt, s.cfg.MinY, s.cfg.MaxY)

		s.store.ApplyTelemetry(&fleet.TelemetryMessage{
			VehicleID: v.ID,
			X:         &x,
			Y:         &y,
			Theta:     &theta,
			Velocity:  &vel,
		})
	}
}

func approach(current, target, maxDelta float64) float64 {
	delta := target - current
	if delta > maxDelta {
		delta = maxDelta
	} else if delta < -maxDelta {
		delta = -maxDelta
	}
	return current + delta
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
