package sim

import (
	"math"
	"testing"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

func newFleet(t *testing.T, ids ...string) *fleet.Store {
	t.Helper()
	s := fleet.NewStore(log.NewNopLogger())
	for _, id := range ids {
		s.ApplyStatus(&fleet.StatusMessage{VehicleID: id, Status: fleet.ConnectivityConnected})
	}
	return s
}

func vehicle(t *testing.T, s *fleet.Store, id string) fleet.Vehicle {
	t.Helper()
	v, ok := s.Get(id)
	if !ok {
		t.Fatalf("vehicle %q not found", id)
	}
	return v
}

func TestStepMovesActiveVehicle(t *testing.T) {
	store := newFleet(t, "qcar-0")
	store.SetTargetSpeed("qcar-0", 1.0)
	store.MarkStarted("qcar-0")

	sim := New(DefaultConfig(), store)
	for i := 0; i < 20; i++ {
		sim.Step(0.1)
	}

	v := vehicle(t, store, "qcar-0")
	if v.Telemetry.X <= 0 {
		t.Errorf("x = %v after 2s of driving, want forward motion", v.Telemetry.X)
	}
	if math.Abs(v.Telemetry.Velocity-1.0) > 1e-9 {
		t.Errorf("velocity = %v, want converged on target 1.0", v.Telemetry.Velocity)
	}
	if v.Telemetry.UpdatedAt.IsZero() {
		t.Error("step did not refresh the telemetry timestamp")
	}
}

func TestVelocityConvergesWithinAccelerationBound(t *testing.T) {
	store := newFleet(t, "qcar-0")
	store.SetTargetSpeed("qcar-0", 10.0)
	store.MarkStarted("qcar-0")

	cfg := DefaultConfig()
	sim := New(cfg, store)
	sim.Step(0.1)

	v := vehicle(t, store, "qcar-0")
	want := cfg.Acceleration * 0.1
	if math.Abs(v.Telemetry.Velocity-want) > 1e-9 {
		t.Errorf("velocity after one step = %v, want %v", v.Telemetry.Velocity, want)
	}
}

func TestIdleVehicleDoesNotMove(t *testing.T) {
	store := newFleet(t, "qcar-0")
	store.SetTargetSpeed("qcar-0", 1.0)

	sim := New(DefaultConfig(), store)
	for i := 0; i < 10; i++ {
		sim.Step(0.1)
	}

	v := vehicle(t, store, "qcar-0")
	if v.Telemetry.X != 0 || v.Telemetry.Y != 0 || v.Telemetry.Velocity != 0 {
		t.Errorf("idle vehicle moved: %+v", v.Telemetry)
	}
}

func TestEmergencyStoppedVehicleDoesNotMove(t *testing.T) {
	store := newFleet(t, "qcar-0")
	store.SetTargetSpeed("qcar-0", 1.0)
	store.MarkStarted("qcar-0")
	store.MarkEmergencyStopped("qcar-0")

	sim := New(DefaultConfig(), store)
	sim.Step(0.1)

	if v := vehicle(t, store, "qcar-0"); v.Telemetry.X != 0 {
		t.Errorf("e-stopped vehicle moved to x=%v", v.Telemetry.X)
	}
}

func TestPositionClampedToFieldBounds(t *testing.T) {
	store := newFleet(t, "qcar-0")
	store.SetTargetSpeed("qcar-0", 5.0)
	store.MarkStarted("qcar-0")

	cfg := DefaultConfig()
	cfg.MaxX = 1.0
	sim := New(cfg, store)

	for i := 0; i < 100; i++ {
		sim.Step(0.1)
	}

	v := vehicle(t, store, "qcar-0")
	if v.Telemetry.X > cfg.MaxX {
		t.Errorf("x = %v escaped the field bound %v", v.Telemetry.X, cfg.MaxX)
	}
	if v.Telemetry.X != cfg.MaxX {
		t.Errorf("x = %v, want pinned at the bound %v", v.Telemetry.X, cfg.MaxX)
	}
}

func TestSteeringTurnsHeading(t *testing.T) {
	store := newFleet(t, "qcar-0")
	store.SetTargetSpeed("qcar-0", 1.0)
	left := 1.0
	store.ApplyTelemetry(&fleet.TelemetryMessage{VehicleID: "qcar-0", Steering: &left})
	store.MarkStarted("qcar-0")

	sim := New(DefaultConfig(), store)
	for i := 0; i < 10; i++ {
		sim.Step(0.1)
	}

	v := vehicle(t, store, "qcar-0")
	if v.Telemetry.Theta <= 0 {
		t.Errorf("theta = %v after driving with full left steering, want a left turn", v.Telemetry.Theta)
	}
	if v.Telemetry.Y <= 0 {
		t.Errorf("y = %v, want lateral displacement from turning", v.Telemetry.Y)
	}
}
