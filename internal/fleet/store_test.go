package fleet

import (
	"fmt"
	"testing"
	"time"

	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

func newTestStore() *Store {
	return NewStore(log.NewNopLogger())
}

func connect(t *testing.T, s *Store, id string) {
	t.Helper()
	s.ApplyStatus(&StatusMessage{VehicleID: id, Status: ConnectivityConnected})
}

func telemetryFrame(t *testing.T, raw string) *TelemetryMessage {
	t.Helper()
	msg, err := DecodeTelemetry([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeTelemetry(%q): %v", raw, err)
	}
	return msg
}

func mustGet(t *testing.T, s *Store, id string) Vehicle {
	t.Helper()
	v, ok := s.Get(id)
	if !ok {
		t.Fatalf("vehicle %q not found", id)
	}
	return v
}

func TestConnectCreatesVehicle(t *testing.T) {
	s := newTestStore()

	s.ApplyStatus(&StatusMessage{VehicleID: "qcar-3", Status: ConnectivityConnected, IP: "192.168.1.13", Port: 5003})

	v := mustGet(t, s, "qcar-3")
	if v.Status != StatusIdle {
		t.Errorf("status = %q, want %q", v.Status, StatusIdle)
	}
	if v.DisplayName != "qcar-3" {
		t.Errorf("display name = %q, want the id", v.DisplayName)
	}
	if v.Telemetry.Battery != 100 {
		t.Errorf("battery = %v, want 100", v.Telemetry.Battery)
	}
	if v.IP != "192.168.1.13" || v.Port != 5003 {
		t.Errorf("endpoint = %s:%d, want 192.168.1.13:5003", v.IP, v.Port)
	}

	// A repeated connect must not duplicate or reset the vehicle.
	s.SetDisplayName("qcar-3", "lead car")
	connect(t, s, "qcar-3")
	if s.Count() != 1 {
		t.Fatalf("count = %d after duplicate connect, want 1", s.Count())
	}
	if got := mustGet(t, s, "qcar-3"); got.DisplayName != "lead car" {
		t.Errorf("duplicate connect reset display name to %q", got.DisplayName)
	}
}

func TestReconnectReturnsVehicleToIdle(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")
	s.MarkStarted("qcar-0")
	s.ApplyStatus(&StatusMessage{VehicleID: "qcar-0", Status: ConnectivityDisconnected})

	connect(t, s, "qcar-0")

	if v := mustGet(t, s, "qcar-0"); v.Status != StatusIdle {
		t.Errorf("status after reconnect = %q, want %q", v.Status, StatusIdle)
	}
}

func TestDisconnectFreezesSnapshot(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")
	s.ApplyTelemetry(telemetryFrame(t, `{"vehicle_id":"qcar-0","x":2.5,"y":-1.0,"theta":0.7,"battery":81.5}`))

	s.ApplyStatus(&StatusMessage{VehicleID: "qcar-0", Status: ConnectivityDisconnected})

	v := mustGet(t, s, "qcar-0")
	if v.Status != StatusDisconnected {
		t.Fatalf("status = %q, want %q", v.Status, StatusDisconnected)
	}
	if v.Telemetry.X != 2.5 || v.Telemetry.Y != -1.0 || v.Telemetry.Theta != 0.7 || v.Telemetry.Battery != 81.5 {
		t.Errorf("disconnect clobbered the last-known snapshot: %+v", v.Telemetry)
	}

	// Disconnect for an id never seen must not create anything.
	s.ApplyStatus(&StatusMessage{VehicleID: "ghost", Status: ConnectivityDisconnected})
	if _, ok := s.Get("ghost"); ok {
		t.Error("disconnect created a vehicle")
	}
}

func TestTelemetryMergeKeepsAbsentFields(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")

	s.ApplyTelemetry(telemetryFrame(t, `{"vehicle_id":"qcar-0","x":1.0,"y":2.0,"velocity":0.9,"gps_valid":true,"battery":77.0}`))

	// A sparse frame carrying only explicit zeros and falses: those fields
	// are applied, everything absent keeps its value.
	s.ApplyTelemetry(telemetryFrame(t, `{"vehicle_id":"qcar-0","velocity":0,"gps_valid":false}`))

	v := mustGet(t, s, "qcar-0")
	if v.Telemetry.Velocity != 0 {
		t.Errorf("explicit zero velocity not applied: %v", v.Telemetry.Velocity)
	}
	if v.Telemetry.GPSValid {
		t.Error("explicit false gps_valid not applied")
	}
	if v.Telemetry.X != 1.0 || v.Telemetry.Y != 2.0 || v.Telemetry.Battery != 77.0 {
		t.Errorf("absent fields regressed: %+v", v.Telemetry)
	}
}

func TestTelemetryFieldAliases(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		check func(Telemetry) error
	}{
		{
			name:  "abbreviated spellings decode",
			frame: `{"vehicle_id":"qcar-0","th":0.5,"v":1.1,"thr":0.3,"st":-0.2}`,
			check: func(tm Telemetry) error {
				if tm.Theta != 0.5 || tm.Velocity != 1.1 || tm.Throttle != 0.3 || tm.Steering != -0.2 {
					return fmt.Errorf("got %+v", tm)
				}
				return nil
			},
		},
		{
			name:  "full name wins over abbreviation",
			frame: `{"vehicle_id":"qcar-0","theta":1.0,"th":9.0,"velocity":2.0,"v":9.0}`,
			check: func(tm Telemetry) error {
				if tm.Theta != 1.0 || tm.Velocity != 2.0 {
					return fmt.Errorf("got theta=%v velocity=%v", tm.Theta, tm.Velocity)
				}
				return nil
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore()
			connect(t, s, "qcar-0")
			s.ApplyTelemetry(telemetryFrame(t, tc.frame))
			if err := tc.check(mustGet(t, s, "qcar-0").Telemetry); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestTelemetryForUnknownVehicleDropped(t *testing.T) {
	s := newTestStore()

	s.ApplyTelemetry(telemetryFrame(t, `{"vehicle_id":"qcar-9","x":1.0}`))

	if s.Count() != 0 {
		t.Error("telemetry created a vehicle; only connect status messages may")
	}
}

func TestRawStateLabelIsVerbatim(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")

	s.ApplyTelemetry(telemetryFrame(t, `{"vehicle_id":"qcar-0","state":"WAITING_FOR_GPS_LOCK"}`))

	v := mustGet(t, s, "qcar-0")
	if v.Telemetry.RawState != "WAITING_FOR_GPS_LOCK" {
		t.Errorf("raw state = %q, want the label verbatim", v.Telemetry.RawState)
	}
	if v.Status != StatusIdle {
		t.Errorf("raw state label changed the connectivity status to %q", v.Status)
	}
}

func TestLocalTransitions(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")

	s.MarkStarted("qcar-0")
	if v := mustGet(t, s, "qcar-0"); v.Status != StatusActive {
		t.Errorf("after start: %q", v.Status)
	}

	s.MarkStopped("qcar-0")
	if v := mustGet(t, s, "qcar-0"); v.Status != StatusStopped {
		t.Errorf("after stop: %q", v.Status)
	}

	s.SetTargetSpeed("qcar-0", 1.5)
	s.MarkEmergencyStopped("qcar-0")
	v := mustGet(t, s, "qcar-0")
	if v.Status != StatusEmergencyStop {
		t.Errorf("after e-stop: %q", v.Status)
	}
	if v.TargetSpeed != 0 {
		t.Errorf("e-stop left target speed %v", v.TargetSpeed)
	}

	// Transitions for unknown ids are no-ops, never creations.
	s.MarkStarted("ghost")
	if _, ok := s.Get("ghost"); ok {
		t.Error("local transition created a vehicle")
	}
}

func TestGlobalEmergencyStopEnforcedEveryTick(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")
	connect(t, s, "qcar-1")
	s.MarkStarted("qcar-0")
	s.SetTargetSpeed("qcar-0", 2.0)

	s.SetGlobalEmergencyStop(true)
	s.Tick()

	for _, v := range s.Snapshot() {
		if v.Status != StatusEmergencyStop {
			t.Errorf("%s status = %q after tick, want %q", v.ID, v.Status, StatusEmergencyStop)
		}
		if v.TargetSpeed != 0 {
			t.Errorf("%s target speed = %v after tick, want 0", v.ID, v.TargetSpeed)
		}
	}

	// A vehicle joining while the flag is engaged converges on the next tick.
	connect(t, s, "qcar-2")
	s.Tick()
	if v := mustGet(t, s, "qcar-2"); v.Status != StatusEmergencyStop {
		t.Errorf("late joiner status = %q, want %q", v.Status, StatusEmergencyStop)
	}

	s.SetGlobalEmergencyStop(false)
	s.MarkStarted("qcar-0")
	s.Tick()
	if v := mustGet(t, s, "qcar-0"); v.Status != StatusActive {
		t.Errorf("release did not stop enforcement: %q", v.Status)
	}
}

func TestSetSelectionIsPartial(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")

	s.SetSelection("qcar-0", Selection{LongitudinalController: "pid", LocalObserver: "ekf"})
	s.SetSelection("qcar-0", Selection{LateralController: "stanley"})

	v := mustGet(t, s, "qcar-0")
	if v.LongitudinalController != "pid" || v.LocalObserver != "ekf" || v.LateralController != "stanley" {
		t.Errorf("selection = %+v", v)
	}
	if ok := s.SetSelection("ghost", Selection{LocalObserver: "ekf"}); ok {
		t.Error("selection for unknown vehicle reported ok")
	}
}

func TestSnapshotSortedByID(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"qcar-2", "qcar-0", "qcar-1"} {
		connect(t, s, id)
	}

	snap := s.Snapshot()
	want := []string{"qcar-0", "qcar-1", "qcar-2"}
	if len(snap) != len(want) {
		t.Fatalf("snapshot has %d vehicles, want %d", len(snap), len(want))
	}
	for i, v := range snap {
		if v.ID != want[i] {
			t.Fatalf("snapshot order: got %q at %d, want %q", v.ID, i, want[i])
		}
	}
}

func TestLogBufferCapNewestFirst(t *testing.T) {
	s := newTestStore()
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	i := 0
	s.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Millisecond)
	}

	for n := 0; n < LogCapacity+10; n++ {
		s.AppendLog(SeverityInfo, "", fmt.Sprintf("entry %d", n))
	}

	logs := s.Logs()
	if len(logs) != LogCapacity {
		t.Fatalf("retained %d entries, want %d", len(logs), LogCapacity)
	}
	if logs[0].Message != fmt.Sprintf("entry %d", LogCapacity+9) {
		t.Errorf("first entry = %q, want the newest", logs[0].Message)
	}
	if logs[len(logs)-1].Message != "entry 10" {
		t.Errorf("last entry = %q, want the oldest retained", logs[len(logs)-1].Message)
	}
	if !logs[0].Time.After(logs[1].Time) {
		t.Error("entries are not newest first")
	}
}

func TestTransitionListener(t *testing.T) {
	s := newTestStore()
	var got []Transition
	s.OnTransition(func(tr Transition) { got = append(got, tr) })

	connect(t, s, "qcar-0") // creation is not a transition
	s.MarkStarted("qcar-0")
	s.MarkStarted("qcar-0") // same status, no event

	if len(got) != 1 {
		t.Fatalf("listener saw %d transitions, want 1: %v", len(got), got)
	}
	tr := got[0]
	if tr.VehicleID != "qcar-0" || tr.From != StatusIdle || tr.To != StatusActive {
		t.Errorf("transition = %+v", tr)
	}
}

func TestStatusTransitionsAppearInLogs(t *testing.T) {
	s := newTestStore()
	connect(t, s, "qcar-0")
	s.ApplyStatus(&StatusMessage{VehicleID: "qcar-0", Status: ConnectivityDisconnected})

	logs := s.Logs()
	if len(logs) == 0 {
		t.Fatal("no log entries recorded")
	}
	if logs[0].Severity != SeverityWarn {
		t.Errorf("disconnect logged at %q, want %q", logs[0].Severity, SeverityWarn)
	}
	if logs[0].VehicleID != "qcar-0" {
		t.Errorf("log entry vehicle = %q", logs[0].VehicleID)
	}
}
